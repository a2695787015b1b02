// Package metrics exports admission and analytics counters to Prometheus.
// A nil *Observer is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ewm"

type Observer struct {
	decisions     *prometheus.CounterVec
	lockWait      prometheus.Histogram
	lockTimeouts  prometheus.Counter
	viewsDegraded prometheus.Counter
	hitsDropped   prometheus.Counter
	ledgerDrift   prometheus.Counter
}

func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "decisions_total",
			Help:      "Request status decisions made by the admission controller.",
		}, []string{"status"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-event lock.",
			Buckets:   prometheus.DefBuckets,
		}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "lock_timeouts_total",
			Help:      "Operations refused because the per-event lock was not acquired in time.",
		}),
		viewsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "view_lookups_degraded_total",
			Help:      "View lookups that fell back to zero because the hit counter failed.",
		}),
		hitsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "hits_dropped_total",
			Help:      "Hits that could not be recorded.",
		}),
		ledgerDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "ledger_repairs_total",
			Help:      "Reconciliations that found and repaired a ledger mismatch.",
		}),
	}

	var err error
	if o.decisions, err = register(reg, o.decisions); err != nil {
		return nil, err
	}
	if o.lockWait, err = register(reg, o.lockWait); err != nil {
		return nil, err
	}
	if o.lockTimeouts, err = register(reg, o.lockTimeouts); err != nil {
		return nil, err
	}
	if o.viewsDegraded, err = register(reg, o.viewsDegraded); err != nil {
		return nil, err
	}
	if o.hitsDropped, err = register(reg, o.hitsDropped); err != nil {
		return nil, err
	}
	if o.ledgerDrift, err = register(reg, o.ledgerDrift); err != nil {
		return nil, err
	}
	return o, nil
}

// register returns the already registered collector when reg has one with
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

func (o *Observer) RecordDecision(status string) {
	if o == nil {
		return
	}
	o.decisions.WithLabelValues(status).Inc()
}

func (o *Observer) RecordLockWait(d time.Duration, acquired bool) {
	if o == nil {
		return
	}
	o.lockWait.Observe(d.Seconds())
	if !acquired {
		o.lockTimeouts.Inc()
	}
}

func (o *Observer) RecordViewsDegraded() {
	if o == nil {
		return
	}
	o.viewsDegraded.Inc()
}

func (o *Observer) RecordHitDropped() {
	if o == nil {
		return
	}
	o.hitsDropped.Inc()
}

func (o *Observer) RecordLedgerRepair() {
	if o == nil {
		return
	}
	o.ledgerDrift.Inc()
}
