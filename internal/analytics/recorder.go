package analytics

import (
	"context"
	"time"

	"github.com/Eursukkul/ewm-service/pkg/stats"
)

const HitRoutingKey = "stats.hit"

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// QueueRecorder hands hits to the broker; HitConsumer forwards them.
type QueueRecorder struct {
	pub Publisher
	app string
	now func() time.Time
}

func NewQueueRecorder(pub Publisher, app string) *QueueRecorder {
	return &QueueRecorder{pub: pub, app: app, now: time.Now}
}

func (r *QueueRecorder) RecordHit(ctx context.Context, uri, ip string) error {
	return r.pub.Publish(ctx, HitRoutingKey, newHit(r.app, uri, ip, r.now()))
}

// Deferred reports that a recorded hit reaches the hit counter later, once
// HitConsumer forwards it.
func (r *QueueRecorder) Deferred() bool { return true }

// DirectRecorder posts hits straight to the hit counter.
type DirectRecorder struct {
	api     StatsAPI
	app     string
	timeout time.Duration
	now     func() time.Time
}

func NewDirectRecorder(api StatsAPI, app string, timeout time.Duration) *DirectRecorder {
	return &DirectRecorder{api: api, app: app, timeout: timeout, now: time.Now}
}

func (r *DirectRecorder) RecordHit(ctx context.Context, uri, ip string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.api.Hit(ctx, newHit(r.app, uri, ip, r.now()))
}

func newHit(app, uri, ip string, at time.Time) stats.Hit {
	return stats.Hit{App: app, URI: uri, IP: ip, Timestamp: stats.Time{Time: at}}
}
