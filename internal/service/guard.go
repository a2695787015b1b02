package service

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/ledger"
	"github.com/Eursukkul/ewm-service/internal/metrics"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"gorm.io/gorm"
)

// EventGuard runs work on one event under the in-process per-event lock and
// a single database transaction. Every path that changes an event's state,
// its requests' statuses or its ledger entry goes through Run.
type EventGuard struct {
	locker  *ledger.Locker
	tx      repository.Transactor
	timeout time.Duration
	obs     *metrics.Observer
}

func NewEventGuard(locker *ledger.Locker, tx repository.Transactor, timeout time.Duration, obs *metrics.Observer) *EventGuard {
	return &EventGuard{locker: locker, tx: tx, timeout: timeout, obs: obs}
}

func (g *EventGuard) Run(ctx context.Context, eventID uint, fn func(tx *gorm.DB) error) error {
	lockCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := g.locker.Acquire(lockCtx, eventID); err != nil {
		g.obs.RecordLockWait(time.Since(start), false)
		return apperr.Unavailable(err, "event id=%d is busy, retry later", eventID)
	}
	g.obs.RecordLockWait(time.Since(start), true)
	defer g.locker.Release(eventID)

	return storeErr(g.tx.Transaction(ctx, fn))
}

// storeErr classifies storage failures that have a stable meaning for callers.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrLockTimeout):
		return apperr.Unavailable(err, "event is locked by another operation, retry later")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("request", nil, "an active participation request already exists")
	}
	return err
}

// notFound turns a missing-record error into apperr.NotFound and passes any
// other failure through.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}
