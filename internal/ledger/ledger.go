// Package ledger holds the capacity predicate and the per-event exclusion
// used by every path that changes an event's confirmed count.
package ledger

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Exhausted reports whether an event with the given participant limit has
// no free seat left. A limit of zero means unlimited.
func Exhausted(limit, confirmed int) bool {
	return limit > 0 && confirmed >= limit
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker serializes work per event id. Entries are created on demand and
// dropped once nobody holds or waits for them.
type Locker struct {
	mu      sync.Mutex
	entries map[uint]*entry
}

func NewLocker() *Locker {
	return &Locker{entries: make(map[uint]*entry)}
}

// Acquire blocks until the event's lock is held or ctx is done.
func (l *Locker) Acquire(ctx context.Context, eventID uint) error {
	l.mu.Lock()
	e, ok := l.entries[eventID]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[eventID] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.drop(eventID, e)
		return err
	}
	return nil
}

func (l *Locker) Release(eventID uint) {
	l.mu.Lock()
	e, ok := l.entries[eventID]
	l.mu.Unlock()
	if !ok {
		return
	}
	e.sem.Release(1)
	l.drop(eventID, e)
}

func (l *Locker) drop(eventID uint, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, eventID)
	}
}

// Len is the number of events with a live lock entry.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
