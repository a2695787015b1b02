// Package analytics adapts the hit counter service to the event read path:
// cached view lookups and best-effort hit recording.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/ewm-service/pkg/stats"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const eventURIPrefix = "/events/"

func EventURI(id uint) string {
	return eventURIPrefix + strconv.FormatUint(uint64(id), 10)
}

// EventIDFromURI is the inverse of EventURI.
func EventIDFromURI(uri string) (uint, bool) {
	rest, ok := strings.CutPrefix(uri, eventURIPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

type StatsAPI interface {
	Hit(ctx context.Context, hit stats.Hit) error
	Stats(ctx context.Context, q stats.StatsQuery) ([]stats.ViewStats, error)
}

// ViewCounter returns unique view counts per event, caching each answer
// for a short TTL.
type ViewCounter struct {
	api     StatsAPI
	cache   *expirable.LRU[uint, int64]
	timeout time.Duration
}

func NewViewCounter(api StatsAPI, size int, ttl, timeout time.Duration) *ViewCounter {
	if size <= 0 {
		size = 1
	}
	return &ViewCounter{
		api:     api,
		cache:   expirable.NewLRU[uint, int64](size, nil, ttl),
		timeout: timeout,
	}
}

// Views returns a count for every id; ids unknown to the hit counter count 0.
// On a lookup failure the cached part is returned together with the error.
func (v *ViewCounter) Views(ctx context.Context, ids []uint) (map[uint]int64, error) {
	views := make(map[uint]int64, len(ids))
	var missing []string
	for _, id := range ids {
		if n, ok := v.cache.Get(id); ok {
			views[id] = n
			continue
		}
		if _, queued := views[id]; queued {
			continue
		}
		views[id] = 0
		missing = append(missing, EventURI(id))
	}
	if len(missing) == 0 {
		return views, nil
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	rows, err := v.api.Stats(ctx, stats.StatsQuery{URIs: missing, Unique: true})
	if err != nil {
		return views, fmt.Errorf("view lookup: %w", err)
	}

	fetched := make(map[uint]int64, len(rows))
	for _, row := range rows {
		if id, ok := EventIDFromURI(row.URI); ok {
			fetched[id] += row.Hits
		}
	}
	for _, uri := range missing {
		id, _ := EventIDFromURI(uri)
		n := fetched[id]
		views[id] = n
		v.cache.Add(id, n)
	}
	return views, nil
}

// Forget drops a cached count so the next lookup goes to the hit counter.
func (v *ViewCounter) Forget(id uint) {
	v.cache.Remove(id)
}
