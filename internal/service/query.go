package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/ledger"
	"github.com/Eursukkul/ewm-service/internal/metrics"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"golang.org/x/sync/errgroup"
)

type SortKey string

const (
	SortNone      SortKey = ""
	SortEventDate SortKey = "EVENT_DATE"
	SortViews     SortKey = "VIEWS"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNone, SortEventDate, SortViews:
		return k, nil
	}
	return "", apperr.Validation("sort", s, "must be %s or %s", SortEventDate, SortViews)
}

type PublicSearch struct {
	Text          string
	Categories    []uint
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          SortKey
	From          int
	Size          int
}

type AdminSearch struct {
	Users      []uint
	States     []models.EventState
	Categories []uint
	RangeStart *time.Time
	RangeEnd   *time.Time
	Sort       SortKey
	From       int
	Size       int
}

// Visit identifies the caller of a public read for hit recording.
type Visit struct {
	URI string
	IP  string
}

type ViewCounter interface {
	Views(ctx context.Context, ids []uint) (map[uint]int64, error)
	Forget(id uint)
}

type HitRecorder interface {
	RecordHit(ctx context.Context, uri, ip string) error
}

// deferredRecorder is implemented by recorders that deliver hits
// asynchronously. Whoever completes the delivery refreshes the view cache.
type deferredRecorder interface {
	Deferred() bool
}

func isDeferred(r HitRecorder) bool {
	d, ok := r.(deferredRecorder)
	return ok && d.Deferred()
}

type QueryService interface {
	SearchEvents(ctx context.Context, search PublicSearch, visit Visit) ([]models.Event, error)
	SearchEventsAdmin(ctx context.Context, search AdminSearch) ([]models.Event, error)
	GetPublishedEvent(ctx context.Context, eventID uint, visit Visit) (*models.Event, error)
}

type queryService struct {
	events repository.EventRepository
	ledger repository.LedgerRepository
	views  ViewCounter
	hits   HitRecorder
	obs    *metrics.Observer
	now    func() time.Time
}

func NewQueryService(
	events repository.EventRepository,
	ledgerRepo repository.LedgerRepository,
	views ViewCounter,
	hits HitRecorder,
	obs *metrics.Observer,
) QueryService {
	return &queryService{
		events: events,
		ledger: ledgerRepo,
		views:  views,
		hits:   hits,
		obs:    obs,
		now:    time.Now,
	}
}

// SearchEvents lists published events. Without a date range only future
// events are returned. VIEWS sorts most viewed first.
func (s *queryService) SearchEvents(ctx context.Context, search PublicSearch, visit Visit) ([]models.Event, error) {
	if err := validateRange(search.RangeStart, search.RangeEnd); err != nil {
		return nil, err
	}
	filter := repository.EventFilter{
		Text:       search.Text,
		Categories: search.Categories,
		Paid:       search.Paid,
		RangeStart: search.RangeStart,
		RangeEnd:   search.RangeEnd,
		States:     []models.EventState{models.EventPublished},
	}
	if filter.RangeStart == nil && filter.RangeEnd == nil {
		now := s.now()
		filter.RangeStart = &now
	}

	s.recordHit(ctx, visit)

	events, err := s.events.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, events); err != nil {
		return nil, err
	}

	if search.OnlyAvailable {
		events = slices.DeleteFunc(events, func(e models.Event) bool {
			return ledger.Exhausted(e.ParticipantLimit, e.ConfirmedRequests)
		})
	}
	sortEvents(events, search.Sort, true)
	return paginate(events, search.From, search.Size), nil
}

// SearchEventsAdmin lists events in any state. VIEWS sorts least viewed first.
func (s *queryService) SearchEventsAdmin(ctx context.Context, search AdminSearch) ([]models.Event, error) {
	if err := validateRange(search.RangeStart, search.RangeEnd); err != nil {
		return nil, err
	}
	events, err := s.events.Search(ctx, repository.EventFilter{
		Categories: search.Categories,
		RangeStart: search.RangeStart,
		RangeEnd:   search.RangeEnd,
		States:     search.States,
		Initiators: search.Users,
	})
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, events); err != nil {
		return nil, err
	}
	sortEvents(events, search.Sort, false)
	return paginate(events, search.From, search.Size), nil
}

func (s *queryService) GetPublishedEvent(ctx context.Context, eventID uint, visit Visit) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event id=%d not found", eventID)
	}
	if event.State != models.EventPublished {
		return nil, apperr.NotFound("event id=%d not found", eventID)
	}

	// A synchronously recorded hit is already counted upstream, so the cached
	// count is stale. Queued hits invalidate the cache on delivery instead.
	if s.recordHit(ctx, visit) && s.views != nil && !isDeferred(s.hits) {
		s.views.Forget(eventID)
	}

	one := []models.Event{*event}
	if err := s.enrich(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *queryService) recordHit(ctx context.Context, visit Visit) bool {
	if s.hits == nil || visit.URI == "" {
		return false
	}
	if err := s.hits.RecordHit(ctx, visit.URI, visit.IP); err != nil {
		s.obs.RecordHitDropped()
		slog.WarnContext(ctx, "hit not recorded", "component", "query", "uri", visit.URI, "error", err)
		return false
	}
	return true
}

// enrich fills ConfirmedRequests and Views. A ledger failure is returned;
// a view lookup failure leaves views at zero.
func (s *queryService) enrich(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]uint, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	var (
		counts map[uint]int
		views  map[uint]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.ledger.Counts(gctx, ids)
		if err != nil {
			return err
		}
		counts = c
		return nil
	})
	if s.views != nil {
		g.Go(func() error {
			v, err := s.views.Views(gctx, ids)
			if err != nil {
				s.obs.RecordViewsDegraded()
				slog.WarnContext(ctx, "view counts unavailable, using zero", "component", "query", "error", err)
			}
			views = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range events {
		events[i].ConfirmedRequests = counts[events[i].ID]
		events[i].Views = views[events[i].ID]
	}
	return nil
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("rangeEnd", end.Format(time.DateTime), "must not be before rangeStart")
	}
	return nil
}

// sortEvents orders by key with ties broken by id. viewsDesc selects the
// public listing's most-viewed-first order.
func sortEvents(events []models.Event, key SortKey, viewsDesc bool) {
	slices.SortStableFunc(events, func(a, b models.Event) int {
		var c int
		switch key {
		case SortEventDate:
			c = a.EventDate.Compare(b.EventDate)
		case SortViews:
			c = cmp.Compare(a.Views, b.Views)
			if viewsDesc {
				c = -c
			}
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func paginate(events []models.Event, from, size int) []models.Event {
	if from < 0 {
		from = 0
	}
	if from >= len(events) {
		return []models.Event{}
	}
	events = events[from:]
	if size > 0 && size < len(events) {
		events = events[:size]
	}
	return events
}
