package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/ewm-service/internal/ledger"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

// --- In-memory store shared by the fake repositories ---

type store struct {
	mu         sync.Mutex
	events     map[uint]models.Event
	requests   map[uint]models.Request
	ledger     map[uint]int
	history    map[uint][]int
	users      map[uint]bool
	categories map[uint]bool
	nextEvent  uint
	nextReq    uint

	countsErr error
}

func newStore() *store {
	return &store{
		events:     map[uint]models.Event{},
		requests:   map[uint]models.Request{},
		ledger:     map[uint]int{},
		history:    map[uint][]int{},
		users:      map[uint]bool{},
		categories: map[uint]bool{},
		nextEvent:  1,
		nextReq:    1,
	}
}

func (s *store) addUser(ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.users[id] = true
	}
}

func (s *store) addEvent(e models.Event) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextEvent
	}
	if e.ID >= s.nextEvent {
		s.nextEvent = e.ID + 1
	}
	s.events[e.ID] = e
	return e
}

func (s *store) addRequest(r models.Request) models.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextReq
	}
	if r.ID >= s.nextReq {
		s.nextReq = r.ID + 1
	}
	s.requests[r.ID] = r
	if r.Status == models.RequestConfirmed {
		s.ledger[r.EventID]++
	}
	return r
}

func (s *store) status(id uint) models.RequestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id].Status
}

func (s *store) confirmedCount(eventID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.EventID == eventID && r.Status == models.RequestConfirmed {
			n++
		}
	}
	return n
}

func (s *store) ledgerValue(eventID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger[eventID]
}

// assertLedger checks the ledger against the CONFIRMED requests.
func (s *store) assertLedger(t *testing.T, eventID uint) {
	t.Helper()
	assert.Equal(t, s.confirmedCount(eventID), s.ledgerValue(eventID), "ledger out of sync for event %d", eventID)
}

// --- Fake repositories ---

type fakeTransactor struct{}

func (fakeTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEventRepo struct{ st *store }

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	*event = r.st.addEvent(*event)
	return nil
}

func (r *fakeEventRepo) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	e, ok := r.st.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *fakeEventRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeEventRepo) Update(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.events[event.ID] = *event
	return nil
}

func (r *fakeEventRepo) FindByInitiator(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error) {
	all, _ := r.Search(ctx, repository.EventFilter{Initiators: []uint{initiatorID}})
	if from >= len(all) {
		return []models.Event{}, nil
	}
	all = all[from:]
	if size < len(all) {
		all = all[:size]
	}
	return all, nil
}

func (r *fakeEventRepo) Search(ctx context.Context, f repository.EventFilter) ([]models.Event, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Event
	for _, e := range r.st.events {
		if f.Text != "" && !strings.Contains(strings.ToLower(e.Annotation+" "+e.Description), strings.ToLower(f.Text)) {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, e.CategoryID) {
			continue
		}
		if f.Paid != nil && e.Paid != *f.Paid {
			continue
		}
		if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
			continue
		}
		if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
			continue
		}
		if len(f.States) > 0 && !slices.Contains(f.States, e.State) {
			continue
		}
		if len(f.Initiators) > 0 && !slices.Contains(f.Initiators, e.InitiatorID) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.Event) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

type fakeRequestRepo struct{ st *store }

func (r *fakeRequestRepo) Create(ctx context.Context, tx *gorm.DB, req *models.Request) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	req.ID = r.st.nextReq
	r.st.nextReq++
	r.st.requests[req.ID] = *req
	return nil
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, id uint) (*models.Request, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	req, ok := r.st.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r *fakeRequestRepo) FindByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Request, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Request
	for _, id := range ids {
		if req, ok := r.st.requests[id]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) filter(keep func(models.Request) bool) []models.Request {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := []models.Request{}
	for _, req := range r.st.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	slices.SortFunc(out, func(a, b models.Request) int { return int(a.ID) - int(b.ID) })
	return out
}

func (r *fakeRequestRepo) FindByEventID(ctx context.Context, eventID uint) ([]models.Request, error) {
	return r.filter(func(req models.Request) bool { return req.EventID == eventID }), nil
}

func (r *fakeRequestRepo) FindByRequesterID(ctx context.Context, requesterID uint) ([]models.Request, error) {
	return r.filter(func(req models.Request) bool { return req.RequesterID == requesterID }), nil
}

func (r *fakeRequestRepo) FindActiveByRequesterAndEvent(ctx context.Context, tx *gorm.DB, requesterID, eventID uint) (*models.Request, error) {
	found := r.filter(func(req models.Request) bool {
		return req.RequesterID == requesterID && req.EventID == eventID && req.Status != models.RequestCanceled
	})
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	req, ok := r.st.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = status
	r.st.requests[id] = req
	return nil
}

func (r *fakeRequestRepo) CountByStatus(ctx context.Context, tx *gorm.DB, eventID uint, status models.RequestStatus) (int64, error) {
	return int64(len(r.filter(func(req models.Request) bool {
		return req.EventID == eventID && req.Status == status
	}))), nil
}

type fakeLedgerRepo struct{ st *store }

func (r *fakeLedgerRepo) Get(ctx context.Context, tx *gorm.DB, eventID uint) (int, error) {
	return r.st.ledgerValue(eventID), nil
}

func (r *fakeLedgerRepo) Add(ctx context.Context, tx *gorm.DB, eventID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.ledger[eventID] += delta
	r.st.history[eventID] = append(r.st.history[eventID], r.st.ledger[eventID])
	return nil
}

func (r *fakeLedgerRepo) Set(ctx context.Context, tx *gorm.DB, eventID uint, confirmed int) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.ledger[eventID] = confirmed
	return nil
}

func (r *fakeLedgerRepo) Counts(ctx context.Context, eventIDs []uint) (map[uint]int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.countsErr != nil {
		return nil, r.st.countsErr
	}
	out := map[uint]int{}
	for _, id := range eventIDs {
		if n, ok := r.st.ledger[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type fakeUserRepo struct{ st *store }

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if !r.st.users[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id}, nil
}

type fakeCategoryRepo struct{ st *store }

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if !r.st.categories[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Category{ID: id}, nil
}

// --- Collaborator fakes ---

type published struct {
	key     string
	payload any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (n *fakeNotifier) Publish(ctx context.Context, routingKey string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, published{routingKey, payload})
	return n.err
}

func (n *fakeNotifier) keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]string, len(n.sent))
	for i, p := range n.sent {
		keys[i] = p.key
	}
	return keys
}

type fakeViews struct {
	views   map[uint]int64
	err     error
	forgets []uint
}

func (v *fakeViews) Views(ctx context.Context, ids []uint) (map[uint]int64, error) {
	if v.err != nil {
		return map[uint]int64{}, v.err
	}
	return v.views, nil
}

func (v *fakeViews) Forget(id uint) { v.forgets = append(v.forgets, id) }

type fakeHits struct {
	visits   []Visit
	err      error
	deferred bool
}

func (h *fakeHits) Deferred() bool { return h.deferred }

func (h *fakeHits) RecordHit(ctx context.Context, uri, ip string) error {
	h.visits = append(h.visits, Visit{URI: uri, IP: ip})
	return h.err
}

var errStorage = errors.New("db connection failed")

// --- Wiring ---

type fixture struct {
	st        *store
	locker    *ledger.Locker
	guard     *EventGuard
	admission *admissionController
	requests  *requestService
	events    *eventService
	notifier  *fakeNotifier
}

func newFixture() *fixture {
	st := newStore()
	locker := ledger.NewLocker()
	guard := NewEventGuard(locker, fakeTransactor{}, time.Second, nil)
	notifier := &fakeNotifier{}

	eventRepo := &fakeEventRepo{st}
	requestRepo := &fakeRequestRepo{st}
	ledgerRepo := &fakeLedgerRepo{st}
	userRepo := &fakeUserRepo{st}

	admission := NewAdmissionController(eventRepo, requestRepo, ledgerRepo, guard, nil).(*admissionController)
	admission.now = func() time.Time { return testNow }

	requests := NewRequestService(admission, requestRepo, eventRepo, userRepo, notifier).(*requestService)
	requests.now = func() time.Time { return testNow }

	events := NewEventService(eventRepo, userRepo, &fakeCategoryRepo{st}, ledgerRepo, guard, notifier).(*eventService)
	events.now = func() time.Time { return testNow }

	return &fixture{
		st:        st,
		locker:    locker,
		guard:     guard,
		admission: admission,
		requests:  requests,
		events:    events,
		notifier:  notifier,
	}
}

// publishedEvent stores a published event owned by user 1.
func (f *fixture) publishedEvent(limit int, moderation bool) models.Event {
	f.st.addUser(1)
	return f.st.addEvent(models.Event{
		Title:             "Go Meetup",
		InitiatorID:       1,
		CategoryID:        1,
		EventDate:         testNow.Add(72 * time.Hour),
		ParticipantLimit:  limit,
		RequestModeration: moderation,
		State:             models.EventPublished,
	})
}

func (f *fixture) pending(eventID uint, ids ...uint) {
	for _, id := range ids {
		f.st.addUser(100 + id)
		f.st.addRequest(models.Request{ID: id, EventID: eventID, RequesterID: 100 + id, Status: models.RequestPending, Created: testNow})
	}
}
