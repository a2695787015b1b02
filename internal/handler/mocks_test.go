package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/Eursukkul/ewm-service/internal/lifecycle"
	"github.com/Eursukkul/ewm-service/internal/middleware"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/labstack/echo/v4"
)

// --- Mock EventService ---

type mockEventService struct {
	createFn     func(ctx context.Context, initiatorID uint, event *models.Event) (*models.Event, error)
	getFn        func(ctx context.Context, initiatorID, eventID uint) (*models.Event, error)
	listFn       func(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error)
	patchFn      func(ctx context.Context, initiatorID, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error)
	adminPatchFn func(ctx context.Context, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, initiatorID uint, event *models.Event) (*models.Event, error) {
	return m.createFn(ctx, initiatorID, event)
}
func (m *mockEventService) GetUserEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	return m.getFn(ctx, initiatorID, eventID)
}
func (m *mockEventService) ListUserEvents(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error) {
	return m.listFn(ctx, initiatorID, from, size)
}
func (m *mockEventService) PatchEvent(ctx context.Context, initiatorID, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error) {
	return m.patchFn(ctx, initiatorID, eventID, patch, action)
}
func (m *mockEventService) AdminPatchEvent(ctx context.Context, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error) {
	return m.adminPatchFn(ctx, eventID, patch, action)
}
func (m *mockEventService) PublishEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	return m.adminPatchFn(ctx, eventID, models.EventPatch{}, nil)
}
func (m *mockEventService) RejectEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	return m.adminPatchFn(ctx, eventID, models.EventPatch{}, nil)
}
func (m *mockEventService) CancelEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	return m.patchFn(ctx, initiatorID, eventID, models.EventPatch{}, nil)
}
func (m *mockEventService) ResubmitEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	return m.patchFn(ctx, initiatorID, eventID, models.EventPatch{}, nil)
}

// --- Mock RequestService ---

type mockRequestService struct {
	createFn      func(ctx context.Context, requesterID, eventID uint) (*models.Request, error)
	cancelFn      func(ctx context.Context, requesterID, requestID uint) (*models.Request, error)
	listByUserFn  func(ctx context.Context, userID uint) ([]models.Request, error)
	listByEventFn func(ctx context.Context, initiatorID, eventID uint) ([]models.Request, error)
	moderateFn    func(ctx context.Context, initiatorID, eventID uint, ids []uint, target models.RequestStatus) (*service.ModerationResult, error)
}

func (m *mockRequestService) CreateRequest(ctx context.Context, requesterID, eventID uint) (*models.Request, error) {
	return m.createFn(ctx, requesterID, eventID)
}
func (m *mockRequestService) CancelRequest(ctx context.Context, requesterID, requestID uint) (*models.Request, error) {
	return m.cancelFn(ctx, requesterID, requestID)
}
func (m *mockRequestService) ListRequestsByUser(ctx context.Context, userID uint) ([]models.Request, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *mockRequestService) ListRequestsByEvent(ctx context.Context, initiatorID, eventID uint) ([]models.Request, error) {
	return m.listByEventFn(ctx, initiatorID, eventID)
}
func (m *mockRequestService) ModerateRequests(ctx context.Context, initiatorID, eventID uint, ids []uint, target models.RequestStatus) (*service.ModerationResult, error) {
	return m.moderateFn(ctx, initiatorID, eventID, ids, target)
}

// --- Mock QueryService ---

type mockQueryService struct {
	searchFn      func(ctx context.Context, search service.PublicSearch, visit service.Visit) ([]models.Event, error)
	adminSearchFn func(ctx context.Context, search service.AdminSearch) ([]models.Event, error)
	getFn         func(ctx context.Context, eventID uint, visit service.Visit) (*models.Event, error)
}

func (m *mockQueryService) SearchEvents(ctx context.Context, search service.PublicSearch, visit service.Visit) ([]models.Event, error) {
	return m.searchFn(ctx, search, visit)
}
func (m *mockQueryService) SearchEventsAdmin(ctx context.Context, search service.AdminSearch) ([]models.Event, error) {
	return m.adminSearchFn(ctx, search)
}
func (m *mockQueryService) GetPublishedEvent(ctx context.Context, eventID uint, visit service.Visit) (*models.Event, error) {
	return m.getFn(ctx, eventID, visit)
}

// --- Mock AdmissionController ---

type mockAdmission struct {
	reconcileFn func(ctx context.Context, eventID uint) (*service.LedgerReport, error)
}

func (m *mockAdmission) Moderate(ctx context.Context, initiatorID, eventID uint, ids []uint, target models.RequestStatus) (*service.ModerationResult, error) {
	return nil, nil
}
func (m *mockAdmission) Admit(ctx context.Context, requesterID, eventID uint) (*models.Request, error) {
	return nil, nil
}
func (m *mockAdmission) Release(ctx context.Context, requesterID, requestID uint) (*models.Request, error) {
	return nil, nil
}
func (m *mockAdmission) ReconcileLedger(ctx context.Context, eventID uint) (*service.LedgerReport, error) {
	return m.reconcileFn(ctx, eventID)
}

// --- Helpers ---

type routes interface {
	RegisterRoutes(e *echo.Echo)
}

func newServer(handlers ...routes) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewValidator()
	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderXRealIP, "10.1.2.3")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
