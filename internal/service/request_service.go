package service

import (
	"context"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/repository"
)

type RequestService interface {
	CreateRequest(ctx context.Context, requesterID, eventID uint) (*models.Request, error)
	CancelRequest(ctx context.Context, requesterID, requestID uint) (*models.Request, error)
	ListRequestsByUser(ctx context.Context, userID uint) ([]models.Request, error)
	ListRequestsByEvent(ctx context.Context, initiatorID, eventID uint) ([]models.Request, error)
	ModerateRequests(ctx context.Context, initiatorID, eventID uint, requestIDs []uint, target models.RequestStatus) (*ModerationResult, error)
}

type requestService struct {
	admission AdmissionController
	requests  repository.RequestRepository
	events    repository.EventRepository
	users     repository.UserRepository
	notifier  Notifier
	now       func() time.Time
}

func NewRequestService(
	admission AdmissionController,
	requests repository.RequestRepository,
	events repository.EventRepository,
	users repository.UserRepository,
	notifier Notifier,
) RequestService {
	return &requestService{
		admission: admission,
		requests:  requests,
		events:    events,
		users:     users,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *requestService) requireUser(ctx context.Context, userID uint) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return notFound(err, "user id=%d not found", userID)
	}
	return nil
}

func (s *requestService) CreateRequest(ctx context.Context, requesterID, eventID uint) (*models.Request, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	req, err := s.admission.Admit(ctx, requesterID, eventID)
	if err != nil {
		return nil, err
	}

	n := RequestNotification{EventID: eventID, RequesterID: requesterID, RequestIDs: []uint{req.ID}, Status: req.Status, At: s.now()}
	notify(ctx, s.notifier, KeyRequestCreated, n)
	if req.Status == models.RequestConfirmed {
		notify(ctx, s.notifier, KeyRequestConfirmed, n)
	}
	return req, nil
}

func (s *requestService) CancelRequest(ctx context.Context, requesterID, requestID uint) (*models.Request, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	req, err := s.admission.Release(ctx, requesterID, requestID)
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, KeyRequestCanceled, RequestNotification{
		EventID: req.EventID, RequesterID: requesterID, RequestIDs: []uint{req.ID}, Status: req.Status, At: s.now(),
	})
	return req, nil
}

func (s *requestService) ListRequestsByUser(ctx context.Context, userID uint) ([]models.Request, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.requests.FindByRequesterID(ctx, userID)
}

func (s *requestService) ListRequestsByEvent(ctx context.Context, initiatorID, eventID uint) ([]models.Request, error) {
	if err := s.requireUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event id=%d not found", eventID)
	}
	if event.InitiatorID != initiatorID {
		return nil, apperr.Forbidden("initiatorId", initiatorID, "user id=%d is not the initiator of event id=%d", initiatorID, eventID)
	}
	return s.requests.FindByEventID(ctx, eventID)
}

// ModerateRequests returns the partial result alongside the error when the
// batch stopped at a failing id.
func (s *requestService) ModerateRequests(ctx context.Context, initiatorID, eventID uint, requestIDs []uint, target models.RequestStatus) (*ModerationResult, error) {
	if err := s.requireUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	result, err := s.admission.Moderate(ctx, initiatorID, eventID, requestIDs, target)
	if result != nil {
		at := s.now()
		if len(result.ConfirmedRequests) > 0 {
			notify(ctx, s.notifier, KeyRequestConfirmed, RequestNotification{
				EventID: eventID, RequestIDs: idsOf(result.ConfirmedRequests), Status: models.RequestConfirmed, At: at,
			})
		}
		if len(result.RejectedRequests) > 0 {
			notify(ctx, s.notifier, KeyRequestRejected, RequestNotification{
				EventID: eventID, RequestIDs: idsOf(result.RejectedRequests), Status: models.RequestRejected, At: at,
			})
		}
	}
	return result, err
}
