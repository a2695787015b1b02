package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/ledger"
	"github.com/Eursukkul/ewm-service/internal/lifecycle"
	"github.com/Eursukkul/ewm-service/internal/metrics"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"gorm.io/gorm"
)

// ModerationResult partitions a moderated batch by final status, each list
// in input order.
type ModerationResult struct {
	ConfirmedRequests []models.Request `json:"confirmedRequests"`
	RejectedRequests  []models.Request `json:"rejectedRequests"`
}

type LedgerReport struct {
	EventID    uint `json:"eventId"`
	Ledger     int  `json:"ledger"`
	Actual     int  `json:"actual"`
	Consistent bool `json:"consistent"`
	Repaired   bool `json:"repaired"`
}

// AdmissionController is the only writer of the participation ledger.
type AdmissionController interface {
	Moderate(ctx context.Context, initiatorID, eventID uint, requestIDs []uint, target models.RequestStatus) (*ModerationResult, error)
	Admit(ctx context.Context, requesterID, eventID uint) (*models.Request, error)
	Release(ctx context.Context, requesterID, requestID uint) (*models.Request, error)
	ReconcileLedger(ctx context.Context, eventID uint) (*LedgerReport, error)
}

type admissionController struct {
	events   repository.EventRepository
	requests repository.RequestRepository
	ledger   repository.LedgerRepository
	guard    *EventGuard
	obs      *metrics.Observer
	now      func() time.Time
}

func NewAdmissionController(
	events repository.EventRepository,
	requests repository.RequestRepository,
	ledgerRepo repository.LedgerRepository,
	guard *EventGuard,
	obs *metrics.Observer,
) AdmissionController {
	return &admissionController{
		events:   events,
		requests: requests,
		ledger:   ledgerRepo,
		guard:    guard,
		obs:      obs,
		now:      time.Now,
	}
}

// Moderate moves a batch of pending requests to target.
//
// REJECTED is all-or-nothing. CONFIRMED fails without effects when the event
// is already full; otherwise ids are taken in ascending order, each one is
// confirmed while a seat remains and rejected after that. A missing or
// non-pending id stops the batch: ids finalized before it stay committed and
// the returned error names the failing id.
func (a *admissionController) Moderate(ctx context.Context, initiatorID, eventID uint, requestIDs []uint, target models.RequestStatus) (*ModerationResult, error) {
	event, err := a.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event id=%d not found", eventID)
	}
	if event.InitiatorID != initiatorID {
		return nil, apperr.Forbidden("initiatorId", initiatorID, "user id=%d is not the initiator of event id=%d", initiatorID, eventID)
	}
	if len(requestIDs) == 0 {
		return nil, apperr.Validation("requestIds", "[]", "must contain at least one request id")
	}
	action, err := lifecycle.ModerationAction(target)
	if err != nil {
		return nil, err
	}

	ids := dedupe(requestIDs)
	final := make(map[uint]models.Request, len(ids))
	var batchErr error

	err = a.guard.Run(ctx, eventID, func(tx *gorm.DB) error {
		locked, err := a.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, "event id=%d not found", eventID)
		}
		pending, err := a.loadRequests(ctx, tx, eventID, ids)
		if err != nil {
			return err
		}

		if action == lifecycle.RejectRequest {
			return a.rejectAll(ctx, tx, eventID, ids, pending, final)
		}

		confirmed, err := a.ledger.Get(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ledger.Exhausted(locked.ParticipantLimit, confirmed) {
			return apperr.Conflict("participantLimit", locked.ParticipantLimit,
				"event id=%d has reached its participant limit", eventID)
		}

		added := 0
		for _, id := range ascending(ids) {
			req, ok := pending[id]
			if !ok {
				batchErr = apperr.NotFound("request id=%d not found for event id=%d", id, eventID)
				break
			}
			next := lifecycle.ConfirmRequest
			if ledger.Exhausted(locked.ParticipantLimit, confirmed+added) {
				next = lifecycle.RejectRequest
			}
			status, err := lifecycle.NextRequestStatus(&req, next)
			if err != nil {
				batchErr = err
				break
			}
			if err := a.requests.UpdateStatus(ctx, tx, id, status); err != nil {
				return err
			}
			if status == models.RequestConfirmed {
				added++
			}
			req.Status = status
			final[id] = req
		}
		return a.ledger.Add(ctx, tx, eventID, added)
	})
	if err != nil {
		return nil, err
	}

	result := &ModerationResult{ConfirmedRequests: []models.Request{}, RejectedRequests: []models.Request{}}
	for _, id := range ids {
		req, ok := final[id]
		if !ok {
			continue
		}
		a.obs.RecordDecision(string(req.Status))
		if req.Status == models.RequestConfirmed {
			result.ConfirmedRequests = append(result.ConfirmedRequests, req)
		} else {
			result.RejectedRequests = append(result.RejectedRequests, req)
		}
	}
	return result, batchErr
}

func (a *admissionController) rejectAll(ctx context.Context, tx *gorm.DB, eventID uint, ids []uint, pending map[uint]models.Request, final map[uint]models.Request) error {
	for _, id := range ids {
		req, ok := pending[id]
		if !ok {
			return apperr.NotFound("request id=%d not found for event id=%d", id, eventID)
		}
		if _, err := lifecycle.NextRequestStatus(&req, lifecycle.RejectRequest); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if err := a.requests.UpdateStatus(ctx, tx, id, models.RequestRejected); err != nil {
			return err
		}
		req := pending[id]
		req.Status = models.RequestRejected
		final[id] = req
	}
	return nil
}

// loadRequests returns the named requests that belong to eventID, by id.
func (a *admissionController) loadRequests(ctx context.Context, tx *gorm.DB, eventID uint, ids []uint) (map[uint]models.Request, error) {
	reqs, err := a.requests.FindByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Request, len(reqs))
	for _, r := range reqs {
		if r.EventID == eventID {
			byID[r.ID] = r
		}
	}
	return byID, nil
}

// Admit creates a participation request, confirming it right away when the
// event does not moderate requests.
func (a *admissionController) Admit(ctx context.Context, requesterID, eventID uint) (*models.Request, error) {
	var created *models.Request

	err := a.guard.Run(ctx, eventID, func(tx *gorm.DB) error {
		event, err := a.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, "event id=%d not found", eventID)
		}
		if err := lifecycle.CheckRequestable(event, requesterID); err != nil {
			return err
		}

		existing, err := a.requests.FindActiveByRequesterAndEvent(ctx, tx, requesterID, eventID)
		if err == nil {
			return apperr.Conflict("request", existing.ID,
				"user id=%d already has an active request for event id=%d", requesterID, eventID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		confirmed, err := a.ledger.Get(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ledger.Exhausted(event.ParticipantLimit, confirmed) {
			return apperr.Validation("participantLimit", event.ParticipantLimit,
				"event id=%d has reached its participant limit", eventID)
		}

		req := &models.Request{
			RequesterID: requesterID,
			EventID:     eventID,
			Status:      lifecycle.InitialRequestStatus(event),
			Created:     a.now(),
		}
		if err := a.requests.Create(ctx, tx, req); err != nil {
			return err
		}
		if req.Status == models.RequestConfirmed {
			if err := a.ledger.Add(ctx, tx, eventID, 1); err != nil {
				return err
			}
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.obs.RecordDecision(string(created.Status))
	return created, nil
}

// Release cancels the requester's own request and frees its seat if it held one.
func (a *admissionController) Release(ctx context.Context, requesterID, requestID uint) (*models.Request, error) {
	req, err := a.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "request id=%d not found", requestID)
	}
	if req.RequesterID != requesterID {
		return nil, apperr.Forbidden("requesterId", requesterID, "request id=%d belongs to another user", requestID)
	}

	var canceled *models.Request
	err = a.guard.Run(ctx, req.EventID, func(tx *gorm.DB) error {
		current, err := a.requests.FindByIDs(ctx, tx, []uint{requestID})
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return apperr.NotFound("request id=%d not found", requestID)
		}
		r := current[0]
		status, err := lifecycle.NextRequestStatus(&r, lifecycle.CancelRequest)
		if err != nil {
			return err
		}
		if err := a.requests.UpdateStatus(ctx, tx, r.ID, status); err != nil {
			return err
		}
		if r.Status == models.RequestConfirmed {
			if err := a.ledger.Add(ctx, tx, r.EventID, -1); err != nil {
				return err
			}
		}
		r.Status = status
		canceled = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// ReconcileLedger recounts confirmed requests and repairs the ledger entry
// when it drifted.
func (a *admissionController) ReconcileLedger(ctx context.Context, eventID uint) (*LedgerReport, error) {
	var report *LedgerReport

	err := a.guard.Run(ctx, eventID, func(tx *gorm.DB) error {
		if _, err := a.events.FindByIDForUpdate(ctx, tx, eventID); err != nil {
			return notFound(err, "event id=%d not found", eventID)
		}
		stored, err := a.ledger.Get(ctx, tx, eventID)
		if err != nil {
			return err
		}
		actual, err := a.requests.CountByStatus(ctx, tx, eventID, models.RequestConfirmed)
		if err != nil {
			return err
		}

		report = &LedgerReport{EventID: eventID, Ledger: stored, Actual: int(actual), Consistent: stored == int(actual)}
		if report.Consistent {
			return nil
		}
		if err := a.ledger.Set(ctx, tx, eventID, int(actual)); err != nil {
			return err
		}
		report.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.Repaired {
		a.obs.RecordLedgerRepair()
	}
	return report, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ascending(ids []uint) []uint {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return sorted
}
