package lifecycle

import (
	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/models"
)

type RequestAction string

const (
	ConfirmRequest RequestAction = "CONFIRM"
	RejectRequest  RequestAction = "REJECT"
	CancelRequest  RequestAction = "CANCEL"
)

type requestEdge struct {
	from   models.RequestStatus
	action RequestAction
}

// Pairs missing from the table are conflicts.
var requestTransitions = map[requestEdge]models.RequestStatus{
	{models.RequestPending, ConfirmRequest}: models.RequestConfirmed,
	{models.RequestPending, RejectRequest}:  models.RequestRejected,

	{models.RequestPending, CancelRequest}:   models.RequestCanceled,
	{models.RequestConfirmed, CancelRequest}: models.RequestCanceled,
	{models.RequestRejected, CancelRequest}:  models.RequestCanceled,
}

func NextRequestStatus(r *models.Request, action RequestAction) (models.RequestStatus, error) {
	next, ok := requestTransitions[requestEdge{r.Status, action}]
	if !ok {
		if action == CancelRequest {
			return "", apperr.Conflict("request.status", r.Status, "request id=%d is already canceled", r.ID)
		}
		return "", apperr.Conflict("request.status", r.Status, "request id=%d must be pending", r.ID)
	}
	return next, nil
}

// ModerationAction maps a moderation target status to its action.
func ModerationAction(target models.RequestStatus) (RequestAction, error) {
	switch target {
	case models.RequestConfirmed:
		return ConfirmRequest, nil
	case models.RequestRejected:
		return RejectRequest, nil
	}
	return "", apperr.Validation("status", target, "moderation target must be %s or %s", models.RequestConfirmed, models.RequestRejected)
}

// InitialRequestStatus is CONFIRMED for events without request moderation.
func InitialRequestStatus(e *models.Event) models.RequestStatus {
	if !e.RequestModeration {
		return models.RequestConfirmed
	}
	return models.RequestPending
}

// CheckRequestable validates that requesterID may ask to join e.
func CheckRequestable(e *models.Event, requesterID uint) error {
	if e.InitiatorID == requesterID {
		return apperr.Validation("event.initiator_id", requesterID,
			"the initiator cannot request participation in their own event id=%d", e.ID)
	}
	if e.State != models.EventPublished {
		return apperr.Validation("event.state", e.State, "cannot participate in an unpublished event id=%d", e.ID)
	}
	return nil
}

func ParseRequestStatus(s string) (models.RequestStatus, error) {
	switch st := models.RequestStatus(s); st {
	case models.RequestPending, models.RequestConfirmed, models.RequestRejected, models.RequestCanceled:
		return st, nil
	}
	return "", apperr.Validation("status", s, "unknown request status")
}
