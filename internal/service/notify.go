package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eursukkul/ewm-service/internal/models"
)

const (
	KeyEventPublished   = "event.published"
	KeyEventRejected    = "event.rejected"
	KeyEventCanceled    = "event.canceled"
	KeyRequestCreated   = "request.created"
	KeyRequestConfirmed = "request.confirmed"
	KeyRequestRejected  = "request.rejected"
	KeyRequestCanceled  = "request.canceled"
)

// Notifier publishes lifecycle notifications. *rabbitmq.Publisher satisfies it.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type EventNotification struct {
	EventID     uint              `json:"event_id"`
	InitiatorID uint              `json:"initiator_id"`
	State       models.EventState `json:"state"`
	At          time.Time         `json:"at"`
}

type RequestNotification struct {
	EventID     uint                 `json:"event_id"`
	RequesterID uint                 `json:"requester_id,omitempty"`
	RequestIDs  []uint               `json:"request_ids"`
	Status      models.RequestStatus `json:"status"`
	At          time.Time            `json:"at"`
}

// notify is best-effort: it runs after commit and never fails the operation.
func notify(ctx context.Context, n Notifier, key string, payload any) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, key, payload); err != nil {
		slog.WarnContext(ctx, "notification not published", "component", "notifier", "routing_key", key, "error", err)
	}
}

var eventStateKeys = map[models.EventState]string{
	models.EventPublished: KeyEventPublished,
	models.EventRejected:  KeyEventRejected,
	models.EventCanceled:  KeyEventCanceled,
}

func notifyEventState(ctx context.Context, n Notifier, before models.EventState, e *models.Event, at time.Time) {
	key, ok := eventStateKeys[e.State]
	if !ok || before == e.State {
		return
	}
	notify(ctx, n, key, EventNotification{EventID: e.ID, InitiatorID: e.InitiatorID, State: e.State, At: at})
}

func idsOf(reqs []models.Request) []uint {
	ids := make([]uint, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	return ids
}
