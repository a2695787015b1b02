package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/lifecycle"
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"gorm.io/gorm"
)

type EventService interface {
	CreateEvent(ctx context.Context, initiatorID uint, event *models.Event) (*models.Event, error)
	GetUserEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error)
	ListUserEvents(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error)
	PatchEvent(ctx context.Context, initiatorID, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error)
	AdminPatchEvent(ctx context.Context, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error)
	PublishEvent(ctx context.Context, eventID uint) (*models.Event, error)
	RejectEvent(ctx context.Context, eventID uint) (*models.Event, error)
	CancelEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error)
	ResubmitEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error)
}

type eventService struct {
	events     repository.EventRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	ledger     repository.LedgerRepository
	guard      *EventGuard
	notifier   Notifier
	now        func() time.Time
}

func NewEventService(
	events repository.EventRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	ledgerRepo repository.LedgerRepository,
	guard *EventGuard,
	notifier Notifier,
) EventService {
	return &eventService{
		events:     events,
		users:      users,
		categories: categories,
		ledger:     ledgerRepo,
		guard:      guard,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, initiatorID uint, event *models.Event) (*models.Event, error) {
	if _, err := s.users.FindByID(ctx, initiatorID); err != nil {
		return nil, notFound(err, "user id=%d not found", initiatorID)
	}
	if err := s.requireCategory(ctx, event.CategoryID); err != nil {
		return nil, err
	}

	event.InitiatorID = initiatorID
	if err := lifecycle.NewEvent(event, s.now()); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetUserEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	event, err := s.ownedEvent(ctx, initiatorID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.withConfirmed(ctx, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListUserEvents(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error) {
	if _, err := s.users.FindByID(ctx, initiatorID); err != nil {
		return nil, notFound(err, "user id=%d not found", initiatorID)
	}
	events, err := s.events.FindByInitiator(ctx, initiatorID, from, size)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	if err := s.withConfirmed(ctx, ptrs); err != nil {
		return nil, err
	}
	return events, nil
}

// PatchEvent applies an initiator edit and an optional CANCEL_REVIEW or
// SEND_TO_REVIEW action in one step.
func (s *eventService) PatchEvent(ctx context.Context, initiatorID, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error) {
	if _, err := s.ownedEvent(ctx, initiatorID, eventID); err != nil {
		return nil, err
	}
	return s.change(ctx, eventID, patch, action, lifecycle.RoleInitiator)
}

// AdminPatchEvent applies an administrator edit and an optional
// PUBLISH_EVENT or REJECT_EVENT action in one step.
func (s *eventService) AdminPatchEvent(ctx context.Context, eventID uint, patch models.EventPatch, action *lifecycle.EventAction) (*models.Event, error) {
	return s.change(ctx, eventID, patch, action, lifecycle.RoleAdmin)
}

func (s *eventService) PublishEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	return s.AdminPatchEvent(ctx, eventID, models.EventPatch{}, actionPtr(lifecycle.PublishEvent))
}

func (s *eventService) RejectEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	return s.AdminPatchEvent(ctx, eventID, models.EventPatch{}, actionPtr(lifecycle.RejectEvent))
}

func (s *eventService) CancelEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	return s.PatchEvent(ctx, initiatorID, eventID, models.EventPatch{}, actionPtr(lifecycle.CancelReview))
}

func (s *eventService) ResubmitEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	return s.PatchEvent(ctx, initiatorID, eventID, models.EventPatch{}, actionPtr(lifecycle.SendToReview))
}

// change runs under the per-event lock so a state change cannot interleave
// with an admission decision on the same event.
func (s *eventService) change(ctx context.Context, eventID uint, patch models.EventPatch, action *lifecycle.EventAction, role lifecycle.Role) (*models.Event, error) {
	if patch.CategoryID != nil {
		if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	var (
		updated *models.Event
		before  models.EventState
		now     = s.now()
	)
	err := s.guard.Run(ctx, eventID, func(tx *gorm.DB) error {
		event, err := s.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, "event id=%d not found", eventID)
		}
		before = event.State

		if err := lifecycle.Edit(event, patch, now); err != nil {
			return err
		}
		if action != nil {
			if err := lifecycle.ApplyEventAction(event, *action, role, now); err != nil {
				return err
			}
		}
		if err := s.events.Update(ctx, tx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyEventState(ctx, s.notifier, before, updated, now)
	if err := s.withConfirmed(ctx, []*models.Event{updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *eventService) ownedEvent(ctx context.Context, initiatorID, eventID uint) (*models.Event, error) {
	if _, err := s.users.FindByID(ctx, initiatorID); err != nil {
		return nil, notFound(err, "user id=%d not found", initiatorID)
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event id=%d not found", eventID)
	}
	if event.InitiatorID != initiatorID {
		return nil, apperr.Forbidden("initiatorId", initiatorID, "user id=%d is not the initiator of event id=%d", initiatorID, eventID)
	}
	return event, nil
}

func (s *eventService) requireCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return notFound(err, "category id=%d not found", id)
	}
	return nil
}

func (s *eventService) withConfirmed(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]uint, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.ledger.Counts(ctx, ids)
	if err != nil {
		return err
	}
	for _, e := range events {
		e.ConfirmedRequests = counts[e.ID]
	}
	return nil
}

func actionPtr(a lifecycle.EventAction) *lifecycle.EventAction {
	return &a
}
