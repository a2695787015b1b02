// Package lifecycle holds the event and request state machines as explicit
// transition tables. It has no storage dependencies.
package lifecycle

import (
	"time"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/Eursukkul/ewm-service/internal/models"
)

// MinEventLead is how far ahead of now an event date must be when an event
// is created or its date is changed.
const MinEventLead = 2 * time.Hour

const DateTimeLayout = "2006-01-02 15:04:05"

type Role int

const (
	RoleAdmin Role = iota
	RoleInitiator
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "initiator"
}

type EventAction string

const (
	PublishEvent EventAction = "PUBLISH_EVENT"
	RejectEvent  EventAction = "REJECT_EVENT"
	CancelReview EventAction = "CANCEL_REVIEW"
	SendToReview EventAction = "SEND_TO_REVIEW"
)

var actionRoles = map[EventAction]Role{
	PublishEvent: RoleAdmin,
	RejectEvent:  RoleAdmin,
	CancelReview: RoleInitiator,
	SendToReview: RoleInitiator,
}

func ParseEventAction(s string) (EventAction, error) {
	a := EventAction(s)
	if _, ok := actionRoles[a]; !ok {
		return "", apperr.Validation("stateAction", s, "unknown state action")
	}
	return a, nil
}

type outcome int

const (
	moveTo outcome = iota
	invalidState
	publishedConflict
)

type eventEdge struct {
	from   models.EventState
	action EventAction
}

type eventTarget struct {
	outcome outcome
	to      models.EventState
}

var eventTransitions = map[eventEdge]eventTarget{
	{models.EventPending, PublishEvent}:   {moveTo, models.EventPublished},
	{models.EventCanceled, PublishEvent}:  {invalidState, ""},
	{models.EventPublished, PublishEvent}: {invalidState, ""},
	{models.EventRejected, PublishEvent}:  {invalidState, ""},

	{models.EventPending, RejectEvent}:   {moveTo, models.EventRejected},
	{models.EventCanceled, RejectEvent}:  {moveTo, models.EventRejected},
	{models.EventPublished, RejectEvent}: {publishedConflict, ""},
	{models.EventRejected, RejectEvent}:  {invalidState, ""},

	{models.EventPending, CancelReview}:   {moveTo, models.EventCanceled},
	{models.EventCanceled, CancelReview}:  {invalidState, ""},
	{models.EventPublished, CancelReview}: {publishedConflict, ""},
	{models.EventRejected, CancelReview}:  {invalidState, ""},

	{models.EventPending, SendToReview}:   {moveTo, models.EventPending},
	{models.EventCanceled, SendToReview}:  {moveTo, models.EventPending},
	{models.EventPublished, SendToReview}: {publishedConflict, ""},
	{models.EventRejected, SendToReview}:  {invalidState, ""},
}

// NextEventState resolves one (state, action) pair issued by role.
func NextEventState(from models.EventState, action EventAction, role Role) (models.EventState, error) {
	allowed, ok := actionRoles[action]
	if !ok {
		return "", apperr.Validation("stateAction", action, "unknown state action")
	}
	if allowed != role {
		return "", apperr.Forbidden("stateAction", action, "only the %s may perform this action", allowed)
	}
	target, ok := eventTransitions[eventEdge{from, action}]
	if !ok {
		return "", apperr.InvalidState("state", from, "unknown event state")
	}
	switch target.outcome {
	case publishedConflict:
		return "", apperr.Conflict("state", from, "a published event cannot be changed by %s", action)
	case invalidState:
		return "", apperr.InvalidState("state", from, "event cannot be moved by %s from this state", action)
	}
	return target.to, nil
}

// ApplyEventAction moves e to its next state and stamps PublishedOn on publish.
func ApplyEventAction(e *models.Event, action EventAction, role Role, now time.Time) error {
	next, err := NextEventState(e.State, action, role)
	if err != nil {
		return err
	}
	e.State = next
	if action == PublishEvent {
		published := now
		e.PublishedOn = &published
	}
	return nil
}

func CheckEditable(e *models.Event) error {
	if e.State == models.EventPublished {
		return apperr.Conflict("state", e.State, "event id=%d is published and can no longer be edited", e.ID)
	}
	return nil
}

// ValidateEventDate enforces the minimum lead time against now.
func ValidateEventDate(date, now time.Time) error {
	minimum := now.Add(MinEventLead)
	if !date.After(minimum) {
		return apperr.Validation("eventDate", date.Format(DateTimeLayout),
			"must be later than %s (%s from now)", minimum.Format(DateTimeLayout), MinEventLead)
	}
	return nil
}

// NewEvent prepares a freshly created event: date check, PENDING state, CreatedOn.
func NewEvent(e *models.Event, now time.Time) error {
	if err := ValidateEventDate(e.EventDate, now); err != nil {
		return err
	}
	e.State = models.EventPending
	e.CreatedOn = now
	e.PublishedOn = nil
	return nil
}

// Edit applies patch to e, refusing published events and re-validating a
// changed date.
func Edit(e *models.Event, patch models.EventPatch, now time.Time) error {
	if patch.Empty() {
		return nil
	}
	if err := CheckEditable(e); err != nil {
		return err
	}
	if patch.EventDate != nil && !patch.EventDate.Equal(e.EventDate) {
		if err := ValidateEventDate(*patch.EventDate, now); err != nil {
			return err
		}
	}
	patch.Apply(e)
	return nil
}
