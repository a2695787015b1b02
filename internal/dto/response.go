package dto

import (
	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/Eursukkul/ewm-service/internal/service"
)

type CategoryRef struct {
	ID uint `json:"id"`
}

type UserRef struct {
	ID uint `json:"id"`
}

type EventFullDto struct {
	ID                uint              `json:"id"`
	Annotation        string            `json:"annotation"`
	Category          CategoryRef       `json:"category"`
	ConfirmedRequests int               `json:"confirmedRequests"`
	CreatedOn         DateTime          `json:"createdOn"`
	Description       string            `json:"description"`
	EventDate         DateTime          `json:"eventDate"`
	Initiator         UserRef           `json:"initiator"`
	Location          LocationDto       `json:"location"`
	Paid              bool              `json:"paid"`
	ParticipantLimit  int               `json:"participantLimit"`
	PublishedOn       *DateTime         `json:"publishedOn,omitempty"`
	RequestModeration bool              `json:"requestModeration"`
	State             models.EventState `json:"state"`
	Title             string            `json:"title"`
	Views             int64             `json:"views"`
}

type EventShortDto struct {
	ID                uint        `json:"id"`
	Annotation        string      `json:"annotation"`
	Category          CategoryRef `json:"category"`
	ConfirmedRequests int         `json:"confirmedRequests"`
	EventDate         DateTime    `json:"eventDate"`
	Initiator         UserRef     `json:"initiator"`
	Paid              bool        `json:"paid"`
	Title             string      `json:"title"`
	Views             int64       `json:"views"`
}

type ParticipationRequestDto struct {
	ID        uint                 `json:"id"`
	Created   DateTime             `json:"created"`
	Event     uint                 `json:"event"`
	Requester uint                 `json:"requester"`
	Status    models.RequestStatus `json:"status"`
}

type EventRequestStatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequestDto `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequestDto `json:"rejectedRequests"`
}

// ApiError is the body of every error response.
type ApiError struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Timestamp DateTime `json:"timestamp"`
}

func ToEventFullDto(e *models.Event) EventFullDto {
	return EventFullDto{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          CategoryRef{ID: e.CategoryID},
		ConfirmedRequests: e.ConfirmedRequests,
		CreatedOn:         DateTime{e.CreatedOn},
		Description:       e.Description,
		EventDate:         DateTime{e.EventDate},
		Initiator:         UserRef{ID: e.InitiatorID},
		Location:          LocationDto{Lat: e.Location.Lat, Lon: e.Location.Lon},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       dateTimePtr(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Title:             e.Title,
		Views:             e.Views,
	}
}

func ToEventFullDtos(events []models.Event) []EventFullDto {
	resp := make([]EventFullDto, len(events))
	for i := range events {
		resp[i] = ToEventFullDto(&events[i])
	}
	return resp
}

func ToEventShortDtos(events []models.Event) []EventShortDto {
	resp := make([]EventShortDto, len(events))
	for i, e := range events {
		resp[i] = EventShortDto{
			ID:                e.ID,
			Annotation:        e.Annotation,
			Category:          CategoryRef{ID: e.CategoryID},
			ConfirmedRequests: e.ConfirmedRequests,
			EventDate:         DateTime{e.EventDate},
			Initiator:         UserRef{ID: e.InitiatorID},
			Paid:              e.Paid,
			Title:             e.Title,
			Views:             e.Views,
		}
	}
	return resp
}

func ToRequestDto(r *models.Request) ParticipationRequestDto {
	return ParticipationRequestDto{
		ID:        r.ID,
		Created:   DateTime{r.Created},
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    r.Status,
	}
}

func ToRequestDtos(reqs []models.Request) []ParticipationRequestDto {
	resp := make([]ParticipationRequestDto, len(reqs))
	for i := range reqs {
		resp[i] = ToRequestDto(&reqs[i])
	}
	return resp
}

func ToStatusUpdateResult(r *service.ModerationResult) EventRequestStatusUpdateResult {
	return EventRequestStatusUpdateResult{
		ConfirmedRequests: ToRequestDtos(r.ConfirmedRequests),
		RejectedRequests:  ToRequestDtos(r.RejectedRequests),
	}
}
