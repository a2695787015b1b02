package dto

import (
	"github.com/Eursukkul/ewm-service/internal/models"
)

type LocationDto struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type NewEventDto struct {
	Annotation        string       `json:"annotation" validate:"required,min=20,max=2000"`
	Category          uint         `json:"category" validate:"required"`
	Description       string       `json:"description" validate:"required,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate" validate:"required"`
	Location          *LocationDto `json:"location" validate:"required"`
	Paid              bool         `json:"paid"`
	ParticipantLimit  int          `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	Title             string       `json:"title" validate:"required,min=3,max=120"`
}

func (d *NewEventDto) ToModel() *models.Event {
	e := &models.Event{
		Annotation:        d.Annotation,
		CategoryID:        d.Category,
		Description:       d.Description,
		EventDate:         d.EventDate.Time,
		Location:          models.Location{Lat: d.Location.Lat, Lon: d.Location.Lon},
		Paid:              d.Paid,
		ParticipantLimit:  d.ParticipantLimit,
		RequestModeration: true,
		Title:             d.Title,
	}
	if d.RequestModeration != nil {
		e.RequestModeration = *d.RequestModeration
	}
	return e
}

// UpdateEventRequest serves both the initiator and the admin PATCH. Which
// state actions a caller may use is decided by the lifecycle package.
type UpdateEventRequest struct {
	Annotation        *string      `json:"annotation" validate:"omitempty,min=20,max=2000"`
	Category          *uint        `json:"category" validate:"omitempty,gt=0"`
	Description       *string      `json:"description" validate:"omitempty,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate"`
	Location          *LocationDto `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	StateAction       *string      `json:"stateAction"`
	Title             *string      `json:"title" validate:"omitempty,min=3,max=120"`
}

func (d *UpdateEventRequest) Patch() models.EventPatch {
	p := models.EventPatch{
		Annotation:        d.Annotation,
		CategoryID:        d.Category,
		Description:       d.Description,
		Paid:              d.Paid,
		ParticipantLimit:  d.ParticipantLimit,
		RequestModeration: d.RequestModeration,
		Title:             d.Title,
	}
	if d.EventDate != nil {
		t := d.EventDate.Time
		p.EventDate = &t
	}
	if d.Location != nil {
		p.Location = &models.Location{Lat: d.Location.Lat, Lon: d.Location.Lon}
	}
	return p
}

type EventRequestStatusUpdateRequest struct {
	RequestIDs []uint `json:"requestIds" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}
