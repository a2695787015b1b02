package models

import "time"

type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
	EventRejected  EventState = "REJECTED"
)

type Location struct {
	Lat float64 `gorm:"column:lat" json:"lat"`
	Lon float64 `gorm:"column:lon" json:"lon"`
}

type Event struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Annotation        string     `gorm:"type:varchar(2000);not null" json:"annotation"`
	Description       string     `gorm:"type:varchar(7000)" json:"description"`
	Title             string     `gorm:"type:varchar(120);not null" json:"title"`
	CategoryID        uint       `gorm:"not null;index" json:"category_id"`
	InitiatorID       uint       `gorm:"not null;index" json:"initiator_id"`
	Location          Location   `gorm:"embedded" json:"location"`
	EventDate         time.Time  `gorm:"not null;index" json:"event_date"`
	Paid              bool       `gorm:"not null" json:"paid"`
	ParticipantLimit  int        `gorm:"not null" json:"participant_limit"`
	RequestModeration bool       `gorm:"not null" json:"request_moderation"`
	State             EventState `gorm:"type:varchar(20);not null;index" json:"state"`
	CreatedOn         time.Time  `gorm:"not null" json:"created_on"`
	PublishedOn       *time.Time `json:"published_on,omitempty"`

	// Side data merged in by the query path; never persisted.
	ConfirmedRequests int   `gorm:"-" json:"confirmed_requests"`
	Views             int64 `gorm:"-" json:"views"`
}

// EventPatch carries a partial update; nil fields are left untouched.
type EventPatch struct {
	Annotation        *string
	Description       *string
	Title             *string
	CategoryID        *uint
	Location          *Location
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

func (p EventPatch) Empty() bool {
	return p.Annotation == nil && p.Description == nil && p.Title == nil &&
		p.CategoryID == nil && p.Location == nil && p.EventDate == nil &&
		p.Paid == nil && p.ParticipantLimit == nil && p.RequestModeration == nil
}

func (p EventPatch) Apply(e *Event) {
	if p.Annotation != nil {
		e.Annotation = *p.Annotation
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.EventDate != nil {
		e.EventDate = *p.EventDate
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
}
