package models

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

type Request struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	RequesterID uint          `gorm:"not null;index" json:"requester"`
	EventID     uint          `gorm:"not null;index" json:"event"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Created     time.Time     `gorm:"not null" json:"created"`
}

// LedgerEntry is the persisted confirmed count of one event. Only the
// admission path writes it, inside the same transaction as the request
// status change it accounts for.
type LedgerEntry struct {
	EventID   uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	Confirmed int       `gorm:"not null;default:0" json:"confirmed"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LedgerEntry) TableName() string {
	return "participation_ledger"
}
