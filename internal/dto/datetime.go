package dto

import (
	"encoding/json"
	"time"

	"github.com/Eursukkul/ewm-service/internal/lifecycle"
)

// DateTime is a timestamp in the API's "2006-01-02 15:04:05" form.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{t}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(lifecycle.DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(lifecycle.DateTimeLayout, s, time.Local)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDateTime reads an optional query parameter; "" yields nil.
func ParseDateTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(lifecycle.DateTimeLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func dateTimePtr(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	return &DateTime{*t}
}
