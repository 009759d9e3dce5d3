package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of times of day.
	TimeLayout = "15:04"
)

var (
	// ErrInvalidDate indicates a date that does not follow DateLayout.
	ErrInvalidDate = errors.New("scheduler: invalid date")
	// ErrInvalidTime indicates a time of day that does not follow TimeLayout.
	ErrInvalidTime = errors.New("scheduler: invalid time")
)

// Slot is a calendar date paired with a time of day.
type Slot struct {
	Date string
	Time string
}

// Normalize trims both parts and rewrites the time as HH:MM. Times with
// non-zero seconds are rejected.
func (s Slot) Normalize() (Slot, error) {
	date := strings.TrimSpace(s.Date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidDate, s.Date)
	}
	clock, err := parseClock(s.Time)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Date: date, Time: clock.Format(TimeLayout)}, nil
}

// Start resolves the slot to an instant in loc. A nil loc means UTC.
func (s Slot) Start(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s.Date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s.Date)
	}
	clock, err := parseClock(s.Time)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc), nil
}

// Less orders slots chronologically. Both slots must be normalized.
func (s Slot) Less(other Slot) bool {
	if s.Date == other.Date {
		return s.Time < other.Time
	}
	return s.Date < other.Date
}

// parseClock reads a time of day at minute precision. "15:04:05" is accepted
// only with zero seconds, since slots are stored as HH:MM.
func parseClock(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{TimeLayout, "15:04:05", "3:04PM", "3:04 PM"} {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if t.Second() != 0 {
			return time.Time{}, fmt.Errorf("%w: %q has seconds", ErrInvalidTime, value)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
}
