package application

import (
	"errors"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

const (
	msgDateFormat = "must be a date in YYYY-MM-DD format"
	msgTimeFormat = "must be a time in HH:MM format"
	msgPastSlot   = "date and time must not be in the past"
)

func addSlotError(vErr *ValidationError, dateField, timeField string, err error) {
	switch {
	case errors.Is(err, scheduler.ErrInvalidDate):
		vErr.add(dateField, msgDateFormat)
	case errors.Is(err, scheduler.ErrInvalidTime):
		vErr.add(timeField, msgTimeFormat)
	default:
		vErr.add(dateField, err.Error())
	}
}

// normalizeFutureSlot validates a date and time pair and rejects instants
// strictly before now. Missing parts are reported as required.
func normalizeFutureSlot(vErr *ValidationError, dateField, timeField string, slot scheduler.Slot, now time.Time, loc *time.Location) (scheduler.Slot, bool) {
	dateMissing := strings.TrimSpace(slot.Date) == ""
	timeMissing := strings.TrimSpace(slot.Time) == ""
	if dateMissing {
		vErr.add(dateField, "date is required")
	}
	if timeMissing {
		vErr.add(timeField, "time is required")
	}
	if dateMissing || timeMissing {
		return scheduler.Slot{}, false
	}

	normalized, err := slot.Normalize()
	if err != nil {
		addSlotError(vErr, dateField, timeField, err)
		return scheduler.Slot{}, false
	}

	start, err := normalized.Start(loc)
	if err != nil {
		addSlotError(vErr, dateField, timeField, err)
		return scheduler.Slot{}, false
	}
	if start.Before(now) {
		vErr.add(dateField, msgPastSlot)
		return scheduler.Slot{}, false
	}
	return normalized, true
}

// parseMediumOrDefault reads a medium, treating an empty value as online.
func parseMediumOrDefault(vErr *ValidationError, value string) scheduler.Medium {
	if strings.TrimSpace(value) == "" {
		return scheduler.MediumOnline
	}
	medium, ok := scheduler.ParseMedium(value)
	if !ok {
		vErr.add("medium", "medium must be online or in-person")
	}
	return medium
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
