package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

// timestampLayout is fixed-width so TEXT comparison orders chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func timePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeSlots(slots []persistence.Slot) (string, error) {
	if len(slots) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return "", fmt.Errorf("encode alternative slots: %w", err)
	}
	return string(data), nil
}

func decodeSlots(raw string) ([]persistence.Slot, error) {
	var slots []persistence.Slot
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, fmt.Errorf("decode alternative slots: %w", err)
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return slots, nil
}
