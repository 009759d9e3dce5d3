package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestSlotNormalize(t *testing.T) {
	t.Run("rewrites time as HH:MM", func(t *testing.T) {
		slot, err := Slot{Date: " 2025-04-10 ", Time: "15:00:00"}.Normalize()
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if slot.Date != "2025-04-10" || slot.Time != "15:00" {
			t.Fatalf("unexpected slot %+v", slot)
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		_, err := Slot{Date: "10/04/2025", Time: "15:00"}.Normalize()
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
	})

	t.Run("rejects seconds instead of truncating them", func(t *testing.T) {
		_, err := Slot{Date: "2025-04-10", Time: "14:59:59"}.Normalize()
		if !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("expected ErrInvalidTime, got %v", err)
		}
		if _, err := (Slot{Date: "2025-04-10", Time: "14:59:59"}).Start(nil); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("expected Start to reject seconds too, got %v", err)
		}
	})

	t.Run("rejects malformed time", func(t *testing.T) {
		_, err := Slot{Date: "2025-04-10", Time: "25:61"}.Normalize()
		if !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("expected ErrInvalidTime, got %v", err)
		}
	})
}

func TestSlotStart(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	start, err := Slot{Date: "2025-04-10", Time: "15:30"}.Start(loc)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	want := time.Date(2025, time.April, 10, 18, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("expected %v, got %v", want, start.UTC())
	}
}

func TestSlotLess(t *testing.T) {
	earlier := Slot{Date: "2025-04-10", Time: "09:00"}
	later := Slot{Date: "2025-04-10", Time: "15:00"}
	nextDay := Slot{Date: "2025-04-11", Time: "08:00"}

	if !earlier.Less(later) || later.Less(earlier) {
		t.Fatalf("expected same-day ordering by time")
	}
	if !later.Less(nextDay) {
		t.Fatalf("expected ordering by date first")
	}
}
