package scheduler

import (
	"testing"
	"time"
)

func TestDetectConflicts(t *testing.T) {
	base := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	t.Run("participant overlap produces conflict", func(t *testing.T) {
		existing := []Booking{{
			ID:           "appt-1",
			Participants: []string{"ana", "bruno"},
			Start:        base,
			End:          base.Add(time.Hour),
		}}
		candidate := Booking{
			ID:           "appt-2",
			Participants: []string{"bruno", "carla"},
			Start:        base.Add(30 * time.Minute),
			End:          base.Add(90 * time.Minute),
		}

		conflicts := DetectConflicts(existing, candidate)
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if conflicts[0].WithBookingID != "appt-1" || conflicts[0].Participant != "bruno" {
			t.Fatalf("unexpected conflict %+v", conflicts[0])
		}
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		existing := []Booking{{
			ID:           "appt-1",
			Participants: []string{"ana"},
			Start:        base,
			End:          base.Add(time.Hour),
		}}
		candidate := Booking{
			ID:           "appt-2",
			Participants: []string{"ana"},
			Start:        base.Add(time.Hour),
			End:          base.Add(2 * time.Hour),
		}

		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("non-overlapping schedules yield no conflicts", func(t *testing.T) {
		existing := []Booking{{
			ID:           "appt-1",
			Participants: []string{"ana"},
			Start:        base,
			End:          base.Add(time.Hour),
		}}
		candidate := Booking{
			ID:           "appt-2",
			Participants: []string{"ana"},
			Start:        base.Add(3 * time.Hour),
			End:          base.Add(4 * time.Hour),
		}

		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("ignores the candidate itself", func(t *testing.T) {
		booking := Booking{
			ID:           "appt-1",
			Participants: []string{"ana"},
			Start:        base,
			End:          base.Add(time.Hour),
		}

		if conflicts := DetectConflicts([]Booking{booking}, booking); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})
}
