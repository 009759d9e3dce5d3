package scheduler

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusConfirmed, StatusScheduled, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusScheduled, StatusScheduled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseMedium(t *testing.T) {
	for input, want := range map[string]Medium{
		"online":     MediumOnline,
		" Online ":   MediumOnline,
		"in-person":  MediumInPerson,
		"presencial": MediumInPerson,
		"in_person":  MediumInPerson,
	} {
		got, ok := ParseMedium(input)
		if !ok || got != want {
			t.Errorf("ParseMedium(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}

	if _, ok := ParseMedium("carrier pigeon"); ok {
		t.Fatalf("expected unknown medium to be rejected")
	}
}

func TestExpiry(t *testing.T) {
	created := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	deadline := ExpiresAt(created)

	if !deadline.Equal(created.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expected deadline seven days after creation, got %v", deadline)
	}
	if Expired(deadline, deadline.Add(-time.Nanosecond)) {
		t.Fatalf("expected request to be live just before the deadline")
	}
	if !Expired(deadline, deadline) {
		t.Fatalf("expected request to be expired at the deadline")
	}
}
