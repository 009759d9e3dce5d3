package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

func TestScenario_AcceptedMentoringRequestBecomesAppointment(t *testing.T) {
	store := newFakeStore()
	clock := newTestClock(referenceNow)
	cache := NewListCache(32, time.Minute, clock.Now)
	ids := sequentialIDs("id")
	requests := NewRequestService(store, ids, clock.Now, WithListCache(cache))
	appointments := NewAppointmentService(store, ids, clock.Now, WithListCache(cache))
	ctx := context.Background()

	tomorrow := referenceNow.AddDate(0, 0, 1).Format(scheduler.DateLayout)
	request, err := requests.Submit(ctx, SubmitRequestParams{
		Principal: Principal{UserID: "alice", DisplayName: "Alice"},
		Input: RequestInput{
			Recipient:       Party{ID: "bob", Name: "Bob"},
			Title:           "Python mentoring",
			RequestedDate:   tomorrow,
			RequestedTime:   "15:00",
			DurationMinutes: 90,
			Medium:          "online",
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Prime the shared cache so acceptance has to invalidate it.
	before, err := appointments.ListByParticipant(ctx, "alice")
	if err != nil {
		t.Fatalf("list before: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("expected no appointments yet, got %d", len(before))
	}

	result, err := requests.Respond(ctx, RespondParams{
		Principal: Principal{UserID: "bob"},
		RequestID: request.ID,
		Decision:  "accepted",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if result.Request.Status != scheduler.RequestAccepted {
		t.Fatalf("expected accepted request, got %q", result.Request.Status)
	}

	after, err := appointments.ListByParticipant(ctx, "alice")
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("expected one appointment, got %d", len(after))
	}
	appointment := after[0]
	if appointment.Status != scheduler.StatusConfirmed {
		t.Fatalf("expected confirmed appointment, got %q", appointment.Status)
	}
	if appointment.Date != tomorrow || appointment.Time != "15:00" || appointment.DurationMinutes != 90 {
		t.Fatalf("expected slot and duration from the request, got %+v", appointment)
	}

	sent, err := requests.ListSent(ctx, "alice")
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(sent) != 1 || sent[0].Status != scheduler.RequestAccepted {
		t.Fatalf("expected the accepted request in the sent list, got %+v", sent)
	}

	// The confirmed appointment still follows the state machine.
	if _, err := appointments.Update(ctx, UpdateAppointmentParams{
		Principal:     Principal{UserID: "alice"},
		AppointmentID: appointment.ID,
		Patch:         AppointmentPatch{Status: stringPtr("completed")},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = appointments.Update(ctx, UpdateAppointmentParams{
		Principal:     Principal{UserID: "bob"},
		AppointmentID: appointment.ID,
		Patch:         AppointmentPatch{Status: stringPtr("confirmed")},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestScenario_YesterdayRequestIsRejected(t *testing.T) {
	store := newFakeStore()
	clock := newTestClock(referenceNow)
	requests := NewRequestService(store, sequentialIDs("id"), clock.Now)

	yesterday := referenceNow.AddDate(0, 0, -1)
	_, err := requests.Submit(context.Background(), SubmitRequestParams{
		Principal: Principal{UserID: "alice"},
		Input: RequestInput{
			Recipient:     Party{ID: "bob"},
			Title:         "Python mentoring",
			RequestedDate: yesterday.Format(scheduler.DateLayout),
			RequestedTime: yesterday.Format(scheduler.TimeLayout),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.requests) != 0 {
		t.Fatalf("expected no record to be created, got %d", len(store.requests))
	}
}
