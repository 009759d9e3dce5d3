package adapters

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/events"
	"github.com/Jessiellen/shareup-app/internal/persistence/memory"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

func TestRequestConversionKeepsEveryField(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)
	responded := created.Add(time.Hour)
	avatar := "https://cdn.example.com/a.png"
	message := "Could we pair on Go?"
	reply := "Sure"

	request := application.AppointmentRequest{
		ID:               "req-1",
		Title:            "Go pairing",
		Description:      "Concurrency patterns",
		RequestedDate:    "2025-05-04",
		RequestedTime:    "14:00",
		AlternativeSlots: []scheduler.Slot{{Date: "2025-05-05", Time: "09:00"}},
		DurationMinutes:  45,
		Location:         "Library",
		Medium:           scheduler.MediumInPerson,
		Status:           scheduler.RequestAccepted,
		Requester:        application.Party{ID: "alice", Name: "Alice", Avatar: &avatar},
		Recipient:        application.Party{ID: "bob", Name: "Bob"},
		Message:          &message,
		ResponseMessage:  &reply,
		RespondedAt:      &responded,
		CreatedAt:        created,
		ExpiresAt:        scheduler.ExpiresAt(created),
	}

	got := ToApplicationRequest(ToPersistenceRequest(request))
	if !reflect.DeepEqual(got, request) {
		t.Fatalf("expected round trip to preserve request\nwant %#v\ngot  %#v", request, got)
	}
	if got.Requester.Avatar == request.Requester.Avatar {
		t.Fatalf("expected pointer fields to be copied")
	}
}

func TestServicesOverMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)
	counter := 0
	ids := func() string {
		counter++
		return "id-" + strconv.Itoa(counter)
	}

	requests, appointments := Services(memory.Open(), ids, func() time.Time { return now })

	request, err := requests.Submit(ctx, application.SubmitRequestParams{
		Principal: application.Principal{UserID: "alice", DisplayName: "Alice"},
		Input: application.RequestInput{
			Recipient:     application.Party{ID: "bob", Name: "Bob"},
			Title:         "Go pairing",
			RequestedDate: "2025-05-04",
			RequestedTime: "14:00",
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := requests.Respond(ctx, application.RespondParams{
		Principal: application.Principal{UserID: "bob"},
		RequestID: request.ID,
		Decision:  "accepted",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	stored, err := appointments.Get(ctx, application.Principal{UserID: "alice"}, result.Appointment.ID)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if stored.Status != scheduler.StatusConfirmed || stored.RequestID == nil || *stored.RequestID != request.ID {
		t.Fatalf("unexpected appointment %+v", stored)
	}

	_, err = requests.Respond(ctx, application.RespondParams{
		Principal: application.Principal{UserID: "bob"},
		RequestID: request.ID,
		Decision:  "declined",
	})
	if !errors.Is(err, application.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestListCacheFollowsWritesFromAnotherInstance(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	counter := 0
	ids := func() string {
		counter++
		return "id-" + strconv.Itoa(counter)
	}

	store := memory.Open()
	bus := events.NewBroker(nil)

	cacheA := application.NewListCache(16, time.Hour, clock)
	requestsA, _ := Services(store, ids, clock,
		application.WithPublisher(bus), application.WithListCache(cacheA))
	requestsB, _ := Services(store, ids, clock,
		application.WithPublisher(bus), application.WithListCache(application.NewListCache(16, time.Hour, clock)))

	sub, err := bus.Subscribe(ctx, "")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()
	go cacheA.Follow(ctx, sub.Events())

	request, err := requestsA.Submit(ctx, application.SubmitRequestParams{
		Principal: application.Principal{UserID: "alice", DisplayName: "Alice"},
		Input: application.RequestInput{
			Recipient:     application.Party{ID: "bob", Name: "Bob"},
			Title:         "Go pairing",
			RequestedDate: "2025-05-04",
			RequestedTime: "14:00",
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	pending, err := requestsA.ListPending(ctx, "bob")
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending request, got %v (err %v)", pending, err)
	}

	if _, err := requestsB.Respond(ctx, application.RespondParams{
		Principal: application.Principal{UserID: "bob"},
		RequestID: request.ID,
		Decision:  "accepted",
	}); err != nil {
		t.Fatalf("respond on second instance: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		pending, err = requestsA.ListPending(ctx, "bob")
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first instance still lists %d pending request(s) after the second accepted it", len(pending))
		}
		time.Sleep(5 * time.Millisecond)
	}

	sent, err := requestsA.ListSent(ctx, "alice")
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(sent) != 1 || sent[0].Status != scheduler.RequestAccepted {
		t.Fatalf("expected the accepted request in the sent list, got %+v", sent)
	}
}
