package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

func setup(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("SHAREUP_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("SHAREUP_TEST_DATABASE_URL not set")
	}
	store, err := Open(context.Background(), dbURL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: pgx.ErrNoRows, want: persistence.ErrNotFound},
		{name: "unique", in: &pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"}, want: persistence.ErrDuplicate},
		{name: "check", in: &pgconn.PgError{Code: "23514"}, want: persistence.ErrConstraintViolation},
		{name: "not null", in: &pgconn.PgError{Code: "23502"}, want: persistence.ErrConstraintViolation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := errors.New("connection reset")
	if got := mapError(other); got != other {
		t.Fatalf("expected unknown errors to pass through, got %v", got)
	}
	if mapError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestResolveRequestIsConditional(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Microsecond)
	requester, recipient := uniqueID("alice"), uniqueID("bob")
	request := persistence.AppointmentRequest{
		ID:               uniqueID("req"),
		Title:            "Python mentoring",
		RequestedDate:    created.Add(24 * time.Hour).Format("2006-01-02"),
		RequestedTime:    "15:00",
		AlternativeSlots: []persistence.Slot{{Date: "2030-01-01", Time: "10:00"}},
		DurationMinutes:  90,
		Medium:           "online",
		Status:           "pending",
		RequesterID:      requester,
		RecipientID:      recipient,
		CreatedAt:        created,
		ExpiresAt:        created.Add(7 * 24 * time.Hour),
	}
	if err := store.CreateRequest(ctx, request); err != nil {
		t.Fatalf("create request: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteRequest(context.Background(), request.ID) })

	if err := store.CreateRequest(ctx, request); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	respondedAt := created.Add(time.Hour)
	resolved := request
	resolved.Status = "accepted"
	resolved.RespondedAt = &respondedAt
	appointment := persistence.Appointment{
		ID:              uniqueID("appt"),
		Title:           request.Title,
		Date:            request.RequestedDate,
		Time:            request.RequestedTime,
		DurationMinutes: request.DurationMinutes,
		Medium:          request.Medium,
		Status:          "confirmed",
		OwnerID:         recipient,
		ParticipantID:   requester,
		RequestID:       &request.ID,
		CreatedAt:       respondedAt,
		UpdatedAt:       respondedAt,
	}
	if err := store.ResolveRequest(ctx, resolved, &appointment); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteAppointment(context.Background(), appointment.ID) })

	if err := store.ResolveRequest(ctx, resolved, nil); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict on second resolve, got %v", err)
	}

	stored, err := store.GetRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if stored.Status != "accepted" || stored.RespondedAt == nil || !stored.RespondedAt.Equal(respondedAt) {
		t.Fatalf("unexpected stored request %#v", stored)
	}
	if len(stored.AlternativeSlots) != 1 || stored.AlternativeSlots[0].Date != "2030-01-01" {
		t.Fatalf("expected alternatives to round trip, got %v", stored.AlternativeSlots)
	}

	listed, err := store.ListAppointments(ctx, persistence.AppointmentFilter{ParticipantID: requester})
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != appointment.ID {
		t.Fatalf("expected the synthesized appointment, got %v", listed)
	}
}
