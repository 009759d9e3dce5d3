package persistence

import (
	"context"
	"time"
)

// RequestFilter narrows request queries. Empty fields are ignored.
type RequestFilter struct {
	RequesterID string
	RecipientID string
	Status      string
}

// AppointmentRequestRepository stores appointment requests.
//
// ListRequests returns records newest first.
//
// ResolveRequest writes the decision carried by request only while the stored
// record is still pending and its ExpiresAt is after request.RespondedAt. When
// appointment is non-nil it is inserted in the same atomic step. A lost
// condition yields ErrConflict and leaves storage untouched.
type AppointmentRequestRepository interface {
	CreateRequest(ctx context.Context, request AppointmentRequest) error
	GetRequest(ctx context.Context, id string) (AppointmentRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]AppointmentRequest, error)
	ResolveRequest(ctx context.Context, request AppointmentRequest, appointment *Appointment) error
	DeleteRequest(ctx context.Context, id string) error
	ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error)
	PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error)
}

// AppointmentFilter narrows appointment queries. ParticipantID matches either
// the owner or the counterparty.
type AppointmentFilter struct {
	ParticipantID string
	Date          string
}

// AppointmentRepository stores appointments. ListAppointments returns records
// ordered by date, time and ID.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error)
}

// Store is a backing store that owns both repositories.
type Store interface {
	AppointmentRequestRepository
	AppointmentRepository
	Migrate(ctx context.Context) error
	Close() error
}
