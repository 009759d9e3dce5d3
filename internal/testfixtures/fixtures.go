package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Jessiellen/shareup-app/internal/adapters"
	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

var (
	requestCounter     uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Request fixtures -----------------------------

// RequestFixture represents a deterministic appointment request that can be
// materialised for application or persistence tests. The requested slot is
// the day after CreatedAt so the request is valid at the reference time.
type RequestFixture struct {
	request application.AppointmentRequest
}

// RequestOption configures the generated request fixture.
type RequestOption func(*application.AppointmentRequest)

// NewRequestFixture returns a deterministic pending request with optional overrides.
func NewRequestFixture(opts ...RequestOption) RequestFixture {
	idx := atomic.AddUint64(&requestCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	slot := created.Add(24 * time.Hour)

	request := application.AppointmentRequest{
		ID:              fmt.Sprintf("request-%03d", idx),
		Title:           fmt.Sprintf("Session %03d", idx),
		Description:     "Skill exchange session",
		RequestedDate:   slot.Format(scheduler.DateLayout),
		RequestedTime:   slot.Format(scheduler.TimeLayout),
		DurationMinutes: scheduler.DefaultDurationMinutes,
		Location:        "Online",
		Medium:          scheduler.MediumOnline,
		Status:          scheduler.RequestPending,
		Requester:       application.Party{ID: "requester-" + fmt.Sprintf("%03d", idx), Name: "Requester"},
		Recipient:       application.Party{ID: "recipient-" + fmt.Sprintf("%03d", idx), Name: "Recipient"},
		CreatedAt:       created,
		ExpiresAt:       scheduler.ExpiresAt(created),
	}
	for _, opt := range opts {
		opt(&request)
	}
	return RequestFixture{request: request}
}

// WithRequestID overrides the generated request ID.
func WithRequestID(id string) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.ID = id
	}
}

// WithRequestParties sets the requester and recipient IDs.
func WithRequestParties(requesterID, recipientID string) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.Requester.ID = requesterID
		r.Recipient.ID = recipientID
	}
}

// WithRequestSlot overrides the requested date and time.
func WithRequestSlot(date, clock string) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.RequestedDate = date
		r.RequestedTime = clock
	}
}

// WithRequestAlternatives sets the informational alternative slots.
func WithRequestAlternatives(slots ...scheduler.Slot) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.AlternativeSlots = append([]scheduler.Slot(nil), slots...)
	}
}

// WithRequestStatus overrides the stored status.
func WithRequestStatus(status scheduler.RequestStatus) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.Status = status
	}
}

// WithRequestCreatedAt sets CreatedAt and derives ExpiresAt from it.
func WithRequestCreatedAt(created time.Time) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.CreatedAt = created
		r.ExpiresAt = scheduler.ExpiresAt(created)
	}
}

// WithRequestMessage sets the requester's message.
func WithRequestMessage(message string) RequestOption {
	return func(r *application.AppointmentRequest) {
		r.Message = &message
	}
}

// Application returns the fixture as an application model.
func (f RequestFixture) Application() application.AppointmentRequest {
	return adapters.ToApplicationRequest(adapters.ToPersistenceRequest(f.request))
}

// Persistence returns the fixture as a persistence model.
func (f RequestFixture) Persistence() persistence.AppointmentRequest {
	return adapters.ToPersistenceRequest(f.request)
}

// --------------------------- Appointment fixtures ---------------------------

// AppointmentFixture represents a deterministic appointment.
type AppointmentFixture struct {
	appointment application.Appointment
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*application.Appointment)

// NewAppointmentFixture returns a deterministic scheduled appointment with optional overrides.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	slot := referenceTime.Add(48*time.Hour + time.Duration(idx)*time.Hour)

	appointment := application.Appointment{
		ID:              fmt.Sprintf("appointment-%03d", idx),
		Title:           fmt.Sprintf("Appointment %03d", idx),
		Description:     "Skill exchange session",
		Date:            slot.Format(scheduler.DateLayout),
		Time:            slot.Format(scheduler.TimeLayout),
		DurationMinutes: scheduler.DefaultDurationMinutes,
		Location:        "Online",
		Medium:          scheduler.MediumOnline,
		Status:          scheduler.StatusScheduled,
		OwnerID:         fmt.Sprintf("owner-%03d", idx),
		Participant:     application.Party{ID: fmt.Sprintf("participant-%03d", idx), Name: "Participant"},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&appointment)
	}
	return AppointmentFixture{appointment: appointment}
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *application.Appointment) {
		a.ID = id
	}
}

// WithAppointmentParties sets the owner and counterparty IDs.
func WithAppointmentParties(ownerID, participantID string) AppointmentOption {
	return func(a *application.Appointment) {
		a.OwnerID = ownerID
		a.Participant.ID = participantID
	}
}

// WithAppointmentSlot overrides the date and time.
func WithAppointmentSlot(date, clock string) AppointmentOption {
	return func(a *application.Appointment) {
		a.Date = date
		a.Time = clock
	}
}

// WithAppointmentStatus overrides the status.
func WithAppointmentStatus(status scheduler.AppointmentStatus) AppointmentOption {
	return func(a *application.Appointment) {
		a.Status = status
	}
}

// WithAppointmentTimestamps overrides CreatedAt and UpdatedAt.
func WithAppointmentTimestamps(created, updated time.Time) AppointmentOption {
	return func(a *application.Appointment) {
		a.CreatedAt = created
		a.UpdatedAt = updated
	}
}

// WithAppointmentRequestID links the appointment to an originating request.
func WithAppointmentRequestID(requestID string) AppointmentOption {
	return func(a *application.Appointment) {
		a.RequestID = &requestID
	}
}

// Application returns the fixture as an application model.
func (f AppointmentFixture) Application() application.Appointment {
	return adapters.ToApplicationAppointment(adapters.ToPersistenceAppointment(f.appointment))
}

// Persistence returns the fixture as a persistence model.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return adapters.ToPersistenceAppointment(f.appointment)
}
