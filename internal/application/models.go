package application

import (
	"time"

	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID      string
	DisplayName string
	Avatar      *string
}

// Party identifies one side of a request or appointment.
type Party struct {
	ID     string
	Name   string
	Avatar *string
}

// AppointmentRequest is a proposal from a requester to a recipient.
type AppointmentRequest struct {
	ID               string
	Title            string
	Description      string
	RequestedDate    string
	RequestedTime    string
	AlternativeSlots []scheduler.Slot
	DurationMinutes  int
	Location         string
	Medium           scheduler.Medium
	Status           scheduler.RequestStatus
	Requester        Party
	Recipient        Party
	Message          *string
	ResponseMessage  *string
	RespondedAt      *time.Time
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// IsExpired reports whether the response window has closed at now.
func (r AppointmentRequest) IsExpired(now time.Time) bool {
	return scheduler.Expired(r.ExpiresAt, now)
}

// EffectiveStatus is the stored status, except that a pending request past
// its deadline reads as expired.
func (r AppointmentRequest) EffectiveStatus(now time.Time) scheduler.RequestStatus {
	if r.Status == scheduler.RequestPending && r.IsExpired(now) {
		return scheduler.RequestExpired
	}
	return r.Status
}

// Open reports whether the request can still be answered at now.
func (r AppointmentRequest) Open(now time.Time) bool {
	return r.EffectiveStatus(now) == scheduler.RequestPending
}

// Involves reports whether userID is the requester or the recipient.
func (r AppointmentRequest) Involves(userID string) bool {
	return userID != "" && (r.Requester.ID == userID || r.Recipient.ID == userID)
}

// Appointment is a scheduled session held by OwnerID with a counterparty.
type Appointment struct {
	ID              string
	Title           string
	Description     string
	Date            string
	Time            string
	DurationMinutes int
	Location        string
	Medium          scheduler.Medium
	Status          scheduler.AppointmentStatus
	OwnerID         string
	Participant     Party
	RequestID       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasParticipant reports whether userID is the owner or the counterparty.
func (a Appointment) HasParticipant(userID string) bool {
	return userID != "" && (a.OwnerID == userID || a.Participant.ID == userID)
}

// Slot returns the appointment's date and time of day.
func (a Appointment) Slot() scheduler.Slot {
	return scheduler.Slot{Date: a.Date, Time: a.Time}
}

// Start resolves the appointment's date and time in loc.
func (a Appointment) Start(loc *time.Location) (time.Time, error) {
	return a.Slot().Start(loc)
}

// RequestInput captures caller provided request fields.
type RequestInput struct {
	Recipient        Party
	Title            string
	Description      string
	RequestedDate    string
	RequestedTime    string
	AlternativeSlots []scheduler.Slot
	DurationMinutes  int
	Location         string
	Medium           string
	Message          *string
}

// SubmitRequestParams wraps the data required to submit a request.
type SubmitRequestParams struct {
	Principal Principal
	Input     RequestInput
}

// RespondParams wraps the recipient's decision on a request.
type RespondParams struct {
	Principal Principal
	RequestID string
	Decision  string
	Message   *string
}

// RespondResult carries the resolved request and, when accepted, the
// appointment created from it.
type RespondResult struct {
	Request     AppointmentRequest
	Appointment *Appointment
}

// AppointmentInput captures caller provided appointment fields.
type AppointmentInput struct {
	Title           string
	Description     string
	Date            string
	Time            string
	DurationMinutes int
	Location        string
	Medium          string
	Status          string
	Participant     Party
}

// CreateAppointmentParams wraps the data required to create an appointment.
type CreateAppointmentParams struct {
	Principal Principal
	Input     AppointmentInput
}

// AppointmentPatch lists the fields to change. Nil fields are left untouched.
type AppointmentPatch struct {
	Title           *string
	Description     *string
	DurationMinutes *int
	Location        *string
	Medium          *string
	Status          *string
}

// UpdateAppointmentParams wraps the data required to update an appointment.
type UpdateAppointmentParams struct {
	Principal     Principal
	AppointmentID string
	Patch         AppointmentPatch
}

// RescheduleParams moves an appointment to a new date and time.
type RescheduleParams struct {
	Principal     Principal
	AppointmentID string
	Date          string
	Time          string
}

// ListUpcomingParams selects appointments starting after From. An empty
// ParticipantID selects every appointment.
type ListUpcomingParams struct {
	ParticipantID string
	From          time.Time
}

// ConflictWarning describes an overlapping appointment that should be surfaced to callers.
type ConflictWarning struct {
	AppointmentID string
	ParticipantID string
}

// RequestQuery narrows request repository queries.
type RequestQuery struct {
	RequesterID string
	RecipientID string
	Status      scheduler.RequestStatus
}

// AppointmentQuery narrows appointment repository queries.
type AppointmentQuery struct {
	ParticipantID string
	Date          string
}
