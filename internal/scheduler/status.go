package scheduler

import (
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	// StatusScheduled is the initial state of a manually created appointment.
	StatusScheduled AppointmentStatus = "scheduled"
	// StatusConfirmed marks an appointment both parties agreed to.
	StatusConfirmed AppointmentStatus = "confirmed"
	// StatusCancelled is terminal.
	StatusCancelled AppointmentStatus = "cancelled"
	// StatusCompleted is terminal.
	StatusCompleted AppointmentStatus = "completed"
)

// RequestStatus is the lifecycle state of an appointment request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
	RequestExpired  RequestStatus = "expired"
)

// Medium is the modality of a session.
type Medium string

const (
	MediumOnline   Medium = "online"
	MediumInPerson Medium = "in-person"
)

// RequestTTL is the fixed response window of an appointment request.
const RequestTTL = 7 * 24 * time.Hour

// DefaultDurationMinutes is applied to requests submitted without a duration.
const DefaultDurationMinutes = 60

var transitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	StatusScheduled: {
		StatusConfirmed: true,
		StatusCancelled: true,
		StatusCompleted: true,
	},
	StatusConfirmed: {
		StatusScheduled: true,
		StatusCancelled: true,
		StatusCompleted: true,
	},
}

// CanTransition reports whether an appointment may move from one status to another.
// Identical states are not a transition and are rejected.
func CanTransition(from, to AppointmentStatus) bool {
	return transitions[from][to]
}

// Terminal reports whether no further transition is possible from the status.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ParseAppointmentStatus normalizes a status string.
func ParseAppointmentStatus(value string) (AppointmentStatus, bool) {
	switch status := AppointmentStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusCompleted:
		return status, true
	default:
		return "", false
	}
}

// ParseRequestStatus normalizes a request status string.
func ParseRequestStatus(value string) (RequestStatus, bool) {
	switch status := RequestStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case RequestPending, RequestAccepted, RequestDeclined, RequestExpired:
		return status, true
	default:
		return "", false
	}
}

// ParseMedium normalizes a medium string. "presencial" and "in_person" are
// accepted as spellings of in-person.
func ParseMedium(value string) (Medium, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "online":
		return MediumOnline, true
	case "in-person", "in_person", "inperson", "presencial":
		return MediumInPerson, true
	default:
		return "", false
	}
}

// ExpiresAt returns the response deadline for a request created at createdAt.
func ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(RequestTTL)
}

// Expired reports whether the deadline has been reached at now.
func Expired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
