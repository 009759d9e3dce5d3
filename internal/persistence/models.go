package persistence

import "time"

// Slot is an alternative date and time proposed alongside a request.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// AppointmentRequest is the stored form of a request to schedule an appointment.
type AppointmentRequest struct {
	ID               string
	Title            string
	Description      string
	RequestedDate    string
	RequestedTime    string
	AlternativeSlots []Slot
	DurationMinutes  int
	Location         string
	Medium           string
	Status           string
	RequesterID      string
	RequesterName    string
	RequesterAvatar  *string
	RecipientID      string
	RecipientName    string
	RecipientAvatar  *string
	Message          *string
	ResponseMessage  *string
	RespondedAt      *time.Time
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Appointment is the stored form of a scheduled session between two parties.
type Appointment struct {
	ID                string
	Title             string
	Description       string
	Date              string
	Time              string
	DurationMinutes   int
	Location          string
	Medium            string
	Status            string
	OwnerID           string
	ParticipantID     string
	ParticipantName   string
	ParticipantAvatar *string
	RequestID         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
