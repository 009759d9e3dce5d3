package application

import (
	"time"

	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// synthesizeAppointment builds the confirmed appointment created when the
// recipient accepts request. The recipient owns it and the requester becomes
// the counterparty. Alternative slots are ignored.
func synthesizeAppointment(request AppointmentRequest, id string, now time.Time) (Appointment, *ValidationError) {
	requestID := request.ID
	appointment := Appointment{
		ID:              id,
		Title:           request.Title,
		Description:     request.Description,
		Date:            request.RequestedDate,
		Time:            request.RequestedTime,
		DurationMinutes: request.DurationMinutes,
		Location:        request.Location,
		Medium:          request.Medium,
		Status:          scheduler.StatusConfirmed,
		OwnerID:         request.Recipient.ID,
		Participant: Party{
			ID:     request.Requester.ID,
			Name:   request.Requester.Name,
			Avatar: cloneString(request.Requester.Avatar),
		},
		RequestID: &requestID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	vErr := validateAppointment(appointment)
	return appointment, vErr
}

// validateAppointment applies the field rules shared by manual creation and
// request acceptance to an assembled appointment.
func validateAppointment(appointment Appointment) *ValidationError {
	vErr := &ValidationError{}

	if appointment.ID == "" {
		vErr.add("id", "identifier could not be generated")
	}
	if appointment.Title == "" {
		vErr.add("title", "title is required")
	}
	if _, err := appointment.Slot().Normalize(); err != nil {
		addSlotError(vErr, "date", "time", err)
	}
	if appointment.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if _, ok := scheduler.ParseMedium(string(appointment.Medium)); !ok {
		vErr.add("medium", "medium must be online or in-person")
	}
	if appointment.OwnerID == "" {
		vErr.add("owner_id", "owner is required")
	}
	if appointment.Participant.ID == "" {
		vErr.add("participant_id", "participant is required")
	} else if appointment.Participant.ID == appointment.OwnerID {
		vErr.add("participant_id", "participant must differ from the owner")
	}

	return vErr
}
