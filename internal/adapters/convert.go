package adapters

import (
	"time"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// ToApplicationRequest converts a stored request into its service form.
func ToApplicationRequest(model persistence.AppointmentRequest) application.AppointmentRequest {
	return application.AppointmentRequest{
		ID:               model.ID,
		Title:            model.Title,
		Description:      model.Description,
		RequestedDate:    model.RequestedDate,
		RequestedTime:    model.RequestedTime,
		AlternativeSlots: toApplicationSlots(model.AlternativeSlots),
		DurationMinutes:  model.DurationMinutes,
		Location:         model.Location,
		Medium:           scheduler.Medium(model.Medium),
		Status:           scheduler.RequestStatus(model.Status),
		Requester: application.Party{
			ID:     model.RequesterID,
			Name:   model.RequesterName,
			Avatar: copyString(model.RequesterAvatar),
		},
		Recipient: application.Party{
			ID:     model.RecipientID,
			Name:   model.RecipientName,
			Avatar: copyString(model.RecipientAvatar),
		},
		Message:         copyString(model.Message),
		ResponseMessage: copyString(model.ResponseMessage),
		RespondedAt:     copyTime(model.RespondedAt),
		CreatedAt:       model.CreatedAt,
		ExpiresAt:       model.ExpiresAt,
	}
}

// ToPersistenceRequest converts a service request into its stored form.
func ToPersistenceRequest(request application.AppointmentRequest) persistence.AppointmentRequest {
	return persistence.AppointmentRequest{
		ID:               request.ID,
		Title:            request.Title,
		Description:      request.Description,
		RequestedDate:    request.RequestedDate,
		RequestedTime:    request.RequestedTime,
		AlternativeSlots: toPersistenceSlots(request.AlternativeSlots),
		DurationMinutes:  request.DurationMinutes,
		Location:         request.Location,
		Medium:           string(request.Medium),
		Status:           string(request.Status),
		RequesterID:      request.Requester.ID,
		RequesterName:    request.Requester.Name,
		RequesterAvatar:  copyString(request.Requester.Avatar),
		RecipientID:      request.Recipient.ID,
		RecipientName:    request.Recipient.Name,
		RecipientAvatar:  copyString(request.Recipient.Avatar),
		Message:          copyString(request.Message),
		ResponseMessage:  copyString(request.ResponseMessage),
		RespondedAt:      copyTime(request.RespondedAt),
		CreatedAt:        request.CreatedAt,
		ExpiresAt:        request.ExpiresAt,
	}
}

// ToApplicationAppointment converts a stored appointment into its service form.
func ToApplicationAppointment(model persistence.Appointment) application.Appointment {
	return application.Appointment{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		Date:            model.Date,
		Time:            model.Time,
		DurationMinutes: model.DurationMinutes,
		Location:        model.Location,
		Medium:          scheduler.Medium(model.Medium),
		Status:          scheduler.AppointmentStatus(model.Status),
		OwnerID:         model.OwnerID,
		Participant: application.Party{
			ID:     model.ParticipantID,
			Name:   model.ParticipantName,
			Avatar: copyString(model.ParticipantAvatar),
		},
		RequestID: copyString(model.RequestID),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// ToPersistenceAppointment converts a service appointment into its stored form.
func ToPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:                appointment.ID,
		Title:             appointment.Title,
		Description:       appointment.Description,
		Date:              appointment.Date,
		Time:              appointment.Time,
		DurationMinutes:   appointment.DurationMinutes,
		Location:          appointment.Location,
		Medium:            string(appointment.Medium),
		Status:            string(appointment.Status),
		OwnerID:           appointment.OwnerID,
		ParticipantID:     appointment.Participant.ID,
		ParticipantName:   appointment.Participant.Name,
		ParticipantAvatar: copyString(appointment.Participant.Avatar),
		RequestID:         copyString(appointment.RequestID),
		CreatedAt:         appointment.CreatedAt,
		UpdatedAt:         appointment.UpdatedAt,
	}
}

func toApplicationSlots(slots []persistence.Slot) []scheduler.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]scheduler.Slot, len(slots))
	for i, slot := range slots {
		out[i] = scheduler.Slot{Date: slot.Date, Time: slot.Time}
	}
	return out
}

func toPersistenceSlots(slots []scheduler.Slot) []persistence.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]persistence.Slot, len(slots))
	for i, slot := range slots {
		out[i] = persistence.Slot{Date: slot.Date, Time: slot.Time}
	}
	return out
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
