package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/application"
)

type appointmentService interface {
	Create(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, []application.ConflictWarning, error)
	Update(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, error)
	Reschedule(ctx context.Context, params application.RescheduleParams) (application.Appointment, []application.ConflictWarning, error)
	Remove(ctx context.Context, principal application.Principal, appointmentID string) error
	Get(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	ListByParticipant(ctx context.Context, participantID string) ([]application.Appointment, error)
	ListByDate(ctx context.Context, participantID, date string) ([]application.Appointment, error)
	ListUpcoming(ctx context.Context, params application.ListUpcomingParams) ([]application.Appointment, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	now       func() time.Time
}

func NewAppointmentHandler(service appointmentService, now func() time.Time, logger *slog.Logger) *AppointmentHandler {
	if now == nil {
		now = time.Now
	}
	return &AppointmentHandler{service: service, responder: newResponder(logger), now: now}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, warnings, err := h.service.Create(r.Context(), application.CreateAppointmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderAppointment(r.Context(), w, appointment, warnings, http.StatusCreated)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req appointmentPatchBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.service.Update(r.Context(), application.UpdateAppointmentParams{
		Principal:     principal,
		AppointmentID: appointmentID,
		Patch:         req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderAppointment(r.Context(), w, appointment, nil, http.StatusOK)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req slotDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, warnings, err := h.service.Reschedule(r.Context(), application.RescheduleParams{
		Principal:     principal,
		AppointmentID: appointmentID,
		Date:          strings.TrimSpace(req.Date),
		Time:          strings.TrimSpace(req.Time),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderAppointment(r.Context(), w, appointment, warnings, http.StatusOK)
}

func (h *AppointmentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Remove(r.Context(), principal, appointmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.service.Get(r.Context(), principal, appointmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderAppointment(r.Context(), w, appointment, nil, http.StatusOK)
}

// List returns the caller's appointments, narrowed to one day with ?date=YYYY-MM-DD.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var (
		appointments []application.Appointment
		err          error
	)
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		appointments, err = h.service.ListByDate(r.Context(), principal.UserID, date)
	} else {
		appointments, err = h.service.ListByParticipant(r.Context(), principal.UserID)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: toAppointmentDTOs(appointments)})
}

// ListUpcoming returns the caller's appointments starting after ?from= (RFC3339, default now).
func (h *AppointmentHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	from := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidFromTime)
			return
		}
		from = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointments, err := h.service.ListUpcoming(r.Context(), application.ListUpcomingParams{
		ParticipantID: principal.UserID,
		From:          from,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: toAppointmentDTOs(appointments)})
}

func (h *AppointmentHandler) renderAppointment(ctx context.Context, w http.ResponseWriter, appointment application.Appointment, warnings []application.ConflictWarning, status int) {
	payload := appointmentResponse{
		Appointment: toAppointmentDTO(appointment),
		Warnings:    toWarningDTOs(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type createAppointmentBody struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Location        string   `json:"location"`
	Medium          string   `json:"medium"`
	Status          string   `json:"status"`
	Participant     partyDTO `json:"participant"`
}

func (b createAppointmentBody) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		Title:           strings.TrimSpace(b.Title),
		Description:     b.Description,
		Date:            strings.TrimSpace(b.Date),
		Time:            strings.TrimSpace(b.Time),
		DurationMinutes: b.DurationMinutes,
		Location:        strings.TrimSpace(b.Location),
		Medium:          strings.TrimSpace(b.Medium),
		Status:          strings.TrimSpace(b.Status),
		Participant:     b.Participant.toParty(),
	}
}

type appointmentPatchBody struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes"`
	Location        *string `json:"location"`
	Medium          *string `json:"medium"`
	Status          *string `json:"status"`
}

func (b appointmentPatchBody) toPatch() application.AppointmentPatch {
	return application.AppointmentPatch{
		Title:           b.Title,
		Description:     b.Description,
		DurationMinutes: b.DurationMinutes,
		Location:        b.Location,
		Medium:          b.Medium,
		Status:          b.Status,
	}
}

type appointmentDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Location        string   `json:"location,omitempty"`
	Medium          string   `json:"medium"`
	Status          string   `json:"status"`
	OwnerID         string   `json:"owner_id"`
	Participant     partyDTO `json:"participant"`
	RequestID       *string  `json:"request_id,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:              appointment.ID,
		Title:           appointment.Title,
		Description:     appointment.Description,
		Date:            appointment.Date,
		Time:            appointment.Time,
		DurationMinutes: appointment.DurationMinutes,
		Location:        appointment.Location,
		Medium:          string(appointment.Medium),
		Status:          string(appointment.Status),
		OwnerID:         appointment.OwnerID,
		Participant:     toPartyDTO(appointment.Participant),
		RequestID:       appointment.RequestID,
		CreatedAt:       formatTimestamp(appointment.CreatedAt),
		UpdatedAt:       formatTimestamp(appointment.UpdatedAt),
	}
}

func toAppointmentDTOs(appointments []application.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}

type conflictWarningDTO struct {
	AppointmentID string `json:"appointment_id"`
	ParticipantID string `json:"participant_id"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			AppointmentID: warning.AppointmentID,
			ParticipantID: warning.ParticipantID,
		})
	}
	return out
}

type appointmentResponse struct {
	Appointment appointmentDTO       `json:"appointment"`
	Warnings    []conflictWarningDTO `json:"warnings,omitempty"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}
