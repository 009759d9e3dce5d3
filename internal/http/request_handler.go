package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

type requestService interface {
	Submit(ctx context.Context, params application.SubmitRequestParams) (application.AppointmentRequest, error)
	ListPending(ctx context.Context, recipientID string) ([]application.AppointmentRequest, error)
	ListSent(ctx context.Context, requesterID string) ([]application.AppointmentRequest, error)
	Get(ctx context.Context, principal application.Principal, requestID string) (application.AppointmentRequest, error)
	Respond(ctx context.Context, params application.RespondParams) (application.RespondResult, error)
	Delete(ctx context.Context, principal application.Principal, requestID string) error
}

type RequestHandler struct {
	service   requestService
	responder responder
}

func NewRequestHandler(service requestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{service: service, responder: newResponder(logger)}
}

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.Submit(r.Context(), application.SubmitRequestParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, requestEnvelope{Request: toRequestDTO(request)})
}

func (h *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	requests, err := h.service.ListPending(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRequestsResponse{Requests: toRequestDTOs(requests)})
}

func (h *RequestHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	requests, err := h.service.ListSent(r.Context(), principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRequestsResponse{Requests: toRequestDTOs(requests)})
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.Get(r.Context(), principal, requestID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, requestEnvelope{Request: toRequestDTO(request)})
}

func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req respondBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Respond(r.Context(), application.RespondParams{
		Principal: principal,
		RequestID: requestID,
		Decision:  strings.TrimSpace(req.Decision),
		Message:   req.Message,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := respondResponse{Request: toRequestDTO(result.Request)}
	if result.Appointment != nil {
		dto := toAppointmentDTO(*result.Appointment)
		response.Appointment = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, requestID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func pathID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	return id, id != ""
}

type partyDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

func (p partyDTO) toParty() application.Party {
	return application.Party{ID: strings.TrimSpace(p.ID), Name: strings.TrimSpace(p.Name), Avatar: p.Avatar}
}

func toPartyDTO(party application.Party) partyDTO {
	return partyDTO{ID: party.ID, Name: party.Name, Avatar: party.Avatar}
}

type slotDTO struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type submitRequestBody struct {
	Recipient        partyDTO  `json:"recipient"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	RequestedDate    string    `json:"requested_date"`
	RequestedTime    string    `json:"requested_time"`
	AlternativeSlots []slotDTO `json:"alternative_slots"`
	DurationMinutes  int       `json:"duration_minutes"`
	Location         string    `json:"location"`
	Medium           string    `json:"medium"`
	Message          *string   `json:"message"`
}

func (b submitRequestBody) toInput() application.RequestInput {
	var slots []scheduler.Slot
	for _, slot := range b.AlternativeSlots {
		slots = append(slots, scheduler.Slot{Date: strings.TrimSpace(slot.Date), Time: strings.TrimSpace(slot.Time)})
	}
	return application.RequestInput{
		Recipient:        b.Recipient.toParty(),
		Title:            strings.TrimSpace(b.Title),
		Description:      b.Description,
		RequestedDate:    strings.TrimSpace(b.RequestedDate),
		RequestedTime:    strings.TrimSpace(b.RequestedTime),
		AlternativeSlots: slots,
		DurationMinutes:  b.DurationMinutes,
		Location:         strings.TrimSpace(b.Location),
		Medium:           strings.TrimSpace(b.Medium),
		Message:          b.Message,
	}
}

type respondBody struct {
	Decision string  `json:"decision"`
	Message  *string `json:"message"`
}

type requestDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	RequestedDate    string    `json:"requested_date"`
	RequestedTime    string    `json:"requested_time"`
	AlternativeSlots []slotDTO `json:"alternative_slots,omitempty"`
	DurationMinutes  int       `json:"duration_minutes"`
	Location         string    `json:"location,omitempty"`
	Medium           string    `json:"medium"`
	Status           string    `json:"status"`
	Requester        partyDTO  `json:"requester"`
	Recipient        partyDTO  `json:"recipient"`
	Message          *string   `json:"message,omitempty"`
	ResponseMessage  *string   `json:"response_message,omitempty"`
	RespondedAt      *string   `json:"responded_at,omitempty"`
	CreatedAt        string    `json:"created_at"`
	ExpiresAt        string    `json:"expires_at"`
}

func toRequestDTO(request application.AppointmentRequest) requestDTO {
	dto := requestDTO{
		ID:              request.ID,
		Title:           request.Title,
		Description:     request.Description,
		RequestedDate:   request.RequestedDate,
		RequestedTime:   request.RequestedTime,
		DurationMinutes: request.DurationMinutes,
		Location:        request.Location,
		Medium:          string(request.Medium),
		Status:          string(request.Status),
		Requester:       toPartyDTO(request.Requester),
		Recipient:       toPartyDTO(request.Recipient),
		Message:         request.Message,
		ResponseMessage: request.ResponseMessage,
		CreatedAt:       formatTimestamp(request.CreatedAt),
		ExpiresAt:       formatTimestamp(request.ExpiresAt),
	}
	for _, slot := range request.AlternativeSlots {
		dto.AlternativeSlots = append(dto.AlternativeSlots, slotDTO{Date: slot.Date, Time: slot.Time})
	}
	if request.RespondedAt != nil {
		respondedAt := formatTimestamp(*request.RespondedAt)
		dto.RespondedAt = &respondedAt
	}
	return dto
}

func toRequestDTOs(requests []application.AppointmentRequest) []requestDTO {
	out := make([]requestDTO, 0, len(requests))
	for _, request := range requests {
		out = append(out, toRequestDTO(request))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type requestEnvelope struct {
	Request requestDTO `json:"request"`
}

type listRequestsResponse struct {
	Requests []requestDTO `json:"requests"`
}

type respondResponse struct {
	Request     requestDTO      `json:"request"`
	Appointment *appointmentDTO `json:"appointment,omitempty"`
}
