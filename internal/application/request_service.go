package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// RequestRepository captures the persistence operations needed by the request service.
//
// ResolveRequest stores the decision carried by request only while the stored
// record is pending and unexpired at request.RespondedAt, inserting
// appointment in the same atomic step when it is non-nil.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request AppointmentRequest) (AppointmentRequest, error)
	GetRequest(ctx context.Context, id string) (AppointmentRequest, error)
	ListRequests(ctx context.Context, query RequestQuery) ([]AppointmentRequest, error)
	ResolveRequest(ctx context.Context, request AppointmentRequest, appointment *Appointment) error
	DeleteRequest(ctx context.Context, id string) error
	ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error)
	PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error)
}

// RequestService manages appointment requests and their resolution.
type RequestService struct {
	requests    RequestRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	publisher   EventPublisher
	location    *time.Location
	cache       *ListCache
}

// NewRequestService constructs a request service with the provided dependencies.
func NewRequestService(requests RequestRepository, idGenerator func() string, now func() time.Time, opts ...Option) *RequestService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	options := buildOptions(opts)
	return &RequestService{
		requests:    requests,
		idGenerator: idGenerator,
		now:         now,
		logger:      options.logger,
		publisher:   options.publisher,
		location:    options.location,
		cache:       options.cache,
	}
}

func (s *RequestService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RequestService", operation, attrs...)
}

// Submit validates input and stores a new pending request from the principal.
func (s *RequestService) Submit(ctx context.Context, params SubmitRequestParams) (request AppointmentRequest, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Submit",
		"principal_id", params.Principal.UserID,
		"recipient_id", params.Input.Recipient.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID).InfoContext(ctx, "request submitted")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	candidate, vErr := s.buildRequest(params, now)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	request = candidate
	if s.requests == nil {
		return
	}

	request, err = s.requests.CreateRequest(ctx, candidate)
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:       EventRequestSubmitted,
		RequestID:  request.ID,
		Audience:   audience(request.Requester.ID, request.Recipient.ID),
		OccurredAt: now,
	})
	return
}

func (s *RequestService) buildRequest(params SubmitRequestParams, now time.Time) (AppointmentRequest, *ValidationError) {
	input := params.Input
	vErr := &ValidationError{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}

	slot, _ := normalizeFutureSlot(vErr, "requested_date", "requested_time",
		scheduler.Slot{Date: input.RequestedDate, Time: input.RequestedTime}, now, s.location)

	var alternatives []scheduler.Slot
	for _, alternative := range input.AlternativeSlots {
		normalized, err := alternative.Normalize()
		if err != nil {
			vErr.add("alternative_slots", "alternative slots must use YYYY-MM-DD dates and HH:MM times")
			continue
		}
		alternatives = append(alternatives, normalized)
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = scheduler.DefaultDurationMinutes
	}
	if duration < 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}

	medium := parseMediumOrDefault(vErr, input.Medium)

	recipientID := strings.TrimSpace(input.Recipient.ID)
	switch {
	case recipientID == "":
		vErr.add("recipient_id", "recipient is required")
	case recipientID == params.Principal.UserID:
		vErr.add("recipient_id", "cannot send a request to yourself")
	}

	if vErr.HasErrors() {
		return AppointmentRequest{}, vErr
	}

	return AppointmentRequest{
		ID:               s.idGenerator(),
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		RequestedDate:    slot.Date,
		RequestedTime:    slot.Time,
		AlternativeSlots: alternatives,
		DurationMinutes:  duration,
		Location:         strings.TrimSpace(input.Location),
		Medium:           medium,
		Status:           scheduler.RequestPending,
		Requester: Party{
			ID:     params.Principal.UserID,
			Name:   params.Principal.DisplayName,
			Avatar: cloneString(params.Principal.Avatar),
		},
		Recipient: Party{
			ID:     recipientID,
			Name:   strings.TrimSpace(input.Recipient.Name),
			Avatar: normalizeOptionalString(input.Recipient.Avatar),
		},
		Message:   normalizeOptionalString(input.Message),
		CreatedAt: now,
		ExpiresAt: scheduler.ExpiresAt(now),
	}, vErr
}

// ListPending returns the requests awaiting the recipient's answer, newest first.
func (s *RequestService) ListPending(ctx context.Context, recipientID string) (requests []AppointmentRequest, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if s.requests == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListPending", "recipient_id", recipientID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list pending requests", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(requests)).DebugContext(ctx, "pending requests listed")
	}()

	if recipientID == "" {
		err = ErrUnauthorized
		return
	}

	stored, err := s.cachedRequests(ctx, pendingCacheKey(recipientID), RequestQuery{
		RecipientID: recipientID,
		Status:      scheduler.RequestPending,
	})
	if err != nil {
		return
	}

	// Cached entries may predate a deadline, so expiry is re-checked on every read.
	now := s.now()
	requests = make([]AppointmentRequest, 0, len(stored))
	for _, request := range stored {
		if request.Open(now) {
			requests = append(requests, request)
		}
	}
	return
}

// ListSent returns every request the requester has sent, newest first, with
// effective statuses.
func (s *RequestService) ListSent(ctx context.Context, requesterID string) (requests []AppointmentRequest, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if s.requests == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListSent", "requester_id", requesterID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list sent requests", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(requests)).DebugContext(ctx, "sent requests listed")
	}()

	if requesterID == "" {
		err = ErrUnauthorized
		return
	}

	requests, err = s.cachedRequests(ctx, sentCacheKey(requesterID), RequestQuery{RequesterID: requesterID})
	if err != nil {
		return
	}

	now := s.now()
	for i := range requests {
		requests[i].Status = requests[i].EffectiveStatus(now)
	}
	return
}

func (s *RequestService) cachedRequests(ctx context.Context, key string, query RequestQuery) ([]AppointmentRequest, error) {
	if cached, ok := s.cache.requests(key); ok {
		return cached, nil
	}

	generation := s.cache.Generation()
	stored, err := s.requests.ListRequests(ctx, query)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	s.cache.storeRequests(key, generation, stored)
	return stored, nil
}

// Get returns a request visible to either of its parties.
func (s *RequestService) Get(ctx context.Context, principal Principal, requestID string) (request AppointmentRequest, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if s.requests == nil {
		err = fmt.Errorf("request repository not configured")
		return
	}

	request, err = s.requests.GetRequest(ctx, requestID)
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}
	if !request.Involves(principal.UserID) {
		return AppointmentRequest{}, ErrUnauthorized
	}

	request.Status = request.EffectiveStatus(s.now())
	return request, nil
}

// Respond records the recipient's decision. Accepting creates the confirmed
// appointment in the same atomic step.
func (s *RequestService) Respond(ctx context.Context, params RespondParams) (result RespondResult, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if s.requests == nil {
		err = fmt.Errorf("request repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Respond",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
		"decision", params.Decision,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to respond to request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		attrs := []any{"status", result.Request.Status}
		if result.Appointment != nil {
			attrs = append(attrs, "appointment_id", result.Appointment.ID)
		}
		logger.With(attrs...).InfoContext(ctx, "request resolved")
	}()

	decision, ok := scheduler.ParseRequestStatus(params.Decision)
	if !ok || (decision != scheduler.RequestAccepted && decision != scheduler.RequestDeclined) {
		vErr := &ValidationError{}
		vErr.add("decision", "decision must be accepted or declined")
		err = vErr
		return
	}

	var existing AppointmentRequest
	existing, err = s.requests.GetRequest(ctx, params.RequestID)
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}
	if params.Principal.UserID == "" || existing.Recipient.ID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	if !existing.Open(now) {
		err = ErrAlreadyResolved
		return
	}

	resolved := existing
	resolved.Status = decision
	resolved.ResponseMessage = normalizeOptionalString(params.Message)
	resolved.RespondedAt = &now

	var appointment *Appointment
	if decision == scheduler.RequestAccepted {
		synthesized, vErr := synthesizeAppointment(existing, s.idGenerator(), now)
		if vErr.HasErrors() {
			err = vErr
			return
		}
		appointment = &synthesized
	}

	if err = s.requests.ResolveRequest(ctx, resolved, appointment); err != nil {
		err = mapRequestRepoError(err)
		return
	}

	result = RespondResult{Request: resolved, Appointment: appointment}

	s.cache.Purge()
	eventType := EventRequestDeclined
	if appointment != nil {
		eventType = EventRequestAccepted
	}
	parties := audience(resolved.Requester.ID, resolved.Recipient.ID)
	s.publish(ctx, logger, Event{
		Type:       eventType,
		RequestID:  resolved.ID,
		Audience:   parties,
		OccurredAt: now,
	})
	if appointment != nil {
		s.publish(ctx, logger, Event{
			Type:          EventAppointmentCreated,
			RequestID:     resolved.ID,
			AppointmentID: appointment.ID,
			Audience:      parties,
			OccurredAt:    now,
		})
	}
	return
}

// Delete removes a request on behalf of either party.
func (s *RequestService) Delete(ctx context.Context, principal Principal, requestID string) error {
	if s == nil {
		return fmt.Errorf("RequestService is nil")
	}
	if s.requests == nil {
		return fmt.Errorf("request repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"request_id", requestID,
	)

	existing, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		err = mapRequestRepoError(err)
		logger.ErrorContext(ctx, "failed to delete request", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !existing.Involves(principal.UserID) {
		logger.ErrorContext(ctx, "failed to delete request", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		err = mapRequestRepoError(err)
		logger.ErrorContext(ctx, "failed to delete request", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:       EventRequestDeleted,
		RequestID:  requestID,
		Audience:   audience(existing.Requester.ID, existing.Recipient.ID),
		OccurredAt: s.now(),
	})
	logger.InfoContext(ctx, "request deleted")
	return nil
}

// ExpireStale stores the expired status on pending requests past their
// deadline. Reads never depend on it.
func (s *RequestService) ExpireStale(ctx context.Context) (count int, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if s.requests == nil {
		return 0, nil
	}

	logger := s.loggerWith(ctx, "ExpireStale")
	now := s.now()

	count, err = s.requests.ExpirePendingRequests(ctx, now)
	if err != nil {
		err = mapRequestRepoError(err)
		logger.ErrorContext(ctx, "failed to expire requests", "error", err, "error_kind", ErrorKind(err))
		return
	}
	if count == 0 {
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{Type: EventRequestsExpired, Count: count, OccurredAt: now})
	logger.With("count", count).InfoContext(ctx, "stale requests expired")
	return
}

// PurgeResolved deletes requests created more than olderThan ago that are no
// longer open.
func (s *RequestService) PurgeResolved(ctx context.Context, olderThan time.Duration) (count int, err error) {
	if s == nil {
		err = fmt.Errorf("RequestService is nil")
		return
	}
	if olderThan <= 0 {
		vErr := &ValidationError{}
		vErr.add("older_than", "retention must be positive")
		return 0, vErr
	}
	if s.requests == nil {
		return 0, nil
	}

	logger := s.loggerWith(ctx, "PurgeResolved", "older_than", olderThan)
	now := s.now()

	count, err = s.requests.PurgeRequests(ctx, now.Add(-olderThan), now)
	if err != nil {
		err = mapRequestRepoError(err)
		logger.ErrorContext(ctx, "failed to purge requests", "error", err, "error_kind", ErrorKind(err))
		return
	}
	if count == 0 {
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{Type: EventRequestsPurged, Count: count, OccurredAt: now})
	logger.With("count", count).InfoContext(ctx, "resolved requests purged")
	return
}

func (s *RequestService) publish(ctx context.Context, logger *slog.Logger, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "event_type", event.Type, "error", err)
	}
}

func mapRequestRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyResolved), errors.Is(err, persistence.ErrConflict):
		return ErrAlreadyResolved
	case errors.Is(err, persistence.ErrDuplicate):
		vErr := &ValidationError{}
		vErr.add("id", "record already exists")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("request", "request violates a storage constraint")
		return vErr
	}
	return err
}
