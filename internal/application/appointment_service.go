package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// AppointmentRepository captures the persistence operations needed by the appointment service.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, query AppointmentQuery) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error)
}

// AppointmentService coordinates appointment lifecycle operations.
type AppointmentService struct {
	appointments AppointmentRepository
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
	publisher    EventPublisher
	location     *time.Location
	cache        *ListCache
}

// NewAppointmentService wires the appointment service dependencies.
func NewAppointmentService(appointments AppointmentRepository, idGenerator func() string, now func() time.Time, opts ...Option) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	options := buildOptions(opts)
	return &AppointmentService{
		appointments: appointments,
		idGenerator:  idGenerator,
		now:          now,
		logger:       options.logger,
		publisher:    options.publisher,
		location:     options.location,
		cache:        options.cache,
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// Create validates input and stores a new appointment owned by the principal.
// Overlaps with the active appointments of either participant are reported as
// warnings and never block creation.
func (s *AppointmentService) Create(ctx context.Context, params CreateAppointmentParams) (appointment Appointment, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"participant_id", params.Input.Participant.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"appointment_id", appointment.ID,
			"conflict_count", len(warnings),
		).InfoContext(ctx, "appointment created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	candidate, vErr := s.buildAppointment(params, now)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	appointment = candidate
	if s.appointments == nil {
		return
	}

	warnings, err = s.detectConflicts(ctx, candidate)
	if err != nil {
		return
	}

	appointment, err = s.appointments.CreateAppointment(ctx, candidate)
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:          EventAppointmentCreated,
		AppointmentID: appointment.ID,
		Audience:      audience(appointment.OwnerID, appointment.Participant.ID),
		OccurredAt:    now,
	})
	return
}

func (s *AppointmentService) buildAppointment(params CreateAppointmentParams, now time.Time) (Appointment, *ValidationError) {
	input := params.Input
	vErr := &ValidationError{}

	status := scheduler.StatusScheduled
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := scheduler.ParseAppointmentStatus(input.Status)
		if !ok || (parsed != scheduler.StatusScheduled && parsed != scheduler.StatusConfirmed) {
			vErr.add("status", "new appointments must be scheduled or confirmed")
		}
		status = parsed
	}

	medium := parseMediumOrDefault(vErr, input.Medium)

	appointment := Appointment{
		ID:              s.idGenerator(),
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Date:            input.Date,
		Time:            input.Time,
		DurationMinutes: input.DurationMinutes,
		Location:        strings.TrimSpace(input.Location),
		Medium:          medium,
		Status:          status,
		OwnerID:         params.Principal.UserID,
		Participant: Party{
			ID:     strings.TrimSpace(input.Participant.ID),
			Name:   strings.TrimSpace(input.Participant.Name),
			Avatar: normalizeOptionalString(input.Participant.Avatar),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if slot, err := appointment.Slot().Normalize(); err == nil {
		appointment.Date, appointment.Time = slot.Date, slot.Time
	}

	vErr.merge(validateAppointment(appointment))
	return appointment, vErr
}

// Update applies a partial change. A status change must follow the
// transition table.
func (s *AppointmentService) Update(ctx context.Context, params UpdateAppointmentParams) (appointment Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"appointment_id", params.AppointmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", appointment.Status).InfoContext(ctx, "appointment updated")
	}()

	existing, err := s.authorizedAppointment(ctx, params.Principal, params.AppointmentID)
	if err != nil {
		return
	}

	updated, err := applyPatch(existing, params.Patch)
	if err != nil {
		return
	}

	now := s.now()
	updated.UpdatedAt = now

	appointment, err = s.appointments.UpdateAppointment(ctx, updated)
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:          EventAppointmentUpdated,
		AppointmentID: appointment.ID,
		Audience:      audience(appointment.OwnerID, appointment.Participant.ID),
		OccurredAt:    now,
	})
	return
}

func applyPatch(existing Appointment, patch AppointmentPatch) (Appointment, error) {
	updated := existing
	vErr := &ValidationError{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			vErr.add("title", "title is required")
		}
		updated.Title = title
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes <= 0 {
			vErr.add("duration_minutes", "duration must be positive")
		}
		updated.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Location != nil {
		updated.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Medium != nil {
		medium, ok := scheduler.ParseMedium(*patch.Medium)
		if !ok {
			vErr.add("medium", "medium must be online or in-person")
		} else {
			updated.Medium = medium
		}
	}

	var target scheduler.AppointmentStatus
	if patch.Status != nil {
		status, ok := scheduler.ParseAppointmentStatus(*patch.Status)
		if !ok {
			vErr.add("status", "status must be scheduled, confirmed, cancelled or completed")
		}
		target = status
	}

	if vErr.HasErrors() {
		return Appointment{}, vErr
	}

	if patch.Status != nil {
		if !scheduler.CanTransition(existing.Status, target) {
			return Appointment{}, &TransitionError{From: existing.Status, To: target}
		}
		updated.Status = target
	}
	return updated, nil
}

// Reschedule moves an appointment to a new future slot. A confirmed
// appointment returns to scheduled and needs confirming again.
func (s *AppointmentService) Reschedule(ctx context.Context, params RescheduleParams) (appointment Appointment, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Reschedule",
		"principal_id", params.Principal.UserID,
		"appointment_id", params.AppointmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"date", appointment.Date,
			"time", appointment.Time,
			"conflict_count", len(warnings),
		).InfoContext(ctx, "appointment rescheduled")
	}()

	existing, err := s.authorizedAppointment(ctx, params.Principal, params.AppointmentID)
	if err != nil {
		return
	}
	if existing.Status.Terminal() {
		err = &TransitionError{From: existing.Status, To: scheduler.StatusScheduled}
		return
	}

	now := s.now()
	vErr := &ValidationError{}
	slot, ok := normalizeFutureSlot(vErr, "date", "time",
		scheduler.Slot{Date: params.Date, Time: params.Time}, now, s.location)
	if !ok {
		err = vErr
		return
	}

	moved := existing
	moved.Date, moved.Time = slot.Date, slot.Time
	moved.Status = scheduler.StatusScheduled
	moved.UpdatedAt = now

	warnings, err = s.detectConflicts(ctx, moved)
	if err != nil {
		return
	}

	appointment, err = s.appointments.UpdateAppointment(ctx, moved)
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:          EventAppointmentRescheduled,
		AppointmentID: appointment.ID,
		Audience:      audience(appointment.OwnerID, appointment.Participant.ID),
		OccurredAt:    now,
	})
	return
}

// Remove hard-deletes an appointment.
func (s *AppointmentService) Remove(ctx context.Context, principal Principal, appointmentID string) error {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "Remove",
		"principal_id", principal.UserID,
		"appointment_id", appointmentID,
	)

	existing, err := s.authorizedAppointment(ctx, principal, appointmentID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove appointment", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.appointments.DeleteAppointment(ctx, appointmentID); err != nil {
		err = mapAppointmentRepoError(err)
		logger.ErrorContext(ctx, "failed to remove appointment", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{
		Type:          EventAppointmentRemoved,
		AppointmentID: appointmentID,
		Audience:      audience(existing.OwnerID, existing.Participant.ID),
		OccurredAt:    s.now(),
	})
	logger.InfoContext(ctx, "appointment removed")
	return nil
}

// Get returns an appointment visible to either participant.
func (s *AppointmentService) Get(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment repository not configured")
	}
	return s.authorizedAppointment(ctx, principal, appointmentID)
}

func (s *AppointmentService) authorizedAppointment(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	appointment, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Appointment{}, mapAppointmentRepoError(err)
	}
	if !appointment.HasParticipant(principal.UserID) {
		return Appointment{}, ErrUnauthorized
	}
	return appointment, nil
}

// ListByParticipant returns the appointments a user owns or attends ordered by date and time.
func (s *AppointmentService) ListByParticipant(ctx context.Context, participantID string) (appointments []Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListByParticipant", "participant_id", participantID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list appointments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(appointments)).DebugContext(ctx, "appointments listed")
	}()

	if participantID == "" {
		err = ErrUnauthorized
		return
	}

	key := participantCacheKey(participantID)
	if cached, ok := s.cache.appointments(key); ok {
		return cached, nil
	}

	generation := s.cache.Generation()
	appointments, err = s.appointments.ListAppointments(ctx, AppointmentQuery{ParticipantID: participantID})
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}
	s.cache.storeAppointments(key, generation, appointments)
	return
}

// ListByDate returns a user's appointments on a single calendar date.
func (s *AppointmentService) ListByDate(ctx context.Context, participantID, date string) ([]Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if participantID == "" {
		return nil, ErrUnauthorized
	}

	day, err := time.Parse(scheduler.DateLayout, strings.TrimSpace(date))
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", msgDateFormat)
		return nil, vErr
	}
	if s.appointments == nil {
		return nil, nil
	}

	appointments, err := s.appointments.ListAppointments(ctx, AppointmentQuery{
		ParticipantID: participantID,
		Date:          day.Format(scheduler.DateLayout),
	})
	if err != nil {
		err = mapAppointmentRepoError(err)
		s.loggerWith(ctx, "ListByDate", "participant_id", participantID, "date", date).
			ErrorContext(ctx, "failed to list appointments", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return appointments, nil
}

// ListUpcoming returns non-cancelled appointments starting strictly after
// params.From, earliest first.
func (s *AppointmentService) ListUpcoming(ctx context.Context, params ListUpcomingParams) (appointments []Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListUpcoming", "participant_id", params.ParticipantID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list upcoming appointments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(appointments)).DebugContext(ctx, "upcoming appointments listed")
	}()

	stored, err := s.appointments.ListAppointments(ctx, AppointmentQuery{ParticipantID: params.ParticipantID})
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	type upcoming struct {
		appointment Appointment
		start       time.Time
	}
	selected := make([]upcoming, 0, len(stored))
	for _, appointment := range stored {
		if appointment.Status == scheduler.StatusCancelled {
			continue
		}
		start, startErr := appointment.Start(s.location)
		if startErr != nil {
			logger.WarnContext(ctx, "skipping appointment with unreadable slot",
				"appointment_id", appointment.ID, "error", startErr)
			continue
		}
		if !start.After(params.From) {
			continue
		}
		selected = append(selected, upcoming{appointment: appointment, start: start})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].start.Equal(selected[j].start) {
			return selected[i].appointment.ID < selected[j].appointment.ID
		}
		return selected[i].start.Before(selected[j].start)
	})

	appointments = make([]Appointment, len(selected))
	for i, item := range selected {
		appointments[i] = item.appointment
	}
	return
}

// PurgeInactive deletes cancelled and completed appointments last updated
// more than olderThan ago.
func (s *AppointmentService) PurgeInactive(ctx context.Context, olderThan time.Duration) (count int, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if olderThan <= 0 {
		vErr := &ValidationError{}
		vErr.add("older_than", "retention must be positive")
		return 0, vErr
	}
	if s.appointments == nil {
		return 0, nil
	}

	logger := s.loggerWith(ctx, "PurgeInactive", "older_than", olderThan)
	now := s.now()

	count, err = s.appointments.PurgeAppointments(ctx, now.Add(-olderThan))
	if err != nil {
		err = mapAppointmentRepoError(err)
		logger.ErrorContext(ctx, "failed to purge appointments", "error", err, "error_kind", ErrorKind(err))
		return
	}
	if count == 0 {
		return
	}

	s.cache.Purge()
	s.publish(ctx, logger, Event{Type: EventAppointmentsPurged, Count: count, OccurredAt: now})
	logger.With("count", count).InfoContext(ctx, "inactive appointments purged")
	return
}

// detectConflicts compares candidate with the active appointments of both
// participants.
func (s *AppointmentService) detectConflicts(ctx context.Context, candidate Appointment) ([]ConflictWarning, error) {
	target, ok := s.booking(candidate)
	if !ok {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var existing []scheduler.Booking
	for _, participantID := range target.Participants {
		stored, err := s.appointments.ListAppointments(ctx, AppointmentQuery{ParticipantID: participantID})
		if err != nil {
			return nil, mapAppointmentRepoError(err)
		}
		for _, appointment := range stored {
			if _, dup := seen[appointment.ID]; dup || appointment.Status.Terminal() {
				continue
			}
			seen[appointment.ID] = struct{}{}
			if booking, ok := s.booking(appointment); ok {
				existing = append(existing, booking)
			}
		}
	}

	conflicts := scheduler.DetectConflicts(existing, target)
	if len(conflicts) == 0 {
		return nil, nil
	}
	warnings := make([]ConflictWarning, len(conflicts))
	for i, conflict := range conflicts {
		warnings[i] = ConflictWarning{
			AppointmentID: conflict.WithBookingID,
			ParticipantID: conflict.Participant,
		}
	}
	return warnings, nil
}

func (s *AppointmentService) booking(appointment Appointment) (scheduler.Booking, bool) {
	start, err := appointment.Start(s.location)
	if err != nil || appointment.DurationMinutes <= 0 {
		return scheduler.Booking{}, false
	}
	return scheduler.Booking{
		ID:           appointment.ID,
		Participants: audience(appointment.OwnerID, appointment.Participant.ID),
		Start:        start,
		End:          start.Add(time.Duration(appointment.DurationMinutes) * time.Minute),
	}, true
}

func (s *AppointmentService) publish(ctx context.Context, logger *slog.Logger, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "event_type", event.Type, "error", err)
	}
}

func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		vErr := &ValidationError{}
		vErr.add("id", "appointment already exists")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("appointment", "appointment violates a storage constraint")
		return vErr
	}
	return err
}
