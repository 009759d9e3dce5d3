package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// Storage provides an in-memory persistence layer implementation.
type Storage struct {
	mu           sync.RWMutex
	requests     map[string]persistence.AppointmentRequest
	appointments map[string]persistence.Appointment
}

// Open returns a new empty Storage instance.
func Open() *Storage {
	return &Storage{
		requests:     make(map[string]persistence.AppointmentRequest),
		appointments: make(map[string]persistence.Appointment),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Migrate initialises the storage. No-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// --- AppointmentRequestRepository implementation ---

// CreateRequest stores a new appointment request.
func (s *Storage) CreateRequest(ctx context.Context, request persistence.AppointmentRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; ok {
		return persistence.ErrDuplicate
	}

	s.requests[request.ID] = cloneRequest(request)
	return nil
}

// GetRequest retrieves a request by ID.
func (s *Storage) GetRequest(ctx context.Context, id string) (persistence.AppointmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return persistence.AppointmentRequest{}, persistence.ErrNotFound
	}
	return cloneRequest(request), nil
}

// ListRequests returns requests matching the filter, newest first.
func (s *Storage) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.AppointmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]persistence.AppointmentRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if !matchesRequestFilter(request, filter) {
			continue
		}
		requests = append(requests, cloneRequest(request))
	}

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID > requests[j].ID
		}
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	return requests, nil
}

// ResolveRequest records a response and the synthesized appointment under one lock.
func (s *Storage) ResolveRequest(ctx context.Context, request persistence.AppointmentRequest, appointment *persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[request.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if stored.Status != "pending" {
		return persistence.ErrConflict
	}
	if request.RespondedAt != nil && !stored.ExpiresAt.After(*request.RespondedAt) {
		return persistence.ErrConflict
	}
	if appointment != nil {
		if appointment.ID == "" {
			return persistence.ErrConstraintViolation
		}
		if _, exists := s.appointments[appointment.ID]; exists {
			return persistence.ErrDuplicate
		}
	}

	stored.Status = request.Status
	stored.ResponseMessage = cloneString(request.ResponseMessage)
	stored.RespondedAt = cloneTime(request.RespondedAt)
	s.requests[stored.ID] = stored

	if appointment != nil {
		s.appointments[appointment.ID] = cloneAppointment(*appointment)
	}
	return nil
}

// DeleteRequest removes a request by ID.
func (s *Storage) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// ExpirePendingRequests marks pending requests whose deadline has passed as expired.
func (s *Storage) ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, request := range s.requests {
		if request.Status != "pending" || request.ExpiresAt.After(reference) {
			continue
		}
		request.Status = "expired"
		s.requests[id] = request
		count++
	}
	return count, nil
}

// PurgeRequests deletes resolved or lapsed requests created before the cutoff.
func (s *Storage) PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, request := range s.requests {
		if !request.CreatedAt.Before(createdBefore) {
			continue
		}
		if request.Status == "pending" && request.ExpiresAt.After(reference) {
			continue
		}
		delete(s.requests, id)
		count++
	}
	return count, nil
}

// --- AppointmentRepository implementation ---

// CreateAppointment stores a new appointment.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[appointment.ID]; ok {
		return persistence.ErrDuplicate
	}

	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

// UpdateAppointment replaces an existing appointment.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	// Ownership and creation time are fixed at insert.
	appointment.OwnerID = existing.OwnerID
	appointment.CreatedAt = existing.CreatedAt
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return cloneAppointment(appointment), nil
}

// ListAppointments returns appointments matching the filter ordered by date and time.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]persistence.Appointment, 0, len(s.appointments))
	for _, appointment := range s.appointments {
		if !matchesAppointmentFilter(appointment, filter) {
			continue
		}
		appointments = append(appointments, cloneAppointment(appointment))
	}

	sort.Slice(appointments, func(i, j int) bool {
		a := scheduler.Slot{Date: appointments[i].Date, Time: appointments[i].Time}
		b := scheduler.Slot{Date: appointments[j].Date, Time: appointments[j].Time}
		if a != b {
			return a.Less(b)
		}
		return appointments[i].ID < appointments[j].ID
	})

	return appointments, nil
}

// DeleteAppointment removes an appointment by ID.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

// PurgeAppointments deletes cancelled or completed appointments last updated before the cutoff.
func (s *Storage) PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, appointment := range s.appointments {
		if appointment.Status != "cancelled" && appointment.Status != "completed" {
			continue
		}
		if !appointment.UpdatedAt.Before(updatedBefore) {
			continue
		}
		delete(s.appointments, id)
		count++
	}
	return count, nil
}

func matchesRequestFilter(request persistence.AppointmentRequest, filter persistence.RequestFilter) bool {
	if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
		return false
	}
	if filter.RecipientID != "" && request.RecipientID != filter.RecipientID {
		return false
	}
	if filter.Status != "" && request.Status != filter.Status {
		return false
	}
	return true
}

func matchesAppointmentFilter(appointment persistence.Appointment, filter persistence.AppointmentFilter) bool {
	if filter.ParticipantID != "" &&
		appointment.OwnerID != filter.ParticipantID &&
		appointment.ParticipantID != filter.ParticipantID {
		return false
	}
	if filter.Date != "" && appointment.Date != filter.Date {
		return false
	}
	return true
}

func cloneRequest(request persistence.AppointmentRequest) persistence.AppointmentRequest {
	cloned := request
	if len(request.AlternativeSlots) > 0 {
		cloned.AlternativeSlots = append([]persistence.Slot(nil), request.AlternativeSlots...)
	} else {
		cloned.AlternativeSlots = nil
	}
	cloned.RequesterAvatar = cloneString(request.RequesterAvatar)
	cloned.RecipientAvatar = cloneString(request.RecipientAvatar)
	cloned.Message = cloneString(request.Message)
	cloned.ResponseMessage = cloneString(request.ResponseMessage)
	cloned.RespondedAt = cloneTime(request.RespondedAt)
	return cloned
}

func cloneAppointment(appointment persistence.Appointment) persistence.Appointment {
	cloned := appointment
	cloned.ParticipantAvatar = cloneString(appointment.ParticipantAvatar)
	cloned.RequestID = cloneString(appointment.RequestID)
	return cloned
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
