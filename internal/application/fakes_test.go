package application

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

var errStoreUnavailable = errors.New("store unavailable")

// fakeStore is an in-memory implementation of both repositories with
// injectable failures.
type fakeStore struct {
	mu           sync.Mutex
	requests     map[string]AppointmentRequest
	appointments map[string]Appointment

	createRequestErr     error
	resolveErr           error
	listRequestsErr      error
	createAppointmentErr error
	updateAppointmentErr error

	listRequestCalls     int
	listAppointmentCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:     make(map[string]AppointmentRequest),
		appointments: make(map[string]Appointment),
	}
}

func (f *fakeStore) CreateRequest(ctx context.Context, request AppointmentRequest) (AppointmentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRequestErr != nil {
		return AppointmentRequest{}, f.createRequestErr
	}
	if _, exists := f.requests[request.ID]; exists {
		return AppointmentRequest{}, persistence.ErrDuplicate
	}
	f.requests[request.ID] = cloneRequest(request)
	return cloneRequest(request), nil
}

func (f *fakeStore) GetRequest(ctx context.Context, id string) (AppointmentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return AppointmentRequest{}, persistence.ErrNotFound
	}
	return cloneRequest(request), nil
}

func (f *fakeStore) ListRequests(ctx context.Context, query RequestQuery) ([]AppointmentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRequestCalls++
	if f.listRequestsErr != nil {
		return nil, f.listRequestsErr
	}

	var out []AppointmentRequest
	for _, request := range f.requests {
		if query.RequesterID != "" && request.Requester.ID != query.RequesterID {
			continue
		}
		if query.RecipientID != "" && request.Recipient.ID != query.RecipientID {
			continue
		}
		if query.Status != "" && request.Status != query.Status {
			continue
		}
		out = append(out, cloneRequest(request))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) ResolveRequest(ctx context.Context, request AppointmentRequest, appointment *Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return f.resolveErr
	}

	stored, ok := f.requests[request.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	var reference time.Time
	if request.RespondedAt != nil {
		reference = *request.RespondedAt
	}
	if stored.Status != scheduler.RequestPending || !stored.ExpiresAt.After(reference) {
		return persistence.ErrConflict
	}
	if appointment != nil {
		if _, exists := f.appointments[appointment.ID]; exists {
			return persistence.ErrDuplicate
		}
		f.appointments[appointment.ID] = cloneAppointments([]Appointment{*appointment})[0]
	}
	f.requests[request.ID] = cloneRequest(request)
	return nil
}

func (f *fakeStore) DeleteRequest(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeStore) ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, request := range f.requests {
		if request.Status == scheduler.RequestPending && !reference.Before(request.ExpiresAt) {
			request.Status = scheduler.RequestExpired
			f.requests[id] = request
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, request := range f.requests {
		if !request.CreatedAt.Before(createdBefore) || request.Open(reference) {
			continue
		}
		delete(f.requests, id)
		count++
	}
	return count, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAppointmentErr != nil {
		return Appointment{}, f.createAppointmentErr
	}
	if _, exists := f.appointments[appointment.ID]; exists {
		return Appointment{}, persistence.ErrDuplicate
	}
	f.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (f *fakeStore) UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateAppointmentErr != nil {
		return Appointment{}, f.updateAppointmentErr
	}
	if _, ok := f.appointments[appointment.ID]; !ok {
		return Appointment{}, persistence.ErrNotFound
	}
	f.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (f *fakeStore) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.appointments[id]
	if !ok {
		return Appointment{}, persistence.ErrNotFound
	}
	return appointment, nil
}

func (f *fakeStore) ListAppointments(ctx context.Context, query AppointmentQuery) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listAppointmentCalls++

	var out []Appointment
	for _, appointment := range f.appointments {
		if query.ParticipantID != "" && !appointment.HasParticipant(query.ParticipantID) {
			continue
		}
		if query.Date != "" && appointment.Date != query.Date {
			continue
		}
		out = append(out, appointment)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) DeleteAppointment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appointments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.appointments, id)
	return nil
}

func (f *fakeStore) PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, appointment := range f.appointments {
		if appointment.Status.Terminal() && appointment.UpdatedAt.Before(updatedBefore) {
			delete(f.appointments, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) appointmentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appointments)
}

func (f *fakeStore) storedRequest(id string) AppointmentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, event := range p.events {
		out[i] = event.Type
	}
	return out
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock { return &testClock{now: now} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	counter := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return prefix + "-" + strconv.Itoa(counter)
	}
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func stringPtr(value string) *string { return &value }

func intPtr(value int) *int { return &value }

var referenceNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
