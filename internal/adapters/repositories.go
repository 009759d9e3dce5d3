// Package adapters bridges the persistence repositories and the interfaces the
// application services depend on.
package adapters

import (
	"context"
	"time"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/persistence"
)

// RequestRepository exposes a persistence request store to the request service.
type RequestRepository struct {
	repo persistence.AppointmentRequestRepository
}

// NewRequestRepository wraps repo.
func NewRequestRepository(repo persistence.AppointmentRequestRepository) *RequestRepository {
	return &RequestRepository{repo: repo}
}

var _ application.RequestRepository = (*RequestRepository)(nil)

func (a *RequestRepository) CreateRequest(ctx context.Context, request application.AppointmentRequest) (application.AppointmentRequest, error) {
	if err := a.repo.CreateRequest(ctx, ToPersistenceRequest(request)); err != nil {
		return application.AppointmentRequest{}, err
	}
	stored, err := a.repo.GetRequest(ctx, request.ID)
	if err != nil {
		return application.AppointmentRequest{}, err
	}
	return ToApplicationRequest(stored), nil
}

func (a *RequestRepository) GetRequest(ctx context.Context, id string) (application.AppointmentRequest, error) {
	stored, err := a.repo.GetRequest(ctx, id)
	if err != nil {
		return application.AppointmentRequest{}, err
	}
	return ToApplicationRequest(stored), nil
}

func (a *RequestRepository) ListRequests(ctx context.Context, query application.RequestQuery) ([]application.AppointmentRequest, error) {
	models, err := a.repo.ListRequests(ctx, persistence.RequestFilter{
		RequesterID: query.RequesterID,
		RecipientID: query.RecipientID,
		Status:      string(query.Status),
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	requests := make([]application.AppointmentRequest, 0, len(models))
	for _, model := range models {
		requests = append(requests, ToApplicationRequest(model))
	}
	return requests, nil
}

func (a *RequestRepository) ResolveRequest(ctx context.Context, request application.AppointmentRequest, appointment *application.Appointment) error {
	var stored *persistence.Appointment
	if appointment != nil {
		model := ToPersistenceAppointment(*appointment)
		stored = &model
	}
	return a.repo.ResolveRequest(ctx, ToPersistenceRequest(request), stored)
}

func (a *RequestRepository) DeleteRequest(ctx context.Context, id string) error {
	return a.repo.DeleteRequest(ctx, id)
}

func (a *RequestRepository) ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error) {
	return a.repo.ExpirePendingRequests(ctx, reference)
}

func (a *RequestRepository) PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error) {
	return a.repo.PurgeRequests(ctx, createdBefore, reference)
}

// AppointmentRepository exposes a persistence appointment store to the appointment service.
type AppointmentRepository struct {
	repo persistence.AppointmentRepository
}

// NewAppointmentRepository wraps repo.
func NewAppointmentRepository(repo persistence.AppointmentRepository) *AppointmentRepository {
	return &AppointmentRepository{repo: repo}
}

var _ application.AppointmentRepository = (*AppointmentRepository)(nil)

func (a *AppointmentRepository) CreateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.CreateAppointment(ctx, ToPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	stored, err := a.repo.GetAppointment(ctx, appointment.ID)
	if err != nil {
		return application.Appointment{}, err
	}
	return ToApplicationAppointment(stored), nil
}

func (a *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.UpdateAppointment(ctx, ToPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	stored, err := a.repo.GetAppointment(ctx, appointment.ID)
	if err != nil {
		return application.Appointment{}, err
	}
	return ToApplicationAppointment(stored), nil
}

func (a *AppointmentRepository) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	stored, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return ToApplicationAppointment(stored), nil
}

func (a *AppointmentRepository) ListAppointments(ctx context.Context, query application.AppointmentQuery) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointments(ctx, persistence.AppointmentFilter{
		ParticipantID: query.ParticipantID,
		Date:          query.Date,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	appointments := make([]application.Appointment, 0, len(models))
	for _, model := range models {
		appointments = append(appointments, ToApplicationAppointment(model))
	}
	return appointments, nil
}

func (a *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	return a.repo.DeleteAppointment(ctx, id)
}

func (a *AppointmentRepository) PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error) {
	return a.repo.PurgeAppointments(ctx, updatedBefore)
}

// Services builds both services over store, sharing one list cache.
func Services(store persistence.Store, idGenerator func() string, now func() time.Time, opts ...application.Option) (*application.RequestService, *application.AppointmentService) {
	requests := application.NewRequestService(NewRequestRepository(store), idGenerator, now, opts...)
	appointments := application.NewAppointmentService(NewAppointmentRepository(store), idGenerator, now, opts...)
	return requests, appointments
}
