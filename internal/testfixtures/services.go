package testfixtures

import (
	"log/slog"
	"time"

	"github.com/Jessiellen/shareup-app/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// RequestServiceDeps captures dependencies for constructing a request service.
type RequestServiceDeps struct {
	Requests    application.RequestRepository
	Publisher   application.EventPublisher
	Cache       *application.ListCache
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRequestService builds a request service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewRequestService(deps RequestServiceDeps) *application.RequestService {
	idGen, now := f.defaults(deps.IDGenerator, deps.Now)
	return application.NewRequestService(
		deps.Requests,
		idGen,
		now,
		application.WithLogger(deps.Logger),
		application.WithPublisher(deps.Publisher),
		application.WithListCache(deps.Cache),
	)
}

// AppointmentServiceDeps captures dependencies for constructing an appointment service.
type AppointmentServiceDeps struct {
	Appointments application.AppointmentRepository
	Publisher    application.EventPublisher
	Cache        *application.ListCache
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewAppointmentService builds an appointment service using the supplied dependencies.
func (f *ServiceFactory) NewAppointmentService(deps AppointmentServiceDeps) *application.AppointmentService {
	idGen, now := f.defaults(deps.IDGenerator, deps.Now)
	return application.NewAppointmentService(
		deps.Appointments,
		idGen,
		now,
		application.WithLogger(deps.Logger),
		application.WithPublisher(deps.Publisher),
		application.WithListCache(deps.Cache),
	)
}

func (f *ServiceFactory) defaults(idGen func() string, now func() time.Time) (func() string, func() time.Time) {
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return idGen, now
}
