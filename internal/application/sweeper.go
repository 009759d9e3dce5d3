package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SweepResult counts the records touched by one sweep pass.
type SweepResult struct {
	Expired            int
	PurgedRequests     int
	PurgedAppointments int
}

// Sweeper persists request expiry and applies retention in the background.
// Reads never depend on it having run.
type Sweeper struct {
	requests     *RequestService
	appointments *AppointmentService
	interval     time.Duration
	retention    time.Duration
	logger       *slog.Logger
}

// NewSweeper builds a sweeper. A zero retention keeps resolved records forever.
func NewSweeper(requests *RequestService, appointments *AppointmentService, interval, retention time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		requests:     requests,
		appointments: appointments,
		interval:     interval,
		retention:    retention,
		logger:       defaultLogger(logger),
	}
}

// Sweep runs a single pass. Every step runs even when an earlier one fails.
func (s *Sweeper) Sweep(ctx context.Context) (result SweepResult, err error) {
	if s == nil {
		return SweepResult{}, fmt.Errorf("Sweeper is nil")
	}

	var errs []error
	if s.requests != nil {
		expired, expireErr := s.requests.ExpireStale(ctx)
		result.Expired = expired
		errs = append(errs, expireErr)

		if s.retention > 0 {
			purged, purgeErr := s.requests.PurgeResolved(ctx, s.retention)
			result.PurgedRequests = purged
			errs = append(errs, purgeErr)
		}
	}
	if s.appointments != nil && s.retention > 0 {
		purged, purgeErr := s.appointments.PurgeInactive(ctx, s.retention)
		result.PurgedAppointments = purged
		errs = append(errs, purgeErr)
	}

	err = errors.Join(errs...)
	logger := serviceLogger(ctx, s.logger, "Sweeper", "Sweep")
	if err != nil {
		logger.ErrorContext(ctx, "sweep finished with errors", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.With(
		"expired", result.Expired,
		"purged_requests", result.PurgedRequests,
		"purged_appointments", result.PurgedAppointments,
	).InfoContext(ctx, "sweep finished")
	return
}

// Run sweeps once per interval until ctx is done. A non-positive interval
// returns immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("Sweeper is nil")
	}
	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Failures are logged by Sweep and retried on the next tick.
			_, _ = s.Sweep(ctx)
		}
	}
}
