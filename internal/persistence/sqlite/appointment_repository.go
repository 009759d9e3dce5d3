package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

const appointmentColumns = `id, title, description, date, time, duration_minutes, location, medium, status,
	owner_id, participant_id, participant_name, participant_avatar, request_id, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppointmentRepository implements persistence.AppointmentRepository using SQLite
type AppointmentRepository struct {
	pool  *ConnectionPool
	retry *Retrier
}

// NewAppointmentRepository creates a new SQLite appointment repository
func NewAppointmentRepository(pool *ConnectionPool, retry *Retrier) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, retry: retry}
}

// CreateAppointment inserts a new appointment
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.retry.Do(ctx, func() error {
		return insertAppointment(ctx, r.pool.DB(), appointment)
	})
}

// UpdateAppointment replaces the mutable fields of an existing appointment.
// Owner and creation time are fixed at insert.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE appointments
		SET title = ?, description = ?, date = ?, time = ?, duration_minutes = ?, location = ?,
			medium = ?, status = ?, participant_id = ?, participant_name = ?, participant_avatar = ?,
			request_id = ?, updated_at = ?
		WHERE id = ?
	`

	return r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, query,
			appointment.Title,
			appointment.Description,
			appointment.Date,
			appointment.Time,
			appointment.DurationMinutes,
			appointment.Location,
			appointment.Medium,
			appointment.Status,
			appointment.ParticipantID,
			appointment.ParticipantName,
			nullableString(appointment.ParticipantAvatar),
			nullableString(appointment.RequestID),
			formatTime(appointment.UpdatedAt),
			appointment.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// GetAppointment retrieves an appointment by ID
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appointment, err := scanAppointment(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	return appointment, nil
}

// ListAppointments returns appointments matching the filter ordered by date, time and ID
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ParticipantID != "" {
		conditions = append(conditions, "(owner_id = ? OR participant_id = ?)")
		args = append(args, filter.ParticipantID, filter.ParticipantID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, time ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	appointments := make([]persistence.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return appointments, nil
}

// DeleteAppointment removes an appointment by ID
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	return r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// PurgeAppointments deletes cancelled or completed appointments last updated before the cutoff
func (r *AppointmentRepository) PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error) {
	var count int
	err := r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			DELETE FROM appointments
			WHERE status IN ('cancelled', 'completed') AND updated_at < ?`,
			formatTime(updatedBefore),
		)
		if err != nil {
			return err
		}
		count, err = affectedCount(result)
		return err
	})
	return count, err
}

func insertAppointment(ctx context.Context, db execer, appointment persistence.Appointment) error {
	query := `INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		appointment.ID,
		appointment.Title,
		appointment.Description,
		appointment.Date,
		appointment.Time,
		appointment.DurationMinutes,
		appointment.Location,
		appointment.Medium,
		appointment.Status,
		appointment.OwnerID,
		appointment.ParticipantID,
		appointment.ParticipantName,
		nullableString(appointment.ParticipantAvatar),
		nullableString(appointment.RequestID),
		formatTime(appointment.CreatedAt),
		formatTime(appointment.UpdatedAt),
	)
	return err
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment          persistence.Appointment
		avatar, requestID    sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&appointment.ID,
		&appointment.Title,
		&appointment.Description,
		&appointment.Date,
		&appointment.Time,
		&appointment.DurationMinutes,
		&appointment.Location,
		&appointment.Medium,
		&appointment.Status,
		&appointment.OwnerID,
		&appointment.ParticipantID,
		&appointment.ParticipantName,
		&avatar,
		&requestID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Appointment{}, err
	}

	if appointment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	appointment.ParticipantAvatar = stringPtr(avatar)
	appointment.RequestID = stringPtr(requestID)

	return appointment, nil
}
