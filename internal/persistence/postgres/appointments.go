package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

const appointmentColumns = `id, title, description, date, time, duration_minutes, location, medium, status,
	owner_id, participant_id, participant_name, participant_avatar, request_id, created_at, updated_at`

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) CreateAppointment(ctx context.Context, a persistence.Appointment) error {
	if a.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return insertAppointment(ctx, s.pool, a)
}

func (s *Store) UpdateAppointment(ctx context.Context, a persistence.Appointment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET title=$1, description=$2, date=$3, time=$4, duration_minutes=$5, location=$6,
		     medium=$7, status=$8, participant_id=$9, participant_name=$10, participant_avatar=$11,
		     request_id=$12, updated_at=$13
		 WHERE id=$14`,
		a.Title, a.Description, a.Date, a.Time, a.DurationMinutes, a.Location,
		a.Medium, a.Status, a.ParticipantID, a.ParticipantName, a.ParticipantAvatar,
		a.RequestID, utc(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	appointment, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	return appointment, nil
}

func (s *Store) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(owner_id = $"+n+" OR participant_id = $"+n+")")
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, "date = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, time, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appointment)
	}
	return out, mapError(rows.Err())
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) PurgeAppointments(ctx context.Context, updatedBefore time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments
		 WHERE status IN ('cancelled', 'completed') AND updated_at < $1`, utc(updatedBefore))
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func insertAppointment(ctx context.Context, db execer, a persistence.Appointment) error {
	_, err := db.Exec(ctx,
		`INSERT INTO appointments (`+appointmentColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		a.ID, a.Title, a.Description, a.Date, a.Time, a.DurationMinutes, a.Location, a.Medium, a.Status,
		a.OwnerID, a.ParticipantID, a.ParticipantName, a.ParticipantAvatar, a.RequestID,
		utc(a.CreatedAt), utc(a.UpdatedAt),
	)
	return mapError(err)
}

func scanAppointment(row pgx.Row) (persistence.Appointment, error) {
	var a persistence.Appointment
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.Date, &a.Time, &a.DurationMinutes, &a.Location, &a.Medium, &a.Status,
		&a.OwnerID, &a.ParticipantID, &a.ParticipantName, &a.ParticipantAvatar, &a.RequestID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return persistence.Appointment{}, err
	}
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	return a, nil
}
