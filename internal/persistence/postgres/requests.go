package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

const requestColumns = `id, title, description, requested_date, requested_time, alternative_slots,
	duration_minutes, location, medium, status,
	requester_id, requester_name, requester_avatar,
	recipient_id, recipient_name, recipient_avatar,
	message, response_message, responded_at, created_at, expires_at`

func (s *Store) CreateRequest(ctx context.Context, r persistence.AppointmentRequest) error {
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointment_requests (`+requestColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		r.ID, r.Title, r.Description, r.RequestedDate, r.RequestedTime, slotsOrEmpty(r.AlternativeSlots),
		r.DurationMinutes, r.Location, r.Medium, r.Status,
		r.RequesterID, r.RequesterName, r.RequesterAvatar,
		r.RecipientID, r.RecipientName, r.RecipientAvatar,
		r.Message, r.ResponseMessage, utcPtr(r.RespondedAt), utc(r.CreatedAt), utc(r.ExpiresAt),
	)
	return mapError(err)
}

func (s *Store) GetRequest(ctx context.Context, id string) (persistence.AppointmentRequest, error) {
	request, err := scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM appointment_requests WHERE id = $1`, id))
	if err != nil {
		return persistence.AppointmentRequest{}, mapError(err)
	}
	return request, nil
}

func (s *Store) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.AppointmentRequest, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(column, value string) {
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}
	if filter.RequesterID != "" {
		add("requester_id", filter.RequesterID)
	}
	if filter.RecipientID != "" {
		add("recipient_id", filter.RecipientID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	query := `SELECT ` + requestColumns + ` FROM appointment_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.AppointmentRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, mapError(rows.Err())
}

// ResolveRequest applies the response only while the stored request is
// pending and unexpired, inserting the appointment in the same transaction.
func (s *Store) ResolveRequest(ctx context.Context, r persistence.AppointmentRequest, appointment *persistence.Appointment) error {
	if appointment != nil && appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var reference time.Time
	if r.RespondedAt != nil {
		reference = r.RespondedAt.UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE appointment_requests
		 SET status = $1, response_message = $2, responded_at = $3
		 WHERE id = $4 AND status = 'pending' AND expires_at > $5`,
		r.Status, r.ResponseMessage, utcPtr(r.RespondedAt), r.ID, reference,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM appointment_requests WHERE id = $1)`, r.ID,
		).Scan(&exists); err != nil {
			return mapError(err)
		}
		if !exists {
			return persistence.ErrNotFound
		}
		return persistence.ErrConflict
	}

	if appointment != nil {
		if err := insertAppointment(ctx, tx, *appointment); err != nil {
			return err
		}
	}
	return mapError(tx.Commit(ctx))
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointment_requests WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Store) ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointment_requests SET status = 'expired'
		 WHERE status = 'pending' AND expires_at <= $1`, utc(reference))
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointment_requests
		 WHERE created_at < $1 AND NOT (status = 'pending' AND expires_at > $2)`,
		utc(createdBefore), utc(reference))
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func scanRequest(row pgx.Row) (persistence.AppointmentRequest, error) {
	var r persistence.AppointmentRequest
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.RequestedDate, &r.RequestedTime, &r.AlternativeSlots,
		&r.DurationMinutes, &r.Location, &r.Medium, &r.Status,
		&r.RequesterID, &r.RequesterName, &r.RequesterAvatar,
		&r.RecipientID, &r.RecipientName, &r.RecipientAvatar,
		&r.Message, &r.ResponseMessage, &r.RespondedAt, &r.CreatedAt, &r.ExpiresAt,
	)
	if err != nil {
		return persistence.AppointmentRequest{}, err
	}
	r.RespondedAt = utcPtr(r.RespondedAt)
	r.CreatedAt = utc(r.CreatedAt)
	r.ExpiresAt = utc(r.ExpiresAt)
	if len(r.AlternativeSlots) == 0 {
		r.AlternativeSlots = nil
	}
	return r, nil
}
