package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jessiellen/shareup-app/internal/persistence"
)

const requestColumns = `id, title, description, requested_date, requested_time, alternative_slots,
	duration_minutes, location, medium, status,
	requester_id, requester_name, requester_avatar,
	recipient_id, recipient_name, recipient_avatar,
	message, response_message, responded_at, created_at, expires_at`

// RequestRepository implements persistence.AppointmentRequestRepository using SQLite
type RequestRepository struct {
	pool  *ConnectionPool
	retry *Retrier
}

// NewRequestRepository creates a new SQLite request repository
func NewRequestRepository(pool *ConnectionPool, retry *Retrier) *RequestRepository {
	return &RequestRepository{pool: pool, retry: retry}
}

// CreateRequest inserts a new appointment request
func (r *RequestRepository) CreateRequest(ctx context.Context, request persistence.AppointmentRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	slots, err := encodeSlots(request.AlternativeSlots)
	if err != nil {
		return err
	}

	query := `INSERT INTO appointment_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.retry.Do(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, query,
			request.ID,
			request.Title,
			request.Description,
			request.RequestedDate,
			request.RequestedTime,
			slots,
			request.DurationMinutes,
			request.Location,
			request.Medium,
			request.Status,
			request.RequesterID,
			request.RequesterName,
			nullableString(request.RequesterAvatar),
			request.RecipientID,
			request.RecipientName,
			nullableString(request.RecipientAvatar),
			nullableString(request.Message),
			nullableString(request.ResponseMessage),
			nullableTime(request.RespondedAt),
			formatTime(request.CreatedAt),
			formatTime(request.ExpiresAt),
		)
		return err
	})
}

// GetRequest retrieves a request by ID
func (r *RequestRepository) GetRequest(ctx context.Context, id string) (persistence.AppointmentRequest, error) {
	if id == "" {
		return persistence.AppointmentRequest{}, persistence.ErrNotFound
	}

	query := `SELECT ` + requestColumns + ` FROM appointment_requests WHERE id = ?`
	request, err := scanRequest(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.AppointmentRequest{}, mapError(err)
	}
	return request, nil
}

// ListRequests returns requests matching the filter, newest first
func (r *RequestRepository) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.AppointmentRequest, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.RecipientID != "" {
		conditions = append(conditions, "recipient_id = ?")
		args = append(args, filter.RecipientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + requestColumns + ` FROM appointment_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	requests := make([]persistence.AppointmentRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return requests, nil
}

// ResolveRequest records the response carried by request and inserts the
// optional appointment in one transaction. The update only applies while the
// stored request is pending and unexpired at request.RespondedAt.
func (r *RequestRepository) ResolveRequest(ctx context.Context, request persistence.AppointmentRequest, appointment *persistence.Appointment) error {
	if appointment != nil && appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var reference time.Time
	if request.RespondedAt != nil {
		reference = *request.RespondedAt
	}

	return r.retry.Do(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `
				UPDATE appointment_requests
				SET status = ?, response_message = ?, responded_at = ?
				WHERE id = ? AND status = 'pending' AND expires_at > ?`,
				request.Status,
				nullableString(request.ResponseMessage),
				nullableTime(request.RespondedAt),
				request.ID,
				formatTime(reference),
			)
			if err != nil {
				return err
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				var exists int
				err := tx.QueryRowContext(ctx, `SELECT 1 FROM appointment_requests WHERE id = ?`, request.ID).Scan(&exists)
				if errors.Is(err, sql.ErrNoRows) {
					return persistence.ErrNotFound
				}
				if err != nil {
					return err
				}
				return persistence.ErrConflict
			}

			if appointment == nil {
				return nil
			}
			return insertAppointment(ctx, tx, *appointment)
		})
	})
}

// DeleteRequest removes a request by ID
func (r *RequestRepository) DeleteRequest(ctx context.Context, id string) error {
	return r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM appointment_requests WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ExpirePendingRequests marks pending requests past their deadline as expired
func (r *RequestRepository) ExpirePendingRequests(ctx context.Context, reference time.Time) (int, error) {
	var count int
	err := r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			UPDATE appointment_requests SET status = 'expired'
			WHERE status = 'pending' AND expires_at <= ?`,
			formatTime(reference),
		)
		if err != nil {
			return err
		}
		count, err = affectedCount(result)
		return err
	})
	return count, err
}

// PurgeRequests deletes resolved or lapsed requests created before the cutoff
func (r *RequestRepository) PurgeRequests(ctx context.Context, createdBefore, reference time.Time) (int, error) {
	var count int
	err := r.retry.Do(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			DELETE FROM appointment_requests
			WHERE created_at < ? AND NOT (status = 'pending' AND expires_at > ?)`,
			formatTime(createdBefore),
			formatTime(reference),
		)
		if err != nil {
			return err
		}
		count, err = affectedCount(result)
		return err
	})
	return count, err
}

func scanRequest(row rowScanner) (persistence.AppointmentRequest, error) {
	var (
		request                                  persistence.AppointmentRequest
		slots, createdAt, expiresAt              string
		requesterAvatar, recipientAvatar         sql.NullString
		message, responseMessage, respondedAtRaw sql.NullString
	)

	err := row.Scan(
		&request.ID,
		&request.Title,
		&request.Description,
		&request.RequestedDate,
		&request.RequestedTime,
		&slots,
		&request.DurationMinutes,
		&request.Location,
		&request.Medium,
		&request.Status,
		&request.RequesterID,
		&request.RequesterName,
		&requesterAvatar,
		&request.RecipientID,
		&request.RecipientName,
		&recipientAvatar,
		&message,
		&responseMessage,
		&respondedAtRaw,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return persistence.AppointmentRequest{}, err
	}

	if request.AlternativeSlots, err = decodeSlots(slots); err != nil {
		return persistence.AppointmentRequest{}, err
	}
	if request.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AppointmentRequest{}, err
	}
	if request.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.AppointmentRequest{}, err
	}
	if request.RespondedAt, err = timePtr(respondedAtRaw); err != nil {
		return persistence.AppointmentRequest{}, err
	}
	request.RequesterAvatar = stringPtr(requesterAvatar)
	request.RecipientAvatar = stringPtr(recipientAvatar)
	request.Message = stringPtr(message)
	request.ResponseMessage = stringPtr(responseMessage)

	return request, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func affectedCount(result sql.Result) (int, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}
