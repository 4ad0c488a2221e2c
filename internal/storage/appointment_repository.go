package storage

import (
	"context"
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/scheduling"
	"clientdesk/libs/db"

	"github.com/jackc/pgx/v5"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// ListBlockingAtTx loads the user's non-cancelled bookings at the exact
// instant, locking them so a concurrent create for the same slot serializes
// behind this transaction.
func (r *AppointmentRepository) ListBlockingAtTx(ctx context.Context, tx pgx.Tx, userID int64, at time.Time) ([]scheduling.Booking, error) {
	rows, err := tx.Query(ctx, `
		SELECT date, status
		FROM appointments
		WHERE user_id = $1
			AND date = $2
			AND status <> 'cancelled'
		FOR UPDATE
	`, userID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []scheduling.Booking
	for rows.Next() {
		var b scheduling.Booking
		var status string
		if err := rows.Scan(&b.Date, &status); err != nil {
			return nil, err
		}
		b.Status = scheduling.Status(status)
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// CreateTx inserts a pending appointment inside the caller's transaction.
func (r *AppointmentRepository) CreateTx(ctx context.Context, tx pgx.Tx, userID, clientID int64, at time.Time) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments (user_id, client_id, date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, clientID, at, string(scheduling.StatusPending)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetWithClient loads one appointment with its linked client.
func (r *AppointmentRepository) GetWithClient(ctx context.Context, id int64) (model.Appointment, error) {
	var a model.Appointment
	var c model.Client
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.user_id, a.client_id, a.date, a.status, a.created_at, a.updated_at,
			c.id, c.name, c.email, COALESCE(c.phone, ''), c.created_at, c.updated_at
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		WHERE a.id = $1
	`, id).Scan(
		&a.ID, &a.UserID, &a.ClientID, &a.Date, &status, &a.CreatedAt, &a.UpdatedAt,
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = scheduling.Status(status)
	a.Client = &c
	return a, nil
}

// UpdateStatusTx overwrites the status field unconditionally. Returns
// pgx.ErrNoRows when the id does not exist.
func (r *AppointmentRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status scheduling.Status) (scheduling.Status, error) {
	var previous string
	err := tx.QueryRow(ctx, `
		SELECT status
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&previous)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return "", err
	}
	return scheduling.Status(previous), nil
}

// DeleteTx removes an appointment. Returns pgx.ErrNoRows when absent.
func (r *AppointmentRepository) DeleteTx(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListAll returns every appointment with its client and the owning user's
// projection, ordered by date ascending. No pagination; the tool serves a
// single small business.
func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.user_id, a.client_id, a.date, a.status, a.created_at, a.updated_at,
			c.id, c.name, c.email, COALESCE(c.phone, ''), c.created_at, c.updated_at,
			u.id, u.name, u.email
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN users u ON u.id = a.user_id
		ORDER BY a.date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var a model.Appointment
		var c model.Client
		var u model.UserInfo
		var status string
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ClientID, &a.Date, &status, &a.CreatedAt, &a.UpdatedAt,
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
			&u.ID, &u.Name, &u.Email,
		); err != nil {
			return nil, err
		}
		a.Status = scheduling.Status(status)
		a.Client = &c
		a.User = &u
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}
