package storage

import (
	"context"
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/scheduling"
	"clientdesk/libs/db"

	"github.com/jackc/pgx/v5"
)

type ClientRepository struct {
	pool *db.Pool
}

func NewClientRepository(pool *db.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func (r *ClientRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// List returns all clients ordered by most recently updated, each carrying
// its most recent appointment (if any).
func (r *ClientRepository) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.email, COALESCE(c.phone, ''), c.created_at, c.updated_at,
			a.id, a.user_id, a.client_id, a.date, a.status, a.created_at, a.updated_at
		FROM clients c
		LEFT JOIN LATERAL (
			SELECT id, user_id, client_id, date, status, created_at, updated_at
			FROM appointments
			WHERE client_id = c.id
			ORDER BY date DESC
			LIMIT 1
		) a ON true
		ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var apptID, apptUserID, apptClientID *int64
		var apptDate, apptCreated, apptUpdated *time.Time
		var apptStatus *string
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
			&apptID, &apptUserID, &apptClientID, &apptDate, &apptStatus, &apptCreated, &apptUpdated,
		); err != nil {
			return nil, err
		}
		if apptID != nil {
			c.LastAppointment = &model.Appointment{
				ID:        *apptID,
				UserID:    *apptUserID,
				ClientID:  *apptClientID,
				Date:      *apptDate,
				Status:    scheduling.Status(*apptStatus),
				CreatedAt: *apptCreated,
				UpdatedAt: *apptUpdated,
			}
		}
		clients = append(clients, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clients, nil
}

func (r *ClientRepository) Get(ctx context.Context, id int64) (model.Client, error) {
	var c model.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, err
	}
	return c, nil
}

func (r *ClientRepository) Create(ctx context.Context, name, email, phone string) (model.Client, error) {
	var c model.Client
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, name, email, COALESCE(phone, ''), created_at, updated_at
	`, name, email, phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, err
	}
	return c, nil
}

func (r *ClientRepository) Update(ctx context.Context, id int64, name, email, phone string) (model.Client, error) {
	var c model.Client
	err := r.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $2,
			email = $3,
			phone = NULLIF($4, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, COALESCE(phone, ''), created_at, updated_at
	`, id, name, email, phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, err
	}
	return c, nil
}

// DeleteCascadeTx removes a client and all its appointments inside the
// caller's transaction. Both deletes commit or neither does.
func (r *ClientRepository) DeleteCascadeTx(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE client_id = $1`, id)
	if err != nil {
		return 0, err
	}
	removedAppointments := tag.RowsAffected()

	clientTag, err := tx.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	if clientTag.RowsAffected() == 0 {
		return 0, pgx.ErrNoRows
	}
	return removedAppointments, nil
}
