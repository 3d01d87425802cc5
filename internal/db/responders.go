package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// ResponderDirectory implements store.ResponderDirectory over the
// responders table.
type ResponderDirectory struct {
	db *DB
}

func NewResponderDirectory(db *DB) *ResponderDirectory {
	return &ResponderDirectory{db: db}
}

const responderColumns = `id, nic, name, contact_number, email,
    responder_type, position, available, last_lat, last_lng, map_link, updated_at`

func (r *ResponderDirectory) Upsert(ctx context.Context, resp models.Responder) error {
	query := `
    INSERT INTO responders (` + responderColumns + `) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
    )
    ON CONFLICT (id) DO UPDATE SET
        nic = EXCLUDED.nic,
        name = EXCLUDED.name,
        contact_number = EXCLUDED.contact_number,
        email = EXCLUDED.email,
        responder_type = EXCLUDED.responder_type,
        position = EXCLUDED.position,
        available = EXCLUDED.available,
        updated_at = EXCLUDED.updated_at`

	_, err := r.db.Pool.Exec(ctx, query,
		resp.ID,
		resp.NIC,
		resp.Name,
		resp.ContactNumber,
		resp.Email,
		resp.ResponderType,
		resp.Position,
		resp.Available,
		resp.LastLat,
		resp.LastLng,
		resp.MapLink,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert responder: %w", err)
	}
	return nil
}

func (r *ResponderDirectory) Get(ctx context.Context, id string) (models.Responder, error) {
	query := `SELECT ` + responderColumns + ` FROM responders WHERE id = $1`
	resp, err := scanResponder(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Responder{}, store.ErrNotFound
		}
		return models.Responder{}, fmt.Errorf("failed to get responder: %w", err)
	}
	return resp, nil
}

func (r *ResponderDirectory) ListByType(ctx context.Context, responderType string) ([]models.Responder, error) {
	query := `SELECT ` + responderColumns + ` FROM responders
        WHERE responder_type = $1 AND available ORDER BY name`
	return r.queryResponders(ctx, query, responderType)
}

func (r *ResponderDirectory) Search(ctx context.Context, q string) ([]models.Responder, error) {
	query := `SELECT ` + responderColumns + ` FROM responders
        WHERE name ILIKE $1 OR nic ILIKE $1 OR email ILIKE $1 ORDER BY name`
	return r.queryResponders(ctx, query, "%"+q+"%")
}

func (r *ResponderDirectory) UpdatePosition(ctx context.Context, id string, lat, lng float64, mapLink string) error {
	query := `UPDATE responders SET last_lat = $2, last_lng = $3, map_link = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, query, id, lat, lng, mapLink, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update responder position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ResponderDirectory) queryResponders(ctx context.Context, query string, args ...any) ([]models.Responder, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responders: %w", err)
	}
	defer rows.Close()

	var list []models.Responder
	for rows.Next() {
		resp, err := scanResponder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan responder: %w", err)
		}
		list = append(list, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responder rows: %w", err)
	}
	return list, nil
}

func scanResponder(row pgx.Row) (models.Responder, error) {
	var resp models.Responder
	err := row.Scan(
		&resp.ID,
		&resp.NIC,
		&resp.Name,
		&resp.ContactNumber,
		&resp.Email,
		&resp.ResponderType,
		&resp.Position,
		&resp.Available,
		&resp.LastLat,
		&resp.LastLng,
		&resp.MapLink,
		&resp.UpdatedAt,
	)
	return resp, err
}
