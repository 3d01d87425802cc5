package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sos-dispatch/internal/models"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*DB, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	d.Pool.Close()
}

// stageTables maps each lifecycle stage to its partition table. One table
// per stage; identical columns so move operations are straight copies.
var stageTables = map[models.Stage]string{
	models.StagePending:   "alerts_pending",
	models.StageAccepted:  "alerts_accepted",
	models.StageCompleted: "alerts_completed",
	models.StageCanceled:  "alerts_canceled",
}

const alertTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    report_id           TEXT PRIMARY KEY,
    user_id             TEXT NOT NULL,
    nic                 TEXT NOT NULL,
    contact_number      TEXT NOT NULL,
    emergency_type      TEXT NOT NULL,
    location_link       TEXT NOT NULL,
    coordinates         FLOAT8[] NOT NULL,
    address             TEXT NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    priority_level      TEXT NOT NULL,
    responder_type      TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL,
    assigned_responders JSONB NOT NULL DEFAULT '[]',
    photos              TEXT[] NOT NULL DEFAULT '{}',
    videos              TEXT[] NOT NULL DEFAULT '{}',
    accepted_at         TIMESTAMPTZ,
    accepted_by         JSONB,
    completed_at        TIMESTAMPTZ,
    comment             TEXT NOT NULL DEFAULT '',
    comment_by          TEXT NOT NULL DEFAULT '',
    comment_by_nic      TEXT NOT NULL DEFAULT '',
    comment_by_contact  TEXT NOT NULL DEFAULT '',
    media               TEXT[] NOT NULL DEFAULT '{}',
    reason_to_reject    TEXT NOT NULL DEFAULT '',
    cancelled_at        TIMESTAMPTZ
)`

const responderTableDDL = `
CREATE TABLE IF NOT EXISTS responders (
    id             TEXT PRIMARY KEY,
    nic            TEXT NOT NULL,
    name           TEXT NOT NULL,
    contact_number TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL DEFAULT '',
    responder_type TEXT NOT NULL DEFAULT '',
    position       TEXT NOT NULL DEFAULT '',
    available      BOOLEAN NOT NULL DEFAULT TRUE,
    last_lat       FLOAT8 NOT NULL DEFAULT 0,
    last_lng       FLOAT8 NOT NULL DEFAULT 0,
    map_link       TEXT NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the partition and directory tables if missing.
// Called once at startup before any store is handed out.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, table := range stageTables {
		if _, err := d.Pool.Exec(ctx, fmt.Sprintf(alertTableDDL, table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	if _, err := d.Pool.Exec(ctx, responderTableDDL); err != nil {
		return fmt.Errorf("failed to create responders table: %w", err)
	}
	return nil
}
