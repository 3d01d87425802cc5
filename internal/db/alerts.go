package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// AlertPartition implements store.Partition over one stage table.
type AlertPartition struct {
	db    *DB
	stage models.Stage
	table string
}

// NewAlertPartition binds a partition store to the table for the given
// stage. Construction fails fast on unknown stages so wiring errors surface
// at startup, not first query.
func NewAlertPartition(db *DB, stage models.Stage) (*AlertPartition, error) {
	table, ok := stageTables[stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	return &AlertPartition{db: db, stage: stage, table: table}, nil
}

func (p *AlertPartition) Stage() models.Stage { return p.stage }

const alertColumns = `report_id, user_id, nic, contact_number, emergency_type,
    location_link, coordinates, address, created_at, priority_level,
    responder_type, status, assigned_responders, photos, videos,
    accepted_at, accepted_by, completed_at, comment, comment_by,
    comment_by_nic, comment_by_contact, media, reason_to_reject, cancelled_at`

func (p *AlertPartition) Insert(ctx context.Context, a models.Alert) error {
	assigned, err := json.Marshal(a.Assigned)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned responders: %w", err)
	}
	var acceptedBy any
	if a.AcceptedBy != nil {
		b, err := json.Marshal(a.AcceptedBy)
		if err != nil {
			return fmt.Errorf("failed to marshal acceptedBy: %w", err)
		}
		acceptedBy = b
	}

	query := fmt.Sprintf(`
    INSERT INTO %s (`+alertColumns+`) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
        $21, $22, $23, $24, $25
    )`, p.table)

	_, err = p.db.Pool.Exec(ctx, query,
		a.ReportID,
		a.UserID,
		a.NIC,
		a.ContactNumber,
		string(a.EmergencyType),
		a.LiveLocation.Link,
		a.LiveLocation.Coordinates,
		a.Address,
		a.Timestamp,
		string(a.PriorityLevel),
		a.ResponderType,
		a.Status,
		assigned,
		emptyIfNil(a.Photos),
		emptyIfNil(a.Videos),
		a.AcceptedAt,
		acceptedBy,
		a.CompletedAt,
		a.Comment,
		a.CommentBy,
		a.CommentByNIC,
		a.CommentByContact,
		emptyIfNil(a.Media),
		a.ReasonToReject,
		a.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to insert alert into %s: %w", p.table, err)
	}
	return nil
}

func (p *AlertPartition) Get(ctx context.Context, reportID string) (models.Alert, error) {
	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM %s WHERE report_id = $1`, p.table)
	row := p.db.Pool.QueryRow(ctx, query, reportID)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, store.ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to get alert from %s: %w", p.table, err)
	}
	return a, nil
}

func (p *AlertPartition) List(ctx context.Context) ([]models.Alert, error) {
	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM %s ORDER BY created_at DESC`, p.table)
	return p.queryAlerts(ctx, query)
}

func (p *AlertPartition) ListByStatus(ctx context.Context, status string) ([]models.Alert, error) {
	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM %s WHERE status = $1 ORDER BY created_at DESC`, p.table)
	return p.queryAlerts(ctx, query, status)
}

func (p *AlertPartition) ListByAssignedNIC(ctx context.Context, nic string) ([]models.Alert, error) {
	// Matches any element of the assigned_responders jsonb array by NIC.
	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM %s
        WHERE assigned_responders @> $1::jsonb ORDER BY created_at DESC`, p.table)
	probe, err := json.Marshal([]map[string]string{{"NIC": nic}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal NIC probe: %w", err)
	}
	return p.queryAlerts(ctx, query, probe)
}

func (p *AlertPartition) Update(ctx context.Context, a models.Alert) error {
	assigned, err := json.Marshal(a.Assigned)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned responders: %w", err)
	}
	query := fmt.Sprintf(`
    UPDATE %s SET
        location_link = $2, coordinates = $3, status = $4,
        assigned_responders = $5, photos = $6, videos = $7, media = $8,
        priority_level = $9
    WHERE report_id = $1`, p.table)

	tag, err := p.db.Pool.Exec(ctx, query,
		a.ReportID,
		a.LiveLocation.Link,
		a.LiveLocation.Coordinates,
		a.Status,
		assigned,
		emptyIfNil(a.Photos),
		emptyIfNil(a.Videos),
		emptyIfNil(a.Media),
		string(a.PriorityLevel),
	)
	if err != nil {
		return fmt.Errorf("failed to update alert in %s: %w", p.table, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *AlertPartition) Delete(ctx context.Context, reportID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE report_id = $1`, p.table)
	tag, err := p.db.Pool.Exec(ctx, query, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete alert from %s: %w", p.table, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *AlertPartition) DeleteAll(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s`, p.table)
	tag, err := p.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", p.table, err)
	}
	return tag.RowsAffected(), nil
}

func (p *AlertPartition) queryAlerts(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := p.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert from %s: %w", p.table, err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", p.table, err)
	}
	return list, nil
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var (
		a           models.Alert
		emergency   string
		priority    string
		assignedRaw []byte
		acceptedRaw []byte
	)
	err := row.Scan(
		&a.ReportID,
		&a.UserID,
		&a.NIC,
		&a.ContactNumber,
		&emergency,
		&a.LiveLocation.Link,
		&a.LiveLocation.Coordinates,
		&a.Address,
		&a.Timestamp,
		&priority,
		&a.ResponderType,
		&a.Status,
		&assignedRaw,
		&a.Photos,
		&a.Videos,
		&a.AcceptedAt,
		&acceptedRaw,
		&a.CompletedAt,
		&a.Comment,
		&a.CommentBy,
		&a.CommentByNIC,
		&a.CommentByContact,
		&a.Media,
		&a.ReasonToReject,
		&a.CancelledAt,
	)
	if err != nil {
		return models.Alert{}, err
	}
	a.EmergencyType = models.EmergencyType(emergency)
	a.PriorityLevel = models.PriorityLevel(priority)
	a.Assigned = []models.ResponderSnapshot{}
	if len(assignedRaw) > 0 {
		if err := json.Unmarshal(assignedRaw, &a.Assigned); err != nil {
			return models.Alert{}, fmt.Errorf("failed to unmarshal assigned responders: %w", err)
		}
	}
	if len(acceptedRaw) > 0 {
		var by models.ResponderSnapshot
		if err := json.Unmarshal(acceptedRaw, &by); err != nil {
			return models.Alert{}, fmt.Errorf("failed to unmarshal acceptedBy: %w", err)
		}
		a.AcceptedBy = &by
	}
	return a, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
