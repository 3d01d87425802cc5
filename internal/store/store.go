package store

import (
	"context"
	"errors"

	"sos-dispatch/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert collides with an existing
	// reportId. The state machine relies on this for first-committer-wins.
	ErrDuplicate = errors.New("duplicate record")
)

// Partition is the repository for one lifecycle stage. Each instance is
// bound to a single stage at construction; the state machine holds one per
// stage and is the only component allowed to Delete as part of a transition.
type Partition interface {
	Stage() models.Stage
	Insert(ctx context.Context, a models.Alert) error
	Get(ctx context.Context, reportID string) (models.Alert, error)
	// List returns every record in the partition, newest first.
	List(ctx context.Context) ([]models.Alert, error)
	ListByStatus(ctx context.Context, status string) ([]models.Alert, error)
	ListByAssignedNIC(ctx context.Context, nic string) ([]models.Alert, error)
	// Update replaces the record in place; it never relocates.
	Update(ctx context.Context, a models.Alert) error
	Delete(ctx context.Context, reportID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ResponderDirectory is the repository for responder records.
type ResponderDirectory interface {
	Upsert(ctx context.Context, r models.Responder) error
	Get(ctx context.Context, id string) (models.Responder, error)
	// ListByType returns available responders of the given type.
	ListByType(ctx context.Context, responderType string) ([]models.Responder, error)
	// Search matches query case-insensitively against name, NIC and email.
	Search(ctx context.Context, query string) ([]models.Responder, error)
	UpdatePosition(ctx context.Context, id string, lat, lng float64, mapLink string) error
}
