package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// AssignResponder inserts a responder snapshot into the assignment set of
// the live record (Pending or Accepted). Idempotent per NIC: assigning the
// same responder twice leaves one entry and skips the notification.
func (s *Service) AssignResponder(ctx context.Context, reportID string, snap models.ResponderSnapshot) (models.Alert, error) {
	rec, p, err := s.liveCopy(ctx, reportID)
	if err != nil {
		return models.Alert{}, err
	}
	if !rec.Assign(snap) {
		return rec, nil
	}
	if err := p.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The record moved between read and write; the assignment is
			// lost with the stale copy. Caller should re-query and retry.
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to update assignments: %w", err)
	}
	s.logger.Infof("Assigned responder %s to alert %s", snap.NIC, reportID)
	s.notifier.ResponderAssigned(rec, snap)
	return rec, nil
}

// ReassignResponder shares AssignResponder's additive semantics. There is
// no unassign: the set only grows.
func (s *Service) ReassignResponder(ctx context.Context, reportID string, snap models.ResponderSnapshot) (models.Alert, error) {
	return s.AssignResponder(ctx, reportID, snap)
}

// AssignedTo returns every alert whose assignment set contains the NIC,
// across all four partitions, tagged with the partition it was found in.
// A reportId transiently present in several partitions yields only its
// latest-stage copy.
func (s *Service) AssignedTo(ctx context.Context, nic string) ([]models.StagedAlert, error) {
	byID := make(map[string]models.StagedAlert)
	for _, p := range s.ordered {
		records, err := p.ListByAssignedNIC(ctx, nic)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s for assignments: %w", p.Stage(), err)
		}
		for _, rec := range records {
			// Stage order iteration: later stages overwrite earlier hits.
			byID[rec.ReportID] = models.StagedAlert{Stage: p.Stage(), Alert: rec}
		}
	}
	out := make([]models.StagedAlert, 0, len(byID))
	for _, sa := range byID {
		out = append(out, sa)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Alert.Timestamp.After(out[j].Alert.Timestamp)
	})
	return out, nil
}

// UpdateAlertLocation merges a live GPS update into the currently
// authoritative record. Coordinates are stored [longitude, latitude].
func (s *Service) UpdateAlertLocation(ctx context.Context, reportID string, upd models.LocationUpdate) (models.Alert, error) {
	rec, p, err := s.liveCopy(ctx, reportID)
	if err != nil {
		return models.Alert{}, err
	}
	rec.LiveLocation = models.LiveLocation{
		Link:        upd.MapLink,
		Coordinates: []float64{upd.Lng, upd.Lat},
	}
	if err := p.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to update live location: %w", err)
	}
	return rec, nil
}

// AttachMedia appends uploaded evidence references to the live record.
func (s *Service) AttachMedia(ctx context.Context, reportID string, photos, videos []string) (models.Alert, error) {
	rec, p, err := s.liveCopy(ctx, reportID)
	if err != nil {
		return models.Alert{}, err
	}
	rec.Photos = append(rec.Photos, photos...)
	rec.Videos = append(rec.Videos, videos...)
	if err := p.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to attach media: %w", err)
	}
	return rec, nil
}

// UpsertResponder creates or updates a directory record, assigning an id
// when absent.
func (s *Service) UpsertResponder(ctx context.Context, r models.Responder) (models.Responder, error) {
	if r.NIC == "" {
		return models.Responder{}, invalid("NIC", "required")
	}
	if r.Name == "" {
		return models.Responder{}, invalid("name", "required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.UpdatedAt = time.Now()
	if err := s.directory.Upsert(ctx, r); err != nil {
		return models.Responder{}, fmt.Errorf("failed to upsert responder: %w", err)
	}
	return r, nil
}

// ListRespondersByType returns available responders of the given type.
func (s *Service) ListRespondersByType(ctx context.Context, responderType string) ([]models.Responder, error) {
	if responderType == "" {
		return nil, invalid("type", "required")
	}
	return s.directory.ListByType(ctx, responderType)
}

// SearchResponders matches the query case-insensitively against responder
// name, NIC and email.
func (s *Service) SearchResponders(ctx context.Context, query string) ([]models.Responder, error) {
	if query == "" {
		return nil, invalid("q", "required")
	}
	return s.directory.Search(ctx, query)
}

// UpdateResponderPosition records the responder's own last-known location,
// independent of any alert's liveLocation, and fans it out to watchers.
func (s *Service) UpdateResponderPosition(ctx context.Context, id string, upd models.PositionUpdate) (models.Responder, error) {
	if err := s.directory.UpdatePosition(ctx, id, upd.Lat, upd.Lng, upd.MapLink); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Responder{}, ErrNotFound
		}
		return models.Responder{}, fmt.Errorf("failed to update responder position: %w", err)
	}
	r, err := s.directory.Get(ctx, id)
	if err != nil {
		return models.Responder{}, fmt.Errorf("failed to reload responder: %w", err)
	}
	s.notifier.PositionUpdated(r)
	return r, nil
}

