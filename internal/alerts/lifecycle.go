package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// Every stage transition follows the same move contract: write the
// destination partition first, delete the source only after the destination
// write is confirmed. A failed source delete leaves a transient duplicate
// that Reconcile (or any later-stage-wins read) resolves; the record is
// never lost. reportId doubles as the idempotency key: the destination's
// primary key rejects a second committer.

// Accept moves PENDING -> ACCEPTED, stamping acceptedAt/acceptedBy and
// adding the accepting responder to the assignment set. A concurrent
// accept or cancel surfaces as ErrAlreadyHandled.
func (s *Service) Accept(ctx context.Context, reportID string, snap models.ResponderSnapshot) (models.Alert, error) {
	rec, err := s.pending.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to read pending alert: %w", err)
	}

	now := time.Now()
	rec.Status = models.StatusAccepted
	rec.AcceptedAt = &now
	rec.AcceptedBy = &snap
	rec.Assign(snap)

	if err := s.accepted.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to write accepted alert: %w", err)
	}
	s.removeSource(ctx, s.pending, reportID)
	s.logger.Infof("Alert %s accepted by %s", reportID, snap.NIC)
	return rec, nil
}

// MarkReached flips an Accepted record to REACHED in place. Not a move.
func (s *Service) MarkReached(ctx context.Context, reportID string) (models.Alert, error) {
	rec, err := s.accepted.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to read accepted alert: %w", err)
	}
	rec.Status = models.StatusReached
	if err := s.accepted.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to mark alert reached: %w", err)
	}
	s.logger.Infof("Alert %s marked reached", reportID)
	return rec, nil
}

// Complete moves ACCEPTED/REACHED -> COMPLETED, appending uploaded media
// references (never replacing earlier partial uploads) and the closing
// comment metadata.
func (s *Service) Complete(ctx context.Context, reportID string, media []string, req models.CompleteRequest) (models.Alert, error) {
	rec, err := s.accepted.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to read accepted alert: %w", err)
	}

	now := time.Now()
	rec.Status = models.StatusCompleted
	rec.CompletedAt = &now
	rec.Comment = req.Comment
	rec.CommentBy = req.CommentBy
	rec.CommentByNIC = req.CommentByNIC
	rec.CommentByContact = req.CommentByContact
	rec.Media = append(rec.Media, media...)

	if err := s.completed.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to write completed alert: %w", err)
	}
	s.removeSource(ctx, s.accepted, reportID)
	s.logger.Infof("Alert %s completed with %d media files", reportID, len(media))
	return rec, nil
}

// Cancel moves PENDING or ACCEPTED -> CANCELED from whichever partition
// currently holds the record.
func (s *Service) Cancel(ctx context.Context, reportID, reason string, canceledBy *models.ResponderSnapshot) (models.Alert, error) {
	rec, source, err := s.liveCopy(ctx, reportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, err
	}

	now := time.Now()
	rec.Status = models.StatusCancelled
	rec.ReasonToReject = reason
	rec.CancelledAt = &now
	if canceledBy != nil {
		rec.AcceptedBy = canceledBy
	}

	if err := s.canceled.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Alert{}, ErrAlreadyHandled
		}
		return models.Alert{}, fmt.Errorf("failed to write canceled alert: %w", err)
	}
	s.removeSource(ctx, source, reportID)
	s.logger.Infof("Alert %s canceled from %s: %s", reportID, source.Stage(), reason)
	return rec, nil
}

// PurgePending bulk-deletes the Pending partition. Scope is strictly
// Pending; the other partitions are never touched.
func (s *Service) PurgePending(ctx context.Context) (int64, error) {
	n, err := s.pending.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge pending alerts: %w", err)
	}
	s.logger.Infof("Purged %d pending alerts", n)
	return n, nil
}

// removeSource deletes the source copy after a confirmed destination write.
// Failure here is logged, not surfaced: the transition already committed and
// the transient duplicate resolves via later-stage-wins.
func (s *Service) removeSource(ctx context.Context, source store.Partition, reportID string) {
	if err := source.Delete(ctx, reportID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Errorf("Alert %s: source delete from %s failed, duplicate left for reconciliation: %v",
			reportID, source.Stage(), err)
	}
}

// Reconcile sweeps for reportIds present in more than one partition and
// deletes the earlier-stage copies, applying later-stage-wins. Run
// periodically; duplicates only arise from a crashed move.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	resolved := 0
	for i := len(s.ordered) - 1; i >= 1; i-- {
		later := s.ordered[i]
		records, err := later.List(ctx)
		if err != nil {
			return resolved, fmt.Errorf("failed to list %s for reconciliation: %w", later.Stage(), err)
		}
		for _, rec := range records {
			for j := 0; j < i; j++ {
				earlier := s.ordered[j]
				if _, err := earlier.Get(ctx, rec.ReportID); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						continue
					}
					return resolved, fmt.Errorf("failed to probe %s for reconciliation: %w", earlier.Stage(), err)
				}
				if err := earlier.Delete(ctx, rec.ReportID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return resolved, fmt.Errorf("failed to drop stale copy of %s from %s: %w",
						rec.ReportID, earlier.Stage(), err)
				}
				s.logger.Warnf("Reconciled alert %s: dropped stale %s copy, %s is authoritative",
					rec.ReportID, earlier.Stage(), later.Stage())
				resolved++
			}
		}
	}
	return resolved, nil
}
