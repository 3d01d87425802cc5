package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// Notifier is the out-of-band collaborator hook. Implementations must not
// block the caller; delivery failure never affects alert state.
type Notifier interface {
	ResponderAssigned(alert models.Alert, snap models.ResponderSnapshot)
	PositionUpdated(responder models.Responder)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ResponderAssigned(models.Alert, models.ResponderSnapshot) {}
func (NopNotifier) PositionUpdated(models.Responder)                         {}

// Service owns the four partition stores and executes every lifecycle
// transition. It is the only component that deletes from a partition; all
// other mutation is in-place.
type Service struct {
	pending   store.Partition
	accepted  store.Partition
	completed store.Partition
	canceled  store.Partition
	ordered   []store.Partition // lifecycle order

	directory store.ResponderDirectory
	notifier  Notifier
	logger    *logrus.Logger
}

// New wires the service. Partitions are injected in lifecycle order;
// notifier may be nil.
func New(pending, accepted, completed, canceled store.Partition,
	directory store.ResponderDirectory, notifier Notifier, logger *logrus.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		pending:   pending,
		accepted:  accepted,
		completed: completed,
		canceled:  canceled,
		ordered:   []store.Partition{pending, accepted, completed, canceled},
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

// Submit validates a new alert payload and creates the Pending record.
func (s *Service) Submit(ctx context.Context, req models.AlertCreate) (models.Alert, error) {
	if req.UserID == "" {
		return models.Alert{}, invalid("userId", "required")
	}
	if req.NIC == "" {
		return models.Alert{}, invalid("NIC", "required")
	}
	if req.ContactNumber == "" {
		return models.Alert{}, invalid("contactNumber", "required")
	}
	emergency := models.EmergencyType(req.EmergencyType)
	if !emergency.Valid() {
		return models.Alert{}, invalid("emergencyType", fmt.Sprintf("unrecognized value %q", req.EmergencyType))
	}
	if req.LiveLocation.Link == "" {
		return models.Alert{}, invalid("liveLocation.link", "required")
	}
	if len(req.LiveLocation.Coordinates) != 2 {
		return models.Alert{}, invalid("liveLocation.coordinates", "must contain exactly 2 numbers [longitude, latitude]")
	}
	if req.Address == "" {
		return models.Alert{}, invalid("address", "required")
	}
	priority := models.PriorityMedium
	if req.PriorityLevel != "" {
		priority = models.PriorityLevel(req.PriorityLevel)
		if !priority.Valid() {
			return models.Alert{}, invalid("priorityLevel", fmt.Sprintf("unrecognized value %q", req.PriorityLevel))
		}
	}

	alert := models.Alert{
		ReportID:      uuid.NewString(),
		UserID:        req.UserID,
		NIC:           req.NIC,
		ContactNumber: req.ContactNumber,
		EmergencyType: emergency,
		LiveLocation: models.LiveLocation{
			Link:        req.LiveLocation.Link,
			Coordinates: append([]float64(nil), req.LiveLocation.Coordinates...),
		},
		Address:       req.Address,
		Timestamp:     time.Now(),
		PriorityLevel: priority,
		ResponderType: req.ResponderType,
		Status:        models.StatusPending,
		Assigned:      []models.ResponderSnapshot{},
		Photos:        req.Photos,
		Videos:        req.Videos,
	}
	if err := s.pending.Insert(ctx, alert); err != nil {
		return models.Alert{}, fmt.Errorf("failed to create pending alert: %w", err)
	}
	s.logger.Infof("Created alert %s (%s, priority %s)", alert.ReportID, alert.EmergencyType, alert.PriorityLevel)
	return alert, nil
}

// GetByID looks a reportId up across partitions. Later stages are searched
// first so that a transient duplicate resolves to the authoritative copy.
func (s *Service) GetByID(ctx context.Context, reportID string) (models.StagedAlert, error) {
	for i := len(s.ordered) - 1; i >= 0; i-- {
		p := s.ordered[i]
		a, err := p.Get(ctx, reportID)
		if err == nil {
			return models.StagedAlert{Stage: p.Stage(), Alert: a}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return models.StagedAlert{}, fmt.Errorf("failed to look up alert in %s: %w", p.Stage(), err)
		}
	}
	return models.StagedAlert{}, ErrNotFound
}

// ListStage returns every record of the named partition, newest first.
func (s *Service) ListStage(ctx context.Context, stage models.Stage) ([]models.Alert, error) {
	p, err := s.partition(stage)
	if err != nil {
		return nil, err
	}
	return p.List(ctx)
}

// ListPendingByStatus filters the Pending partition by the record's status
// sub-field. Scoped to Pending only; the status/partition duality upstream
// is deliberately not reconciled here.
func (s *Service) ListPendingByStatus(ctx context.Context, status string) ([]models.Alert, error) {
	if !models.IsFilterableStatus(status) {
		return nil, invalid("status", fmt.Sprintf("unrecognized value %q", status))
	}
	return s.pending.ListByStatus(ctx, status)
}

func (s *Service) partition(stage models.Stage) (store.Partition, error) {
	for _, p := range s.ordered {
		if p.Stage() == stage {
			return p, nil
		}
	}
	return nil, invalid("stage", fmt.Sprintf("unrecognized value %q", stage))
}

// liveCopy returns the record from whichever non-terminal partition holds
// it (Pending first, then Accepted), with its partition for in-place writes.
func (s *Service) liveCopy(ctx context.Context, reportID string) (models.Alert, store.Partition, error) {
	for _, p := range []store.Partition{s.pending, s.accepted} {
		a, err := p.Get(ctx, reportID)
		if err == nil {
			return a, p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return models.Alert{}, nil, fmt.Errorf("failed to look up alert in %s: %w", p.Stage(), err)
		}
	}
	return models.Alert{}, nil, ErrNotFound
}
