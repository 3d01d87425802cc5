// Package notify carries the out-of-band side effects of the dispatch
// engine: assignment events published to the external notification service
// and responder position updates fanned out to websocket watchers. Nothing
// in here may influence alert state.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sos-dispatch/internal/models"
)

// AssignmentEvent is the payload handed to the external notification
// service when a responder is assigned. Only contact fields are exposed;
// delivery is the collaborator's problem.
type AssignmentEvent struct {
	ReportID      string    `json:"reportId"`
	EmergencyType string    `json:"emergencyType"`
	PriorityLevel string    `json:"priorityLevel"`
	Address       string    `json:"address"`
	ResponderNIC  string    `json:"responderNIC"`
	ResponderName string    `json:"responderName"`
	ContactNumber string    `json:"contactNumber"`
	Email         string    `json:"email"`
	AssignedAt    time.Time `json:"assignedAt"`
}

// Publisher writes a serialized event to the collaborator transport.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

// Dispatcher queues events and drains them with a worker pool, so callers
// on the request path never wait on Kafka or a slow websocket peer.
type Dispatcher struct {
	logger    *logrus.Logger
	publisher Publisher
	hub       *Hub
	tasks     chan AssignmentEvent
	ctx       context.Context
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
	workers   int
}

// NewDispatcher constructs a dispatcher. publisher may be nil, in which
// case events are logged and dropped (no broker configured).
func NewDispatcher(publisher Publisher, logger *logrus.Logger, queueSize, workers int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:    logger,
		publisher: publisher,
		hub:       NewHub(logger),
		tasks:     make(chan AssignmentEvent, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		workers:   workers,
	}
}

// Hub exposes the websocket hub for the API layer.
func (d *Dispatcher) Hub() *Hub { return d.hub }

// Start launches the worker pool.
func (d *Dispatcher) Start(wg *sync.WaitGroup) {
	d.wg = wg
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop cancels the workers and closes the publisher.
func (d *Dispatcher) Stop() {
	d.cancel()
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			d.logger.Errorf("Failed to close publisher: %v", err)
		}
	}
}

// ResponderAssigned queues an assignment event. Queue full means the event
// is dropped with a log line; alert state is already committed.
func (d *Dispatcher) ResponderAssigned(alert models.Alert, snap models.ResponderSnapshot) {
	ev := AssignmentEvent{
		ReportID:      alert.ReportID,
		EmergencyType: string(alert.EmergencyType),
		PriorityLevel: string(alert.PriorityLevel),
		Address:       alert.Address,
		ResponderNIC:  snap.NIC,
		ResponderName: snap.Name,
		ContactNumber: snap.ContactNumber,
		Email:         snap.Email,
		AssignedAt:    time.Now(),
	}
	select {
	case d.tasks <- ev:
	default:
		d.logger.Errorf("Event queue full, dropping assignment event for alert %s", ev.ReportID)
	}
}

// PositionUpdated broadcasts the responder's new position to websocket
// watchers.
func (d *Dispatcher) PositionUpdated(r models.Responder) {
	d.hub.BroadcastPosition(r)
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Infof("Dispatch worker %d stopped", id)
			return
		case ev := <-d.tasks:
			d.publish(ev)
		}
	}
}

func (d *Dispatcher) publish(ev AssignmentEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Errorf("Failed to marshal assignment event for alert %s: %v", ev.ReportID, err)
		return
	}
	if d.publisher == nil {
		d.logger.Infof("No broker configured, assignment event for alert %s: %s", ev.ReportID, payload)
		return
	}
	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()
	if err := d.publisher.Publish(ctx, ev.ReportID, payload); err != nil {
		d.logger.Errorf("Failed to publish assignment event for alert %s: %v", ev.ReportID, err)
		return
	}
	d.logger.Infof("Published assignment event for alert %s (responder %s)", ev.ReportID, ev.ResponderNIC)
}
