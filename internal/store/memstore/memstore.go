// Package memstore provides map-backed implementations of the store
// interfaces. They back the unit tests and DB-less development runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

// Partition is an in-memory stage store. Safe for concurrent use; all reads
// hand out deep copies.
type Partition struct {
	stage models.Stage

	mu      sync.RWMutex
	records map[string]models.Alert
}

// NewPartition creates an empty partition bound to the given stage.
func NewPartition(stage models.Stage) *Partition {
	return &Partition{stage: stage, records: make(map[string]models.Alert)}
}

func (p *Partition) Stage() models.Stage { return p.stage }

func (p *Partition) Insert(_ context.Context, a models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[a.ReportID]; ok {
		return store.ErrDuplicate
	}
	p.records[a.ReportID] = a.Clone()
	return nil
}

func (p *Partition) Get(_ context.Context, reportID string) (models.Alert, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.records[reportID]
	if !ok {
		return models.Alert{}, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (p *Partition) List(_ context.Context) ([]models.Alert, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot(func(models.Alert) bool { return true }), nil
}

func (p *Partition) ListByStatus(_ context.Context, status string) ([]models.Alert, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot(func(a models.Alert) bool { return a.Status == status }), nil
}

func (p *Partition) ListByAssignedNIC(_ context.Context, nic string) ([]models.Alert, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot(func(a models.Alert) bool { return a.HasAssigned(nic) }), nil
}

func (p *Partition) Update(_ context.Context, a models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[a.ReportID]; !ok {
		return store.ErrNotFound
	}
	p.records[a.ReportID] = a.Clone()
	return nil
}

func (p *Partition) Delete(_ context.Context, reportID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[reportID]; !ok {
		return store.ErrNotFound
	}
	delete(p.records, reportID)
	return nil
}

func (p *Partition) DeleteAll(_ context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := int64(len(p.records))
	p.records = make(map[string]models.Alert)
	return n, nil
}

// snapshot copies matching records, newest first. Callers hold p.mu.
func (p *Partition) snapshot(match func(models.Alert) bool) []models.Alert {
	out := make([]models.Alert, 0, len(p.records))
	for _, a := range p.records {
		if match(a) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Directory is an in-memory responder directory.
type Directory struct {
	mu         sync.RWMutex
	responders map[string]models.Responder
}

func NewDirectory() *Directory {
	return &Directory{responders: make(map[string]models.Responder)}
}

func (d *Directory) Upsert(_ context.Context, r models.Responder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responders[r.ID] = r
	return nil
}

func (d *Directory) Get(_ context.Context, id string) (models.Responder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.responders[id]
	if !ok {
		return models.Responder{}, store.ErrNotFound
	}
	return r, nil
}

func (d *Directory) ListByType(_ context.Context, responderType string) ([]models.Responder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.Responder
	for _, r := range d.responders {
		if r.ResponderType == responderType && r.Available {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Directory) Search(_ context.Context, query string) ([]models.Responder, error) {
	q := strings.ToLower(query)
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.Responder
	for _, r := range d.responders {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.NIC), q) ||
			strings.Contains(strings.ToLower(r.Email), q) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Directory) UpdatePosition(_ context.Context, id string, lat, lng float64, mapLink string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.responders[id]
	if !ok {
		return store.ErrNotFound
	}
	r.LastLat = lat
	r.LastLng = lng
	r.MapLink = mapLink
	r.UpdatedAt = time.Now()
	d.responders[id] = r
	return nil
}
