package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
)

func sampleAlert(id string, ts time.Time) models.Alert {
	return models.Alert{
		ReportID:      id,
		UserID:        "u1",
		NIC:           "991234567V",
		ContactNumber: "077",
		EmergencyType: models.EmergencyFire,
		LiveLocation:  models.LiveLocation{Link: "http://maps/x", Coordinates: []float64{79.9, 6.9}},
		Address:       "123 Lake Rd",
		Timestamp:     ts,
		PriorityLevel: models.PriorityMedium,
		Status:        models.StatusPending,
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()

	require.NoError(t, p.Insert(ctx, sampleAlert("r1", time.Now())))
	assert.ErrorIs(t, p.Insert(ctx, sampleAlert("r1", time.Now())), store.ErrDuplicate)
}

func TestReadsHandOutCopies(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()
	require.NoError(t, p.Insert(ctx, sampleAlert("r1", time.Now())))

	a, err := p.Get(ctx, "r1")
	require.NoError(t, err)
	a.LiveLocation.Coordinates[0] = -1
	a.Photos = append(a.Photos, "sneaky.jpg")

	fresh, err := p.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 79.9, fresh.LiveLocation.Coordinates[0])
	assert.Empty(t, fresh.Photos)
}

func TestListNewestFirst(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, p.Insert(ctx, sampleAlert("old", base.Add(-time.Hour))))
	require.NoError(t, p.Insert(ctx, sampleAlert("new", base)))

	list, err := p.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ReportID)
	assert.Equal(t, "old", list[1].ReportID)
}

func TestListByAssignedNIC(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()

	a := sampleAlert("r1", time.Now())
	a.Assigned = []models.ResponderSnapshot{{NIC: "R001"}}
	require.NoError(t, p.Insert(ctx, a))
	require.NoError(t, p.Insert(ctx, sampleAlert("r2", time.Now())))

	hits, err := p.ListByAssignedNIC(ctx, "R001")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r1", hits[0].ReportID)

	none, err := p.ListByAssignedNIC(ctx, "R999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateAndDeleteRequireExistingRecord(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()

	assert.ErrorIs(t, p.Update(ctx, sampleAlert("ghost", time.Now())), store.ErrNotFound)
	assert.ErrorIs(t, p.Delete(ctx, "ghost"), store.ErrNotFound)

	require.NoError(t, p.Insert(ctx, sampleAlert("r1", time.Now())))
	a, _ := p.Get(ctx, "r1")
	a.Status = models.StatusAccepted
	require.NoError(t, p.Update(ctx, a))
	got, _ := p.Get(ctx, "r1")
	assert.Equal(t, models.StatusAccepted, got.Status)

	require.NoError(t, p.Delete(ctx, "r1"))
	_, err := p.Get(ctx, "r1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAllReportsCount(t *testing.T) {
	p := NewPartition(models.StagePending)
	ctx := context.Background()
	require.NoError(t, p.Insert(ctx, sampleAlert("r1", time.Now())))
	require.NoError(t, p.Insert(ctx, sampleAlert("r2", time.Now())))

	n, err := p.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	list, _ := p.List(ctx)
	assert.Empty(t, list)
}

func TestDirectorySearchIsCaseInsensitive(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()
	require.NoError(t, d.Upsert(ctx, models.Responder{
		ID: "1", NIC: "R100", Name: "Ambulance One", Email: "amb1@dispatch.lk",
		ResponderType: "medical", Available: true,
	}))

	for _, q := range []string{"ambulance", "AMB1@", "r100"} {
		hits, err := d.Search(ctx, q)
		require.NoError(t, err)
		assert.Len(t, hits, 1, "query %q", q)
	}

	hits, err := d.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDirectoryListByTypeFiltersAvailability(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()
	require.NoError(t, d.Upsert(ctx, models.Responder{ID: "1", NIC: "R1", Name: "A", ResponderType: "fire", Available: true}))
	require.NoError(t, d.Upsert(ctx, models.Responder{ID: "2", NIC: "R2", Name: "B", ResponderType: "fire", Available: false}))

	list, err := d.ListByType(ctx, "fire")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "R1", list[0].NIC)
}
