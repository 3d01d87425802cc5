package alerts

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sos-dispatch/internal/models"
	"sos-dispatch/internal/store"
	"sos-dispatch/internal/store/memstore"
)

type stubNotifier struct {
	mu        sync.Mutex
	assigned  []models.ResponderSnapshot
	positions []models.Responder
}

func (n *stubNotifier) ResponderAssigned(_ models.Alert, snap models.ResponderSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, snap)
}

func (n *stubNotifier) PositionUpdated(r models.Responder) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.positions = append(n.positions, r)
}

func (n *stubNotifier) assignedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.assigned)
}

type testEnv struct {
	svc       *Service
	pending   store.Partition
	accepted  store.Partition
	completed store.Partition
	canceled  store.Partition
	directory store.ResponderDirectory
	notifier  *stubNotifier
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		pending:   memstore.NewPartition(models.StagePending),
		accepted:  memstore.NewPartition(models.StageAccepted),
		completed: memstore.NewPartition(models.StageCompleted),
		canceled:  memstore.NewPartition(models.StageCanceled),
		directory: memstore.NewDirectory(),
		notifier:  &stubNotifier{},
	}
	env.svc = New(env.pending, env.accepted, env.completed, env.canceled,
		env.directory, env.notifier, logger)
	return env
}

func validSubmission() models.AlertCreate {
	return models.AlertCreate{
		UserID:        "u1",
		NIC:           "991234567V",
		ContactNumber: "0771234567",
		EmergencyType: "fire",
		LiveLocation: models.LiveLocation{
			Link:        "http://maps/x",
			Coordinates: []float64{79.9, 6.9},
		},
		Address: "123 Lake Rd",
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.AlertCreate)
		field  string
	}{
		{"missing userId", func(r *models.AlertCreate) { r.UserID = "" }, "userId"},
		{"missing NIC", func(r *models.AlertCreate) { r.NIC = "" }, "NIC"},
		{"missing contactNumber", func(r *models.AlertCreate) { r.ContactNumber = "" }, "contactNumber"},
		{"unknown emergencyType", func(r *models.AlertCreate) { r.EmergencyType = "flood" }, "emergencyType"},
		{"missing location link", func(r *models.AlertCreate) { r.LiveLocation.Link = "" }, "liveLocation.link"},
		{"one coordinate", func(r *models.AlertCreate) { r.LiveLocation.Coordinates = []float64{79.9} }, "liveLocation.coordinates"},
		{"three coordinates", func(r *models.AlertCreate) { r.LiveLocation.Coordinates = []float64{79.9, 6.9, 1.0} }, "liveLocation.coordinates"},
		{"missing address", func(r *models.AlertCreate) { r.Address = "" }, "address"},
		{"unknown priorityLevel", func(r *models.AlertCreate) { r.PriorityLevel = "urgent" }, "priorityLevel"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmission()
			tc.mutate(&req)
			_, err := env.svc.Submit(ctx, req)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	// Nothing was created along the way
	list, err := env.pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ReportID)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, models.PriorityMedium, a.PriorityLevel)
	assert.Empty(t, a.Assigned)
	assert.False(t, a.Timestamp.IsZero())

	// Present in Pending, absent everywhere else
	_, err = env.pending.Get(ctx, a.ReportID)
	assert.NoError(t, err)
	for _, p := range []store.Partition{env.accepted, env.completed, env.canceled} {
		_, err := p.Get(ctx, a.ReportID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}

	b, err := env.svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	assert.NotEqual(t, a.ReportID, b.ReportID)
}

func TestCoordinateRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	req := validSubmission()
	req.LiveLocation.Coordinates = []float64{79.86, 6.93}
	a, err := env.svc.Submit(ctx, req)
	require.NoError(t, err)

	got, err := env.svc.GetByID(ctx, a.ReportID)
	require.NoError(t, err)
	assert.Equal(t, []float64{79.86, 6.93}, got.Alert.LiveLocation.Coordinates)
}

func TestAcceptMovesPendingToAccepted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	snap := models.ResponderSnapshot{NIC: "R001", Name: "A"}
	acc, err := env.svc.Accept(ctx, a.ReportID, snap)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, acc.Status)
	require.NotNil(t, acc.AcceptedAt)
	require.NotNil(t, acc.AcceptedBy)
	assert.Equal(t, "R001", acc.AcceptedBy.NIC)
	assert.True(t, acc.HasAssigned("R001"))

	_, err = env.pending.Get(ctx, a.ReportID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.accepted.Get(ctx, a.ReportID)
	assert.NoError(t, err)
}

func TestAcceptUnknownReportConflicts(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.Accept(context.Background(), "no-such-id", models.ResponderSnapshot{NIC: "R001"})
	assert.ErrorIs(t, err, ErrAlreadyHandled)
}

func TestAcceptIsExactlyOnceEffective(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyHandled)
		}
	}
	assert.Equal(t, 1, wins)

	accepted, err := env.accepted.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestMarkReached(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)

	rec, err := env.svc.MarkReached(ctx, a.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReached, rec.Status)

	// Still in Accepted: reached is an in-place update, not a move
	got, err := env.accepted.Get(ctx, a.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReached, got.Status)

	_, err = env.svc.MarkReached(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteAppendsMediaAndMoves(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001", Name: "A"})
	require.NoError(t, err)

	done, err := env.svc.Complete(ctx, a.ReportID, []string{"photo1.jpg"}, models.CompleteRequest{
		Comment:   "done",
		CommentBy: "A",
	})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Contains(t, done.Media, "photo1.jpg")
	assert.Equal(t, "done", done.Comment)

	for _, p := range []store.Partition{env.pending, env.accepted} {
		_, err := p.Get(ctx, a.ReportID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	_, err = env.completed.Get(ctx, a.ReportID)
	assert.NoError(t, err)

	// Accepting again after terminal state conflicts
	_, err = env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R002"})
	assert.ErrorIs(t, err, ErrAlreadyHandled)
}

func TestCompleteKeepsPriorPartialUploads(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)

	// Partial evidence lands while the alert is still live
	rec, err := env.accepted.Get(ctx, a.ReportID)
	require.NoError(t, err)
	rec.Media = append(rec.Media, "early.jpg")
	require.NoError(t, env.accepted.Update(ctx, rec))

	done, err := env.svc.Complete(ctx, a.ReportID, []string{"late.jpg"}, models.CompleteRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"early.jpg", "late.jpg"}, done.Media)
}

func TestCancelFromPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	rec, err := env.svc.Cancel(ctx, a.ReportID, "false alarm", nil)
	require.NoError(t, err)
	assert.Equal(t, "false alarm", rec.ReasonToReject)
	require.NotNil(t, rec.CancelledAt)

	_, err = env.pending.Get(ctx, a.ReportID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.canceled.Get(ctx, a.ReportID)
	assert.NoError(t, err)
}

func TestCancelFromAccepted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)

	rejector := &models.ResponderSnapshot{NIC: "R001", Name: "A"}
	rec, err := env.svc.Cancel(ctx, a.ReportID, "unreachable area", rejector)
	require.NoError(t, err)
	require.NotNil(t, rec.AcceptedBy)
	assert.Equal(t, "R001", rec.AcceptedBy.NIC)

	_, err = env.accepted.Get(ctx, a.ReportID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Gone from both live partitions now
	_, err = env.svc.Cancel(ctx, a.ReportID, "again", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignResponderIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	snap := models.ResponderSnapshot{NIC: "R007", Name: "Bond"}

	first, err := env.svc.AssignResponder(ctx, a.ReportID, snap)
	require.NoError(t, err)
	assert.Len(t, first.Assigned, 1)

	second, err := env.svc.AssignResponder(ctx, a.ReportID, snap)
	require.NoError(t, err)
	assert.Len(t, second.Assigned, 1)

	// Only the first assignment notified the collaborator
	assert.Equal(t, 1, env.notifier.assignedCount())

	_, err = env.svc.AssignResponder(ctx, "no-such-id", snap)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReassignIsAdditive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.AssignResponder(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)
	rec, err := env.svc.ReassignResponder(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R002"})
	require.NoError(t, err)
	assert.Len(t, rec.Assigned, 2)
	assert.True(t, rec.HasAssigned("R001"))
	assert.True(t, rec.HasAssigned("R002"))
}

func TestAssignedToSpansPartitions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	snap := models.ResponderSnapshot{NIC: "R010", Name: "T"}

	p1, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.AssignResponder(ctx, p1.ReportID, snap)
	require.NoError(t, err)

	p2, _ := env.svc.Submit(ctx, validSubmission())
	_, err = env.svc.Accept(ctx, p2.ReportID, snap)
	require.NoError(t, err)
	_, err = env.svc.Complete(ctx, p2.ReportID, nil, models.CompleteRequest{})
	require.NoError(t, err)

	list, err := env.svc.AssignedTo(ctx, "R010")
	require.NoError(t, err)
	require.Len(t, list, 2)

	stages := map[string]models.Stage{}
	for _, sa := range list {
		stages[sa.Alert.ReportID] = sa.Stage
	}
	assert.Equal(t, models.StagePending, stages[p1.ReportID])
	assert.Equal(t, models.StageCompleted, stages[p2.ReportID])
}

func TestAssignedToDeduplicatesTransientCopies(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	snap := models.ResponderSnapshot{NIC: "R011"}

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.AssignResponder(ctx, a.ReportID, snap)
	require.NoError(t, err)

	// Simulate a crashed move: copy exists in Pending and Accepted
	rec, err := env.pending.Get(ctx, a.ReportID)
	require.NoError(t, err)
	rec.Status = models.StatusAccepted
	require.NoError(t, env.accepted.Insert(ctx, rec))

	list, err := env.svc.AssignedTo(ctx, "R011")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StageAccepted, list[0].Stage)
}

func TestGetByIDPrefersLaterStage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	rec, err := env.pending.Get(ctx, a.ReportID)
	require.NoError(t, err)
	rec.Status = models.StatusAccepted
	require.NoError(t, env.accepted.Insert(ctx, rec))

	got, err := env.svc.GetByID(ctx, a.ReportID)
	require.NoError(t, err)
	assert.Equal(t, models.StageAccepted, got.Stage)

	_, err = env.svc.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileDropsStaleCopies(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	rec, err := env.pending.Get(ctx, a.ReportID)
	require.NoError(t, err)
	rec.Status = models.StatusAccepted
	require.NoError(t, env.accepted.Insert(ctx, rec))

	n, err := env.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.pending.Get(ctx, a.ReportID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.accepted.Get(ctx, a.ReportID)
	assert.NoError(t, err)

	// Clean state reconciles to zero
	n, err = env.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAlertLocation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	rec, err := env.svc.UpdateAlertLocation(ctx, a.ReportID, models.LocationUpdate{
		Lat: 6.95, Lng: 79.88, MapLink: "http://maps/y",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://maps/y", rec.LiveLocation.Link)
	// Stored [longitude, latitude]
	assert.Equal(t, []float64{79.88, 6.95}, rec.LiveLocation.Coordinates)

	_, err = env.svc.UpdateAlertLocation(ctx, "no-such-id", models.LocationUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachMediaToLiveRecord(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)

	rec, err := env.svc.AttachMedia(ctx, a.ReportID, []string{"p1.jpg"}, []string{"v1.mp4"})
	require.NoError(t, err)
	assert.Contains(t, rec.Photos, "p1.jpg")
	assert.Contains(t, rec.Videos, "v1.mp4")
}

func TestPurgePendingIsScopedToPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.svc.Submit(ctx, validSubmission())
	_, err := env.svc.Accept(ctx, a.ReportID, models.ResponderSnapshot{NIC: "R001"})
	require.NoError(t, err)
	_, _ = env.svc.Submit(ctx, validSubmission())
	_, _ = env.svc.Submit(ctx, validSubmission())

	n, err := env.svc.PurgePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	pending, err := env.pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	accepted, err := env.accepted.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestListPendingByStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, _ = env.svc.Submit(ctx, validSubmission())
	list, err := env.svc.ListPendingByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.svc.ListPendingByStatus(ctx, "bogus")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestResponderDirectoryOperations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	r, err := env.svc.UpsertResponder(ctx, models.Responder{
		NIC: "R100", Name: "Ambulance One", Email: "amb1@dispatch.lk",
		ResponderType: "medical", Available: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	_, err = env.svc.UpsertResponder(ctx, models.Responder{
		NIC: "R101", Name: "Engine Two", Email: "eng2@dispatch.lk",
		ResponderType: "fire", Available: false,
	})
	require.NoError(t, err)

	medical, err := env.svc.ListRespondersByType(ctx, "medical")
	require.NoError(t, err)
	require.Len(t, medical, 1)
	assert.Equal(t, "R100", medical[0].NIC)

	// Unavailable responders are filtered out
	fire, err := env.svc.ListRespondersByType(ctx, "fire")
	require.NoError(t, err)
	assert.Empty(t, fire)

	found, err := env.svc.SearchResponders(ctx, "AMBULANCE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "R100", found[0].NIC)

	updated, err := env.svc.UpdateResponderPosition(ctx, r.ID, models.PositionUpdate{
		Lat: 6.9, Lng: 79.8, MapLink: "http://maps/r100",
	})
	require.NoError(t, err)
	assert.Equal(t, 6.9, updated.LastLat)
	assert.Equal(t, 79.8, updated.LastLng)
	assert.Len(t, env.notifier.positions, 1)

	_, err = env.svc.UpdateResponderPosition(ctx, "no-such-id", models.PositionUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}
