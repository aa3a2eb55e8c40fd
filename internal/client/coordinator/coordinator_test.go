package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YaniYesh22/snot/internal/client/notebooks"
	"github.com/YaniYesh22/snot/internal/logging"
)

var errDown = errors.New("connection refused")

type fakeRepo struct {
	mu sync.Mutex

	ListOut      []notebooks.NotebookRecord
	ListDegraded bool
	ListErr      error
	CreateOut    *notebooks.NotebookRecord
	CreateErr    error
	UpdateOut    *notebooks.NotebookRecord
	UpdateErr    error
	DeleteErr    error
	ReorderErr   error
	SyncErr      error

	ListCalls int
	SyncCalls int
	ReorderIn [][]string
	callOrder []string
}

func (f *fakeRepo) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callOrder = append(f.callOrder, op)
}

func (f *fakeRepo) List(_ context.Context) ([]notebooks.NotebookRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	f.callOrder = append(f.callOrder, "list")
	out := make([]notebooks.NotebookRecord, len(f.ListOut))
	copy(out, f.ListOut)
	return out, f.ListDegraded, f.ListErr
}

func (f *fakeRepo) Create(_ context.Context, _, _ string, _ []string) (*notebooks.NotebookRecord, error) {
	f.record("create")
	if f.CreateErr != nil && f.CreateOut == nil {
		return nil, f.CreateErr
	}
	return f.CreateOut, f.CreateErr
}

func (f *fakeRepo) Get(_ context.Context, _ string) (*notebooks.NotebookRecord, error) {
	return nil, notebooks.ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, _ string, _ notebooks.Patch) (*notebooks.NotebookRecord, error) {
	f.record("update")
	if f.UpdateErr != nil && f.UpdateOut == nil {
		return nil, f.UpdateErr
	}
	return f.UpdateOut, f.UpdateErr
}

func (f *fakeRepo) Delete(_ context.Context, _ string) error {
	f.record("delete")
	return f.DeleteErr
}

func (f *fakeRepo) Reorder(_ context.Context, orderedIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callOrder = append(f.callOrder, "reorder")
	ids := make([]string, len(orderedIDs))
	copy(ids, orderedIDs)
	f.ReorderIn = append(f.ReorderIn, ids)
	return f.ReorderErr
}

func (f *fakeRepo) SyncPending(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SyncCalls++
	f.callOrder = append(f.callOrder, "sync")
	return f.SyncErr
}

func (f *fakeRepo) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fourRecords() []notebooks.NotebookRecord {
	return []notebooks.NotebookRecord{
		{ID: "a", Title: "alpha work", Order: 0},
		{ID: "b", Title: "beta", Order: 1},
		{ID: "c", Title: "gamma work", Order: 2},
		{ID: "d", Title: "delta", Order: 3},
	}
}

func TestLoadPopulatesView(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords(), ListDegraded: true}
	c := New(repo, testLogger(), 0)

	require.NoError(t, c.Load(context.Background()))

	records, degraded := c.View()
	require.Len(t, records, 4)
	require.True(t, degraded)
}

func TestFilterNarrowsView(t *testing.T) {
	repo := &fakeRepo{ListOut: []notebooks.NotebookRecord{
		{ID: "a", Title: "Groceries", Order: 0},
		{ID: "b", Title: "Meeting", Content: "buy milk later", Order: 1},
		{ID: "c", Title: "Other", Tags: []string{"groceries"}, Order: 2},
	}}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	c.SetFilter("groceries")
	records, _ := c.View()
	require.Len(t, records, 2) // title match and tag match

	c.SetFilter("milk")
	records, _ = c.View()
	require.Len(t, records, 1)
	require.Equal(t, "b", records[0].ID)

	c.SetFilter("")
	records, _ = c.View()
	require.Len(t, records, 3)
}

func TestCreateAppearsImmediately(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "n1", Title: "New", Order: 0},
	}
	c := New(repo, testLogger(), 0)

	created, err := c.Create(context.Background(), "New", "", nil)
	require.NoError(t, err)
	require.Equal(t, "n1", created.ID)

	records, _ := c.View()
	require.Len(t, records, 1)
}

func TestCreateWarningStillAppears(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "local-x", Title: "Offline", Order: 0},
		CreateErr: fmt.Errorf("%w: saved locally", notebooks.ErrRemoteUnavailable),
	}
	c := New(repo, testLogger(), 0)

	created, err := c.Create(context.Background(), "Offline", "", nil)
	require.ErrorIs(t, err, notebooks.ErrRemoteUnavailable)
	require.NotNil(t, created)

	records, _ := c.View()
	require.Len(t, records, 1)
	require.Equal(t, "local-x", records[0].ID)
}

func TestCreateHardFailureChangesNothing(t *testing.T) {
	repo := &fakeRepo{CreateErr: errDown}
	c := New(repo, testLogger(), 0)

	_, err := c.Create(context.Background(), "x", "", nil)
	require.ErrorIs(t, err, errDown)

	records, _ := c.View()
	require.Empty(t, records)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	repo := &fakeRepo{
		ListOut:   fourRecords(),
		UpdateOut: &notebooks.NotebookRecord{ID: "b", Title: "beta edited", Order: 1},
	}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	title := "beta edited"
	_, err := c.Update(context.Background(), "b", notebooks.Patch{Title: &title})
	require.NoError(t, err)

	records, _ := c.View()
	require.Len(t, records, 4)
	require.Equal(t, "beta edited", records[1].Title)
}

func TestDeleteRemovesAndCompacts(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.Delete(context.Background(), "b"))

	records, _ := c.View()
	require.Len(t, records, 3)
	require.Equal(t, []string{"a", "c", "d"}, idsOf(records))
	for i, rec := range records {
		require.Equal(t, i, rec.Order)
	}
}

func TestDragReorderMovesDraggedToTargetSlot(t *testing.T) {
	tests := []struct {
		name    string
		dragged string
		target  string
		want    []string
	}{
		{name: "drag up", dragged: "d", target: "a", want: []string{"d", "a", "b", "c"}},
		{name: "drag down", dragged: "a", target: "c", want: []string{"b", "c", "a", "d"}},
		{name: "neighbours", dragged: "b", target: "c", want: []string{"a", "c", "b", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{ListOut: fourRecords()}
			c := New(repo, testLogger(), 0)
			require.NoError(t, c.Load(context.Background()))

			require.NoError(t, c.DragReorder(context.Background(), tt.dragged, tt.target))

			records, _ := c.View()
			require.Equal(t, tt.want, idsOf(records))
			require.Equal(t, [][]string{tt.want}, repo.ReorderIn)
			for i, rec := range records {
				require.Equal(t, i, rec.Order)
			}
		})
	}
}

func TestDragReorderFilteredKeepsHiddenSlots(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	// only "alpha work" and "gamma work" are visible; dragging one onto the
	// other must leave the hidden records in their slots
	c.SetFilter("work")
	require.NoError(t, c.DragReorder(context.Background(), "c", "a"))

	c.SetFilter("")
	records, _ := c.View()
	require.Equal(t, []string{"c", "b", "a", "d"}, idsOf(records))
	for i, rec := range records {
		require.Equal(t, i, rec.Order)
	}
}

func TestDragReorderNoopCases(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.DragReorder(context.Background(), "ghost", "a"))
	require.NoError(t, c.DragReorder(context.Background(), "a", "ghost"))
	require.NoError(t, c.DragReorder(context.Background(), "b", "b"))

	records, _ := c.View()
	require.Equal(t, []string{"a", "b", "c", "d"}, idsOf(records))
	require.Empty(t, repo.ReorderIn)
}

func TestDragReorderAfterCloseIsNoop(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))
	c.Close()

	require.NoError(t, c.DragReorder(context.Background(), "d", "a"))

	records, _ := c.View()
	require.Equal(t, []string{"a", "b", "c", "d"}, idsOf(records))
	require.Empty(t, repo.ReorderIn)
}

func TestFailedUpdateIsMarkedRetryable(t *testing.T) {
	repo := &fakeRepo{
		ListOut:   []notebooks.NotebookRecord{{ID: "n1", Title: "server title", Order: 0}},
		UpdateOut: &notebooks.NotebookRecord{ID: "n1", Title: "edited title", Order: 0},
		UpdateErr: fmt.Errorf("%w: saved locally", notebooks.ErrRemoteUnavailable),
	}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	title := "edited title"
	_, err := c.Update(context.Background(), "n1", notebooks.Patch{Title: &title})
	require.ErrorIs(t, err, notebooks.ErrRemoteUnavailable)
	require.ErrorIs(t, c.FailedOps()["n1"], notebooks.ErrRemoteUnavailable)

	// a reconciling reload reverts the edit to the server's stale copy, but
	// the mark survives so the caller still knows the write is outstanding
	require.NoError(t, c.Load(context.Background()))
	records, _ := c.View()
	require.Equal(t, "server title", records[0].Title)
	require.Contains(t, c.FailedOps(), "n1")
}

func TestSuccessfulRetryClearsFailureMark(t *testing.T) {
	repo := &fakeRepo{
		ListOut:   []notebooks.NotebookRecord{{ID: "n1", Title: "server title", Order: 0}},
		UpdateOut: &notebooks.NotebookRecord{ID: "n1", Title: "edited title", Order: 0},
		UpdateErr: fmt.Errorf("%w: saved locally", notebooks.ErrRemoteUnavailable),
	}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	title := "edited title"
	_, err := c.Update(context.Background(), "n1", notebooks.Patch{Title: &title})
	require.ErrorIs(t, err, notebooks.ErrRemoteUnavailable)
	require.Contains(t, c.FailedOps(), "n1")

	repo.UpdateErr = nil
	_, err = c.Update(context.Background(), "n1", notebooks.Patch{Title: &title})
	require.NoError(t, err)
	require.Empty(t, c.FailedOps())
}

func TestReloadDropsMarksForVanishedRecords(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "local-x", Title: "Offline", Order: 0},
		CreateErr: fmt.Errorf("%w: saved locally", notebooks.ErrRemoteUnavailable),
		ListOut:   []notebooks.NotebookRecord{{ID: "srv-1", Title: "Offline", Order: 0}},
	}
	c := New(repo, testLogger(), 0)

	_, err := c.Create(context.Background(), "Offline", "", nil)
	require.ErrorIs(t, err, notebooks.ErrRemoteUnavailable)
	require.Contains(t, c.FailedOps(), "local-x")

	// the replayed create comes back under its server id
	require.NoError(t, c.Load(context.Background()))
	require.Empty(t, c.FailedOps())
}

func TestMutationTriggersDelayedReconcile(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "n1", Title: "optimistic", Order: 0},
		ListOut:   []notebooks.NotebookRecord{{ID: "n1", Title: "server truth", Order: 0}},
	}
	c := New(repo, testLogger(), 10*time.Millisecond)
	defer c.Close()

	_, err := c.Create(context.Background(), "optimistic", "", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		records, _ := c.View()
		return len(records) == 1 && records[0].Title == "server truth"
	}, time.Second, 5*time.Millisecond)
}

func TestBackToBackMutationsCollapseIntoOneReconcile(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "n1", Order: 0},
	}
	c := New(repo, testLogger(), 50*time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Create(ctx, "x", "", nil)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return repo.listCalls() == 1
	}, time.Second, 5*time.Millisecond)

	// give a stray second reconcile time to fire if one were armed
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, repo.listCalls())
}

func TestCloseStopsReconcile(t *testing.T) {
	repo := &fakeRepo{
		CreateOut: &notebooks.NotebookRecord{ID: "n1", Order: 0},
	}
	c := New(repo, testLogger(), 50*time.Millisecond)

	_, err := c.Create(context.Background(), "x", "", nil)
	require.NoError(t, err)
	c.Close()

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, repo.listCalls())

	// the list is frozen after Close
	records, _ := c.View()
	require.Len(t, records, 1)
}

func TestRefreshSyncsPendingBeforeListing(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)

	require.NoError(t, c.Refresh(context.Background()))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, []string{"sync", "list"}, repo.callOrder)
}

func TestRefreshToleratesUnsyncedPending(t *testing.T) {
	repo := &fakeRepo{
		ListOut: fourRecords(),
		SyncErr: fmt.Errorf("%w: still down", notebooks.ErrRemoteUnavailable),
	}
	c := New(repo, testLogger(), 0)

	require.NoError(t, c.Refresh(context.Background()))
	require.Equal(t, 1, repo.listCalls())
}

func TestGetFromView(t *testing.T) {
	repo := &fakeRepo{ListOut: fourRecords()}
	c := New(repo, testLogger(), 0)
	require.NoError(t, c.Load(context.Background()))

	rec, ok := c.Get("c")
	require.True(t, ok)
	require.Equal(t, "gamma work", rec.Title)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func idsOf(records []notebooks.NotebookRecord) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}
