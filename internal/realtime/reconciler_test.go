package realtime

import (
	"context"
	"testing"

	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned pages and counts fetches.
type fakeFetcher struct {
	result *leads.Result
	calls  int
	err    error
}

func (f *fakeFetcher) fetch(ctx context.Context, params leads.ListParams) (*leads.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func pageOf(placeIDs ...string) *leads.Result {
	rows := make([]models.Lead, 0, len(placeIDs))
	for _, id := range placeIDs {
		rows = append(rows, lead(id))
	}
	return &leads.Result{
		Rows:      rows,
		Page:      1,
		PageSize:  20,
		Total:     int64(len(rows)),
		PageCount: 1,
	}
}

func TestLoadFetchesOnce(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a", "b")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})

	require.NoError(t, r.Load(context.Background()))

	assert.Equal(t, 1, f.calls)
	assert.Len(t, r.Rows(), 2)
}

func TestInsertTriggersExactlyOneRefetch(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a")}
	var notified []string
	notify := func(change ChangeType, title string) {
		notified = append(notified, string(change)+":"+title)
	}
	r := NewPageReconciler(f.fetch, notify, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	f.result = pageOf("a", "b")
	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeInsert, lead("b"))))

	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 1, r.Refetches())
	assert.Len(t, r.Rows(), 2)
	assert.Equal(t, []string{"INSERT:Lead b"}, notified)
}

func TestDeleteTriggersExactlyOneRefetch(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a", "b")}
	var notified []string
	notify := func(change ChangeType, title string) {
		notified = append(notified, string(change)+":"+title)
	}
	r := NewPageReconciler(f.fetch, notify, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	f.result = pageOf("a")
	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeDelete, lead("b"))))

	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 1, r.Refetches())
	assert.Len(t, r.Rows(), 1)
	assert.Equal(t, []string{"DELETE:Lead b"}, notified)
}

func TestUpdateMergesInPlaceWithoutRefetch(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a", "b", "c")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	updated := lead("b")
	newTitle := "Renamed"
	updated.Title = &newTitle
	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeUpdate, updated)))

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 0, r.Refetches())

	rows := r.Rows()
	require.Len(t, rows, 3)
	// Position preserved, content replaced.
	assert.Equal(t, "b", rows[1].PlaceID)
	assert.Equal(t, "Renamed", *rows[1].Title)
}

func TestUpdateOffPageIsNoOp(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a", "b")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	before := r.Rows()
	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeUpdate, lead("off-page"))))

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, before, r.Rows())
}

func TestTwoUpdatesSameLeadLastWriteWins(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	first := lead("a")
	t1 := "First"
	first.Title = &t1
	second := lead("a")
	t2 := "Second"
	second.Title = &t2

	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeUpdate, first)))
	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeUpdate, second)))

	assert.Equal(t, "Second", *r.Rows()[0].Title)
}

func TestRefetchFailureKeepsStalePage(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	f.err = assert.AnError
	err := r.Apply(context.Background(), NewChange(ChangeInsert, lead("b")))
	assert.Error(t, err)

	// Stale but intact.
	require.Len(t, r.Rows(), 1)
	assert.Equal(t, "a", r.Rows()[0].PlaceID)
	assert.Equal(t, 0, r.Refetches())
}

func TestCloseIsIdempotentAndStopsApplies(t *testing.T) {
	f := &fakeFetcher{result: pageOf("a")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	r.Close()
	r.Close()

	require.NoError(t, r.Apply(context.Background(), NewChange(ChangeInsert, lead("b"))))
	assert.Equal(t, 1, f.calls)
}

func TestRunAppliesEventsInReceiptOrder(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("user-1")

	f := &fakeFetcher{result: pageOf("a")}
	r := NewPageReconciler(f.fetch, nil, leads.ListParams{})
	require.NoError(t, r.Load(context.Background()))

	hub.Publish("user-1", NewChange(ChangeUpdate, lead("a")))
	f.result = pageOf("a", "b")
	hub.Publish("user-1", NewChange(ChangeInsert, lead("b")))

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), sub)
		close(done)
	}()

	hub.Shutdown()
	<-done

	assert.Equal(t, 1, r.Refetches())
	assert.Len(t, r.Rows(), 2)
}
