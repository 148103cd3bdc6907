package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/listing"
	"github.com/storeops/typesearch/internal/reconcile"
	apperrors "github.com/storeops/typesearch/pkg/errors"
)

type fakeEngine struct {
	found      int
	err        error
	lastParams url.Values
}

// Search fabricates one page of hits the way the engine would: sequential
// IDs for the requested window, bounded by found.
func (f *fakeEngine) Search(_ context.Context, _ string, params url.Values) (*domain.ResultPage, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}

	page, _ := strconv.Atoi(params.Get("page"))
	perPage, _ := strconv.Atoi(params.Get("per_page"))

	start := (page-1)*perPage + 1
	var hits []domain.SearchHit
	for i := start; i <= f.found && i < start+perPage; i++ {
		id := strconv.Itoa(i)
		doc, _ := json.Marshal(map[string]string{"id": id})
		hits = append(hits, domain.SearchHit{ID: id, Document: doc})
	}

	return &domain.ResultPage{Found: f.found, Page: page, PerPage: perPage, Hits: hits}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func itemsFor(ids ...int) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.CatalogItem{
			ID:     strconv.Itoa(id),
			Name:   fmt.Sprintf("Product %03d", id),
			Status: "publish",
		})
	}
	return items
}

func TestReconcileSecondPage(t *testing.T) {
	engine := &fakeEngine{found: 30}
	plan := listing.NewMemoryPlan(itemsFor(rangeInts(1, 30)...))
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	got, err := r.Reconcile(context.Background(), reconcile.Request{
		Query: "redmi", Page: 2, PerPage: 12,
	}, plan)
	require.NoError(t, err)

	assert.Equal(t, 30, got.TotalCount)
	assert.Equal(t, 3, got.TotalPages)
	assert.Equal(t, 2, got.CurrentPage)
	assert.Equal(t, 12, got.PageSize)
	assert.False(t, got.Degraded)

	// Page 2 of 12 is IDs 13..24, and the engine did the paging: the host
	// saw a whitelist of exactly those IDs with no offset.
	wantIDs := make([]string, 0, 12)
	for i := 13; i <= 24; i++ {
		wantIDs = append(wantIDs, strconv.Itoa(i))
	}
	assert.Equal(t, wantIDs, got.OrderedIDs)

	spec, ok := plan.LastSpec()
	require.True(t, ok)
	assert.Equal(t, wantIDs, spec.IDs)
	assert.Equal(t, 12, spec.Size)
	assert.True(t, spec.DisableTextFilter)
	assert.True(t, spec.DisablePinned)

	totals, ok := plan.LastTotals()
	require.True(t, ok)
	assert.Equal(t, reconcile.TotalsOverride{Total: 30, TotalPages: 3, Page: 2}, totals)
}

func TestReconcileNoResultsInjectsSentinel(t *testing.T) {
	engine := &fakeEngine{found: 0}
	plan := listing.NewMemoryPlan(itemsFor(rangeInts(1, 50)...))
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	got, err := r.Reconcile(context.Background(), reconcile.Request{
		Query: "zzzznoresult", Page: 1, PerPage: 12,
	}, plan)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.NoMatchID}, got.OrderedIDs)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.TotalCount)
	assert.Equal(t, 0, got.TotalPages)
	assert.False(t, got.Degraded)

	// The sentinel must reach the host plan; an empty whitelist would make
	// the host return the entire catalog.
	spec, ok := plan.LastSpec()
	require.True(t, ok)
	assert.Equal(t, []string{domain.NoMatchID}, spec.IDs)
}

func TestReconcileEngineFailureDegrades(t *testing.T) {
	engine := &fakeEngine{err: errors.New("dial tcp: connection refused")}
	plan := listing.NewMemoryPlan(itemsFor(rangeInts(1, 50)...))
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	got, err := r.Reconcile(context.Background(), reconcile.Request{
		Query: "redmi", Page: 3, PerPage: 12,
	}, plan)
	require.NoError(t, err, "engine failures must not surface to the host")

	assert.True(t, got.Degraded)
	assert.Equal(t, []string{domain.NoMatchID}, got.OrderedIDs)
	assert.Equal(t, 0, got.TotalCount)
	assert.Equal(t, 3, got.CurrentPage)

	totals, ok := plan.LastTotals()
	require.True(t, ok)
	assert.Equal(t, reconcile.TotalsOverride{Total: 0, TotalPages: 0, Page: 3}, totals)
}

func TestReconcileResortsHostRows(t *testing.T) {
	// Names sort against ID order so the memory plan's host-native ORDER BY
	// name returns rows scrambled relative to rank.
	items := []domain.CatalogItem{
		{ID: "1", Name: "Zeta", Status: "publish"},
		{ID: "2", Name: "Alpha", Status: "publish"},
		{ID: "3", Name: "Mid", Status: "publish"},
	}
	engine := &fakeEngine{found: 3}
	plan := listing.NewMemoryPlan(items)
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	got, err := r.Reconcile(context.Background(), reconcile.Request{
		Query: "anything", Page: 1, PerPage: 12,
	}, plan)
	require.NoError(t, err)

	ids := make([]string, 0, len(got.Items))
	for _, item := range got.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids, "items must come back in engine rank order")
}

func TestReconcileClamps(t *testing.T) {
	tests := []struct {
		name        string
		perPage     int
		page        int
		wantPerPage int
		wantPage    int
	}{
		{"zero per_page floors to minimum", 0, 1, 12, 1},
		{"negative per_page floors to minimum", -5, 1, 12, 1},
		{"fetch-all sentinel is capped", -1, 1, 60, 1},
		{"zero page becomes one", 24, 0, 24, 1},
		{"negative page becomes one", 24, -2, 24, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{found: 100}
			plan := listing.NewMemoryPlan(itemsFor(rangeInts(1, 100)...))
			r := reconcile.New(engine, reconcile.Config{}, testLogger())

			got, err := r.Reconcile(context.Background(), reconcile.Request{
				Query: "tv", Page: tt.page, PerPage: tt.perPage,
			}, plan)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPerPage, got.PageSize)
			assert.Equal(t, tt.wantPage, got.CurrentPage)
			assert.Equal(t, strconv.Itoa(tt.wantPerPage), engine.lastParams.Get("per_page"))
			assert.Equal(t, strconv.Itoa(tt.wantPage), engine.lastParams.Get("page"))
		})
	}
}

func TestReconcileEmptyQueryRejected(t *testing.T) {
	engine := &fakeEngine{found: 10}
	plan := listing.NewMemoryPlan(nil)
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	_, err := r.Reconcile(context.Background(), reconcile.Request{Query: ""}, plan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Nil(t, engine.lastParams, "no engine call for an empty query")
}

func TestReconcileHostFetchErrorSurfaces(t *testing.T) {
	engine := &fakeEngine{found: 5}
	plan := listing.NewMemoryPlan(nil)
	plan.FetchErr = errors.New("connection pool exhausted")
	r := reconcile.New(engine, reconcile.Config{}, testLogger())

	_, err := r.Reconcile(context.Background(), reconcile.Request{
		Query: "tv", Page: 1, PerPage: 12,
	}, plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host listing fetch")
}

func TestClampPerPageConfigurable(t *testing.T) {
	r := reconcile.New(&fakeEngine{}, reconcile.Config{MinPageSize: 20, FetchAllCap: 40}, testLogger())

	assert.Equal(t, 20, r.ClampPerPage(0))
	assert.Equal(t, 40, r.ClampPerPage(reconcile.FetchAllSentinel))
	assert.Equal(t, 7, r.ClampPerPage(7))
}

func rangeInts(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
