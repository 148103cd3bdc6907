package reconcile

import (
	"context"

	"github.com/storeops/typesearch/internal/domain"
)

// FetchSpec is the directive the reconciler hands to a host listing before
// its native fetch runs. The whitelist is ordered by engine rank; the host
// must not page (offset stays zero), must not apply its own text predicate,
// and must not promote pinned results for this query instance.
type FetchSpec struct {
	IDs               []string
	Size              int
	Collection        domain.CollectionType
	DisableTextFilter bool
	DisablePinned     bool
}

// TotalsOverride replaces the host's recomputed totals after its fetch. It
// has to be applied post-fetch or the host clobbers it.
type TotalsOverride struct {
	Total      int
	TotalPages int
	Page       int
}

// ExecutionPlan is the host listing boundary. An implementation owns one
// native fetch: the reconciler narrows it with ApplyFetchSpec, runs it with
// Fetch, then corrects the pagination math with ApplyTotals.
type ExecutionPlan interface {
	ApplyFetchSpec(spec FetchSpec)
	Fetch(ctx context.Context) ([]domain.CatalogItem, error)
	ApplyTotals(totals TotalsOverride)
}
