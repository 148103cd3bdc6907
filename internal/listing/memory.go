package listing

import (
	"context"
	"sort"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/reconcile"
)

// MemoryPlan is an in-memory execution plan for tests. It mimics the
// Postgres plan's native behavior (whitelist filter, ORDER BY name) and
// records every spec and totals override it receives.
type MemoryPlan struct {
	Items []domain.CatalogItem

	// FetchErr, when set, is returned by Fetch.
	FetchErr error

	AppliedSpecs  []reconcile.FetchSpec
	AppliedTotals []reconcile.TotalsOverride
}

// NewMemoryPlan creates a plan over a fixed item set.
func NewMemoryPlan(items []domain.CatalogItem) *MemoryPlan {
	return &MemoryPlan{Items: items}
}

func (p *MemoryPlan) ApplyFetchSpec(spec reconcile.FetchSpec) {
	p.AppliedSpecs = append(p.AppliedSpecs, spec)
}

func (p *MemoryPlan) Fetch(_ context.Context) ([]domain.CatalogItem, error) {
	if p.FetchErr != nil {
		return nil, p.FetchErr
	}
	if len(p.AppliedSpecs) == 0 {
		return nil, nil
	}

	spec := p.AppliedSpecs[len(p.AppliedSpecs)-1]
	allowed := make(map[string]bool, len(spec.IDs))
	for _, id := range spec.IDs {
		allowed[id] = true
	}

	var out []domain.CatalogItem
	for _, item := range p.Items {
		if allowed[item.ID] {
			out = append(out, item)
		}
	}
	// Host-native order, deliberately not rank order.
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if spec.Size > 0 && len(out) > spec.Size {
		out = out[:spec.Size]
	}
	return out, nil
}

func (p *MemoryPlan) ApplyTotals(totals reconcile.TotalsOverride) {
	p.AppliedTotals = append(p.AppliedTotals, totals)
}

// LastSpec returns the most recently applied fetch spec.
func (p *MemoryPlan) LastSpec() (reconcile.FetchSpec, bool) {
	if len(p.AppliedSpecs) == 0 {
		return reconcile.FetchSpec{}, false
	}
	return p.AppliedSpecs[len(p.AppliedSpecs)-1], true
}

// LastTotals returns the most recently applied totals override.
func (p *MemoryPlan) LastTotals() (reconcile.TotalsOverride, bool) {
	if len(p.AppliedTotals) == 0 {
		return reconcile.TotalsOverride{}, false
	}
	return p.AppliedTotals[len(p.AppliedTotals)-1], true
}
