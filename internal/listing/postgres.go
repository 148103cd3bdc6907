package listing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/reconcile"
)

// Querier is the slice of pgxpool.Pool the plan needs. pgxmock satisfies it
// in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresPlan is the catalog-backed execution plan. One instance serves one
// listing render: it starts from the listing's own native query (text
// predicate, featured-first order) and the applied fetch spec narrows it to
// the engine's whitelist.
type PostgresPlan struct {
	db Querier

	// TextFilter is the listing's native text predicate. It only reaches
	// the query when the fetch spec does not disable it.
	TextFilter string

	spec    reconcile.FetchSpec
	applied bool
	totals  reconcile.TotalsOverride
}

// NewPostgresPlan creates a plan over the catalog items table.
func NewPostgresPlan(db Querier, textFilter string) *PostgresPlan {
	return &PostgresPlan{db: db, TextFilter: textFilter}
}

// ApplyFetchSpec narrows the native fetch: ordered ID whitelist, bounded
// size, no offset, and per-spec suppression of the text predicate and the
// featured-first order.
func (p *PostgresPlan) ApplyFetchSpec(spec reconcile.FetchSpec) {
	p.spec = spec
	p.applied = true
}

// Fetch runs the native catalog query. Rows come back in the listing's own
// ORDER BY name, not whitelist order; re-sorting to rank order is the
// caller's job.
func (p *PostgresPlan) Fetch(ctx context.Context) ([]domain.CatalogItem, error) {
	if !p.applied {
		return nil, fmt.Errorf("fetch called before a fetch spec was applied")
	}

	sql := `SELECT id, name, permalink, image, price, sku, status
		FROM catalog_items
		WHERE id = ANY($1) AND item_type = $2 AND status = 'publish'`
	args := []any{p.spec.IDs, p.spec.Collection.String()}

	if p.TextFilter != "" && !p.spec.DisableTextFilter {
		sql += ` AND name ILIKE $3`
		args = append(args, "%"+p.TextFilter+"%")
	}
	if p.spec.DisablePinned {
		sql += ` ORDER BY name`
	} else {
		sql += ` ORDER BY featured DESC, name`
	}
	sql += fmt.Sprintf(` LIMIT %d`, p.spec.Size)

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Permalink, &item.Image, &item.Price, &item.SKU, &item.Status); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog items: %w", err)
	}
	return items, nil
}

// ApplyTotals records the post-fetch totals override. The listing renders
// these instead of anything it counted natively.
func (p *PostgresPlan) ApplyTotals(totals reconcile.TotalsOverride) {
	p.totals = totals
}

// Totals returns the applied totals override.
func (p *PostgresPlan) Totals() reconcile.TotalsOverride {
	return p.totals
}

// Spec returns the applied fetch spec.
func (p *PostgresPlan) Spec() reconcile.FetchSpec {
	return p.spec
}
