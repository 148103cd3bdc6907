package listing

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/reconcile"
)

func catalogColumns() []string {
	return []string{"id", "name", "permalink", "image", "price", "sku", "status"}
}

func itemRow(id, name string) []any {
	price := 4999.0
	return []any{id, name, "/product/" + id, "", &price, "SKU-" + id, "publish"}
}

func setupPlan(t *testing.T, textFilter string) (*PostgresPlan, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresPlan(mock, textFilter), mock
}

func TestFetchAppliesWhitelistAndTextFilter(t *testing.T) {
	plan, mock := setupPlan(t, "redmi")
	ids := []string{"3", "1", "2"}

	mock.ExpectQuery(`SELECT id, name, permalink, image, price, sku, status\s+FROM catalog_items\s+WHERE id = ANY\(\$1\) AND item_type = \$2 AND status = 'publish' AND name ILIKE \$3 ORDER BY featured DESC, name LIMIT 12`).
		WithArgs(ids, "products", "%redmi%").
		WillReturnRows(pgxmock.NewRows(catalogColumns()).
			AddRow(itemRow("1", "Redmi Note 12")...).
			AddRow(itemRow("2", "Redmi Note 13")...))

	plan.ApplyFetchSpec(reconcile.FetchSpec{
		IDs:        ids,
		Size:       12,
		Collection: domain.CollectionProducts,
	})

	items, err := plan.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Redmi Note 12", items[0].Name)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, 4999.0, *items[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSpecDisablesTextFilter(t *testing.T) {
	plan, mock := setupPlan(t, "redmi")
	ids := []string{"1"}

	// Only two args: the ILIKE predicate must not be present.
	mock.ExpectQuery(`WHERE id = ANY\(\$1\) AND item_type = \$2 AND status = 'publish' ORDER BY featured DESC, name LIMIT 12`).
		WithArgs(ids, "products").
		WillReturnRows(pgxmock.NewRows(catalogColumns()).AddRow(itemRow("1", "Redmi Note 12")...))

	plan.ApplyFetchSpec(reconcile.FetchSpec{
		IDs:               ids,
		Size:              12,
		Collection:        domain.CollectionProducts,
		DisableTextFilter: true,
	})

	_, err := plan.Fetch(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSpecDisablesPinnedOrder(t *testing.T) {
	plan, mock := setupPlan(t, "")
	ids := []string{"1", "2"}

	mock.ExpectQuery(`status = 'publish' ORDER BY name LIMIT 24`).
		WithArgs(ids, "categories").
		WillReturnRows(pgxmock.NewRows(catalogColumns()))

	plan.ApplyFetchSpec(reconcile.FetchSpec{
		IDs:           ids,
		Size:          24,
		Collection:    domain.CollectionCategories,
		DisablePinned: true,
	})

	_, err := plan.Fetch(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchBeforeSpecFails(t *testing.T) {
	plan, _ := setupPlan(t, "")

	_, err := plan.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before a fetch spec")
}

func TestTotalsRoundTrip(t *testing.T) {
	plan, _ := setupPlan(t, "")
	totals := reconcile.TotalsOverride{Total: 30, TotalPages: 3, Page: 2}

	plan.ApplyTotals(totals)
	assert.Equal(t, totals, plan.Totals())
}
