package indexer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storeops/typesearch/internal/domain"
	apperrors "github.com/storeops/typesearch/pkg/errors"
)

// Source supplies catalog entities for indexing. Products stream in batches;
// the taxonomies are small enough to load whole.
type Source interface {
	StreamProducts(ctx context.Context, batchSize int, emit func(docs []domain.ProductDocument) error) error
	Categories(ctx context.Context) ([]domain.CategoryDocument, error)
	Brands(ctx context.Context) ([]domain.BrandDocument, error)
	Product(ctx context.Context, id string) (*domain.ProductDocument, error)
	Category(ctx context.Context, id string) (*domain.CategoryDocument, error)
	Brand(ctx context.Context, id string) (*domain.BrandDocument, error)
}

// Querier is the slice of pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads catalog rows from the storefront database.
type PostgresSource struct {
	db        Querier
	baseURL   string
	saleBoost float64
}

// NewPostgresSource creates a source over the catalog tables. baseURL is the
// storefront root used for permalinks.
func NewPostgresSource(db Querier, baseURL string, saleBoost float64) *PostgresSource {
	if saleBoost <= 0 {
		saleBoost = DefaultSaleBoost
	}
	return &PostgresSource{db: db, baseURL: baseURL, saleBoost: saleBoost}
}

const productColumns = `id, name, description, short_description, slug, image, sku,
	status, stock_status, manage_stock, stock_quantity,
	price, regular_price, sale_price, is_on_sale, manufacturer,
	categories, category_ids, brands, brand_ids, tags`

// StreamProducts pages through published products in primary-key order and
// emits them in batches of batchSize prepared documents.
func (s *PostgresSource) StreamProducts(ctx context.Context, batchSize int, emit func(docs []domain.ProductDocument) error) error {
	if batchSize <= 0 {
		batchSize = 50
	}

	lastID := ""
	for {
		rows, err := s.db.Query(ctx,
			`SELECT `+productColumns+`
			 FROM products
			 WHERE status = 'publish' AND id > $1
			 ORDER BY id
			 LIMIT $2`,
			lastID, batchSize)
		if err != nil {
			return fmt.Errorf("query products: %w", err)
		}

		batch, err := scanProducts(rows, s.baseURL, s.saleBoost)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := emit(batch); err != nil {
			return err
		}
		lastID = batch[len(batch)-1].ID
		if len(batch) < batchSize {
			return nil
		}
	}
}

// Product loads a single published product by ID. Unpublished products
// surface as not found so callers de-index them.
func (s *PostgresSource) Product(ctx context.Context, id string) (*domain.ProductDocument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND status = 'publish'`,
		id)
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	docs, err := scanProducts(rows, s.baseURL, s.saleBoost)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.NotFound("product", id)
	}
	return &docs[0], nil
}

func scanProducts(rows pgx.Rows, baseURL string, saleBoost float64) ([]domain.ProductDocument, error) {
	defer rows.Close()

	var docs []domain.ProductDocument
	for rows.Next() {
		var row ProductRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Description, &row.ShortDescription, &row.Slug, &row.Image, &row.SKU,
			&row.Status, &row.StockStatus, &row.ManageStock, &row.StockQuantity,
			&row.Price, &row.RegularPrice, &row.SalePrice, &row.IsOnSale, &row.Manufacturer,
			&row.Categories, &row.CategoryIDs, &row.Brands, &row.BrandIDs, &row.Tags,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		docs = append(docs, PrepareProduct(row, baseURL, saleBoost))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return docs, nil
}

const termColumns = `id, name, description, slug, image, parent_id, product_count`

// Categories loads the whole category taxonomy.
func (s *PostgresSource) Categories(ctx context.Context) ([]domain.CategoryDocument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+termColumns+` FROM terms WHERE taxonomy = 'category' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.CategoryDocument, 0, len(terms))
	for _, t := range terms {
		docs = append(docs, PrepareCategory(t, s.baseURL))
	}
	return docs, nil
}

// Brands loads the whole brand taxonomy.
func (s *PostgresSource) Brands(ctx context.Context) ([]domain.BrandDocument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+termColumns+` FROM terms WHERE taxonomy = 'brand' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}

	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.BrandDocument, 0, len(terms))
	for _, t := range terms {
		docs = append(docs, PrepareBrand(t, s.baseURL))
	}
	return docs, nil
}

// Category loads a single category by ID.
func (s *PostgresSource) Category(ctx context.Context, id string) (*domain.CategoryDocument, error) {
	t, err := s.term(ctx, "category", id)
	if err != nil {
		return nil, err
	}
	doc := PrepareCategory(*t, s.baseURL)
	return &doc, nil
}

// Brand loads a single brand by ID.
func (s *PostgresSource) Brand(ctx context.Context, id string) (*domain.BrandDocument, error) {
	t, err := s.term(ctx, "brand", id)
	if err != nil {
		return nil, err
	}
	doc := PrepareBrand(*t, s.baseURL)
	return &doc, nil
}

func (s *PostgresSource) term(ctx context.Context, taxonomy, id string) (*TermRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+termColumns+` FROM terms WHERE taxonomy = $1 AND id = $2`,
		taxonomy, id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", taxonomy, err)
	}

	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, apperrors.NotFound(taxonomy, id)
	}
	return &terms[0], nil
}

func scanTerms(rows pgx.Rows) ([]TermRow, error) {
	defer rows.Close()

	var terms []TermRow
	for rows.Next() {
		var t TermRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Slug, &t.Image, &t.ParentID, &t.Count); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	return terms, nil
}
