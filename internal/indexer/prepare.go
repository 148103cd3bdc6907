package indexer

import (
	"github.com/storeops/typesearch/pkg/slug"

	"github.com/storeops/typesearch/internal/domain"
)

// DefaultSaleBoost is the ranking boost applied to on-sale products.
const DefaultSaleBoost = 1.5

// ProductRow is a raw catalog product row before document preparation.
type ProductRow struct {
	ID               string
	Name             string
	Description      string
	ShortDescription string
	Slug             string
	Image            string
	SKU              string
	Status           string
	StockStatus      string
	ManageStock      bool
	StockQuantity    *int32
	Price            *float64
	RegularPrice     *float64
	SalePrice        *float64
	IsOnSale         bool
	Manufacturer     string
	Categories       []string
	CategoryIDs      []int32
	Brands           []string
	BrandIDs         []int32
	Tags             []string
}

// PrepareProduct turns a catalog row into an index document.
//
// Rules carried over from the storefront:
//   - an on-sale product with no explicit sale price gets the current price
//     backfilled as sale_price
//   - sale_boost is the configured boost for on-sale products, 1.0 otherwise
//   - manufacturer falls back to the first brand when not set
//   - stock_quantity is only indexed when stock is managed
func PrepareProduct(row ProductRow, baseURL string, saleBoost float64) domain.ProductDocument {
	if saleBoost <= 0 {
		saleBoost = DefaultSaleBoost
	}

	salePrice := row.SalePrice
	if row.IsOnSale && salePrice == nil && row.Price != nil && row.RegularPrice != nil {
		salePrice = row.Price
	}

	boost := 1.0
	if row.IsOnSale {
		boost = saleBoost
	}

	manufacturer := row.Manufacturer
	if len(row.Brands) > 0 {
		manufacturer = row.Brands[0]
	}

	var stockQty *int32
	if row.ManageStock {
		stockQty = row.StockQuantity
	}

	return domain.ProductDocument{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description,
		ShortDescription: row.ShortDescription,
		Permalink:        permalink(baseURL, "product", row.Slug, row.Name),
		Image:            row.Image,
		Price:            row.Price,
		RegularPrice:     row.RegularPrice,
		SalePrice:        salePrice,
		SKU:              row.SKU,
		StockStatus:      row.StockStatus,
		StockQuantity:    stockQty,
		Categories:       emptyIfNil(row.Categories),
		CategoryIDs:      emptyIfNilInt(row.CategoryIDs),
		Brands:           emptyIfNil(row.Brands),
		BrandIDs:         emptyIfNilInt(row.BrandIDs),
		Tags:             emptyIfNil(row.Tags),
		Status:           row.Status,
		IsOnSale:         row.IsOnSale,
		SaleBoost:        boost,
		Manufacturer:     manufacturer,
	}
}

// TermRow is a raw category or brand row.
type TermRow struct {
	ID          string
	Name        string
	Description string
	Slug        string
	Image       string
	ParentID    *int32
	Count       int32
}

// PrepareCategory turns a term row into a category document.
func PrepareCategory(row TermRow, baseURL string) domain.CategoryDocument {
	return domain.CategoryDocument{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Permalink:   permalink(baseURL, "category", row.Slug, row.Name),
		Image:       row.Image,
		ParentID:    row.ParentID,
		Count:       row.Count,
	}
}

// PrepareBrand turns a term row into a brand document.
func PrepareBrand(row TermRow, baseURL string) domain.BrandDocument {
	return domain.BrandDocument{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Permalink:   permalink(baseURL, "brand", row.Slug, row.Name),
		Image:       row.Image,
		Count:       row.Count,
	}
}

// permalink builds the storefront URL for an entity, deriving the slug from
// the name when the row has none.
func permalink(baseURL, kind, rowSlug, name string) string {
	s := rowSlug
	if s == "" {
		s = slug.Generate(name)
	}
	return baseURL + "/" + kind + "/" + s
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyIfNilInt(in []int32) []int32 {
	if in == nil {
		return []int32{}
	}
	return in
}
