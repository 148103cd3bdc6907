package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/query"
)

// Suggest type filters accepted by the suggest endpoint.
const (
	SuggestAll        = "all"
	SuggestProducts   = "products"
	SuggestCategories = "categories"
	SuggestBrands     = "brands"
)

// Suggest runs the as-you-type panels for a query. Each requested panel is
// an independent engine call; a failing panel degrades to empty and is
// logged, so one slow or broken collection never blanks the whole overlay.
// An empty query returns empty panels without touching the engine.
func (s *SearchService) Suggest(ctx context.Context, q, typ string) (*domain.SuggestResult, error) {
	result := &domain.SuggestResult{
		Products:   []domain.Suggestion{},
		Categories: []domain.Suggestion{},
		Brands:     []domain.Suggestion{},
	}
	if q == "" {
		return result, nil
	}
	if typ == "" {
		typ = SuggestAll
	}

	if typ == SuggestAll || typ == SuggestProducts {
		result.Products = s.suggestPanel(ctx, q, domain.CollectionProducts, true)
	}
	if typ == SuggestAll || typ == SuggestCategories {
		result.Categories = s.suggestPanel(ctx, q, domain.CollectionCategories, false)
	}
	if typ == SuggestAll || typ == SuggestBrands {
		result.Brands = s.suggestPanel(ctx, q, domain.CollectionBrands, false)
	}
	return result, nil
}

func (s *SearchService) suggestPanel(ctx context.Context, q string, t domain.CollectionType, products bool) []domain.Suggestion {
	params := query.ComposeSuggest(q, products)
	page, err := s.engine.Search(ctx, t.String(), params)
	if err != nil {
		s.logger.WarnContext(ctx, "suggest panel degraded",
			slog.String("collection", t.String()),
			slog.String("query", q),
			slog.String("error", err.Error()))
		return []domain.Suggestion{}
	}

	suggestions := make([]domain.Suggestion, 0, len(page.Hits))
	for _, hit := range page.Hits {
		var doc struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Permalink   string   `json:"permalink"`
			Image       string   `json:"image"`
			Price       *float64 `json:"price"`
			SalePrice   *float64 `json:"sale_price"`
			IsOnSale    bool     `json:"is_on_sale"`
			StockStatus string   `json:"stock_status"`
		}
		if err := json.Unmarshal(hit.Document, &doc); err != nil {
			continue
		}

		sg := domain.Suggestion{
			ID:        doc.ID,
			Name:      doc.Name,
			Permalink: doc.Permalink,
			Image:     doc.Image,
		}
		if products {
			sg.Price = doc.Price
			sg.SalePrice = doc.SalePrice
			sg.IsOnSale = doc.IsOnSale
			sg.StockStatus = doc.StockStatus
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions
}
