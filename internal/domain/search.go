package domain

import "encoding/json"

// NoMatchID is a reserved identifier that can never collide with a catalog
// row. It is injected into the host whitelist when the engine returns no
// hits, so the host's empty-filter-means-everything fallback never fires.
const NoMatchID = "__typesearch_no_match__"

// SearchHit is a single ranked hit returned by the engine. Document carries
// the raw indexed document; rank position is the slice index in ResultPage.
type SearchHit struct {
	Document json.RawMessage `json:"document"`
	ID       string          `json:"-"`
}

// ResultPage is one page of engine results with authoritative totals.
type ResultPage struct {
	Found   int         `json:"found"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Hits    []SearchHit `json:"hits"`
}

// IDs returns the hit document identifiers in rank order.
func (p *ResultPage) IDs() []string {
	ids := make([]string, 0, len(p.Hits))
	for _, h := range p.Hits {
		if h.ID != "" {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

// CatalogItem is a catalog row as fetched by the host listing. Only the
// fields the listing renders are carried; the search index holds the rest.
type CatalogItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Permalink string   `json:"permalink"`
	Image     string   `json:"image"`
	Price     *float64 `json:"price,omitempty"`
	SKU       string   `json:"sku,omitempty"`
	Status    string   `json:"status"`
}

// ReconciledListing is the outcome of one reconciliation pass: the host rows
// re-sorted to engine rank order, with engine totals overriding whatever the
// host recomputed.
type ReconciledListing struct {
	OrderedIDs  []string      `json:"ordered_ids"`
	Items       []CatalogItem `json:"items"`
	TotalCount  int           `json:"total_count"`
	TotalPages  int           `json:"total_pages"`
	PageSize    int           `json:"page_size"`
	CurrentPage int           `json:"current_page"`
	Degraded    bool          `json:"degraded"`
}

// Suggestion is a single autocomplete entry. Product entries carry pricing
// and stock; category and brand entries leave those fields zero.
type Suggestion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permalink   string   `json:"permalink"`
	Image       string   `json:"image,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	IsOnSale    bool     `json:"is_on_sale,omitempty"`
	StockStatus string   `json:"stock_status,omitempty"`
}

// SuggestResult groups suggestions by panel for the as-you-type overlay.
type SuggestResult struct {
	Products   []Suggestion `json:"products"`
	Categories []Suggestion `json:"categories"`
	Brands     []Suggestion `json:"brands"`
}

// Empty reports whether no panel has any entries.
func (r *SuggestResult) Empty() bool {
	return len(r.Products) == 0 && len(r.Categories) == 0 && len(r.Brands) == 0
}
