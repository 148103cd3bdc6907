package query

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultQueryBy is the product field list in priority order. The engine
// weights fields by declaration order, so this ordering is the relevance
// contract: exact name and SKU hits outrank description matches.
const DefaultQueryBy = "name,sku,categories,tags,brands,manufacturer,short_description,description"

// SuggestQueryBy is the narrower field list used by as-you-type panels.
const SuggestQueryBy = "name,description"

// Typo-tolerance thresholds. Terms shorter than 3 runes get no typo
// allowance, 3 runes get one, 4 and longer get two. The engine enforces the
// gating; the composer always sends the thresholds.
const (
	NumTypos        = 2
	MinLen1Typo     = 3
	MinLen2Typo     = 4
	SuggestPerPage  = 5
	SuggestProducts = 6
)

// Overrides adjusts the baseline composition for one request. The zero value
// leaves the baseline untouched.
type Overrides struct {
	FilterBy string
	Preset   string
	QueryBy  string
	Page     int
	PerPage  int
}

// Compose builds the engine search parameters for a full catalog search.
// The baseline enables exhaustive typo-tolerant matching across the product
// field list; overrides refine it per request.
//
// A Preset suppresses the default query_by, since the preset itself encodes
// the field list. Supplying both Preset and QueryBy is contradictory and
// rejected outright rather than silently resolved.
func Compose(q string, o Overrides) (url.Values, error) {
	if o.Preset != "" && o.QueryBy != "" {
		return nil, fmt.Errorf("compose: preset %q and query_by %q are mutually exclusive", o.Preset, o.QueryBy)
	}

	page := o.Page
	if page < 1 {
		page = 1
	}
	perPage := o.PerPage
	if perPage < 1 {
		perPage = 10
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("exhaustive_search", "true")
	params.Set("num_typos", strconv.Itoa(NumTypos))
	params.Set("min_len_1typo", strconv.Itoa(MinLen1Typo))
	params.Set("min_len_2typo", strconv.Itoa(MinLen2Typo))
	params.Set("prioritize_exact_match", "true")

	switch {
	case o.Preset != "":
		params.Set("preset", o.Preset)
	case o.QueryBy != "":
		params.Set("query_by", o.QueryBy)
	default:
		params.Set("query_by", DefaultQueryBy)
	}

	if o.FilterBy != "" {
		params.Set("filter_by", o.FilterBy)
	}

	return params, nil
}

// ComposeSuggest builds the engine parameters for one autocomplete panel.
// Product panels fetch six entries, taxonomy panels five, both over the
// narrow name/description field list.
func ComposeSuggest(q string, products bool) url.Values {
	perPage := SuggestPerPage
	if products {
		perPage = SuggestProducts
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("query_by", SuggestQueryBy)
	params.Set("num_typos", strconv.Itoa(NumTypos))
	params.Set("min_len_1typo", strconv.Itoa(MinLen1Typo))
	params.Set("min_len_2typo", strconv.Itoa(MinLen2Typo))
	params.Set("prioritize_exact_match", "true")
	return params
}
