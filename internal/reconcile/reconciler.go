package reconcile

import (
	"context"
	"log/slog"
	"net/url"

	apperrors "github.com/storeops/typesearch/pkg/errors"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/query"
)

// FetchAllSentinel is the caller convention for "give me everything".
// It never reaches the engine; the reconciler caps it at FetchAllCap.
const FetchAllSentinel = -1

// Engine is the slice of the engine client the reconciler needs.
type Engine interface {
	Search(ctx context.Context, collection string, params url.Values) (*domain.ResultPage, error)
}

// Config bounds the page-size clamps.
type Config struct {
	// MinPageSize is the floor applied to non-positive page sizes.
	MinPageSize int
	// FetchAllCap bounds the fetch-all sentinel so a single request can
	// never pull the whole catalog.
	FetchAllCap int
}

// DefaultConfig returns the standard clamps: floor 12, fetch-all cap 60.
func DefaultConfig() Config {
	return Config{MinPageSize: 12, FetchAllCap: 60}
}

// Request is one reconciliation request as it arrives from the host listing.
type Request struct {
	Query    string
	Page     int
	PerPage  int
	FilterBy string
	Preset   string
}

// Reconciler drives the paging inversion: the engine pages and ranks, the
// host listing only materializes the rows the engine chose. One Reconciler
// is shared across requests; every invocation builds its listing from
// scratch.
type Reconciler struct {
	engine Engine
	cfg    Config
	logger *slog.Logger
}

// New creates a Reconciler. Zero config fields fall back to the defaults.
func New(engine Engine, cfg Config, logger *slog.Logger) *Reconciler {
	def := DefaultConfig()
	if cfg.MinPageSize <= 0 {
		cfg.MinPageSize = def.MinPageSize
	}
	if cfg.FetchAllCap <= 0 {
		cfg.FetchAllCap = def.FetchAllCap
	}
	return &Reconciler{engine: engine, cfg: cfg, logger: logger}
}

// ClampPerPage applies the page-size rules: the fetch-all sentinel is capped
// at FetchAllCap, any other non-positive value floors at MinPageSize.
func (r *Reconciler) ClampPerPage(perPage int) int {
	if perPage == FetchAllSentinel {
		return r.cfg.FetchAllCap
	}
	if perPage <= 0 {
		return r.cfg.MinPageSize
	}
	return perPage
}

// Reconcile runs the full pipeline against the given execution plan and
// returns the reconciled listing. Engine failures degrade to an empty
// listing with Degraded set; they never surface as errors. The only error
// returns are an empty query (rejected before any network call) and a host
// fetch failure, which is the host's own problem to render.
func (r *Reconciler) Reconcile(ctx context.Context, req Request, plan ExecutionPlan) (*domain.ReconciledListing, error) {
	if req.Query == "" {
		return nil, apperrors.InvalidInput("search query must not be empty")
	}

	perPage := r.ClampPerPage(req.PerPage)
	page := req.Page
	if page < 1 {
		page = 1
	}

	params, err := query.Compose(req.Query, query.Overrides{
		FilterBy: req.FilterBy,
		Preset:   req.Preset,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, err
	}

	result, err := r.engine.Search(ctx, domain.CollectionProducts.String(), params)
	if err != nil {
		r.logger.ErrorContext(ctx, "engine search failed, serving empty listing",
			slog.String("query", req.Query),
			slog.Int("page", page),
			slog.String("error", err.Error()))
		return r.fallbackEmpty(ctx, page, perPage, plan)
	}

	ids := result.IDs()
	if len(ids) == 0 {
		// The sentinel keeps the host from treating an empty whitelist
		// as "no filter" and returning the whole catalog.
		ids = []string{domain.NoMatchID}
	}

	plan.ApplyFetchSpec(FetchSpec{
		IDs:               ids,
		Size:              perPage,
		Collection:        domain.CollectionProducts,
		DisableTextFilter: true,
		DisablePinned:     true,
	})

	items, err := plan.Fetch(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "host listing fetch")
	}

	items = sortByRank(items, ids)

	totals := TotalsOverride{
		Total:      result.Found,
		TotalPages: totalPages(result.Found, perPage),
		Page:       page,
	}
	plan.ApplyTotals(totals)

	return &domain.ReconciledListing{
		OrderedIDs:  ids,
		Items:       items,
		TotalCount:  totals.Total,
		TotalPages:  totals.TotalPages,
		PageSize:    perPage,
		CurrentPage: page,
		Degraded:    false,
	}, nil
}

// fallbackEmpty is the degraded path: sentinel whitelist, zero totals, no
// error escapes to the host.
func (r *Reconciler) fallbackEmpty(ctx context.Context, page, perPage int, plan ExecutionPlan) (*domain.ReconciledListing, error) {
	ids := []string{domain.NoMatchID}
	plan.ApplyFetchSpec(FetchSpec{
		IDs:               ids,
		Size:              perPage,
		Collection:        domain.CollectionProducts,
		DisableTextFilter: true,
		DisablePinned:     true,
	})

	items, err := plan.Fetch(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "host fetch failed on degraded listing",
			slog.String("error", err.Error()))
		items = nil
	}

	plan.ApplyTotals(TotalsOverride{Total: 0, TotalPages: 0, Page: page})

	return &domain.ReconciledListing{
		OrderedIDs:  ids,
		Items:       items,
		TotalCount:  0,
		TotalPages:  0,
		PageSize:    perPage,
		CurrentPage: page,
		Degraded:    true,
	}, nil
}

// sortByRank reorders host rows to engine rank order. The host is free to
// return rows in its own native order; rank position wins. Rows the engine
// never named are dropped.
func sortByRank(items []domain.CatalogItem, ids []string) []domain.CatalogItem {
	byID := make(map[string]domain.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	ordered := make([]domain.CatalogItem, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func totalPages(found, perPage int) int {
	if perPage <= 0 || found <= 0 {
		return 0
	}
	return (found + perPage - 1) / perPage
}
