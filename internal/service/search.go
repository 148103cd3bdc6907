package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/storeops/typesearch/internal/analytics"
	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/engine/typesense"
	"github.com/storeops/typesearch/internal/indexer"
	"github.com/storeops/typesearch/internal/reconcile"
	"github.com/storeops/typesearch/internal/suggest"
)

// PlanFactory builds a fresh execution plan for one listing render. The
// text filter is the host's native predicate, handed over so the plan can
// suppress it when instructed.
type PlanFactory func(textFilter string) reconcile.ExecutionPlan

// SearchService is the business facade behind the HTTP handlers. It owns
// the reconciler, the suggest dependencies, the indexer and the analytics
// store; handlers never touch the engine directly.
type SearchService struct {
	engine     *typesense.Client
	reconciler *reconcile.Reconciler
	plans      PlanFactory
	indexer    *indexer.Indexer
	analytics  *analytics.Store
	recents    suggest.RecentsStore
	logger     *slog.Logger
}

// NewSearchService wires the facade.
func NewSearchService(
	engine *typesense.Client,
	reconciler *reconcile.Reconciler,
	plans PlanFactory,
	ix *indexer.Indexer,
	analyticsStore *analytics.Store,
	recents suggest.RecentsStore,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		engine:     engine,
		reconciler: reconciler,
		plans:      plans,
		indexer:    ix,
		analytics:  analyticsStore,
		recents:    recents,
		logger:     logger,
	}
}

// Search runs one reconciled catalog search. The outcome is logged to
// analytics without blocking the response.
func (s *SearchService) Search(ctx context.Context, req reconcile.Request) (*domain.ReconciledListing, error) {
	plan := s.plans(req.Query)

	listing, err := s.reconciler.Reconcile(ctx, req, plan)
	if err != nil {
		return nil, err
	}

	if !listing.Degraded {
		s.analytics.LogSearch(ctx, req.Query, listing.TotalCount > 0)
	}
	return listing, nil
}

// LogSearch records a search outcome reported by the storefront.
func (s *SearchService) LogSearch(ctx context.Context, query string, hasResults bool) {
	s.analytics.LogSearch(ctx, query, hasResults)
}

// RecentSearches returns the session's bounded search history.
func (s *SearchService) RecentSearches(ctx context.Context, sessionID string) ([]string, error) {
	return s.recents.RecentSearches(ctx, sessionID)
}

// AddRecentSearch persists a submitted query into the session history.
// Queries below the suggest length gate are ignored.
func (s *SearchService) AddRecentSearch(ctx context.Context, sessionID, query string) error {
	if len([]rune(query)) < suggest.MinQueryLength {
		return nil
	}
	return s.recents.AddSearch(ctx, sessionID, query)
}

// RecentlyViewed returns the session's recently viewed product IDs.
func (s *SearchService) RecentlyViewed(ctx context.Context, sessionID string) ([]string, error) {
	return s.recents.RecentlyViewed(ctx, sessionID)
}

// AddRecentlyViewed records a product view for the history panel.
func (s *SearchService) AddRecentlyViewed(ctx context.Context, sessionID, productID string) error {
	return s.recents.AddViewed(ctx, sessionID, productID)
}

// EnsureCollection, DropCollection, SyncCollection and CollectionStatus
// expose the indexer to the admin surface.

func (s *SearchService) EnsureCollection(ctx context.Context, t domain.CollectionType) error {
	return s.indexer.EnsureCollection(ctx, t)
}

func (s *SearchService) DropCollection(ctx context.Context, t domain.CollectionType) error {
	return s.indexer.DropCollection(ctx, t)
}

func (s *SearchService) SyncCollection(ctx context.Context, t domain.CollectionType) (*indexer.SyncReport, error) {
	return s.indexer.SyncAll(ctx, t)
}

func (s *SearchService) CollectionStatus(ctx context.Context) ([]indexer.CollectionStatus, error) {
	return s.indexer.Status(ctx)
}

// QueryStats returns one page of aggregated search terms within the window,
// most frequent first, along with the distinct term count for paging.
func (s *SearchService) QueryStats(ctx context.Context, since time.Time, zeroOnly bool, limit, offset int) ([]analytics.QueryCount, int, error) {
	total, err := s.analytics.DistinctQueries(ctx, since, zeroOnly)
	if err != nil {
		return nil, 0, err
	}

	var out []analytics.QueryCount
	if zeroOnly {
		out, err = s.analytics.ZeroResultQueries(ctx, since, limit, offset)
	} else {
		out, err = s.analytics.TopQueries(ctx, since, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// EngineHealthy reports whether the engine answers its health endpoint.
func (s *SearchService) EngineHealthy(ctx context.Context) error {
	return s.engine.Health(ctx)
}
