package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/engine/typesense"
	apperrors "github.com/storeops/typesearch/pkg/errors"
)

// DefaultBatchSize is how many documents go into one import request.
const DefaultBatchSize = 50

// Config tunes the indexer.
type Config struct {
	BatchSize int
	SaleBoost float64
}

// SyncReport summarizes one full sync. Partial import failures are carried
// here rather than failing the sync: succeeded documents stay persisted.
type SyncReport struct {
	Collection string `json:"collection"`
	Indexed    int    `json:"indexed"`
	Failed     int    `json:"failed"`
	FirstError string `json:"first_error,omitempty"`
}

// CollectionStatus is the admin view of one collection.
type CollectionStatus struct {
	Collection   string `json:"collection"`
	Exists       bool   `json:"exists"`
	NumDocuments int64  `json:"num_documents"`
}

// Indexer maintains the search collections: schema lifecycle, full syncs
// from the catalog source, and incremental per-document updates driven by
// change events.
type Indexer struct {
	engine *typesense.Client
	source Source
	cfg    Config
	logger *slog.Logger
}

// New creates an Indexer. Zero config fields take the defaults.
func New(engine *typesense.Client, source Source, cfg Config, logger *slog.Logger) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.SaleBoost <= 0 {
		cfg.SaleBoost = DefaultSaleBoost
	}
	return &Indexer{engine: engine, source: source, cfg: cfg, logger: logger}
}

// EnsureCollection creates the collection for t, treating an existing
// collection as success.
func (ix *Indexer) EnsureCollection(ctx context.Context, t domain.CollectionType) error {
	if !t.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("invalid collection type %d", int(t)))
	}

	_, err := ix.engine.CreateCollection(ctx, t.Schema())
	if err != nil {
		if errors.Is(err, typesense.ErrCollectionExists) {
			return nil
		}
		return fmt.Errorf("ensure collection %s: %w", t, err)
	}

	ix.logger.InfoContext(ctx, "collection created", slog.String("collection", t.String()))
	return nil
}

// DropCollection deletes the collection for t. Dropping a missing
// collection succeeds.
func (ix *Indexer) DropCollection(ctx context.Context, t domain.CollectionType) error {
	if !t.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("invalid collection type %d", int(t)))
	}

	if _, err := ix.engine.DeleteCollection(ctx, t.String()); err != nil {
		return fmt.Errorf("drop collection %s: %w", t, err)
	}

	ix.logger.InfoContext(ctx, "collection dropped", slog.String("collection", t.String()))
	return nil
}

// SyncAll reindexes every entity of the given type. Documents import in
// batches; a batch with failed lines is recorded in the report with its
// first error and the sync continues, since import is at-least-once with no
// rollback.
func (ix *Indexer) SyncAll(ctx context.Context, t domain.CollectionType) (*SyncReport, error) {
	if err := ix.EnsureCollection(ctx, t); err != nil {
		return nil, err
	}

	report := &SyncReport{Collection: t.String()}

	importBatch := func(docs []any) error {
		err := ix.engine.ImportDocuments(ctx, t.String(), docs)
		var partial *typesense.PartialImportError
		switch {
		case err == nil:
			report.Indexed += len(docs)
		case errors.As(err, &partial):
			report.Indexed += partial.Succeeded
			report.Failed += partial.Failed
			if report.FirstError == "" {
				report.FirstError = partial.FirstError
			}
			ix.logger.WarnContext(ctx, "partial import",
				slog.String("collection", t.String()),
				slog.Int("succeeded", partial.Succeeded),
				slog.Int("failed", partial.Failed),
				slog.String("first_error", partial.FirstError))
		default:
			return err
		}
		return nil
	}

	var err error
	switch t {
	case domain.CollectionProducts:
		err = ix.source.StreamProducts(ctx, ix.cfg.BatchSize, func(docs []domain.ProductDocument) error {
			return importBatch(asAny(docs))
		})
	case domain.CollectionCategories:
		var docs []domain.CategoryDocument
		if docs, err = ix.source.Categories(ctx); err == nil {
			err = importInChunks(asAny(docs), ix.cfg.BatchSize, importBatch)
		}
	case domain.CollectionBrands:
		var docs []domain.BrandDocument
		if docs, err = ix.source.Brands(ctx); err == nil {
			err = importInChunks(asAny(docs), ix.cfg.BatchSize, importBatch)
		}
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid collection type %d", int(t)))
	}
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", t, err)
	}

	ix.logger.InfoContext(ctx, "collection synced",
		slog.String("collection", t.String()),
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", report.Failed))
	return report, nil
}

// IndexOne upserts a single entity. An entity the source no longer publishes
// is removed from the index instead.
func (ix *Indexer) IndexOne(ctx context.Context, t domain.CollectionType, id string) error {
	var (
		doc any
		err error
	)
	switch t {
	case domain.CollectionProducts:
		doc, err = ix.source.Product(ctx, id)
	case domain.CollectionCategories:
		doc, err = ix.source.Category(ctx, id)
	case domain.CollectionBrands:
		doc, err = ix.source.Brand(ctx, id)
	default:
		return apperrors.InvalidInput(fmt.Sprintf("invalid collection type %d", int(t)))
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ix.Remove(ctx, t, id)
		}
		return fmt.Errorf("load %s %s: %w", t, id, err)
	}

	if err := ix.engine.UpsertDocument(ctx, t.String(), doc); err != nil {
		return fmt.Errorf("index %s %s: %w", t, id, err)
	}
	return nil
}

// Remove deletes a single document from the index. Removing a document that
// is not indexed succeeds.
func (ix *Indexer) Remove(ctx context.Context, t domain.CollectionType, id string) error {
	if !t.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("invalid collection type %d", int(t)))
	}
	if err := ix.engine.DeleteDocument(ctx, t.String(), id); err != nil {
		return fmt.Errorf("remove %s %s: %w", t, id, err)
	}
	return nil
}

// Status reports existence and document count for every collection type.
func (ix *Indexer) Status(ctx context.Context) ([]CollectionStatus, error) {
	statuses := make([]CollectionStatus, 0, len(domain.AllCollectionTypes()))
	for _, t := range domain.AllCollectionTypes() {
		schema, err := ix.engine.GetCollection(ctx, t.String())
		if err != nil {
			var engineErr *typesense.EngineError
			if errors.As(err, &engineErr) && engineErr.StatusCode == 404 {
				statuses = append(statuses, CollectionStatus{Collection: t.String()})
				continue
			}
			return nil, fmt.Errorf("collection status %s: %w", t, err)
		}
		statuses = append(statuses, CollectionStatus{
			Collection:   t.String(),
			Exists:       true,
			NumDocuments: schema.NumDocuments,
		})
	}
	return statuses, nil
}

func asAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

func importInChunks(docs []any, size int, importBatch func([]any) error) error {
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		if err := importBatch(docs[start:end]); err != nil {
			return err
		}
	}
	return nil
}
