package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/pkg/kafka"
)

// Event types consumed from the catalog topics.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Indexer is the slice of the index maintainer the handler drives.
type Indexer interface {
	IndexOne(ctx context.Context, t domain.CollectionType, id string) error
	Remove(ctx context.Context, t domain.CollectionType, id string) error
}

// IndexHandler applies catalog change events to the search index. Handlers
// are idempotent: creates and updates both resolve to an upsert, deletes
// tolerate already-removed documents, so at-least-once delivery is safe.
type IndexHandler struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewIndexHandler creates the handler shared by all catalog consumers.
func NewIndexHandler(ix Indexer, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{indexer: ix, logger: logger}
}

// Handle routes one catalog event to the indexer. The event type is
// "<entity>.<action>", e.g. product.updated; the aggregate ID is the entity
// ID.
func (h *IndexHandler) Handle(ctx context.Context, event *kafka.Event) error {
	entity, action, ok := strings.Cut(event.EventType, ".")
	if !ok {
		h.logger.WarnContext(ctx, "malformed event type skipped",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType))
		return nil
	}

	t, err := collectionFor(entity)
	if err != nil {
		h.logger.WarnContext(ctx, "event for unknown entity skipped",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType))
		return nil
	}

	switch action {
	case ActionCreated, ActionUpdated:
		if err := h.indexer.IndexOne(ctx, t, event.AggregateID); err != nil {
			return fmt.Errorf("index %s %s: %w", entity, event.AggregateID, err)
		}
	case ActionDeleted:
		if err := h.indexer.Remove(ctx, t, event.AggregateID); err != nil {
			return fmt.Errorf("remove %s %s: %w", entity, event.AggregateID, err)
		}
	default:
		h.logger.WarnContext(ctx, "event with unknown action skipped",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType))
		return nil
	}

	h.logger.InfoContext(ctx, "catalog event applied",
		slog.String("event_type", event.EventType),
		slog.String("entity_id", event.AggregateID))
	return nil
}

func collectionFor(entity string) (domain.CollectionType, error) {
	switch entity {
	case "product":
		return domain.CollectionProducts, nil
	case "category":
		return domain.CollectionCategories, nil
	case "brand":
		return domain.CollectionBrands, nil
	default:
		return 0, fmt.Errorf("unknown entity %q", entity)
	}
}
