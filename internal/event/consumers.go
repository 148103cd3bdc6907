package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/storeops/typesearch/pkg/kafka"
)

// Topics consumed for incremental indexing. Every entity has one topic per
// action; upsert handlers make the order of arrival irrelevant.
func Topics() []string {
	var topics []string
	for _, entity := range []string{"product", "category", "brand"} {
		for _, action := range []string{ActionCreated, ActionUpdated, ActionDeleted} {
			topics = append(topics, kafka.Topic(entity, action))
		}
	}
	return topics
}

// ConsumerGroup runs one consumer per catalog topic against a shared
// handler.
type ConsumerGroup struct {
	consumers []*kafka.Consumer
	logger    *slog.Logger
}

// NewConsumerGroup builds the consumers. groupID should be stable across
// restarts so offsets survive.
func NewConsumerGroup(brokers []string, groupID string, handler *IndexHandler, logger *slog.Logger) *ConsumerGroup {
	group := &ConsumerGroup{logger: logger}
	for _, topic := range Topics() {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}, handler.Handle, logger)
		group.consumers = append(group.consumers, consumer)
	}
	return group
}

// Run starts every consumer and blocks until the context is cancelled and
// all of them have drained.
func (g *ConsumerGroup) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, consumer := range g.consumers {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				g.logger.Error("consumer stopped with error", slog.String("error", err.Error()))
			}
		}(consumer)
	}
	wg.Wait()
}

// Close shuts down all underlying readers.
func (g *ConsumerGroup) Close() {
	for _, consumer := range g.consumers {
		if err := consumer.Close(); err != nil {
			g.logger.Error("close consumer", slog.String("error", err.Error()))
		}
	}
}
