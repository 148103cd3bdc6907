package suggest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MaxRecentSearches bounds the per-session search history.
	MaxRecentSearches = 5
	// MaxRecentlyViewed bounds the per-session viewed-product list.
	MaxRecentlyViewed = 4

	recentsTTL = 30 * 24 * time.Hour
)

// RecentsStore keeps the per-session search history and recently viewed
// products rendered in the empty-input history panel. Lists are
// most-recent-first, de-duplicated by exact match, and bounded.
type RecentsStore interface {
	AddSearch(ctx context.Context, sessionID, query string) error
	RecentSearches(ctx context.Context, sessionID string) ([]string, error)
	AddViewed(ctx context.Context, sessionID, productID string) error
	RecentlyViewed(ctx context.Context, sessionID string) ([]string, error)
}

// RedisRecents is the Redis-backed recents store.
type RedisRecents struct {
	client *redis.Client
}

// NewRedisRecents creates a recents store over the given Redis client.
func NewRedisRecents(client *redis.Client) *RedisRecents {
	return &RedisRecents{client: client}
}

func searchKey(sessionID string) string {
	return "typesearch:recents:" + sessionID
}

func viewedKey(sessionID string) string {
	return "typesearch:viewed:" + sessionID
}

// AddSearch pushes a query to the front of the session's history. An LREM
// first removes any older duplicate so the list stays unique, then LTRIM
// enforces the bound. The three commands run in one pipeline.
func (s *RedisRecents) AddSearch(ctx context.Context, sessionID, query string) error {
	return s.push(ctx, searchKey(sessionID), query, MaxRecentSearches)
}

// RecentSearches returns the session's history, most recent first.
func (s *RedisRecents) RecentSearches(ctx context.Context, sessionID string) ([]string, error) {
	return s.list(ctx, searchKey(sessionID), MaxRecentSearches)
}

// AddViewed records a viewed product for the history panel.
func (s *RedisRecents) AddViewed(ctx context.Context, sessionID, productID string) error {
	return s.push(ctx, viewedKey(sessionID), productID, MaxRecentlyViewed)
}

// RecentlyViewed returns the session's viewed products, most recent first.
func (s *RedisRecents) RecentlyViewed(ctx context.Context, sessionID string) ([]string, error) {
	return s.list(ctx, viewedKey(sessionID), MaxRecentlyViewed)
}

func (s *RedisRecents) push(ctx context.Context, key, value string, max int64) error {
	pipe := s.client.Pipeline()
	pipe.LRem(ctx, key, 0, value)
	pipe.LPush(ctx, key, value)
	pipe.LTrim(ctx, key, 0, max-1)
	pipe.Expire(ctx, key, recentsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent entry: %w", err)
	}
	return nil
}

func (s *RedisRecents) list(ctx context.Context, key string, max int64) ([]string, error) {
	values, err := s.client.LRange(ctx, key, 0, max-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent entries: %w", err)
	}
	return values, nil
}

// MemoryRecents is an in-memory recents store for tests and single-node
// development runs.
type MemoryRecents struct {
	mu       sync.Mutex
	searches map[string][]string
	viewed   map[string][]string
}

// NewMemoryRecents creates an empty in-memory store.
func NewMemoryRecents() *MemoryRecents {
	return &MemoryRecents{
		searches: make(map[string][]string),
		viewed:   make(map[string][]string),
	}
}

func (s *MemoryRecents) AddSearch(_ context.Context, sessionID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[sessionID] = pushFront(s.searches[sessionID], query, MaxRecentSearches)
	return nil
}

func (s *MemoryRecents) RecentSearches(_ context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches[sessionID]...), nil
}

func (s *MemoryRecents) AddViewed(_ context.Context, sessionID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewed[sessionID] = pushFront(s.viewed[sessionID], productID, MaxRecentlyViewed)
	return nil
}

func (s *MemoryRecents) RecentlyViewed(_ context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.viewed[sessionID]...), nil
}

func pushFront(list []string, value string, max int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}
