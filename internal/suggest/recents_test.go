package suggest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecentsMostRecentFirst(t *testing.T) {
	store := NewMemoryRecents()
	ctx := context.Background()

	for _, q := range []string{"redmi", "galaxy", "thinkpad"} {
		require.NoError(t, store.AddSearch(ctx, "s1", q))
	}

	searches, err := store.RecentSearches(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"thinkpad", "galaxy", "redmi"}, searches)
}

func TestMemoryRecentsDedupeMovesToFront(t *testing.T) {
	store := NewMemoryRecents()
	ctx := context.Background()

	for _, q := range []string{"redmi", "galaxy", "redmi"} {
		require.NoError(t, store.AddSearch(ctx, "s1", q))
	}

	searches, err := store.RecentSearches(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"redmi", "galaxy"}, searches)
}

func TestMemoryRecentsBounded(t *testing.T) {
	store := NewMemoryRecents()
	ctx := context.Background()

	for i := 0; i < MaxRecentSearches+3; i++ {
		require.NoError(t, store.AddSearch(ctx, "s1", fmt.Sprintf("query-%d", i)))
	}

	searches, err := store.RecentSearches(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, searches, MaxRecentSearches)
	assert.Equal(t, "query-7", searches[0])
	assert.Equal(t, "query-3", searches[MaxRecentSearches-1])
}

func TestMemoryRecentsViewedBound(t *testing.T) {
	store := NewMemoryRecents()
	ctx := context.Background()

	for i := 0; i < MaxRecentlyViewed+2; i++ {
		require.NoError(t, store.AddViewed(ctx, "s1", fmt.Sprintf("%d", i)))
	}

	viewed, err := store.RecentlyViewed(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, viewed, MaxRecentlyViewed)
	assert.Equal(t, "5", viewed[0])
}

func TestMemoryRecentsSessionsIsolated(t *testing.T) {
	store := NewMemoryRecents()
	ctx := context.Background()

	require.NoError(t, store.AddSearch(ctx, "s1", "redmi"))
	require.NoError(t, store.AddSearch(ctx, "s2", "galaxy"))

	s1, err := store.RecentSearches(ctx, "s1")
	require.NoError(t, err)
	s2, err := store.RecentSearches(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"redmi"}, s1)
	assert.Equal(t, []string{"galaxy"}, s2)
}
