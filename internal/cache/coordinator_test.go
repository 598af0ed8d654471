package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/domain"
)

func newCache(t *testing.T, maxEntries int) *cache.Coordinator {
	t.Helper()
	c := cache.NewCoordinator(5*time.Minute, maxEntries, nil, zap.NewNop())
	t.Cleanup(c.Stop)
	return c
}

func TestKeys_Formats(t *testing.T) {
	assert.Equal(t, "puzzles:20:", cache.CollectionKey(domain.KindPuzzle, 20, "", nil))
	assert.Equal(t, "elements:50:cur-9", cache.CollectionKey(domain.KindElement, 50, "cur-9", nil))
	assert.Equal(t, "puzzles_p1:20:", cache.EntityKey(domain.KindPuzzle, "p1", 20, ""))
	assert.Equal(t, "graph_complete", cache.GraphKey)

	assert.Equal(t, "puzzles_p1:*", cache.EntityPattern(domain.KindPuzzle, "p1"))
	assert.Equal(t, "timeline:*", cache.CollectionPattern(domain.KindTimeline))
	assert.Equal(t, "graph_complete*", cache.GraphPattern())
}

func TestKeys_FilterFingerprintIsOrderIndependent(t *testing.T) {
	a := cache.CollectionKey(domain.KindElement, 20, "", map[string]string{"act": "1", "type": "memory"})
	b := cache.CollectionKey(domain.KindElement, 20, "", map[string]string{"type": "memory", "act": "1"})

	assert.Equal(t, a, b)
	assert.Equal(t, "elements:20::act=1&type=memory", a)
}

func TestKeys_CollectionPatternDoesNotMatchEntityKeys(t *testing.T) {
	c := newCache(t, 10)
	c.Set(cache.EntityKey(domain.KindPuzzle, "p1", 20, ""), "entity")
	c.Set(cache.CollectionKey(domain.KindPuzzle, 20, "", nil), "listing")

	c.InvalidatePattern(cache.CollectionPattern(domain.KindPuzzle))

	_, ok := c.Get(cache.EntityKey(domain.KindPuzzle, "p1", 20, ""))
	assert.True(t, ok, "entity keys must survive a collection-only invalidation")
	_, ok = c.Get(cache.CollectionKey(domain.KindPuzzle, 20, "", nil))
	assert.False(t, ok)
}

func TestCoordinator_GetSet(t *testing.T) {
	c := newCache(t, 10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []string{"v1", "v2"})
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"v1", "v2"}, got)
}

func TestCoordinator_ExpiredEntryBehavesAsAbsent(t *testing.T) {
	c := newCache(t, 10)
	c.SetWithTTL("k", "v", 15*time.Millisecond)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCoordinator_EvictsOldestInsertionFirst(t *testing.T) {
	c := newCache(t, 3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Reads do not refresh insertion order; eviction is strictly FIFO.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	_, ok = c.Get("a")
	assert.False(t, ok, "oldest insertion evicted despite the recent read")
	for _, key := range []string{"b", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}
}

func TestCoordinator_OverwriteRenewsInsertion(t *testing.T) {
	c := newCache(t, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b became the oldest insertion once a was rewritten")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, got)
}

func TestCoordinator_InvalidateEntity(t *testing.T) {
	c := newCache(t, 10)
	entityKey := cache.EntityKey(domain.KindPuzzle, "p1", 20, "")
	listKey := cache.CollectionKey(domain.KindPuzzle, 20, "", nil)
	otherKey := cache.CollectionKey(domain.KindCharacter, 20, "", nil)
	c.Set(entityKey, "entity")
	c.Set(listKey, "listing")
	c.Set(otherKey, "characters")

	before := c.Version()
	c.InvalidateEntity(domain.KindPuzzle, "p1")

	_, ok := c.Get(entityKey)
	assert.False(t, ok)
	_, ok = c.Get(listKey)
	assert.False(t, ok)
	_, ok = c.Get(otherKey)
	assert.True(t, ok, "other kinds untouched")

	assert.NotEqual(t, before, c.Version())
	stamped, ok := c.EntityVersion("p1")
	require.True(t, ok)
	assert.Equal(t, c.Version(), stamped)
}

func TestCoordinator_InvalidateRelatedCascadesAcrossKinds(t *testing.T) {
	c := newCache(t, 20)

	gone := []string{
		cache.EntityKey(domain.KindPuzzle, "p1", 20, ""),
		cache.CollectionKey(domain.KindPuzzle, 20, "", nil),
		cache.EntityKey(domain.KindElement, "e2", 20, ""),
		cache.EntityKey(domain.KindElement, "e3", 20, ""),
		cache.CollectionKey(domain.KindElement, 20, "", nil),
		cache.GraphKey,
	}
	kept := []string{
		cache.CollectionKey(domain.KindCharacter, 20, "", nil),
		cache.EntityKey(domain.KindElement, "e9", 20, ""),
	}
	for _, key := range append(append([]string{}, gone...), kept...) {
		c.Set(key, "cached")
	}

	c.InvalidateRelated(domain.KindPuzzle, "p1", []cache.Related{
		{Kind: domain.KindElement, IDs: []string{"e2", "e3"}},
	})

	for _, key := range gone {
		_, ok := c.Get(key)
		assert.False(t, ok, key)
	}
	for _, key := range kept {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}

	// Primary and every touched target carry the same fresh stamp.
	for _, id := range []string{"p1", "e2", "e3"} {
		stamped, ok := c.EntityVersion(id)
		require.True(t, ok, id)
		assert.Equal(t, c.Version(), stamped, id)
	}
	_, ok := c.EntityVersion("e9")
	assert.False(t, ok)
}

func TestCoordinator_InvalidatePatternGlobs(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		gone    []string
		kept    []string
	}{
		{
			name:    "trailing star",
			pattern: "puzzles_p1:*",
			gone:    []string{"puzzles_p1:20:", "puzzles_p1:50:cur"},
			kept:    []string{"puzzles:20:", "elements_p1:20:"},
		},
		{
			name:    "leading star",
			pattern: "*:20:",
			gone:    []string{"puzzles_p1:20:", "elements:20:"},
			kept:    []string{"puzzles_p1:50:cur"},
		},
		{
			name:    "exact",
			pattern: "graph_complete",
			gone:    []string{"graph_complete"},
			kept:    []string{"graph_complete_other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, 20)
			for _, key := range append(append([]string{}, tt.gone...), tt.kept...) {
				c.Set(key, "cached")
			}

			c.InvalidatePattern(tt.pattern)

			for _, key := range tt.gone {
				_, ok := c.Get(key)
				assert.False(t, ok, key)
			}
			for _, key := range tt.kept {
				_, ok := c.Get(key)
				assert.True(t, ok, key)
			}
		})
	}
}

func TestCoordinator_ClearAll(t *testing.T) {
	c := newCache(t, 10)
	c.Set("a", 1)
	c.InvalidateEntity(domain.KindElement, "e1")
	before := c.Version()

	c.ClearAll()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.EntityVersion("e1")
	assert.False(t, ok, "per-entity stamps reset on flush")
	assert.NotEqual(t, before, c.Version())
	assert.Zero(t, c.Stats().Entries)
}

func TestCoordinator_VersionNeverPairsWithStaleEntry(t *testing.T) {
	c := newCache(t, 10)
	key := cache.EntityKey(domain.KindElement, "e1", 20, "")
	c.Set(key, "stale")

	c.InvalidateEntity(domain.KindElement, "e1")
	fresh := c.Version()

	// Anyone who has seen the fresh token must miss on the invalidated key.
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, fresh, c.Version())
}

func TestCoordinator_EventsNewestFirst(t *testing.T) {
	c := newCache(t, 10)
	c.InvalidateEntity(domain.KindPuzzle, "p1")
	c.InvalidateGraph()

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "graph", events[0].Reason)
	assert.Equal(t, []string{"graph_complete*"}, events[0].Patterns)
	assert.Equal(t, "entity", events[1].Reason)
	assert.Equal(t, "p1", events[1].EntityID)
	assert.Equal(t, events[1].Version, func() string { v, _ := c.EntityVersion("p1"); return v }())
}

func TestCoordinator_Stats(t *testing.T) {
	c := newCache(t, 10)
	c.Set("a", 1)

	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 10, stats.MaxEntries)
	assert.NotEmpty(t, stats.Version)
}
