// Package cache implements the in-process result cache that fronts the
// upstream workspace: TTL-bounded entries, FIFO eviction by insertion time,
// glob-pattern invalidation, and the version tokens surfaced to clients so
// they can detect refreshes without comparing payloads.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
	"storygraph-backend/pkg/observability"
)

// eventHistory bounds the invalidation log kept for the stats endpoint.
const eventHistory = 128

// Related names the entities of one kind touched alongside a primary write,
// used to cascade invalidation across relation boundaries.
type Related struct {
	Kind domain.EntityKind
	IDs  []string
}

// InvalidationEvent records one invalidation for operational forensics.
type InvalidationEvent struct {
	Reason   string    `json:"reason"`
	EntityID string    `json:"entityId,omitempty"`
	Patterns []string  `json:"patterns"`
	Keys     int       `json:"keys"`
	Version  string    `json:"version"`
	At       time.Time `json:"at"`
}

// Stats is the operational snapshot served by the cache stats endpoint.
type Stats struct {
	Entries        int     `json:"entries"`
	MaxEntries     int     `json:"maxEntries"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRate        float64 `json:"hitRate"`
	Evictions      int64   `json:"evictions"`
	Invalidations  int64   `json:"invalidations"`
	Version        string  `json:"version"`
	EntityVersions int     `json:"entityVersions"`
}

type entry struct {
	key     string
	value   interface{}
	expiry  time.Time
	element *list.Element
}

// Coordinator is the process-wide cache. Values are stored as-is; callers
// own their types and must not mutate what they put in or get out.
//
// Writers are serialized; reads take only the read lock, so an expired
// entry is reported absent and left for the sweeper rather than removed
// in place.
type Coordinator struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	order      *list.List // newest insertions at the front, eviction pops the back
	maxEntries int
	defaultTTL time.Duration

	// version tokens are opaque to clients; the counter inside is only for
	// log forensics. Bumping happens under mu so no reader can observe a
	// fresh token alongside a stale entry.
	version        string
	versionSeq     uint64
	entityVersions map[string]string

	events     [eventHistory]InvalidationEvent
	eventNext  int
	eventCount int

	hits   atomic.Int64
	misses atomic.Int64

	evictions     int64
	invalidations int64

	stopCh  chan struct{}
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewCoordinator creates a cache with the given default TTL and entry bound.
func NewCoordinator(defaultTTL time.Duration, maxEntries int, metrics *observability.Collector, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}

	c := &Coordinator{
		entries:        make(map[string]*entry),
		order:          list.New(),
		maxEntries:     maxEntries,
		defaultTTL:     defaultTTL,
		entityVersions: make(map[string]string),
		stopCh:         make(chan struct{}),
		metrics:        metrics,
		logger:         logger,
	}
	c.version = c.nextVersion()
	return c
}

// Get returns the value stored under key. An entry whose TTL has elapsed
// behaves as if absent.
func (c *Coordinator) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, ok := c.entries[key]
	var value interface{}
	if ok && time.Now().Before(item.expiry) {
		value = item.value
	} else {
		ok = false
	}
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		c.metrics.CacheMiss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHit()
	return value, true
}

// Set stores value under key with the default TTL.
func (c *Coordinator) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. Overwriting an
// existing key renews its insertion position and expiry.
func (c *Coordinator) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}

	// Oldest insertion goes first when the bound is hit.
	for len(c.entries) >= c.maxEntries && c.order.Len() > 0 {
		oldest := c.order.Back()
		c.removeLocked(oldest.Value.(*entry))
		c.evictions++
		c.metrics.CacheEviction()
	}

	item := &entry{
		key:    key,
		value:  value,
		expiry: time.Now().Add(ttl),
	}
	item.element = c.order.PushFront(item)
	c.entries[key] = item
	c.metrics.SetCacheEntries(len(c.entries))
}

// InvalidateEntity removes every cached variant of one entity and every
// cached listing of its kind, bumping the global version and stamping a new
// version on the entity in the same critical section.
func (c *Coordinator) InvalidateEntity(kind domain.EntityKind, id string) {
	patterns := []string{
		EntityPattern(kind, id),
		CollectionPattern(kind),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked("entity", id, patterns, []string{id})
}

// InvalidateRelated cascades an entity invalidation across its relation
// neighborhood: the primary entity's keys, the keys of every related entity,
// both kinds' collection listings, and the assembled graph.
func (c *Coordinator) InvalidateRelated(kind domain.EntityKind, id string, related []Related) {
	patterns := []string{
		EntityPattern(kind, id),
		CollectionPattern(kind),
	}
	stamp := []string{id}

	seenKinds := map[domain.EntityKind]bool{kind: true}
	for _, rel := range related {
		for _, relID := range rel.IDs {
			patterns = append(patterns, EntityPattern(rel.Kind, relID))
			stamp = append(stamp, relID)
		}
		if !seenKinds[rel.Kind] && len(rel.IDs) > 0 {
			patterns = append(patterns, CollectionPattern(rel.Kind))
			seenKinds[rel.Kind] = true
		}
	}
	patterns = append(patterns, GraphPattern())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked("related", id, patterns, stamp)
}

// InvalidateGraph removes the cached graph entries.
func (c *Coordinator) InvalidateGraph() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked("graph", "", []string{GraphPattern()}, nil)
}

// InvalidatePattern removes every key matching one glob pattern.
func (c *Coordinator) InvalidatePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked("pattern", "", []string{pattern}, nil)
}

// ClearAll drops every entry and every per-entity version. The global
// version still moves forward so clients see the flush.
func (c *Coordinator) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*entry)
	c.order.Init()
	c.entityVersions = make(map[string]string)
	c.invalidations++
	version := c.nextVersion()
	c.pushEventLocked(InvalidationEvent{
		Reason:   "clear_all",
		Patterns: []string{"*"},
		Keys:     removed,
		Version:  version,
		At:       time.Now(),
	})
	c.metrics.CacheInvalidation("clear_all")
	c.metrics.SetCacheEntries(0)

	c.logger.Info("cache cleared", zap.Int("removed", removed))
}

// Version returns the global version token.
func (c *Coordinator) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// EntityVersion returns the version token stamped on an entity by its most
// recent invalidation, if any.
func (c *Coordinator) EntityVersion(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entityVersions[id]
	return v, ok
}

// Events returns the retained invalidation history, newest first.
func (c *Coordinator) Events() []InvalidationEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]InvalidationEvent, 0, c.eventCount)
	for i := 0; i < c.eventCount; i++ {
		idx := (c.eventNext - 1 - i + eventHistory) % eventHistory
		out = append(out, c.events[idx])
	}
	return out
}

// Stats returns an operational snapshot.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:        len(c.entries),
		MaxEntries:     c.maxEntries,
		Hits:           hits,
		Misses:         misses,
		HitRate:        hitRate,
		Evictions:      c.evictions,
		Invalidations:  c.invalidations,
		Version:        c.version,
		EntityVersions: len(c.entityVersions),
	}
}

// StartCleanup sweeps expired entries on the given interval until Stop.
func (c *Coordinator) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.removeExpired()
			}
		}
	}()
}

// Stop terminates the cleanup goroutine.
func (c *Coordinator) Stop() {
	close(c.stopCh)
}

// invalidateLocked deletes everything matching patterns, bumps the global
// version, stamps the listed entity ids, and records the event. Callers
// hold the write lock, which is what makes the version bump atomic with
// the deletions.
func (c *Coordinator) invalidateLocked(reason, primaryID string, patterns []string, stampIDs []string) {
	removed := 0
	for _, pattern := range patterns {
		removed += c.deleteMatchingLocked(pattern)
	}

	version := c.nextVersion()
	for _, id := range stampIDs {
		if id != "" {
			c.entityVersions[id] = version
		}
	}

	c.invalidations++
	c.pushEventLocked(InvalidationEvent{
		Reason:   reason,
		EntityID: primaryID,
		Patterns: patterns,
		Keys:     removed,
		Version:  version,
		At:       time.Now(),
	})
	c.metrics.CacheInvalidation(reason)
	c.metrics.SetCacheEntries(len(c.entries))

	c.logger.Debug("cache invalidated",
		zap.String("reason", reason),
		zap.Strings("patterns", patterns),
		zap.Int("removed", removed),
		zap.String("version", version),
	)
}

func (c *Coordinator) deleteMatchingLocked(pattern string) int {
	toRemove := make([]*entry, 0)
	for key, item := range c.entries {
		if matchKey(key, pattern) {
			toRemove = append(toRemove, item)
		}
	}
	for _, item := range toRemove {
		c.removeLocked(item)
	}
	return len(toRemove)
}

func (c *Coordinator) removeLocked(item *entry) {
	if item.element != nil {
		c.order.Remove(item.element)
	}
	delete(c.entries, item.key)
}

func (c *Coordinator) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	toRemove := make([]*entry, 0)
	for _, item := range c.entries {
		if now.After(item.expiry) {
			toRemove = append(toRemove, item)
		}
	}
	for _, item := range toRemove {
		c.removeLocked(item)
	}

	if len(toRemove) > 0 {
		c.metrics.SetCacheEntries(len(c.entries))
		c.logger.Debug("expired cache entries swept", zap.Int("count", len(toRemove)))
	}
}

func (c *Coordinator) nextVersion() string {
	c.versionSeq++
	return fmt.Sprintf("v%d.%d", time.Now().UnixMilli(), c.versionSeq)
}

func (c *Coordinator) pushEventLocked(ev InvalidationEvent) {
	c.events[c.eventNext] = ev
	c.eventNext = (c.eventNext + 1) % eventHistory
	if c.eventCount < eventHistory {
		c.eventCount++
	}
}
