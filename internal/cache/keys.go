package cache

import (
	"fmt"
	"sort"
	"strings"

	"storygraph-backend/internal/domain"
)

// Cache key formats are data, not convention. Every key and every glob used
// to invalidate keys is built here; call sites never concatenate the parts
// themselves, so the formats and the patterns cannot drift apart.

// GraphKey caches the fully assembled graph. There is exactly one.
const GraphKey = "graph_complete"

// graphPattern matches GraphKey and any future graph variants.
const graphPattern = "graph_complete*"

// CollectionKey identifies a paginated listing of one kind. Filter params
// are folded in sorted order so the same filter set always yields the same
// key regardless of how the query string was spelled.
func CollectionKey(kind domain.EntityKind, limit int, cursor string, filters map[string]string) string {
	key := fmt.Sprintf("%s:%d:%s", kind.Collection(), limit, cursor)
	if fp := filterFingerprint(filters); fp != "" {
		key += ":" + fp
	}
	return key
}

// EntityKey identifies a single entity fetched with the given pagination
// context. The underscore separator keeps entity keys out of the collection
// pattern's match set.
func EntityKey(kind domain.EntityKind, id string, limit int, cursor string) string {
	return fmt.Sprintf("%s_%s:%d:%s", kind.Collection(), id, limit, cursor)
}

// EntityPattern matches every cached variant of one entity.
func EntityPattern(kind domain.EntityKind, id string) string {
	return fmt.Sprintf("%s_%s:*", kind.Collection(), id)
}

// CollectionPattern matches every cached listing of one kind. It does not
// match entity keys: "puzzles:*" never matches "puzzles_<id>:...".
func CollectionPattern(kind domain.EntityKind) string {
	return kind.Collection() + ":*"
}

// GraphPattern matches the cached graph entries.
func GraphPattern() string {
	return graphPattern
}

func filterFingerprint(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+filters[name])
	}
	return strings.Join(pairs, "&")
}

// matchKey implements the invalidation glob language: a bare "*" matches
// everything, a leading "*" anchors a suffix, a trailing "*" anchors a
// prefix, and anything else must match exactly.
func matchKey(key, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(key, pattern[1:])
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, pattern[:len(pattern)-1])
	}
	return key == pattern
}
