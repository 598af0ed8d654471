package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeID canonicalizes an upstream identifier to the hyphenated
// lowercase UUID form. The upstream emits both hyphenated and bare 32-hex
// ids depending on the endpoint. Values that do not parse as UUIDs are
// returned trimmed so test fixtures and future id schemes pass through.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}

// NormalizeIDs normalizes a list of identifiers in place-order.
func NormalizeIDs(raw []string) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = NormalizeID(r)
	}
	return out
}

// EqualStringMultisets compares two string slices by element frequency.
// [a,a,b] equals [a,b,a] but not [a,b,b]; duplicates are significant.
func EqualStringMultisets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}

// DiffIDSets returns the ids present in new but not old, and in old but not
// new. Inputs are treated as sets; the maintainer only cares about
// membership changes, and each id is reported once in slice order.
func DiffIDSets(old, new []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, id := range new {
		newSet[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, id := range new {
		if _, inOld := oldSet[id]; inOld {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			added = append(added, id)
		}
	}

	seen = make(map[string]struct{})
	for _, id := range old {
		if _, inNew := newSet[id]; inNew {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			removed = append(removed, id)
		}
	}
	return added, removed
}

// ContainsID reports whether ids contains id.
func ContainsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
