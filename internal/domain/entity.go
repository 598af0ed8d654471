// Package domain contains the core data structures for the application,
// independent of the upstream workspace or API layers.
package domain

import "fmt"

// EntityKind identifies one of the four upstream tables.
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindElement   EntityKind = "element"
	KindPuzzle    EntityKind = "puzzle"
	KindTimeline  EntityKind = "timeline_event"
)

// Kinds lists every entity kind in canonical order. Iteration order matters
// for deterministic graph assembly, so callers range over this slice rather
// than a map.
var Kinds = []EntityKind{KindCharacter, KindElement, KindPuzzle, KindTimeline}

// Collection returns the plural collection name used in cache keys and routes.
func (k EntityKind) Collection() string {
	switch k {
	case KindCharacter:
		return "characters"
	case KindElement:
		return "elements"
	case KindPuzzle:
		return "puzzles"
	case KindTimeline:
		return "timeline"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the four known kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindCharacter, KindElement, KindPuzzle, KindTimeline:
		return true
	}
	return false
}

// ParseKind resolves a collection name or kind tag to an EntityKind.
func ParseKind(s string) (EntityKind, error) {
	switch s {
	case "character", "characters":
		return KindCharacter, nil
	case "element", "elements":
		return KindElement, nil
	case "puzzle", "puzzles":
		return KindPuzzle, nil
	case "timeline", "timeline_event", "timeline_events":
		return KindTimeline, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Entity is the behavior shared by the four domain kinds. Field accessors
// return values by canonical field key so mergers and comparators can be
// driven from the classification tables instead of per-kind special cases.
type Entity interface {
	EntityID() string
	Kind() EntityKind
	EntityName() string
	EntityLastEdited() string

	// Field returns the value stored under a canonical field key and
	// whether the key exists for this kind.
	Field(key string) (interface{}, bool)

	// SetField stores a value under a canonical field key. It reports
	// false when the key does not exist for this kind or the value has
	// the wrong type.
	SetField(key string, value interface{}) bool

	// Clone returns a deep copy. Relation slices are copied so callers
	// can mutate the clone without aliasing the original.
	Clone() Entity
}

// FileRef is one attachment on an element's files property.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFileRefs(in []FileRef) []FileRef {
	if in == nil {
		return nil
	}
	out := make([]FileRef, len(in))
	copy(out, in)
	return out
}
