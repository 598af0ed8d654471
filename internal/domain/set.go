package domain

// EntitySet groups one materialization batch by kind. The slices keep
// upstream order; graph assembly depends on it for deterministic output.
type EntitySet struct {
	Characters []*Character
	Elements   []*Element
	Puzzles    []*Puzzle
	Events     []*TimelineEvent
}

// Add appends an entity to its kind's slice. Unknown concrete types are
// ignored; the four kinds are closed.
func (s *EntitySet) Add(e Entity) {
	switch v := e.(type) {
	case *Character:
		s.Characters = append(s.Characters, v)
	case *Element:
		s.Elements = append(s.Elements, v)
	case *Puzzle:
		s.Puzzles = append(s.Puzzles, v)
	case *TimelineEvent:
		s.Events = append(s.Events, v)
	}
}

// ByKind returns one kind's entities as the Entity interface.
func (s *EntitySet) ByKind(kind EntityKind) []Entity {
	switch kind {
	case KindCharacter:
		out := make([]Entity, len(s.Characters))
		for i, e := range s.Characters {
			out[i] = e
		}
		return out
	case KindElement:
		out := make([]Entity, len(s.Elements))
		for i, e := range s.Elements {
			out[i] = e
		}
		return out
	case KindPuzzle:
		out := make([]Entity, len(s.Puzzles))
		for i, e := range s.Puzzles {
			out[i] = e
		}
		return out
	case KindTimeline:
		out := make([]Entity, len(s.Events))
		for i, e := range s.Events {
			out[i] = e
		}
		return out
	}
	return nil
}

// All returns every entity in canonical kind order.
func (s *EntitySet) All() []Entity {
	out := make([]Entity, 0, s.Len())
	for _, kind := range Kinds {
		out = append(out, s.ByKind(kind)...)
	}
	return out
}

// Len counts entities across all kinds.
func (s *EntitySet) Len() int {
	return len(s.Characters) + len(s.Elements) + len(s.Puzzles) + len(s.Events)
}

// IndexByKind builds an id lookup per kind.
func (s *EntitySet) IndexByKind() map[EntityKind]map[string]Entity {
	index := make(map[EntityKind]map[string]Entity, len(Kinds))
	for _, kind := range Kinds {
		byID := make(map[string]Entity)
		for _, e := range s.ByKind(kind) {
			byID[e.EntityID()] = e
		}
		index[kind] = byID
	}
	return index
}

// Find looks up one entity by kind and id.
func (s *EntitySet) Find(kind EntityKind, id string) (Entity, bool) {
	for _, e := range s.ByKind(kind) {
		if e.EntityID() == id {
			return e, true
		}
	}
	return nil, false
}

// Clone deep-copies the set.
func (s *EntitySet) Clone() *EntitySet {
	out := &EntitySet{}
	for _, e := range s.All() {
		out.Add(e.Clone())
	}
	return out
}
