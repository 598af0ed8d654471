package graph

import (
	"fmt"

	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
)

// Builder assembles graphs from synthesized entity sets.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a graph builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// build carries the working state of one Build call.
type build struct {
	nodes   []Node
	nodeIdx map[string]int
	edges   []Edge
	edgeIdx map[string]struct{}
	missing []MissingEntity
}

// Build materializes the set: one node per entity in canonical kind order,
// one placeholder per referenced-but-unresolved id, and the edge table
// deduplicated on (source, target, kind).
func (b *Builder) Build(set *domain.EntitySet) *Graph {
	if set == nil {
		set = &domain.EntitySet{}
	}
	st := &build{
		nodeIdx: make(map[string]int, set.Len()),
		edgeIdx: make(map[string]struct{}),
	}

	for _, entity := range set.All() {
		st.addEntityNode(entity)
	}

	for _, c := range set.Characters {
		ref := referencedBy(domain.KindCharacter, c.ID)
		for _, id := range c.OwnedElementIDs {
			st.addEdge(c.ID, id, EdgeOwnership, 10, domain.KindCharacter, domain.KindElement, ref)
		}
		for _, id := range c.AssociatedElementIDs {
			st.addEdge(c.ID, id, EdgeAssociation, 6, domain.KindCharacter, domain.KindElement, ref)
		}
		for _, id := range c.CharacterPuzzleIDs {
			st.addEdge(c.ID, id, EdgePuzzle, 7, domain.KindCharacter, domain.KindPuzzle, ref)
		}
		for _, id := range c.EventIDs {
			st.addEdge(c.ID, id, EdgeTimeline, 6, domain.KindCharacter, domain.KindTimeline, ref)
		}
	}

	for _, e := range set.Elements {
		ref := referencedBy(domain.KindElement, e.ID)
		if e.OwnerID != "" {
			// Inverted direction: the edge runs owner -> element even
			// though the element holds the reference.
			st.addEdge(e.OwnerID, e.ID, EdgeOwnership, 10, domain.KindCharacter, domain.KindElement, ref)
		}
		for _, id := range e.RequiredForPuzzleIDs {
			st.addEdge(e.ID, id, EdgeRequirement, 8, domain.KindElement, domain.KindPuzzle, ref)
		}
	}

	for _, p := range set.Puzzles {
		ref := referencedBy(domain.KindPuzzle, p.ID)
		for _, id := range p.PuzzleElementIDs {
			st.addEdge(id, p.ID, EdgeRequirement, 8, domain.KindElement, domain.KindPuzzle, ref)
		}
		for _, id := range p.RewardIDs {
			st.addEdge(p.ID, id, EdgeReward, 8, domain.KindPuzzle, domain.KindElement, ref)
		}
		if p.ParentItemID != "" {
			st.addEdge(p.ParentItemID, p.ID, EdgeDependency, 10, domain.KindPuzzle, domain.KindPuzzle, ref)
		}
		for _, id := range p.SubPuzzleIDs {
			st.addEdge(p.ID, id, EdgeChain, 15, domain.KindPuzzle, domain.KindPuzzle, ref)
		}
	}

	for i, ev := range set.Events {
		ref := referencedBy(domain.KindTimeline, ev.ID)
		if i+1 < len(set.Events) {
			st.addEdge(ev.ID, set.Events[i+1].ID, EdgeTimeline, 3, domain.KindTimeline, domain.KindTimeline, ref)
		}
		for _, id := range ev.CharactersInvolvedIDs {
			st.addEdge(ev.ID, id, EdgeTimeline, 6, domain.KindTimeline, domain.KindCharacter, ref)
		}
		for _, id := range ev.MemoryEvidenceIDs {
			st.addEdge(ev.ID, id, EdgeTimeline, 6, domain.KindTimeline, domain.KindElement, ref)
		}
	}

	if len(st.missing) > 0 {
		b.logger.Debug("graph references unresolved entities",
			zap.Int("count", len(st.missing)),
		)
	}

	return &Graph{
		Nodes: st.nodes,
		Edges: st.edges,
		Metadata: Metadata{
			TotalNodes:       len(st.nodes),
			TotalEdges:       len(st.edges),
			PlaceholderNodes: len(st.missing),
			MissingEntities:  st.missing,
		},
	}
}

func (s *build) addEntityNode(entity domain.Entity) {
	id := entity.EntityID()
	if _, exists := s.nodeIdx[id]; exists {
		return
	}
	label := entity.EntityName()
	if label == "" {
		label = labelFallback(entity.Kind())
	}
	node := Node{
		ID:    id,
		Type:  string(entity.Kind()),
		Label: label,
		Data: NodeData{
			Entity:     entity,
			EntityKind: entity.Kind(),
			Version:    entityVersion(entity),
		},
	}
	s.nodeIdx[id] = len(s.nodes)
	s.nodes = append(s.nodes, node)
}

// ensureNode resolves an edge endpoint, creating a placeholder when the id
// is not in the batch. The first referrer is recorded; later referrers of
// the same id reuse the placeholder.
func (s *build) ensureNode(id string, expected domain.EntityKind, referencedBy string) {
	if _, exists := s.nodeIdx[id]; exists {
		return
	}
	node := Node{
		ID:    id,
		Type:  string(expected),
		Label: fmt.Sprintf("Missing %s (%s)", expected, shortID(id)),
		Data: NodeData{
			EntityKind:    expected,
			IsPlaceholder: true,
			MissingFrom:   referencedBy,
		},
	}
	s.nodeIdx[id] = len(s.nodes)
	s.nodes = append(s.nodes, node)
	s.missing = append(s.missing, MissingEntity{
		ID:           id,
		ReferencedBy: referencedBy,
		Type:         expected,
	})
}

func (s *build) addEdge(source, target, kind string, weight int, sourceKind, targetKind domain.EntityKind, referencedBy string) {
	if source == "" || target == "" {
		return
	}
	id := EdgeID(source, target, kind)
	if _, dup := s.edgeIdx[id]; dup {
		return
	}
	s.ensureNode(source, sourceKind, referencedBy)
	s.ensureNode(target, targetKind, referencedBy)

	s.edgeIdx[id] = struct{}{}
	s.edges = append(s.edges, Edge{
		ID:     id,
		Source: source,
		Target: target,
		Kind:   kind,
		Data:   EdgeData{Label: kind, Weight: weight},
	})
}

func referencedBy(kind domain.EntityKind, id string) string {
	return string(kind) + ":" + id
}

func entityVersion(entity domain.Entity) int {
	switch e := entity.(type) {
	case *domain.Character:
		return e.Version
	case *domain.Element:
		return e.Version
	case *domain.Puzzle:
		return e.Version
	case *domain.TimelineEvent:
		return e.Version
	}
	return 0
}
