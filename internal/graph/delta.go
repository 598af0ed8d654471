package graph

import (
	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
)

// Calculator compares two graph snapshots and produces the minimal patch.
// A wrong minimal delta is worse than a conservative "everything changed"
// signal, because the client applies deltas in place: any internal failure
// degrades to a full invalidation instead of a partial wrong answer.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a delta calculator.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// Compute diffs the old snapshot against the new one.
func (c *Calculator) Compute(oldGraph, newGraph *Graph) (delta *Delta) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("delta computation failed, returning full invalidation",
				zap.Any("panic", r),
			)
			delta = FullInvalidation(newGraph)
		}
	}()

	if newGraph == nil {
		newGraph = &Graph{}
	}
	if oldGraph == nil {
		oldGraph = &Graph{}
	}
	delta = &Delta{}

	oldNodes := make(map[string]*Node, len(oldGraph.Nodes))
	for i := range oldGraph.Nodes {
		oldNodes[oldGraph.Nodes[i].ID] = &oldGraph.Nodes[i]
	}
	newNodes := make(map[string]*Node, len(newGraph.Nodes))
	for i := range newGraph.Nodes {
		newNodes[newGraph.Nodes[i].ID] = &newGraph.Nodes[i]
	}

	for i := range newGraph.Nodes {
		node := &newGraph.Nodes[i]
		old, existed := oldNodes[node.ID]
		if !existed {
			delta.Nodes.Created = append(delta.Nodes.Created, *node)
			continue
		}
		if !c.nodesEqual(old, node) {
			delta.Nodes.Updated = append(delta.Nodes.Updated, *node)
		}
	}
	for i := range oldGraph.Nodes {
		if _, survives := newNodes[oldGraph.Nodes[i].ID]; !survives {
			delta.Nodes.Deleted = append(delta.Nodes.Deleted, oldGraph.Nodes[i].ID)
		}
	}

	oldEdges := make(map[string]*Edge, len(oldGraph.Edges))
	for i := range oldGraph.Edges {
		oldEdges[oldGraph.Edges[i].ID] = &oldGraph.Edges[i]
	}
	newEdges := make(map[string]*Edge, len(newGraph.Edges))
	for i := range newGraph.Edges {
		newEdges[newGraph.Edges[i].ID] = &newGraph.Edges[i]
	}

	deletedEdges := make(map[string]struct{})
	markDeleted := func(id string) {
		if _, dup := deletedEdges[id]; dup {
			return
		}
		deletedEdges[id] = struct{}{}
		delta.Edges.Deleted = append(delta.Edges.Deleted, id)
	}

	for i := range newGraph.Edges {
		edge := &newGraph.Edges[i]
		_, sourceAlive := newNodes[edge.Source]
		_, targetAlive := newNodes[edge.Target]
		if !sourceAlive || !targetAlive {
			// Orphan rule: an edge without both endpoints in the new node
			// set is dead no matter what the edge list says.
			markDeleted(edge.ID)
			continue
		}
		old, existed := oldEdges[edge.ID]
		if !existed {
			delta.Edges.Created = append(delta.Edges.Created, *edge)
			continue
		}
		if !edgesEqual(old, edge) {
			delta.Edges.Updated = append(delta.Edges.Updated, *edge)
		}
	}
	for i := range oldGraph.Edges {
		if _, survives := newEdges[oldGraph.Edges[i].ID]; !survives {
			markDeleted(oldGraph.Edges[i].ID)
		}
	}

	return delta
}

// FullInvalidation is the conservative fallback: every surviving node and
// edge marked updated so the client refreshes its whole view.
func FullInvalidation(g *Graph) *Delta {
	delta := &Delta{FullInvalidation: true}
	if g == nil {
		return delta
	}
	delta.Nodes.Updated = append(delta.Nodes.Updated, g.Nodes...)
	delta.Edges.Updated = append(delta.Edges.Updated, g.Edges...)
	return delta
}

// nodesEqual applies the equality ladder: structural fields, then version,
// then last-edited, then the per-kind mutable-property comparator.
func (c *Calculator) nodesEqual(a, b *Node) bool {
	if a.ID != b.ID || a.Type != b.Type || a.Label != b.Label ||
		a.Data.IsPlaceholder != b.Data.IsPlaceholder {
		return false
	}

	if a.Data.Version > 0 && b.Data.Version > 0 {
		return a.Data.Version == b.Data.Version
	}

	ae, be := a.Data.Entity, b.Data.Entity
	if ae == nil || be == nil {
		// Placeholders carry no entity; structural equality is all there is.
		return ae == nil && be == nil
	}
	if ae.EntityLastEdited() != "" && be.EntityLastEdited() != "" {
		return ae.EntityLastEdited() == be.EntityLastEdited()
	}

	return c.mutablePropertiesEqual(ae, be)
}

// mutablePropertiesEqual compares only the mutable fields of two entities.
// Derived properties are upstream rollups; comparing them manufactures
// updates out of nothing.
func (c *Calculator) mutablePropertiesEqual(a, b domain.Entity) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	keys := domain.MutableFieldKeys(a.Kind())
	if keys == nil {
		// Unknown kind: assume changed, over-update beats a missed one.
		return false
	}

	equal := true
	for _, key := range keys {
		av, aok := a.Field(key)
		bv, bok := b.Field(key)
		if aok != bok || !domain.ValuesEqual(av, bv) {
			equal = false
			c.logger.Debug("node property changed",
				zap.String("entityId", a.EntityID()),
				zap.String("kind", string(a.Kind())),
				zap.String("field", key),
			)
		}
	}
	return equal
}

func edgesEqual(a, b *Edge) bool {
	return a.ID == b.ID &&
		a.Source == b.Source &&
		a.Target == b.Target &&
		a.Kind == b.Kind &&
		a.Animated == b.Animated &&
		a.Data == b.Data
}
