// Package graph materializes entity sets into the node/edge form the
// client renders, and computes the deltas between two such materializations.
package graph

import (
	"fmt"

	"storygraph-backend/internal/domain"
)

// Edge kinds. Weights are advisory hints for the client's layout.
const (
	EdgeOwnership   = "ownership"
	EdgeAssociation = "association"
	EdgePuzzle      = "puzzle"
	EdgeTimeline    = "timeline"
	EdgeRequirement = "requirement"
	EdgeReward      = "reward"
	EdgeDependency  = "dependency"
	EdgeChain       = "chain"
)

// Node is one renderable vertex. Placeholders stand in for referenced ids
// the batch could not resolve, so edges always have two endpoints.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Position is a layout seed. The pipeline does not own layout; nodes go
// out at the origin and the client arranges them.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the entity behind a node plus placeholder bookkeeping.
type NodeData struct {
	Entity        domain.Entity     `json:"entity,omitempty"`
	EntityKind    domain.EntityKind `json:"entityType"`
	IsPlaceholder bool              `json:"isPlaceholder,omitempty"`
	// MissingFrom names the first referrer, as "kind:id".
	MissingFrom string `json:"missingFrom,omitempty"`
	Version     int    `json:"version,omitempty"`
}

// Edge is one directed, typed, weighted link between two nodes.
type Edge struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Kind     string   `json:"type"`
	Animated bool     `json:"animated,omitempty"`
	Data     EdgeData `json:"data"`
}

// EdgeData is the renderable payload of an edge.
type EdgeData struct {
	Label  string `json:"label,omitempty"`
	Weight int    `json:"weight,omitempty"`
}

// EdgeID is the deterministic identifier for a (source, target, kind)
// triple. Duplicate links under the same triple collapse to one edge.
func EdgeID(source, target, kind string) string {
	return fmt.Sprintf("e-%s-%s-%s", kind, source, target)
}

// MissingEntity records one unresolved reference for diagnostics.
type MissingEntity struct {
	ID           string            `json:"id"`
	ReferencedBy string            `json:"referencedBy"`
	Type         domain.EntityKind `json:"type"`
}

// Metadata summarizes one build.
type Metadata struct {
	TotalNodes       int             `json:"totalNodes"`
	TotalEdges       int             `json:"totalEdges"`
	PlaceholderNodes int             `json:"placeholderNodes"`
	MissingEntities  []MissingEntity `json:"missingEntities"`
}

// Graph is one materialized snapshot.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// NodeChanges lists node-level differences between two snapshots. Deleted
// carries ids only; the client already holds the node being removed.
type NodeChanges struct {
	Created []Node   `json:"created"`
	Updated []Node   `json:"updated"`
	Deleted []string `json:"deleted"`
}

// EdgeChanges lists edge-level differences between two snapshots.
type EdgeChanges struct {
	Created []Edge   `json:"created"`
	Updated []Edge   `json:"updated"`
	Deleted []string `json:"deleted"`
}

// Delta describes how to patch a prior snapshot in place.
type Delta struct {
	Nodes NodeChanges `json:"nodes"`
	Edges EdgeChanges `json:"edges"`
	// FullInvalidation marks a conservative delta produced after an
	// internal failure: every surviving node and edge is in Updated and
	// the client should treat its view as entirely stale.
	FullInvalidation bool `json:"fullInvalidation,omitempty"`
}

// Empty reports whether the delta changes nothing.
func (d *Delta) Empty() bool {
	if d == nil {
		return true
	}
	return len(d.Nodes.Created) == 0 && len(d.Nodes.Updated) == 0 && len(d.Nodes.Deleted) == 0 &&
		len(d.Edges.Created) == 0 && len(d.Edges.Updated) == 0 && len(d.Edges.Deleted) == 0
}

// labelFallback is the label used when an entity has no name.
func labelFallback(kind domain.EntityKind) string {
	switch kind {
	case domain.KindCharacter:
		return "Unnamed Character"
	case domain.KindElement:
		return "Unnamed Element"
	case domain.KindPuzzle:
		return "Untitled Puzzle"
	case domain.KindTimeline:
		return "Untitled Event"
	}
	return "Unknown"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
