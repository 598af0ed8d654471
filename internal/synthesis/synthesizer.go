// Package synthesis restores bidirectional consistency across relation
// fields. The upstream stores each side of a relation independently and
// offers no referential integrity, so a freshly transformed batch can carry
// asymmetric data: a puzzle listing an element that does not list the
// puzzle back. Synthesis closes those gaps in memory before the graph is
// assembled.
package synthesis

import "storygraph-backend/internal/domain"

// Synthesize populates every designated inverse relation in place: for each
// pair, the forward pass mirrors source ids into targets, the reverse pass
// mirrors target ids back into sources. Ids pointing outside the set are
// left for the graph builder's placeholder handling. The operation is
// idempotent; duplicates are suppressed and occupied single-valued sides
// are never overwritten.
func Synthesize(set *domain.EntitySet) *domain.EntitySet {
	if set == nil {
		return nil
	}
	index := set.IndexByKind()

	for _, pair := range domain.RelationPairs {
		targets := index[pair.TargetKind]
		for _, src := range set.ByKind(pair.SourceKind) {
			for _, targetID := range domain.RelationIDs(src, pair.SourceKey, pair.SourceSingle) {
				target, ok := targets[targetID]
				if !ok {
					continue
				}
				ensureContains(target, pair.TargetKey, pair.TargetSingle, src.EntityID())
			}
		}

		sources := index[pair.SourceKind]
		for _, tgt := range set.ByKind(pair.TargetKind) {
			for _, sourceID := range domain.RelationIDs(tgt, pair.TargetKey, pair.TargetSingle) {
				source, ok := sources[sourceID]
				if !ok {
					continue
				}
				ensureContains(source, pair.SourceKey, pair.SourceSingle, tgt.EntityID())
			}
		}
	}
	return set
}

// ensureContains adds id to a relation field unless it is already present.
// A single-valued field that already points elsewhere keeps its value: the
// entity's own data wins over a mirror.
func ensureContains(e domain.Entity, key string, single bool, id string) {
	current := domain.RelationIDs(e, key, single)
	if domain.ContainsID(current, id) {
		return
	}
	if single {
		if len(current) > 0 {
			return
		}
		e.SetField(key, id)
		return
	}
	e.SetField(key, append(current, id))
}
