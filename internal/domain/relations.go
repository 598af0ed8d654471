package domain

// RelationPair is one designated pair of mutually-inverse relation fields.
// Whenever one side changes, the other side must be brought back in sync:
// the synthesizer does it in memory after reads, the maintainer does it
// upstream after writes. The upstream itself has no referential integrity.
type RelationPair struct {
	Name string

	SourceKind   EntityKind
	SourceKey    string
	SourceSingle bool

	TargetKind   EntityKind
	TargetKey    string
	TargetSingle bool
}

// RelationPairs enumerates every designated pair. Order matters only for
// determinism of synthesis and logging.
var RelationPairs = []RelationPair{
	{
		Name:       "ownership",
		SourceKind: KindCharacter, SourceKey: FieldOwnedElementIDs,
		TargetKind: KindElement, TargetKey: FieldOwnerID, TargetSingle: true,
	},
	{
		Name:       "involvement",
		SourceKind: KindCharacter, SourceKey: FieldEventIDs,
		TargetKind: KindTimeline, TargetKey: FieldCharactersInvolvedIDs,
	},
	{
		Name:       "containment",
		SourceKind: KindElement, SourceKey: FieldContainerID, SourceSingle: true,
		TargetKind: KindElement, TargetKey: FieldContentIDs,
	},
	{
		Name:       "evidence",
		SourceKind: KindElement, SourceKey: FieldTimelineEventID, SourceSingle: true,
		TargetKind: KindTimeline, TargetKey: FieldMemoryEvidenceIDs,
	},
	{
		Name:       "requirement",
		SourceKind: KindElement, SourceKey: FieldRequiredForPuzzleIDs,
		TargetKind: KindPuzzle, TargetKey: FieldPuzzleElementIDs,
	},
	{
		Name:       "reward",
		SourceKind: KindElement, SourceKey: FieldRewardedByPuzzleIDs,
		TargetKind: KindPuzzle, TargetKey: FieldRewardIDs,
	},
	{
		Name:       "sub_puzzle",
		SourceKind: KindPuzzle, SourceKey: FieldParentItemID, SourceSingle: true,
		TargetKind: KindPuzzle, TargetKey: FieldSubPuzzleIDs,
	},
}

// RelationSide is one direction of a pair as held by a concrete entity
// kind: the field on this entity plus where its inverse lives.
type RelationSide struct {
	Pair         RelationPair
	Key          string
	Single       bool
	TargetKind   EntityKind
	TargetKey    string
	TargetSingle bool
}

// SidesForKind returns every relation side an entity of the given kind
// holds across the designated pairs. Self-referential pairs (container /
// contents, parent / sub-puzzles) contribute both directions.
func SidesForKind(kind EntityKind) []RelationSide {
	var sides []RelationSide
	for _, p := range RelationPairs {
		if p.SourceKind == kind {
			sides = append(sides, RelationSide{
				Pair: p, Key: p.SourceKey, Single: p.SourceSingle,
				TargetKind: p.TargetKind, TargetKey: p.TargetKey, TargetSingle: p.TargetSingle,
			})
		}
		if p.TargetKind == kind {
			sides = append(sides, RelationSide{
				Pair: p, Key: p.TargetKey, Single: p.TargetSingle,
				TargetKind: p.SourceKind, TargetKey: p.SourceKey, TargetSingle: p.SourceSingle,
			})
		}
	}
	return sides
}

// RelationIDs reads a relation field as an id list. Single-valued fields
// yield zero or one ids.
func RelationIDs(e Entity, key string, single bool) []string {
	v, ok := e.Field(key)
	if !ok {
		return nil
	}
	if single {
		if id, ok := v.(string); ok && id != "" {
			return []string{id}
		}
		return nil
	}
	if ids, ok := v.([]string); ok {
		return ids
	}
	return nil
}

// SetRelationIDs writes an id list to a relation field. Writing more than
// one id to a single-valued field keeps the first and reports false so
// callers can warn.
func SetRelationIDs(e Entity, key string, single bool, ids []string) bool {
	if single {
		id := ""
		if len(ids) > 0 {
			id = ids[0]
		}
		return e.SetField(key, id) && len(ids) <= 1
	}
	return e.SetField(key, ids)
}
