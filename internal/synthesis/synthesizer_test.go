package synthesis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/synthesis"
)

const (
	charID    = "11111111-1111-1111-1111-111111111111"
	elemID1   = "22222222-2222-2222-2222-222222222221"
	elemID2   = "22222222-2222-2222-2222-222222222222"
	puzzleID1 = "33333333-3333-3333-3333-333333333331"
	puzzleID2 = "33333333-3333-3333-3333-333333333332"
	eventID1  = "44444444-4444-4444-4444-444444444441"
)

// assertInverseConsistent checks that for every directed relation A.r -> B
// with B present in the set, the designated inverse on B contains A.
func assertInverseConsistent(t *testing.T, set *domain.EntitySet) {
	t.Helper()
	index := set.IndexByKind()
	for _, pair := range domain.RelationPairs {
		for _, src := range set.ByKind(pair.SourceKind) {
			for _, targetID := range domain.RelationIDs(src, pair.SourceKey, pair.SourceSingle) {
				target, ok := index[pair.TargetKind][targetID]
				if !ok {
					continue
				}
				inverse := domain.RelationIDs(target, pair.TargetKey, pair.TargetSingle)
				assert.Contains(t, inverse, src.EntityID(),
					"pair %s: %s -> %s lacks the inverse", pair.Name, src.EntityID(), targetID)
			}
		}
		for _, tgt := range set.ByKind(pair.TargetKind) {
			for _, sourceID := range domain.RelationIDs(tgt, pair.TargetKey, pair.TargetSingle) {
				source, ok := index[pair.SourceKind][sourceID]
				if !ok {
					continue
				}
				forward := domain.RelationIDs(source, pair.SourceKey, pair.SourceSingle)
				assert.Contains(t, forward, tgt.EntityID(),
					"pair %s: inverse %s -> %s lacks the forward link", pair.Name, tgt.EntityID(), sourceID)
			}
		}
	}
}

func TestSynthesize_PuzzleRelationsMirroredOntoElements(t *testing.T) {
	set := &domain.EntitySet{
		Puzzles: []*domain.Puzzle{
			{ID: puzzleID1, PuzzleElementIDs: []string{elemID1}, RewardIDs: []string{elemID2}},
		},
		Elements: []*domain.Element{
			{ID: elemID1},
			{ID: elemID2},
		},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, []string{puzzleID1}, set.Elements[0].RequiredForPuzzleIDs)
	assert.Equal(t, []string{puzzleID1}, set.Elements[1].RewardedByPuzzleIDs)
	assertInverseConsistent(t, set)
}

func TestSynthesize_IsIdempotent(t *testing.T) {
	set := &domain.EntitySet{
		Characters: []*domain.Character{
			{ID: charID, OwnedElementIDs: []string{elemID1}, EventIDs: []string{eventID1}},
		},
		Elements: []*domain.Element{
			{ID: elemID1, ContainerID: elemID2},
			{ID: elemID2},
		},
		Puzzles: []*domain.Puzzle{
			{ID: puzzleID1, SubPuzzleIDs: []string{puzzleID2}},
			{ID: puzzleID2},
		},
		Events: []*domain.TimelineEvent{
			{ID: eventID1, MemoryEvidenceIDs: []string{elemID1}},
		},
	}

	synthesis.Synthesize(set)
	once := set.Clone()

	synthesis.Synthesize(set)
	assert.Equal(t, once, set, "a second pass must change nothing")
	assertInverseConsistent(t, set)
}

func TestSynthesize_ReversePassFillsEmptyForwardSide(t *testing.T) {
	// Only the element knows its owner; the character's list is empty.
	set := &domain.EntitySet{
		Characters: []*domain.Character{{ID: charID}},
		Elements:   []*domain.Element{{ID: elemID1, OwnerID: charID}},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, []string{elemID1}, set.Characters[0].OwnedElementIDs)
}

func TestSynthesize_SelfReferentialContainment(t *testing.T) {
	set := &domain.EntitySet{
		Elements: []*domain.Element{
			{ID: elemID1, ContentIDs: []string{elemID2}},
			{ID: elemID2},
		},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, elemID1, set.Elements[1].ContainerID)
	assertInverseConsistent(t, set)
}

func TestSynthesize_SubPuzzleChain(t *testing.T) {
	set := &domain.EntitySet{
		Puzzles: []*domain.Puzzle{
			{ID: puzzleID1},
			{ID: puzzleID2, ParentItemID: puzzleID1},
		},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, []string{puzzleID2}, set.Puzzles[0].SubPuzzleIDs)
}

func TestSynthesize_OccupiedSingleSideIsNotOverwritten(t *testing.T) {
	// Two characters claim the same element; the element already points at
	// the second. Its own value wins.
	set := &domain.EntitySet{
		Characters: []*domain.Character{
			{ID: charID, OwnedElementIDs: []string{elemID1}},
		},
		Elements: []*domain.Element{
			{ID: elemID1, OwnerID: "99999999-9999-9999-9999-999999999999"},
		},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, "99999999-9999-9999-9999-999999999999", set.Elements[0].OwnerID)
}

func TestSynthesize_DanglingReferencesLeftAlone(t *testing.T) {
	set := &domain.EntitySet{
		Characters: []*domain.Character{
			{ID: charID, OwnedElementIDs: []string{elemID1}},
		},
	}

	synthesis.Synthesize(set)

	// Nothing to mirror onto; the id stays for placeholder handling.
	assert.Equal(t, []string{elemID1}, set.Characters[0].OwnedElementIDs)
	require.Empty(t, set.Elements)
}

func TestSynthesize_DuplicatesSuppressed(t *testing.T) {
	set := &domain.EntitySet{
		Characters: []*domain.Character{
			{ID: charID, EventIDs: []string{eventID1}},
		},
		Events: []*domain.TimelineEvent{
			{ID: eventID1, CharactersInvolvedIDs: []string{charID}},
		},
	}

	synthesis.Synthesize(set)

	assert.Equal(t, []string{eventID1}, set.Characters[0].EventIDs)
	assert.Equal(t, []string{charID}, set.Events[0].CharactersInvolvedIDs)
}
