package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/service"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/errors"
)

func newMaintainer(h *harness) *service.Maintainer {
	transformer := transform.NewTransformer(h.registry, zap.NewNop())
	return service.NewMaintainer(h.gw, transformer, nil, zap.NewNop())
}

func character(id string, owned ...string) domain.Entity {
	c := domain.NewEntity(domain.KindCharacter, id)
	c.SetField(domain.FieldOwnedElementIDs, owned)
	return c
}

func TestMaintain_PartialFailureIsCountedNotFatal(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)
	h.gw.Seed(
		h.elementPage(elemID, "Voice memo", nil),
		h.elementPage(elemID2, "Business card", nil),
	)
	h.gw.SetPageError("RetrievePage", elemID2, errors.NewUnavailableError("workspace api"))

	summary := m.Maintain(context.Background(), character(charID), character(charID, elemID, elemID2))

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{elemID2}, summary.FailedIDs)
	assert.True(t, summary.HasFailures())
	assert.ElementsMatch(t, []string{elemID}, summary.Touched[domain.KindElement])

	// The reachable target still got its inverse write.
	assert.Equal(t, []string{charID}, relationIDs(t, h.gw.Page(elemID), "Owner"))
}

func TestMaintain_RemovalFromGonePageIsDone(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)

	// The old snapshot references an element that no longer exists.
	// Removing ourselves from nothing succeeds by definition.
	summary := m.Maintain(context.Background(), character(charID, ghostID), character(charID))

	assert.Equal(t, 1, summary.Attempted)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, h.gw.Calls("UpdatePage"))
}

func TestMaintain_AdditionToGonePageFails(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)

	summary := m.Maintain(context.Background(), character(charID), character(charID, ghostID))

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{ghostID}, summary.FailedIDs)
}

func TestMaintain_ConsistentTargetCostsNoWrite(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)
	h.gw.Seed(h.elementPage(elemID, "Voice memo", notion.Properties{
		"Owner": notion.SingleRelationProperty(charID),
	}))

	summary := m.Maintain(context.Background(), character(charID), character(charID, elemID))

	assert.Equal(t, 1, summary.Attempted)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, h.gw.Calls("UpdatePage"), "an already-consistent target needs no write")
}

func TestMaintain_SingleSlotTakesLatestWriter(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)
	h.gw.Seed(h.elementPage(elemID, "Voice memo", notion.Properties{
		"Owner": notion.SingleRelationProperty(charID2),
	}))

	summary := m.Maintain(context.Background(), character(charID), character(charID, elemID))

	require.Zero(t, summary.Failed)
	assert.Equal(t, []string{charID}, relationIDs(t, h.gw.Page(elemID), "Owner"),
		"a single-valued inverse holds the most recent writer")
}

func TestMaintain_SelfReferenceIsSkipped(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)
	h.gw.Seed(h.puzzlePage(puzzID, "Locked safe", nil))

	parent := domain.NewEntity(domain.KindPuzzle, puzzID)
	parent.SetField(domain.FieldSubPuzzleIDs, []string{puzzID})

	summary := m.Maintain(context.Background(), nil, parent)

	assert.Zero(t, summary.Attempted, "self-references have no other side to fix")
	assert.Empty(t, h.gw.Calls("UpdatePage"))
}

func TestMaintain_NilSnapshotsAreNoops(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)

	summary := m.Maintain(context.Background(), nil, nil)

	assert.Zero(t, summary.Attempted)
	assert.False(t, summary.HasFailures())
}

func TestMaintain_ArchiveRemovesFromMultiValuedInverse(t *testing.T) {
	h := newHarness(t)
	m := newMaintainer(h)
	h.gw.Seed(h.timelinePage(evtID, "The breakthrough", notion.Properties{
		"Characters Involved": notion.RelationProperty([]string{charID, charID2}),
	}))

	old := domain.NewEntity(domain.KindCharacter, charID)
	old.SetField(domain.FieldEventIDs, []string{evtID})

	summary := m.Maintain(context.Background(), old, nil)

	require.Zero(t, summary.Failed)
	assert.Equal(t, []string{charID2}, relationIDs(t, h.gw.Page(evtID), "Characters Involved"),
		"only the archived character leaves the event's roster")
}
