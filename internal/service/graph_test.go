package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/graph"
	"storygraph-backend/internal/notion"
	"storygraph-backend/pkg/errors"
)

func seedSmallWorld(h *harness) {
	h.gw.Seed(
		h.characterPage(charID, "Alice", notion.Properties{
			"Owned Elements": notion.RelationProperty([]string{elemID}),
			"Events":         notion.RelationProperty([]string{ghostID}),
		}),
		h.elementPage(elemID, "Voice memo", nil),
		h.puzzlePage(puzzID, "Locked safe", notion.Properties{
			"Rewards": notion.RelationProperty([]string{elemID}),
		}),
		h.timelinePage(evtID, "The breakthrough", notion.Properties{
			"Characters Involved": notion.RelationProperty([]string{charID}),
		}),
	)
}

func TestCompleteGraph_MaterializesAllKinds(t *testing.T) {
	h := newHarness(t)
	seedSmallWorld(h)

	res, err := h.graphs.CompleteGraph(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, res.Graph)
	assert.False(t, res.CacheHit)
	assert.NotEmpty(t, res.Version)

	g := res.Graph
	assert.ElementsMatch(t, []string{charID, elemID, puzzID, evtID, ghostID}, nodeIDs(g))
	assert.Equal(t, 5, g.Metadata.TotalNodes)
	assert.Equal(t, 1, g.Metadata.PlaceholderNodes)

	// The dangling event reference becomes a placeholder blaming its
	// first referrer, so every edge keeps two endpoints.
	ghost, ok := findNode(g, ghostID)
	require.True(t, ok)
	assert.True(t, ghost.Data.IsPlaceholder)
	assert.Equal(t, "character:"+charID, ghost.Data.MissingFrom)
	require.Len(t, g.Metadata.MissingEntities, 1)
	assert.Equal(t, ghostID, g.Metadata.MissingEntities[0].ID)

	edges := edgeIDs(g)
	assert.Contains(t, edges, graph.EdgeID(charID, elemID, graph.EdgeOwnership))
	assert.Contains(t, edges, graph.EdgeID(puzzID, elemID, graph.EdgeReward))
	assert.Contains(t, edges, graph.EdgeID(evtID, charID, graph.EdgeTimeline))
	assert.Contains(t, edges, graph.EdgeID(charID, ghostID, graph.EdgeTimeline))

	// Synthesis unioned the involvement pair, so the character's forward
	// list also carries the event even though only the event knew.
	assert.Contains(t, edges, graph.EdgeID(charID, evtID, graph.EdgeTimeline))
}

func TestCompleteGraph_CachesUntilWrite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedSmallWorld(h)

	first, err := h.graphs.CompleteGraph(ctx, false)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := h.graphs.CompleteGraph(ctx, false)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Graph.Metadata.TotalNodes, second.Graph.Metadata.TotalNodes)

	bypass, err := h.graphs.CompleteGraph(ctx, true)
	require.NoError(t, err)
	assert.False(t, bypass.CacheHit)

	// Any entity write invalidates the cached graph.
	_, err = h.entities.Update(ctx, domain.KindElement, elemID, body(t, map[string]interface{}{
		"descriptionText": "A voicemail from the night before.",
	}), "")
	require.NoError(t, err)

	after, err := h.graphs.CompleteGraph(ctx, false)
	require.NoError(t, err)
	assert.False(t, after.CacheHit, "a write must invalidate the cached graph")
	assert.NotEqual(t, first.Version, after.Version)
}

func TestCompleteGraph_EmptyWorkspace(t *testing.T) {
	h := newHarness(t)

	res, err := h.graphs.CompleteGraph(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Graph.Nodes)
	assert.Empty(t, res.Graph.Edges)
	assert.Zero(t, res.Graph.Metadata.TotalNodes)
}

func TestCompleteGraph_UpstreamFailureSurfaces(t *testing.T) {
	h := newHarness(t)
	seedSmallWorld(h)
	h.gw.SetError("QueryDatabase", errors.NewUnavailableError("workspace api"))

	_, err := h.graphs.CompleteGraph(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))

	// The failed build must not poison the cache.
	h.gw.ClearErrors()
	res, err := h.graphs.CompleteGraph(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 5, res.Graph.Metadata.TotalNodes)
}

func TestCompleteGraph_DrainsLongCollections(t *testing.T) {
	h := newHarness(t)

	// More pages than one upstream query can return, so the build has to
	// follow pagination to the end.
	pages := make([]*notion.Page, 0, notion.MaxPageSize+20)
	for i := 0; i < notion.MaxPageSize+20; i++ {
		id := newSequentialUUID(i)
		pages = append(pages, h.elementPage(id, "Element", nil))
	}
	h.gw.Seed(pages...)

	res, err := h.graphs.CompleteGraph(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, notion.MaxPageSize+20, res.Graph.Metadata.TotalNodes)
}

// newSequentialUUID builds a deterministic uuid-shaped id for bulk seeds.
func newSequentialUUID(i int) string {
	return "00000000-0000-4000-8000-" + pad12(i)
}

func pad12(i int) string {
	const digits = "0123456789"
	buf := []byte("000000000000")
	for pos := len(buf) - 1; i > 0 && pos >= 0; pos-- {
		buf[pos] = digits[i%10]
		i /= 10
	}
	return string(buf)
}
