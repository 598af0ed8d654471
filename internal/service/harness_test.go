package service_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/graph"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/notion/mocks"
	"storygraph-backend/internal/service"
	"storygraph-backend/internal/transform"
)

const (
	charID  = "11111111-1111-1111-1111-111111111111"
	charID2 = "12121212-1212-1212-1212-121212121212"
	charID3 = "13131313-1313-1313-1313-131313131313"
	elemID  = "22222222-2222-2222-2222-222222222222"
	elemID2 = "23232323-2323-2323-2323-232323232323"
	elemID3 = "24242424-2424-2424-2424-242424242424"
	puzzID  = "33333333-3333-3333-3333-333333333333"
	puzzID2 = "34343434-3434-3434-3434-343434343434"
	evtID   = "44444444-4444-4444-4444-444444444444"
	ghostID = "99999999-9999-9999-9999-999999999999"
)

// harness bundles a mock upstream with real services over it. The cache,
// registry and transformer are the production implementations; only the
// gateway is replaced.
type harness struct {
	gw       *mocks.MockGateway
	cfg      *config.Config
	cache    *cache.Coordinator
	registry *transform.Registry
	entities *service.EntityService
	graphs   *service.GraphService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		CharactersDBID: "db-characters",
		ElementsDBID:   "db-elements",
		PuzzlesDBID:    "db-puzzles",
		TimelineDBID:   "db-timeline",
		EnableCaching:  true,
	}
	gw := mocks.NewMockGateway()
	registry := transform.NewRegistry(cfg)
	coordinator := cache.NewCoordinator(5*time.Minute, 256, nil, zap.NewNop())
	t.Cleanup(coordinator.Stop)

	return &harness{
		gw:       gw,
		cfg:      cfg,
		cache:    coordinator,
		registry: registry,
		entities: service.NewEntityService(cfg, gw, registry, coordinator, nil, zap.NewNop()),
		graphs:   service.NewGraphService(cfg, gw, registry, coordinator, nil, zap.NewNop()),
	}
}

func newPage(databaseID, id string, props notion.Properties) *notion.Page {
	if props == nil {
		props = notion.Properties{}
	}
	return &notion.Page{
		Object:     "page",
		ID:         id,
		Parent:     notion.Parent{Type: "database_id", DatabaseID: databaseID},
		Properties: props,
	}
}

func (h *harness) characterPage(id, name string, props notion.Properties) *notion.Page {
	page := newPage(h.cfg.CharactersDBID, id, props)
	page.Properties["Name"] = notion.TitleProperty(name)
	return page
}

func (h *harness) elementPage(id, name string, props notion.Properties) *notion.Page {
	page := newPage(h.cfg.ElementsDBID, id, props)
	page.Properties["Name"] = notion.TitleProperty(name)
	return page
}

func (h *harness) puzzlePage(id, name string, props notion.Properties) *notion.Page {
	page := newPage(h.cfg.PuzzlesDBID, id, props)
	page.Properties["Puzzle"] = notion.TitleProperty(name)
	return page
}

func (h *harness) timelinePage(id, description string, props notion.Properties) *notion.Page {
	page := newPage(h.cfg.TimelineDBID, id, props)
	page.Properties["Description"] = notion.TitleProperty(description)
	return page
}

// body marshals a request payload the way the router hands it to the
// service: raw JSON per field.
func body(t *testing.T, kv map[string]interface{}) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = raw
	}
	return out
}

// relationIDs extracts the target ids of a stored page's relation property.
func relationIDs(t *testing.T, page *notion.Page, property string) []string {
	t.Helper()
	require.NotNil(t, page, "page must exist")
	prop, ok := page.Properties[property]
	require.True(t, ok, "property %q must exist", property)
	var ids []string
	for _, ref := range prop.Relation {
		ids = append(ids, ref.ID)
	}
	return ids
}

func nodeIDs(g *graph.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func edgeIDs(g *graph.Graph) []string {
	ids := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

func findNode(g *graph.Graph, id string) (graph.Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return graph.Node{}, false
}
