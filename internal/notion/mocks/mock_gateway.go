// Package mocks provides an in-memory mock of the upstream gateway for
// testing services without a live workspace API.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storygraph-backend/internal/notion"
	appErrors "storygraph-backend/pkg/errors"

	"github.com/google/uuid"
)

// Call records one write-side gateway invocation for assertions.
type Call struct {
	Method     string
	PageID     string
	DatabaseID string
	Properties notion.Properties
}

// MockGateway implements notion.Gateway over an in-memory page store.
//
// Pages keep insertion order per database so query pagination is
// deterministic. Archived pages stay retrievable with Archived set, the
// way the upstream behaves, but disappear from queries.
type MockGateway struct {
	mu sync.RWMutex

	pages map[string]*notion.Page // pageID -> page
	order map[string][]string     // databaseID -> pageIDs in insertion order

	// fullRelations backs truncated relation properties: the page carries
	// a prefix with HasMore set, the property-item endpoint serves the
	// whole list from here.
	fullRelations map[string]map[string][]notion.RelationRef // pageID -> propertyID -> refs

	// PartialUpdateEcho makes UpdatePage answer with only the written
	// properties, mimicking upstream responses that omit everything the
	// caller never mentioned.
	PartialUpdateEcho bool

	// PropertyPageSize caps property-item pages; zero serves the whole
	// list in one page.
	PropertyPageSize int

	// For testing error scenarios
	shouldFailOn map[string]error
	failOnPage   map[string]error // "method:pageID" -> error

	calls   []Call
	edits   int // monotonic clock for last_edited_time stamps
	created int
}

// NewMockGateway creates an empty mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		pages:         make(map[string]*notion.Page),
		order:         make(map[string][]string),
		fullRelations: make(map[string]map[string][]notion.RelationRef),
		shouldFailOn:  make(map[string]error),
		failOnPage:    make(map[string]error),
	}
}

// SetError configures the mock to fail a method with the given error.
func (m *MockGateway) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// SetPageError configures the mock to fail a method only for one page id.
func (m *MockGateway) SetPageError(method, pageID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnPage[method+":"+pageID] = err
}

// ClearErrors removes all configured errors.
func (m *MockGateway) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
	m.failOnPage = make(map[string]error)
}

func (m *MockGateway) checkError(method, pageID string) error {
	if err, ok := m.failOnPage[method+":"+pageID]; ok {
		return err
	}
	if err, ok := m.shouldFailOn[method]; ok {
		return err
	}
	return nil
}

// Seed stores pages, preserving call order within each database.
func (m *MockGateway) Seed(pages ...*notion.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pages {
		cp := clonePage(p)
		if cp.LastEditedTime == "" {
			cp.LastEditedTime = m.nextEditStamp()
		}
		if _, exists := m.pages[cp.ID]; !exists {
			db := cp.Parent.DatabaseID
			m.order[db] = append(m.order[db], cp.ID)
		}
		m.pages[cp.ID] = cp
	}
}

// SeedTruncatedRelation turns one relation property into a truncated one:
// the page keeps the first visible refs with HasMore set and the
// property-item endpoint serves the full list.
func (m *MockGateway) SeedTruncatedRelation(pageID, propName string, ids []string, visible int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[pageID]
	if !ok {
		return
	}
	prop := page.Properties[propName]
	if prop.ID == "" {
		prop.ID = "prop_" + propName
	}
	prop.Type = notion.TypeRelation

	refs := make([]notion.RelationRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, notion.RelationRef{ID: id})
	}
	if visible > len(refs) {
		visible = len(refs)
	}
	prop.Relation = append([]notion.RelationRef{}, refs[:visible]...)
	prop.HasMore = true
	page.Properties[propName] = prop

	if m.fullRelations[pageID] == nil {
		m.fullRelations[pageID] = make(map[string][]notion.RelationRef)
	}
	m.fullRelations[pageID][prop.ID] = refs
}

// Page returns a snapshot of a stored page for assertions, nil if absent.
func (m *MockGateway) Page(id string) *notion.Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok {
		return nil
	}
	return clonePage(p)
}

// Calls returns the recorded write calls for one method, all when method
// is empty.
func (m *MockGateway) Calls(method string) []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Call
	for _, c := range m.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the recorded call log, keeping the stored pages.
func (m *MockGateway) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// QueryDatabase lists a database's unarchived pages in insertion order.
// The cursor is the id of the first page to serve.
func (m *MockGateway) QueryDatabase(ctx context.Context, databaseID string, opts notion.QueryOptions) (*notion.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("QueryDatabase", databaseID); err != nil {
		return nil, err
	}

	size := opts.PageSize
	if size <= 0 || size > notion.MaxPageSize {
		size = notion.MaxPageSize
	}

	var live []*notion.Page
	for _, id := range m.order[databaseID] {
		if p := m.pages[id]; p != nil && !p.Archived {
			live = append(live, p)
		}
	}

	start := 0
	if opts.StartCursor != "" {
		start = len(live)
		for i, p := range live {
			if p.ID == opts.StartCursor {
				start = i
				break
			}
		}
	}

	result := &notion.QueryResult{}
	for i := start; i < len(live) && len(result.Pages) < size; i++ {
		result.Pages = append(result.Pages, *clonePage(live[i]))
	}
	if next := start + len(result.Pages); next < len(live) {
		result.HasMore = true
		result.NextCursor = live[next].ID
	}
	return result, nil
}

// RetrievePage returns a stored page, archived or not. Unknown ids fail
// with a not-found error the way the upstream answers 404.
func (m *MockGateway) RetrievePage(ctx context.Context, pageID string) (*notion.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("RetrievePage", pageID); err != nil {
		return nil, err
	}
	page, ok := m.pages[pageID]
	if !ok {
		return nil, appErrors.NewNotFoundError("page").WithDetail("id", pageID)
	}
	return clonePage(page), nil
}

// RetrievePropertyPage serves one page of a truncated relation's full list.
// The cursor is the index of the first item to serve, in decimal.
func (m *MockGateway) RetrievePropertyPage(ctx context.Context, pageID, propertyID, cursor string) (*notion.PropertyPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("RetrievePropertyPage", pageID); err != nil {
		return nil, err
	}
	refs, ok := m.fullRelations[pageID][propertyID]
	if !ok {
		return nil, appErrors.NewNotFoundError("property").WithDetail("id", propertyID)
	}

	start := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "%d", &start); err != nil || start < 0 {
			return nil, appErrors.NewValidationError("malformed cursor").WithDetail("cursor", cursor)
		}
	}
	end := len(refs)
	if m.PropertyPageSize > 0 && start+m.PropertyPageSize < end {
		end = start + m.PropertyPageSize
	}
	if start > len(refs) {
		start = len(refs)
	}

	out := &notion.PropertyPage{}
	for i := start; i < end; i++ {
		ref := refs[i]
		out.Results = append(out.Results, notion.PropertyItem{
			Object:   "property_item",
			Type:     notion.TypeRelation,
			Relation: &notion.RelationRef{ID: ref.ID},
		})
	}
	if end < len(refs) {
		out.HasMore = true
		out.NextCursor = fmt.Sprintf("%d", end)
	}
	return out, nil
}

// UpdatePage applies the given properties onto a stored page. The response
// echoes the full page, or only the written properties when
// PartialUpdateEcho is set.
func (m *MockGateway) UpdatePage(ctx context.Context, pageID string, props notion.Properties) (*notion.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("UpdatePage", pageID); err != nil {
		return nil, err
	}
	page, ok := m.pages[pageID]
	if !ok {
		return nil, appErrors.NewNotFoundError("page").WithDetail("id", pageID)
	}

	for name, prop := range props {
		stored := page.Properties[name]
		if prop.ID == "" {
			prop.ID = stored.ID
		}
		page.Properties[name] = prop
		delete(m.fullRelations[pageID], stored.ID)
	}
	page.LastEditedTime = m.nextEditStamp()
	m.calls = append(m.calls, Call{Method: "UpdatePage", PageID: pageID, Properties: cloneProperties(props)})

	if m.PartialUpdateEcho {
		echo := &notion.Page{
			Object:         page.Object,
			ID:             page.ID,
			Parent:         page.Parent,
			LastEditedTime: page.LastEditedTime,
			Properties:     make(notion.Properties, len(props)),
		}
		for name := range props {
			echo.Properties[name] = page.Properties[name]
		}
		return echo, nil
	}
	return clonePage(page), nil
}

// CreatePage stores a new page in the given database and returns it.
func (m *MockGateway) CreatePage(ctx context.Context, databaseID string, props notion.Properties) (*notion.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("CreatePage", databaseID); err != nil {
		return nil, err
	}

	m.created++
	page := &notion.Page{
		Object:         "page",
		ID:             uuid.New().String(),
		Parent:         notion.Parent{Type: "database_id", DatabaseID: databaseID},
		Properties:     cloneProperties(props),
		LastEditedTime: m.nextEditStamp(),
	}
	m.pages[page.ID] = page
	m.order[databaseID] = append(m.order[databaseID], page.ID)
	m.calls = append(m.calls, Call{Method: "CreatePage", PageID: page.ID, DatabaseID: databaseID, Properties: cloneProperties(props)})
	return clonePage(page), nil
}

// ArchivePage flags a stored page archived.
func (m *MockGateway) ArchivePage(ctx context.Context, pageID string) (*notion.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("ArchivePage", pageID); err != nil {
		return nil, err
	}
	page, ok := m.pages[pageID]
	if !ok {
		return nil, appErrors.NewNotFoundError("page").WithDetail("id", pageID)
	}
	page.Archived = true
	page.LastEditedTime = m.nextEditStamp()
	m.calls = append(m.calls, Call{Method: "ArchivePage", PageID: pageID})
	return clonePage(page), nil
}

// nextEditStamp returns a strictly increasing RFC3339 timestamp. Callers
// hold the write lock.
func (m *MockGateway) nextEditStamp() string {
	m.edits++
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(m.edits) * time.Second).Format(time.RFC3339)
}

func clonePage(p *notion.Page) *notion.Page {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Properties = cloneProperties(p.Properties)
	return &cp
}

func cloneProperties(props notion.Properties) notion.Properties {
	out := make(notion.Properties, len(props))
	for name, prop := range props {
		cp := prop
		cp.Title = append([]notion.RichText(nil), prop.Title...)
		cp.RichText = append([]notion.RichText(nil), prop.RichText...)
		cp.MultiSelect = append([]notion.SelectOption(nil), prop.MultiSelect...)
		cp.Relation = append([]notion.RelationRef(nil), prop.Relation...)
		cp.Files = append([]notion.File(nil), prop.Files...)
		out[name] = cp
	}
	return out
}
