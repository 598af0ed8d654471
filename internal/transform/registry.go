package transform

import (
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
)

// Registry resolves entity kinds from the configured database ids. Kind
// detection is id-based: a page's parent database decides what it is,
// regardless of which properties it happens to carry.
type Registry struct {
	byDatabase map[string]domain.EntityKind
	databases  map[domain.EntityKind]string
}

// NewRegistry builds the registry from configuration.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		byDatabase: make(map[string]domain.EntityKind, len(domain.Kinds)),
		databases:  make(map[domain.EntityKind]string, len(domain.Kinds)),
	}
	for i, id := range cfg.DatabaseIDs() {
		kind := domain.Kinds[i]
		normalized := domain.NormalizeID(id)
		r.byDatabase[normalized] = kind
		r.databases[kind] = normalized
	}
	return r
}

// DatabaseFor returns the configured database id for a kind.
func (r *Registry) DatabaseFor(kind domain.EntityKind) string {
	return r.databases[kind]
}

// KindForDatabase resolves a database id to its entity kind.
func (r *Registry) KindForDatabase(databaseID string) (domain.EntityKind, bool) {
	kind, ok := r.byDatabase[domain.NormalizeID(databaseID)]
	return kind, ok
}

// KindForPage resolves a page's kind from its parent database.
func (r *Registry) KindForPage(page *notion.Page) (domain.EntityKind, bool) {
	if page == nil || page.Parent.DatabaseID == "" {
		return "", false
	}
	return r.KindForDatabase(page.Parent.DatabaseID)
}
