package transform

import (
	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
	"storygraph-backend/pkg/errors"
)

// Transformer converts upstream pages into typed domain entities. It is
// pure over its inputs: relation completion happens before pages reach it.
type Transformer struct {
	registry *Registry
	logger   *zap.Logger
}

// NewTransformer creates a transformer bound to the configured databases.
func NewTransformer(registry *Registry, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{registry: registry, logger: logger}
}

// ToEntity transforms a page, detecting its kind from the parent database.
func (t *Transformer) ToEntity(page *notion.Page) (domain.Entity, error) {
	kind, ok := t.registry.KindForPage(page)
	if !ok {
		return nil, errors.NewInternalError("page belongs to an unknown database").
			WithDetail("pageId", page.ID).
			WithDetail("databaseId", page.Parent.DatabaseID)
	}
	return t.PageToEntity(page, kind)
}

// PageToEntity transforms a page into an entity of a known kind.
func (t *Transformer) PageToEntity(page *notion.Page, kind domain.EntityKind) (domain.Entity, error) {
	if page == nil {
		return nil, errors.NewInternalError("cannot transform a nil page")
	}
	entity := domain.NewEntity(kind, domain.NormalizeID(page.ID))
	if entity == nil {
		return nil, errors.NewInternalError("unrecognized entity kind").
			WithDetail("kind", string(kind))
	}

	for _, m := range mappingsFor(kind) {
		value, ok := decodeValue(page.Properties, m)
		if !ok {
			// Present but not the shape the schema promises. Skip rather
			// than guess; the zero value stands in.
			t.logger.Debug("skipping property with unexpected type",
				zap.String("pageId", page.ID),
				zap.String("property", m.property),
				zap.String("actualType", page.Properties[m.property].Type),
			)
			continue
		}
		entity.SetField(m.field, value)
	}

	entity.SetField(domain.FieldLastEdited, page.LastEditedTime)
	t.finishEntity(entity)
	return entity, nil
}

// finishEntity fills the fields that derive from other fields rather than
// from their own property.
func (t *Transformer) finishEntity(entity domain.Entity) {
	switch e := entity.(type) {
	case *domain.Element:
		e.SFPatterns = domain.ParseSFPatterns(e.Description)
		if !e.IsContainer && len(e.ContentIDs) > 0 {
			e.IsContainer = true
		}
	case *domain.TimelineEvent:
		// Timeline rows have no separate title; the description is the name.
		e.Name = e.Description
	}
}

// PagesToEntities transforms a batch, skipping pages that fail with a log
// line rather than failing the whole batch. Archived pages are dropped.
func (t *Transformer) PagesToEntities(pages []notion.Page, kind domain.EntityKind) []domain.Entity {
	out := make([]domain.Entity, 0, len(pages))
	for i := range pages {
		page := &pages[i]
		if page.Archived {
			continue
		}
		entity, err := t.PageToEntity(page, kind)
		if err != nil {
			t.logger.Warn("failed to transform page",
				zap.String("pageId", page.ID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, entity)
	}
	return out
}
