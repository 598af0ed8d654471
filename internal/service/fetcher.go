// Package service composes the pipeline stages into the typed operations
// the HTTP layer exposes: per-kind CRUD with inverse-relation maintenance,
// graph assembly, and the write-path delta computation.
package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/errors"
)

// Fetcher is the one read path to the upstream: query or retrieve, complete
// paginated relations, transform to domain entities. Every service reads
// through it so relation completion can never be forgotten.
type Fetcher struct {
	gateway     notion.Gateway
	registry    *transform.Registry
	transformer *transform.Transformer
	logger      *zap.Logger
}

// NewFetcher creates a fetcher over the given gateway.
func NewFetcher(gateway notion.Gateway, registry *transform.Registry, transformer *transform.Transformer, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		gateway:     gateway,
		registry:    registry,
		transformer: transformer,
		logger:      logger,
	}
}

// FetchPage returns up to limit entities of one kind, querying the upstream
// repeatedly until the limit is met or the collection is exhausted. The
// returned cursor resumes after the last entity delivered.
func (f *Fetcher) FetchPage(ctx context.Context, kind domain.EntityKind, limit int, cursor string, filter json.RawMessage) ([]domain.Entity, string, bool, error) {
	databaseID := f.registry.DatabaseFor(kind)
	if databaseID == "" {
		return nil, "", false, errors.NewInternalError("no database configured for kind").
			WithDetail("kind", string(kind))
	}
	if limit <= 0 {
		limit = notion.MaxPageSize
	}

	entities := make([]domain.Entity, 0, limit)
	nextCursor := cursor
	hasMore := false

	for len(entities) < limit {
		pageSize := limit - len(entities)
		if pageSize > notion.MaxPageSize {
			pageSize = notion.MaxPageSize
		}
		result, err := f.gateway.QueryDatabase(ctx, databaseID, notion.QueryOptions{
			StartCursor: nextCursor,
			PageSize:    pageSize,
			Filter:      filter,
		})
		if err != nil {
			return nil, "", false, err
		}

		for i := range result.Pages {
			f.completeRelations(ctx, &result.Pages[i])
		}
		entities = append(entities, f.transformer.PagesToEntities(result.Pages, kind)...)

		nextCursor = result.NextCursor
		hasMore = result.HasMore
		if !result.HasMore {
			nextCursor = ""
			break
		}
	}

	return entities, nextCursor, hasMore, nil
}

// FetchAll drains one kind's collection.
func (f *Fetcher) FetchAll(ctx context.Context, kind domain.EntityKind) ([]domain.Entity, error) {
	var entities []domain.Entity
	cursor := ""
	for {
		batch, next, more, err := f.FetchPage(ctx, kind, notion.MaxPageSize, cursor, nil)
		if err != nil {
			return nil, err
		}
		entities = append(entities, batch...)
		if !more {
			return entities, nil
		}
		cursor = next
	}
}

// FetchEntity retrieves one entity by id, verifying it belongs to the
// requested kind's database. A page from another database is a not-found,
// not a mis-typed answer.
func (f *Fetcher) FetchEntity(ctx context.Context, kind domain.EntityKind, id string) (domain.Entity, error) {
	page, err := f.gateway.RetrievePage(ctx, id)
	if err != nil {
		return nil, err
	}
	// The retrieve endpoint still returns archived pages; queries do not.
	// Reads must agree, so an archived page is a not-found here too.
	if page.Archived {
		return nil, errors.NewNotFoundError(string(kind)).WithDetail("id", id)
	}
	if pageKind, ok := f.registry.KindForPage(page); !ok || pageKind != kind {
		return nil, errors.NewNotFoundError(string(kind)).WithDetail("id", id)
	}

	f.completeRelations(ctx, page)
	return f.transformer.PageToEntity(page, kind)
}

// FetchByID retrieves one entity with its kind detected from the page's
// parent database.
func (f *Fetcher) FetchByID(ctx context.Context, id string) (domain.Entity, error) {
	page, err := f.gateway.RetrievePage(ctx, id)
	if err != nil {
		return nil, err
	}
	if page.Archived {
		return nil, errors.NewNotFoundError("entity").WithDetail("id", id)
	}
	f.completeRelations(ctx, page)
	return f.transformer.ToEntity(page)
}

// completeRelations fills truncated relation lists in place. Failure keeps
// the truncated list; the read is still served, short rather than broken.
func (f *Fetcher) completeRelations(ctx context.Context, page *notion.Page) {
	if err := notion.CompleteRelations(ctx, f.gateway, page, f.logger); err != nil {
		f.logger.Warn("relation completion failed, serving truncated relations",
			zap.String("pageId", page.ID),
			zap.Error(err),
		)
	}
}
