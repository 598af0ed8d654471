package service

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/graph"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
	"storygraph-backend/pkg/observability"
	"storygraph-backend/pkg/utils"
)

// DefaultListLimit applies when a listing request names no limit.
const DefaultListLimit = 20

// ListParams are the inputs of one listing request.
type ListParams struct {
	Limit       int
	Cursor      string
	Filter      string // opaque upstream filter, forwarded verbatim
	BypassCache bool
}

// ListResult is one page of a collection plus the header metadata the
// framing layer advertises.
type ListResult struct {
	Data       []domain.Entity `json:"data"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`

	CacheHit bool   `json:"-"`
	Version  string `json:"-"`
}

// EntityResult is one entity plus its version stamps.
type EntityResult struct {
	Entity        domain.Entity
	CacheHit      bool
	Version       string
	EntityVersion string
}

// ParentRelation is the optional create hint linking a new entity into a
// parent's relation field in the same operation.
type ParentRelation struct {
	ParentKind string `json:"parentKind" validate:"required"`
	ParentID   string `json:"parentId" validate:"required,uuid"`
	FieldKey   string `json:"fieldKey" validate:"required"`
}

// MutationResult is the outcome of a create, update, or archive.
type MutationResult struct {
	Entity               domain.Entity
	Delta                *graph.Delta
	Warnings             []api.Warning
	FailedInverseUpdates int
	Version              string
}

// EntityService exposes the per-kind CRUD contract. All four kinds share
// one implementation; the classification and mapping tables carry every
// per-kind difference.
type EntityService struct {
	cfg         *config.Config
	gateway     notion.Gateway
	registry    *transform.Registry
	transformer *transform.Transformer
	fetcher     *Fetcher
	maintainer  *Maintainer
	capturer    *Capturer
	deltas      *graph.Calculator
	cache       *cache.Coordinator
	metrics     *observability.Collector
	logger      *zap.Logger
}

// NewEntityService wires the pipeline stages behind the CRUD surface.
func NewEntityService(cfg *config.Config, gateway notion.Gateway, registry *transform.Registry, coordinator *cache.Coordinator, metrics *observability.Collector, logger *zap.Logger) *EntityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	transformer := transform.NewTransformer(registry, logger)
	fetcher := NewFetcher(gateway, registry, transformer, logger)
	return &EntityService{
		cfg:         cfg,
		gateway:     gateway,
		registry:    registry,
		transformer: transformer,
		fetcher:     fetcher,
		maintainer:  NewMaintainer(gateway, transformer, metrics, logger),
		capturer:    NewCapturer(fetcher, graph.NewBuilder(logger), logger),
		deltas:      graph.NewCalculator(logger),
		cache:       coordinator,
		metrics:     metrics,
		logger:      logger,
	}
}

// List returns one page of a kind's collection.
func (s *EntityService) List(ctx context.Context, kind domain.EntityKind, params ListParams) (*ListResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > notion.MaxPageSize {
		limit = notion.MaxPageSize
	}

	key := cache.CollectionKey(kind, limit, params.Cursor, filterParams(params.Filter))
	if s.cacheEnabled() && !params.BypassCache {
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.(*ListResult); ok {
				hit := *cached
				hit.CacheHit = true
				hit.Version = s.cacheVersion()
				return &hit, nil
			}
		}
	}

	var filter json.RawMessage
	if params.Filter != "" {
		filter = json.RawMessage(params.Filter)
	}
	entities, nextCursor, hasMore, err := s.fetcher.FetchPage(ctx, kind, limit, params.Cursor, filter)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Data: entities, NextCursor: nextCursor, HasMore: hasMore}
	if s.cacheEnabled() {
		s.cache.Set(key, result)
	}

	out := *result
	out.Version = s.cacheVersion()
	return &out, nil
}

// Get returns one entity by id.
func (s *EntityService) Get(ctx context.Context, kind domain.EntityKind, id string, bypassCache bool) (*EntityResult, error) {
	key := cache.EntityKey(kind, id, 1, "")
	if s.cacheEnabled() && !bypassCache {
		if v, ok := s.cache.Get(key); ok {
			if entity, ok := v.(domain.Entity); ok {
				return s.entityResult(entity, true), nil
			}
		}
	}

	entity, err := s.fetcher.FetchEntity(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if s.cacheEnabled() {
		s.cache.Set(key, entity)
	}
	return s.entityResult(entity, false), nil
}

// Create writes a new entity upstream. With a parent-relation hint the new
// id is also appended to the parent's relation field; if that second write
// fails the created page is archived again and the error surfaces. This is
// the only synthetic rollback in the write paths.
func (s *EntityService) Create(ctx context.Context, kind domain.EntityKind, body map[string]json.RawMessage) (*MutationResult, error) {
	partial, fields, readOnly, err := transform.DecodePartial(kind, body)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.NewValidationError("request carries no writable fields")
	}
	parentRel, err := parseParentRelation(body)
	if err != nil {
		return nil, err
	}

	props := transform.EncodeForCreate(partial)
	page, err := s.gateway.CreatePage(ctx, s.registry.DatabaseFor(kind), props)
	if err != nil {
		return nil, err
	}
	s.fetcher.completeRelations(ctx, page)
	created, err := s.transformer.PageToEntity(page, kind)
	if err != nil {
		return nil, errors.Wrap(err, "decoding created page")
	}

	var extra []cache.Related
	if parentRel != nil {
		if err := s.linkParent(ctx, created.EntityID(), parentRel); err != nil {
			s.rollbackCreate(ctx, created.EntityID())
			return nil, err
		}
		parentKind, _ := domain.ParseKind(parentRel.ParentKind)
		extra = append(extra, cache.Related{Kind: parentKind, IDs: []string{parentRel.ParentID}})
	}

	summary := s.maintainer.Maintain(ctx, nil, created)
	s.invalidateAfterWrite(kind, created.EntityID(), extra, summary)

	s.logger.Info("entity created",
		zap.String("kind", string(kind)),
		zap.String("id", created.EntityID()),
		zap.Int("inverseFailed", summary.Failed),
	)

	return &MutationResult{
		Entity:               created,
		Warnings:             readOnlyWarnings(readOnly),
		FailedInverseUpdates: summary.Failed,
		Version:              s.cacheVersion(),
	}, nil
}

// Update applies a partial edit to one entity: capture the neighborhood,
// write upstream, merge the response onto the pre-update snapshot, push
// inverse-relation changes, then diff the neighborhood again for the delta.
func (s *EntityService) Update(ctx context.Context, kind domain.EntityKind, id string, body map[string]json.RawMessage, ifVersion string) (*MutationResult, error) {
	current, err := s.fetcher.FetchEntity(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if ifVersion != "" && s.cache != nil {
		if stored, ok := s.cache.EntityVersion(id); ok && stored != ifVersion {
			return nil, errors.NewConflictError("entity changed since it was read").
				WithDetail("expected", ifVersion).
				WithDetail("actual", stored)
		}
	}

	partial, fields, readOnly, err := transform.DecodePartial(kind, body)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.NewValidationError("request carries no writable fields")
	}

	before, beforeErr := s.capturer.NeighborhoodOf(ctx, current)
	if beforeErr != nil {
		s.logger.Warn("before-capture failed, delta degrades to full invalidation",
			zap.String("id", id),
			zap.Error(beforeErr),
		)
	}

	props, _ := transform.EncodeProperties(partial, fields)
	if len(props) == 0 {
		return nil, errors.NewValidationError("no encodable fields in request")
	}
	page, err := s.gateway.UpdatePage(ctx, id, props)
	if err != nil {
		return nil, err
	}
	s.fetcher.completeRelations(ctx, page)
	decoded, err := s.transformer.PageToEntity(page, kind)
	if err != nil {
		return nil, errors.Wrap(err, "decoding update response")
	}

	merged, restored := transform.Merge(current, decoded, fields)

	summary := s.maintainer.Maintain(ctx, current, merged)
	s.invalidateAfterWrite(kind, id, nil, summary)

	warnings := append(readOnlyWarnings(readOnly), restoredWarnings(restored)...)
	delta := s.computeDelta(ctx, before, beforeErr, merged, &warnings)

	return &MutationResult{
		Entity:               merged,
		Delta:                delta,
		Warnings:             warnings,
		FailedInverseUpdates: summary.Failed,
		Version:              s.cacheVersion(),
	}, nil
}

// Archive removes one entity from every subsequent read: archive upstream,
// strip its id from every inverse side, report the graph shrinkage.
func (s *EntityService) Archive(ctx context.Context, kind domain.EntityKind, id string) (*MutationResult, error) {
	current, err := s.fetcher.FetchEntity(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	before, beforeErr := s.capturer.NeighborhoodOf(ctx, current)
	if beforeErr != nil {
		s.logger.Warn("before-capture failed, delta degrades to full invalidation",
			zap.String("id", id),
			zap.Error(beforeErr),
		)
	}

	if _, err := s.gateway.ArchivePage(ctx, id); err != nil {
		return nil, err
	}

	summary := s.maintainer.Maintain(ctx, current, nil)
	s.invalidateAfterWrite(kind, id, nil, summary)

	var warnings []api.Warning
	delta := s.computeDelta(ctx, before, beforeErr, current, &warnings)

	s.logger.Info("entity archived",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.Int("inverseFailed", summary.Failed),
	)

	return &MutationResult{
		Delta:                delta,
		Warnings:             warnings,
		FailedInverseUpdates: summary.Failed,
		Version:              s.cacheVersion(),
	}, nil
}

func (s *EntityService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.EnableCaching
}

func (s *EntityService) cacheVersion() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Version()
}

func (s *EntityService) entityResult(entity domain.Entity, hit bool) *EntityResult {
	res := &EntityResult{Entity: entity, CacheHit: hit, Version: s.cacheVersion()}
	if s.cache != nil {
		if v, ok := s.cache.EntityVersion(entity.EntityID()); ok {
			res.EntityVersion = v
		}
	}
	return res
}

// linkParent appends the created id to the parent's relation field, a
// read-modify-write of a single property.
func (s *EntityService) linkParent(ctx context.Context, createdID string, rel *ParentRelation) error {
	parentKind, err := domain.ParseKind(rel.ParentKind)
	if err != nil {
		return errors.NewValidationError("unknown parent kind").WithDetail("parentKind", rel.ParentKind)
	}
	fieldKey, ok := domain.ResolveFieldKey(parentKind, rel.FieldKey)
	if !ok {
		return errors.NewValidationError("unknown parent relation field").WithDetail("fieldKey", rel.FieldKey)
	}
	single, isRelation := false, false
	for _, f := range transform.RelationFields(parentKind) {
		if f.Key == fieldKey {
			single, isRelation = f.Single, true
			break
		}
	}
	if !isRelation {
		return errors.NewValidationError("parent field is not a writable relation").
			WithDetail("fieldKey", rel.FieldKey)
	}

	parent, err := s.fetcher.FetchEntity(ctx, parentKind, rel.ParentID)
	if err != nil {
		return errors.Wrap(err, "fetching parent for relation hint")
	}

	current := domain.RelationIDs(parent, fieldKey, single)
	if domain.ContainsID(current, createdID) {
		return nil
	}
	next := []string{createdID}
	if !single {
		next = append(append([]string{}, current...), createdID)
	}
	if !domain.SetRelationIDs(parent, fieldKey, single, next) {
		return errors.NewInternalError("parent relation field rejected value").
			WithDetail("fieldKey", fieldKey)
	}
	props, _ := transform.EncodeProperties(parent, []string{fieldKey})
	_, err = s.gateway.UpdatePage(ctx, rel.ParentID, props)
	return err
}

// rollbackCreate archives the page a failed create-with-parent left behind.
func (s *EntityService) rollbackCreate(ctx context.Context, id string) {
	if _, err := s.gateway.ArchivePage(ctx, id); err != nil {
		s.logger.Error("rollback archive failed, orphan page left upstream",
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// invalidateAfterWrite cascades invalidation over the written entity, every
// inverse target the maintainer touched, and the graph.
func (s *EntityService) invalidateAfterWrite(kind domain.EntityKind, id string, extra []cache.Related, summary *InverseSummary) {
	if s.cache == nil {
		return
	}
	related := make([]cache.Related, 0, len(summary.Touched)+len(extra))
	for _, k := range domain.Kinds {
		if ids := summary.Touched[k]; len(ids) > 0 {
			related = append(related, cache.Related{Kind: k, IDs: ids})
		}
	}
	related = append(related, extra...)
	s.cache.InvalidateRelated(kind, id, related)
}

// computeDelta assembles the after snapshot over the union of the before
// capture and the written entity's neighbors, then diffs. Delta failures
// degrade; they never fail the mutation that already happened.
func (s *EntityService) computeDelta(ctx context.Context, before *graph.Graph, beforeErr error, entity domain.Entity, warnings *[]api.Warning) *graph.Delta {
	after, err := s.capturer.IDSet(ctx, captureIDs(before, entity))
	if err != nil {
		s.logger.Warn("after-capture failed, response carries no delta", zap.Error(err))
		*warnings = append(*warnings, api.Warning{
			Code:    "delta_unavailable",
			Message: "graph delta could not be computed for this write",
		})
		return nil
	}

	var delta *graph.Delta
	if beforeErr != nil || before == nil {
		delta = graph.FullInvalidation(after)
	} else {
		delta = s.deltas.Compute(before, after)
	}
	s.metrics.ObserveDeltaComputation(delta.FullInvalidation)
	return delta
}

// captureIDs unions the before snapshot's node ids with the entity and its
// current relation targets.
func captureIDs(before *graph.Graph, entity domain.Entity) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if before != nil {
		for _, n := range before.Nodes {
			add(n.ID)
		}
	}
	if entity != nil {
		add(entity.EntityID())
		for _, id := range relationTargets(entity) {
			add(id)
		}
	}
	sort.Strings(ids)
	return ids
}

func filterParams(filter string) map[string]string {
	if filter == "" {
		return nil
	}
	return map[string]string{"filter": filter}
}

func parseParentRelation(body map[string]json.RawMessage) (*ParentRelation, error) {
	raw, ok := body["_parentRelation"]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rel ParentRelation
	if err := json.Unmarshal(raw, &rel); err != nil {
		return nil, errors.NewValidationError("malformed _parentRelation hint").WithCause(err)
	}
	if err := utils.ValidateStruct(&rel); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &rel, nil
}

func readOnlyWarnings(fields []string) []api.Warning {
	var warnings []api.Warning
	for _, f := range fields {
		warnings = append(warnings, api.Warning{
			Code:    "read_only_field",
			Message: "field is read-only and was not written",
			Field:   f,
		})
	}
	return warnings
}

func restoredWarnings(fields []string) []api.Warning {
	var warnings []api.Warning
	for _, f := range fields {
		warnings = append(warnings, api.Warning{
			Code:    "field_restored",
			Message: "field was missing from the upstream response; the previous value was kept",
			Field:   f,
		})
	}
	return warnings
}
