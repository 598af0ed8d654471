package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/graph"
	"storygraph-backend/internal/synthesis"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/errors"
)

// Capturer materializes small graph snapshots around a mutation so the
// delta calculator has a before and an after to compare. Captured state is
// never cached: a snapshot served from the cache would attribute one
// write's changes to the next.
type Capturer struct {
	fetcher *Fetcher
	builder *graph.Builder
	logger  *zap.Logger
}

// NewCapturer creates a capturer reading through the given fetcher.
func NewCapturer(fetcher *Fetcher, builder *graph.Builder, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{
		fetcher: fetcher,
		builder: builder,
		logger:  logger,
	}
}

// Neighborhood captures the subgraph around one entity: the entity itself,
// every node an edge connects it to, and the edges among that set.
func (c *Capturer) Neighborhood(ctx context.Context, kind domain.EntityKind, id string) (*graph.Graph, error) {
	target, err := c.fetcher.FetchEntity(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return c.NeighborhoodOf(ctx, target)
}

// NeighborhoodOf captures the subgraph around an entity fetched by the
// caller in the same request. The neighbors are always fetched anew.
func (c *Capturer) NeighborhoodOf(ctx context.Context, target domain.Entity) (*graph.Graph, error) {
	if target == nil {
		return nil, errors.NewInternalError("neighborhood capture needs a target entity")
	}

	neighborIDs := relationTargets(target)
	set, err := c.fetchSet(ctx, neighborIDs)
	if err != nil {
		return nil, err
	}
	set.Add(target.Clone())

	synthesis.Synthesize(set)
	g := c.builder.Build(set)
	return subgraphAround(g, target.EntityID()), nil
}

// IDSet captures the subgraph over an explicit id list. Ids whose pages are
// gone simply have no node; the delta calculator reads that as deletion.
func (c *Capturer) IDSet(ctx context.Context, ids []string) (*graph.Graph, error) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	set, err := c.fetchSet(ctx, ids)
	if err != nil {
		return nil, err
	}
	synthesis.Synthesize(set)
	g := c.builder.Build(set)
	return restrictGraph(g, keep), nil
}

// relationTargets lists every id the entity's writable relation fields
// reference, deduplicated, excluding the entity itself.
func relationTargets(e domain.Entity) []string {
	seen := map[string]struct{}{e.EntityID(): {}}
	var ids []string
	for _, field := range transform.RelationFields(e.Kind()) {
		for _, id := range domain.RelationIDs(e, field.Key, field.Single) {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// fetchSet retrieves the given pages concurrently and assembles whatever
// resolves into an entity set. Missing pages are absent, not errors; other
// upstream failures are logged and skipped so one bad neighbor cannot sink
// a capture. Context cancellation does fail the whole fetch: an aborted
// request must not produce a set that reads as mass deletion.
func (c *Capturer) fetchSet(ctx context.Context, ids []string) (*domain.EntitySet, error) {
	set := &domain.EntitySet{}
	if len(ids) == 0 {
		return set, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			entity, err := c.fetcher.FetchByID(ctx, id)
			if err != nil {
				if errors.IsNotFound(err) {
					c.logger.Debug("captured id no longer exists", zap.String("id", id))
					return nil
				}
				if ctx.Err() != nil {
					return err
				}
				c.logger.Warn("capture fetch failed, skipping id",
					zap.String("id", id),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			set.Add(entity)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// subgraphAround cuts g down to the target, its direct neighbors, and the
// edges whose endpoints both survive the cut.
func subgraphAround(g *graph.Graph, targetID string) *graph.Graph {
	keep := map[string]struct{}{targetID: {}}
	for _, e := range g.Edges {
		if e.Source == targetID {
			keep[e.Target] = struct{}{}
		}
		if e.Target == targetID {
			keep[e.Source] = struct{}{}
		}
	}
	return restrictGraph(g, keep)
}

// restrictGraph keeps only the nodes in keep and the edges connecting them,
// recomputing the metadata for the smaller graph.
func restrictGraph(g *graph.Graph, keep map[string]struct{}) *graph.Graph {
	out := &graph.Graph{}
	for _, n := range g.Nodes {
		if _, ok := keep[n.ID]; !ok {
			continue
		}
		out.Nodes = append(out.Nodes, n)
		if n.Data.IsPlaceholder {
			out.Metadata.PlaceholderNodes++
		}
	}
	for _, e := range g.Edges {
		_, src := keep[e.Source]
		_, dst := keep[e.Target]
		if src && dst {
			out.Edges = append(out.Edges, e)
		}
	}
	for _, missing := range g.Metadata.MissingEntities {
		if _, ok := keep[missing.ID]; ok {
			out.Metadata.MissingEntities = append(out.Metadata.MissingEntities, missing)
		}
	}
	out.Metadata.TotalNodes = len(out.Nodes)
	out.Metadata.TotalEdges = len(out.Edges)
	return out
}
