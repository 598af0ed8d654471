package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/errors"
	"storygraph-backend/pkg/observability"
)

// fanOutLimit bounds concurrent per-target work in the maintainer and the
// capture paths. The gateway's reservoir is the real throttle; this only
// keeps the goroutine count sane.
const fanOutLimit = 4

// Maintainer pushes relation changes to the other side of each designated
// pair. The upstream offers no referential integrity, so after a write
// every added target must learn about the writer and every removed target
// must forget it.
type Maintainer struct {
	gateway     notion.Gateway
	transformer *transform.Transformer
	metrics     *observability.Collector
	logger      *zap.Logger
	concurrency int
}

// NewMaintainer creates an inverse-relation maintainer.
func NewMaintainer(gateway notion.Gateway, transformer *transform.Transformer, metrics *observability.Collector, logger *zap.Logger) *Maintainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maintainer{
		gateway:     gateway,
		transformer: transformer,
		metrics:     metrics,
		logger:      logger,
		concurrency: fanOutLimit,
	}
}

// InverseSummary reports one fan-out. The primary mutation stands no matter
// what is in here; failures are advisory.
type InverseSummary struct {
	// Attempted counts the target writes the relation diff called for.
	Attempted int
	// Failed counts targets whose inverse could not be brought in sync.
	Failed    int
	FailedIDs []string
	// Touched groups every successfully processed target by kind, the
	// shape cache invalidation wants.
	Touched map[domain.EntityKind][]string
}

// HasFailures reports whether any target update failed.
func (s *InverseSummary) HasFailures() bool {
	return s != nil && s.Failed > 0
}

// inverseTask is one planned write: make target's inverse field agree about
// the presence or absence of the primary entity.
type inverseTask struct {
	pair         string
	targetID     string
	targetKind   domain.EntityKind
	targetKey    string
	targetSingle bool
	add          bool
}

// Maintain diffs the relation fields between old and updated and applies
// the inverse writes concurrently. Either snapshot may be nil: a create
// passes old = nil, an archive passes updated = nil. Partial failure is
// tolerated; each failure is logged and counted, never propagated.
func (m *Maintainer) Maintain(ctx context.Context, old, updated domain.Entity) *InverseSummary {
	summary := &InverseSummary{Touched: make(map[domain.EntityKind][]string)}

	primary := updated
	if primary == nil {
		primary = old
	}
	if primary == nil {
		return summary
	}
	entityID := primary.EntityID()
	tasks := m.plan(entityID, primary.Kind(), old, updated)
	summary.Attempted = len(tasks)
	if len(tasks) == 0 {
		return summary
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			err := m.apply(ctx, entityID, task)
			m.metrics.ObserveInverseUpdate(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.FailedIDs = append(summary.FailedIDs, task.targetID)
				m.logger.Warn("inverse relation update failed",
					zap.String("pair", task.pair),
					zap.String("entityId", entityID),
					zap.String("targetId", task.targetID),
					zap.Bool("add", task.add),
					zap.Error(err),
				)
				return nil
			}
			summary.Touched[task.targetKind] = append(summary.Touched[task.targetKind], task.targetID)
			return nil
		})
	}
	// Workers never return errors; Wait only orders completion before the
	// caller's response.
	_ = g.Wait()

	if summary.Failed > 0 {
		m.logger.Warn("inverse relation fan-out finished with failures",
			zap.String("entityId", entityID),
			zap.Int("attempted", summary.Attempted),
			zap.Int("failed", summary.Failed),
		)
	}
	return summary
}

// plan diffs every relation side the kind holds and emits one task per
// added or removed target id.
func (m *Maintainer) plan(entityID string, kind domain.EntityKind, old, updated domain.Entity) []inverseTask {
	var tasks []inverseTask
	for _, side := range domain.SidesForKind(kind) {
		var oldIDs, newIDs []string
		if old != nil {
			oldIDs = domain.RelationIDs(old, side.Key, side.Single)
		}
		if updated != nil {
			newIDs = domain.RelationIDs(updated, side.Key, side.Single)
		}

		added, removed := domain.DiffIDSets(oldIDs, newIDs)
		for _, targetID := range added {
			if targetID == entityID {
				continue // self-references have no other side to fix
			}
			tasks = append(tasks, inverseTask{
				pair: side.Pair.Name, targetID: targetID, targetKind: side.TargetKind,
				targetKey: side.TargetKey, targetSingle: side.TargetSingle, add: true,
			})
		}
		for _, targetID := range removed {
			if targetID == entityID {
				continue
			}
			tasks = append(tasks, inverseTask{
				pair: side.Pair.Name, targetID: targetID, targetKind: side.TargetKind,
				targetKey: side.TargetKey, targetSingle: side.TargetSingle, add: false,
			})
		}
	}
	return tasks
}

// apply executes one task: read the target's current inverse value, adjust
// it, write the single changed property back. A target that is already
// consistent costs one read and no write.
func (m *Maintainer) apply(ctx context.Context, entityID string, task inverseTask) error {
	page, err := m.gateway.RetrievePage(ctx, task.targetID)
	if err != nil {
		if errors.IsNotFound(err) && !task.add {
			// Removing ourselves from a page that no longer exists is done
			// by definition.
			m.logger.Debug("inverse removal target already gone",
				zap.String("targetId", task.targetID))
			return nil
		}
		return err
	}

	// Writing a relation list back requires the complete current list; a
	// truncated read would silently drop the tail.
	if err := notion.CompleteRelations(ctx, m.gateway, page, m.logger); err != nil {
		return errors.Wrap(err, "completing target relations")
	}

	target, err := m.transformer.ToEntity(page)
	if err != nil {
		return err
	}
	if target.Kind() != task.targetKind {
		return errors.NewInternalError("inverse target has unexpected kind").
			WithDetail("targetId", task.targetID).
			WithDetail("expected", string(task.targetKind)).
			WithDetail("actual", string(target.Kind()))
	}

	current := domain.RelationIDs(target, task.targetKey, task.targetSingle)
	var next []string
	switch {
	case task.add && domain.ContainsID(current, entityID):
		return nil
	case !task.add && !domain.ContainsID(current, entityID):
		return nil
	case task.add && task.targetSingle:
		// Single-valued inverse: the most recent writer wins the slot.
		next = []string{entityID}
	case task.add:
		next = append(append([]string{}, current...), entityID)
	default:
		next = domain.RemoveID(current, entityID)
	}

	if !domain.SetRelationIDs(target, task.targetKey, task.targetSingle, next) {
		return errors.NewInternalError("inverse field rejected value").
			WithDetail("field", task.targetKey)
	}
	props, _ := transform.EncodeProperties(target, []string{task.targetKey})
	if len(props) == 0 {
		return errors.NewInternalError("inverse field is not writable").
			WithDetail("field", task.targetKey)
	}

	_, err = m.gateway.UpdatePage(ctx, task.targetID, props)
	return err
}
