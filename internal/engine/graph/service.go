package graph

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/engine/filter"
)

// Service drives the multi-stage caching pipeline on top of the Graph
// store. It deduplicates concurrent CacheNode requests per key, runs the
// metadata, sequence, and spatial pipelines, and cancels in-flight work on
// Reset and SetFilter.
type Service struct {
	graph  *Graph
	log    ports.Logger
	tracer ports.Tracer

	// maxTileExpansions bounds how many times the spatial pipeline widens
	// the tile neighborhood while waiting for every candidate to be
	// classifiable.
	maxTileExpansions int

	mu      sync.Mutex
	tasks   map[string]*NodeTask
	cancels map[uint64]context.CancelFunc
	spatial map[uint64]struct{}
	nextID  uint64
}

// NewService wires the service on top of a Graph store.
func NewService(graph *Graph, log ports.Logger, tracer ports.Tracer) *Service {
	return &Service{
		graph:             graph,
		log:               log,
		tracer:            tracer,
		maxTileExpansions: 10,
		tasks:             make(map[string]*NodeTask),
		cancels:           make(map[uint64]context.CancelFunc),
		spatial:           make(map[uint64]struct{}),
	}
}

// register derives a cancelable context tracked for Reset, and for SetFilter
// when spatialOnly is set. The returned release removes the registration.
func (s *Service) register(ctx context.Context, spatialOnly bool) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.cancels[id] = cancel
	if spatialOnly {
		s.spatial[id] = struct{}{}
	}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		delete(s.cancels, id)
		delete(s.spatial, id)
		s.mu.Unlock()
		cancel()
	}
}

// cancelAll aborts every registered operation.
func (s *Service) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
		delete(s.spatial, id)
	}
}

// cancelSpatial aborts only the registered spatial-edge operations.
func (s *Service) cancelSpatial() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.spatial {
		s.cancels[id]()
		delete(s.cancels, id)
		delete(s.spatial, id)
	}
}

// Node returns the cached node for the key, or nil when unknown.
func (s *Service) Node(key string) *domain.Node {
	return s.graph.Node(key)
}

// HasNode reports whether the node is fully cached with edges resolving.
func (s *Service) HasNode(key string) bool {
	return s.graph.NodeFull(key)
}

// CacheNode runs the full caching pipeline for the key and returns a task
// that resolves once metadata and assets are cached. Sequence and spatial
// edges continue caching in the background after the task resolves.
// Concurrent calls for the same key share one task.
func (s *Service) CacheNode(ctx context.Context, key string) *NodeTask {
	s.mu.Lock()
	if t, ok := s.tasks[key]; ok {
		s.mu.Unlock()
		return t
	}
	t := newNodeTask(key)
	s.tasks[key] = t
	s.mu.Unlock()

	go s.runCacheNode(ctx, t)
	return t
}

func (s *Service) runCacheNode(ctx context.Context, t *NodeTask) {
	key := t.Key()
	ctx, release := s.register(ctx, false)
	defer release()
	defer func() {
		s.mu.Lock()
		if s.tasks[key] == t {
			delete(s.tasks, key)
		}
		s.mu.Unlock()
	}()

	ctx, span := s.tracer.Start(ctx, "graph.cache-node")
	defer span.End()
	span.SetAttribute("key", key)

	if err := s.cacheMetadata(ctx, key); err != nil {
		span.RecordError(err)
		t.fail(s.mapAbort(ctx, err, "key", key))
		return
	}
	if err := s.graph.CacheAssets(ctx, key); err != nil {
		span.RecordError(err)
		t.fail(s.mapAbort(ctx, err, "key", key))
		return
	}

	s.graph.TouchAccess(key)
	t.resolve(s.graph.Node(key))

	// Edge caching resolves in the background; failures are logged, not
	// surfaced through the task.
	if err := s.cacheNodeSequence(ctx, key); err != nil {
		span.RecordError(err)
		if !errors.Is(err, domain.ErrAborted) && !errors.Is(err, context.Canceled) {
			s.log.Warn("sequence edge caching failed", "key", key, "error", err)
		}
		return
	}
	if err := s.cacheSpatialEdges(ctx, key); err != nil {
		span.RecordError(err)
		if !errors.Is(err, domain.ErrAborted) && !errors.Is(err, context.Canceled) {
			s.log.Warn("spatial edge caching failed", "key", key, "error", err)
		}
	}
}

// mapAbort converts context cancellation into the abort sentinel so that
// callers observe a reset as an aborted request.
func (s *Service) mapAbort(ctx context.Context, err error, key string, value any) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return domain.WithDetail(domain.ErrAborted, key, value)
	}
	return err
}

// cacheMetadata ensures the node is known in full and its per-node cache
// bookkeeping exists.
func (s *Service) cacheMetadata(ctx context.Context, key string) error {
	if !s.graph.NodeFull(key) {
		if s.graph.HasNode(key) {
			if err := s.graph.CacheFill(ctx, key); err != nil {
				return err
			}
		} else if err := s.graph.CacheFull(ctx, key); err != nil {
			return err
		}
	}
	if !s.graph.HasInitializedCache(key) {
		if err := s.graph.InitializeCache(key); err != nil {
			if domain.IsInvariantViolation(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// cacheNodeSequence caches the node's own sequence and its sequence edges.
func (s *Service) cacheNodeSequence(ctx context.Context, key string) error {
	if !s.graph.HasNodeSequence(key) {
		if err := s.graph.CacheNodeSequence(ctx, key); err != nil {
			return err
		}
	}
	if s.graph.SequenceEdgesCached(key) {
		return nil
	}
	err := s.graph.CacheSequenceEdges(key)
	if err != nil && errors.Is(err, domain.ErrSequenceEdgesCached) {
		return nil
	}
	return err
}

// cacheSpatialEdges runs the spatial pipeline: expand tiles over the node's
// neighborhood, fill every candidate and its sequence, then classify. The
// tile expansion is bounded so a starved provider cannot loop forever.
func (s *Service) cacheSpatialEdges(ctx context.Context, key string) error {
	ctx, release := s.register(ctx, true)
	defer release()

	ctx, span := s.tracer.Start(ctx, "graph.cache-spatial-edges", ports.WithInternal())
	defer span.End()
	span.SetAttribute("key", key)

	for i := 0; i < s.maxTileExpansions; i++ {
		if s.graph.HasTiles(key) {
			break
		}
		if err := s.graph.CacheTiles(ctx, key); err != nil {
			return s.mapAbort(ctx, err, "key", key)
		}
	}
	if !s.graph.HasTiles(key) {
		s.log.Warn("tile expansion bound reached", "key", key, "rounds", s.maxTileExpansions)
	}
	if !s.graph.HasSpatialArea(key) {
		if err := s.graph.CacheSpatialArea(ctx, key); err != nil {
			return s.mapAbort(ctx, err, "key", key)
		}
	}
	if err := s.graph.CacheAreaSequences(ctx, key); err != nil {
		return s.mapAbort(ctx, err, "key", key)
	}

	if s.graph.SpatialEdgesCached(key) {
		return nil
	}
	err := s.graph.CacheSpatialEdges(key)
	if err != nil && errors.Is(err, domain.ErrSpatialEdgesCached) {
		return nil
	}
	return err
}

// CacheSequence caches a sequence by key without touching any node.
func (s *Service) CacheSequence(ctx context.Context, sequenceKey string) (*domain.Sequence, error) {
	ctx, release := s.register(ctx, false)
	defer release()

	ctx, span := s.tracer.Start(ctx, "graph.cache-sequence")
	defer span.End()
	span.SetAttribute("sequence", sequenceKey)

	seq, err := s.graph.CacheSequence(ctx, sequenceKey)
	if err != nil {
		span.RecordError(err)
		return nil, s.mapAbort(ctx, err, "sequence", sequenceKey)
	}
	return seq, nil
}

// SetFilter swaps the spatial-edge filter. In-flight spatial-edge work is
// canceled and every cached spatial edge set is invalidated; sequence edges
// and node data stay untouched. Setting an equivalent filter is a no-op.
func (s *Service) SetFilter(expr *domain.FilterExpression) error {
	if filter.Hash(expr) == s.graph.FilterHash() {
		return nil
	}

	s.cancelSpatial()
	if err := s.graph.SetFilter(expr); err != nil {
		return err
	}
	s.graph.ResetSpatialEdges()
	return nil
}

// Reset aborts all in-flight work and bulk-clears the graph, preserving the
// retained keys. Pending node tasks fail with the abort sentinel.
func (s *Service) Reset(keepKeys []string) {
	s.cancelAll()

	s.mu.Lock()
	for key, t := range s.tasks {
		t.fail(domain.WithDetail(domain.ErrAborted, "key", key))
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.graph.Reset(keepKeys)
}

// Uncache evicts least-recently-used nodes beyond the configured cache
// size, preserving the retained keys.
func (s *Service) Uncache(keepKeys []string) {
	s.graph.Uncache(keepKeys)
}
