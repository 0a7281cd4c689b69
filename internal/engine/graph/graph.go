// Package graph implements the node/sequence store and the caching
// orchestrator of the street image graph.
package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/engine/edges"
	"go.trai.ch/streetgraph/internal/engine/filter"
	"go.trai.ch/streetgraph/internal/engine/spatial"
	"golang.org/x/sync/errgroup"
)

// Config holds the store's tunables.
type Config struct {
	// SearchRadius is the bounding-box half-width in meters used to gather
	// spatial neighbor candidates.
	SearchRadius float64
	// TileRadius is the neighborhood half-width in meters the tile
	// expansion must cover before spatial edges are computed.
	TileRadius float64
	// MaxUnusedNodes is the number of non-retained nodes Uncache keeps.
	MaxUnusedNodes int
	// FetchParallelism bounds concurrent tile and fill fetches.
	FetchParallelism int
}

// DefaultConfig returns the store defaults.
func DefaultConfig() Config {
	return Config{
		SearchRadius:     20,
		TileRadius:       200,
		MaxUnusedNodes:   100,
		FetchParallelism: 4,
	}
}

// flight tracks one in-flight caching stage so that concurrent requests for
// the same (key, stage) pair share a single fetch.
type flight struct {
	done chan struct{}
	err  error
	gen  uint64
}

// cacheTab is the per-node cache bookkeeping allocated by InitializeCache.
type cacheTab struct {
	accessed time.Time
}

// Graph owns all cached nodes and sequences, the spatial index, and the
// active filter. All state is guarded by one mutex; provider I/O happens
// outside the lock and results are committed under it only after the
// generation and stage guards re-check.
type Graph struct {
	provider   ports.DataProvider
	log        ports.Logger
	calculator *edges.Calculator
	cfg        Config

	mu         sync.Mutex
	generation uint64

	nodes     map[string]*domain.Node
	sequences map[string]*domain.Sequence
	index     *spatial.Index
	cells     map[string]struct{}

	filterExpr *domain.FilterExpression
	filterFn   domain.FilterFunc
	filterHash uint64

	initialized map[string]*cacheTab

	cachingFull   map[string]*flight
	cachingFill   map[string]*flight
	cachingAssets map[string]*flight
	cachingTiles  map[string]*flight
	cachingArea   map[string]*flight
	cachingSeqs   map[string]*flight
}

// New creates an empty Graph backed by the given provider.
func New(provider ports.DataProvider, log ports.Logger, calculator *edges.Calculator, cfg Config) *Graph {
	alwaysTrue, _ := filter.Compile(nil)
	return &Graph{
		provider:      provider,
		log:           log,
		calculator:    calculator,
		cfg:           cfg,
		nodes:         make(map[string]*domain.Node),
		sequences:     make(map[string]*domain.Sequence),
		index:         spatial.NewIndex(),
		cells:         make(map[string]struct{}),
		filterFn:      alwaysTrue,
		filterHash:    filter.Hash(nil),
		initialized:   make(map[string]*cacheTab),
		cachingFull:   make(map[string]*flight),
		cachingFill:   make(map[string]*flight),
		cachingAssets: make(map[string]*flight),
		cachingTiles:  make(map[string]*flight),
		cachingArea:   make(map[string]*flight),
		cachingSeqs:   make(map[string]*flight),
	}
}

// HasNode reports whether the node is known, as a stub or in full.
func (g *Graph) HasNode(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[key]
	return ok
}

// Node returns the node for the key, or nil when unknown. Callers must
// check existence via HasNode first.
func (g *Graph) Node(key string) *domain.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes[key]
}

// NodeFull reports whether the node is known and has complete metadata.
func (g *Graph) NodeFull(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	return ok && n.Full()
}

// IsCachingFull reports an in-flight full metadata fetch for the key.
func (g *Graph) IsCachingFull(key string) bool { return g.isCaching(g.cachingFull, key) }

// IsCachingFill reports an in-flight fill fetch for the key.
func (g *Graph) IsCachingFill(key string) bool { return g.isCaching(g.cachingFill, key) }

// IsCachingAssets reports an in-flight asset fetch for the key.
func (g *Graph) IsCachingAssets(key string) bool { return g.isCaching(g.cachingAssets, key) }

// IsCachingTiles reports an in-flight tile expansion for the key.
func (g *Graph) IsCachingTiles(key string) bool { return g.isCaching(g.cachingTiles, key) }

func (g *Graph) isCaching(m map[string]*flight, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := m[key]
	return ok
}

// runStage guarantees at most one in-flight run per (stage map, key).
// Later callers wait on the first flight instead of re-fetching. run is
// invoked outside the lock with the generation observed at dispatch; its
// commit step must discard results from an older generation.
func (g *Graph) runStage(ctx context.Context, m map[string]*flight, key string, run func(gen uint64) error) error {
	g.mu.Lock()
	// Flights dispatched before a reset carry a stale generation; joining
	// them would inherit their aborted result, so a fresh flight replaces
	// them in the map instead.
	if f, ok := m[key]; ok && f.gen == g.generation {
		g.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{}), gen: g.generation}
	m[key] = f
	gen := g.generation
	g.mu.Unlock()

	err := run(gen)

	g.mu.Lock()
	if m[key] == f {
		delete(m, key)
	}
	g.mu.Unlock()

	f.err = err
	close(f.done)
	return err
}

// checkGeneration returns ErrAborted when a reset happened since dispatch.
// Callers must hold the lock.
func (g *Graph) checkGeneration(gen uint64) error {
	if g.generation != gen {
		return domain.ErrAborted
	}
	return nil
}

// CacheFull fetches full metadata for an unknown or stub node. Concurrent
// calls for the same key share one fetch. The fetch error is propagated.
func (g *Graph) CacheFull(ctx context.Context, key string) error {
	g.mu.Lock()
	if n, ok := g.nodes[key]; ok && n.Full() {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	return g.runStage(ctx, g.cachingFull, key, func(gen uint64) error {
		records, err := g.provider.Images(ctx, []string{key})
		if err != nil {
			return err
		}
		record, ok := records[key]
		if !ok {
			return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.checkGeneration(gen); err != nil {
			return err
		}
		g.commitRecord(record)
		return nil
	})
}

// CacheFill promotes an already-known stub node to full.
func (g *Graph) CacheFill(ctx context.Context, key string) error {
	g.mu.Lock()
	n, ok := g.nodes[key]
	if !ok {
		g.mu.Unlock()
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	if n.Full() {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	return g.runStage(ctx, g.cachingFill, key, func(gen uint64) error {
		records, err := g.provider.Images(ctx, []string{key})
		if err != nil {
			return err
		}
		record, ok := records[key]
		if !ok {
			return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.checkGeneration(gen); err != nil {
			return err
		}
		g.commitRecord(record)
		return nil
	})
}

// commitRecord stores a full metadata record, creating the node or
// promoting the existing stub. Callers must hold the lock.
func (g *Graph) commitRecord(record ports.NodeRecord) {
	key := record.Core.Key
	if n, ok := g.nodes[key]; ok {
		n.MakeFull(record.Fill)
		return
	}
	n := domain.NewFullNode(record.Core, record.Fill)
	g.nodes[key] = n
	g.index.Insert(key, record.Core.Position.LatLon)
}

// CacheAssets fetches the node's image buffer and mesh. The node must be
// full. Concurrent calls share one fetch.
func (g *Graph) CacheAssets(ctx context.Context, key string) error {
	g.mu.Lock()
	n, ok := g.nodes[key]
	if !ok {
		g.mu.Unlock()
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	if n.AssetsCached() {
		g.mu.Unlock()
		return nil
	}
	if !n.Full() {
		g.mu.Unlock()
		return domain.WithDetail(domain.ErrNodeNotFull, "key", key)
	}
	g.mu.Unlock()

	return g.runStage(ctx, g.cachingAssets, key, func(gen uint64) error {
		image, err := g.provider.ImageBuffer(ctx, key)
		if err != nil {
			return err
		}
		mesh, err := g.provider.Mesh(ctx, key)
		if err != nil {
			return err
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.checkGeneration(gen); err != nil {
			return err
		}
		node, ok := g.nodes[key]
		if !ok {
			return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}
		return node.SetAssets(&domain.NodeAssets{Image: image, Mesh: mesh})
	})
}

// tileBounds returns the neighborhood bounding box the tile expansion must
// cover for the node. Callers must hold the lock.
func (g *Graph) tileBounds(n *domain.Node) (sw, ne domain.LatLon) {
	pos := n.Position().LatLon
	return pos.Translate(-g.cfg.TileRadius, -g.cfg.TileRadius),
		pos.Translate(g.cfg.TileRadius, g.cfg.TileRadius)
}

// searchBounds returns the spatial-edge candidate bounding box.
func (g *Graph) searchBounds(n *domain.Node) (sw, ne domain.LatLon) {
	pos := n.Position().LatLon
	return pos.Translate(-g.cfg.SearchRadius, -g.cfg.SearchRadius),
		pos.Translate(g.cfg.SearchRadius, g.cfg.SearchRadius)
}

// HasTiles reports whether every tile cell covering the node's neighborhood
// has been cached.
func (g *Graph) HasTiles(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	if !ok {
		return false
	}
	sw, ne := g.tileBounds(n)
	for _, cell := range spatial.CellIDs(sw, ne) {
		if _, ok := g.cells[cell]; !ok {
			return false
		}
	}
	return true
}

// CacheTiles fetches every uncached tile cell covering the node's
// neighborhood and inserts the contained stub nodes into the graph and the
// spatial index.
func (g *Graph) CacheTiles(ctx context.Context, key string) error {
	return g.runStage(ctx, g.cachingTiles, key, func(gen uint64) error {
		g.mu.Lock()
		n, ok := g.nodes[key]
		if !ok {
			g.mu.Unlock()
			return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}
		sw, ne := g.tileBounds(n)
		var missing []string
		for _, cell := range spatial.CellIDs(sw, ne) {
			if _, ok := g.cells[cell]; !ok {
				missing = append(missing, cell)
			}
		}
		g.mu.Unlock()

		if len(missing) == 0 {
			return nil
		}

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.cfg.FetchParallelism)
		for _, cell := range missing {
			eg.Go(func() error {
				cores, err := g.provider.CoreImages(egCtx, cell)
				if err != nil {
					return domain.WithDetail(err, "cell", cell)
				}

				g.mu.Lock()
				defer g.mu.Unlock()
				if err := g.checkGeneration(gen); err != nil {
					return err
				}
				for _, core := range cores {
					if _, ok := g.nodes[core.Key]; ok {
						continue
					}
					g.nodes[core.Key] = domain.NewNode(core)
					g.index.Insert(core.Key, core.Position.LatLon)
				}
				g.cells[cell] = struct{}{}
				return nil
			})
		}
		return eg.Wait()
	})
}

// HasSpatialArea reports whether every node inside the spatial-edge search
// box of the key is full.
func (g *Graph) HasSpatialArea(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	if !ok {
		return false
	}
	sw, ne := g.searchBounds(n)
	for _, candidate := range g.index.Search(sw, ne) {
		if cn, ok := g.nodes[candidate]; !ok || !cn.Full() {
			return false
		}
	}
	return true
}

// CacheSpatialArea batch-fills every stub node inside the spatial-edge
// search box of the key.
func (g *Graph) CacheSpatialArea(ctx context.Context, key string) error {
	return g.runStage(ctx, g.cachingArea, key, func(gen uint64) error {
		g.mu.Lock()
		n, ok := g.nodes[key]
		if !ok {
			g.mu.Unlock()
			return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}
		sw, ne := g.searchBounds(n)
		var stubs []string
		for _, candidate := range g.index.Search(sw, ne) {
			if cn, ok := g.nodes[candidate]; ok && !cn.Full() {
				stubs = append(stubs, candidate)
			}
		}
		g.mu.Unlock()

		if len(stubs) == 0 {
			return nil
		}

		records, err := g.provider.Images(ctx, stubs)
		if err != nil {
			return err
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.checkGeneration(gen); err != nil {
			return err
		}
		for _, record := range records {
			g.commitRecord(record)
		}
		return nil
	})
}

// HasSequence reports whether the sequence is cached.
func (g *Graph) HasSequence(sequenceKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sequences[sequenceKey]
	return ok
}

// Sequence returns the cached sequence, or nil.
func (g *Graph) Sequence(sequenceKey string) *domain.Sequence {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sequences[sequenceKey]
}

// CacheSequence fetches and stores the sequence's ordered key list.
// Concurrent calls for the same sequence share one fetch.
func (g *Graph) CacheSequence(ctx context.Context, sequenceKey string) (*domain.Sequence, error) {
	g.mu.Lock()
	if s, ok := g.sequences[sequenceKey]; ok {
		g.mu.Unlock()
		return s, nil
	}
	g.mu.Unlock()

	err := g.runStage(ctx, g.cachingSeqs, sequenceKey, func(gen uint64) error {
		seq, err := g.provider.Sequence(ctx, sequenceKey)
		if err != nil {
			return err
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if err := g.checkGeneration(gen); err != nil {
			return err
		}
		g.sequences[sequenceKey] = seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g.Sequence(sequenceKey), nil
}

// HasNodeSequence reports whether the node's own sequence is cached.
func (g *Graph) HasNodeSequence(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	if !ok {
		return false
	}
	_, ok = g.sequences[n.SequenceKey()]
	return ok
}

// CacheNodeSequence caches the sequence the node belongs to.
func (g *Graph) CacheNodeSequence(ctx context.Context, key string) error {
	g.mu.Lock()
	n, ok := g.nodes[key]
	if !ok {
		g.mu.Unlock()
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	sequenceKey := n.SequenceKey()
	g.mu.Unlock()

	_, err := g.CacheSequence(ctx, sequenceKey)
	return err
}

// CacheAreaSequences caches the sequences of every node inside the key's
// spatial-edge search box, so candidate adjacency is known before spatial
// edges are computed.
func (g *Graph) CacheAreaSequences(ctx context.Context, key string) error {
	g.mu.Lock()
	n, ok := g.nodes[key]
	if !ok {
		g.mu.Unlock()
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	sw, ne := g.searchBounds(n)
	missing := make(map[string]struct{})
	for _, candidate := range g.index.Search(sw, ne) {
		cn, ok := g.nodes[candidate]
		if !ok {
			continue
		}
		if _, ok := g.sequences[cn.SequenceKey()]; !ok {
			missing[cn.SequenceKey()] = struct{}{}
		}
	}
	g.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.FetchParallelism)
	for sequenceKey := range missing {
		eg.Go(func() error {
			_, err := g.CacheSequence(egCtx, sequenceKey)
			return err
		})
	}
	return eg.Wait()
}

// HasInitializedCache reports whether per-node cache bookkeeping exists.
func (g *Graph) HasInitializedCache(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.initialized[key]
	return ok
}

// InitializeCache allocates the per-node cache bookkeeping exactly once.
// A second call before a reset is a programming error.
func (g *Graph) InitializeCache(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[key]; !ok {
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	if _, ok := g.initialized[key]; ok {
		return domain.WithDetail(domain.ErrCacheAlreadyInitialized, "key", key)
	}
	g.initialized[key] = &cacheTab{accessed: time.Now()}
	return nil
}

// TouchAccess refreshes the node's access timestamp used by Uncache.
func (g *Graph) TouchAccess(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tab, ok := g.initialized[key]; ok {
		tab.accessed = time.Now()
	}
}

// SequenceEdgesCached reports whether the node's sequence edge set is cached.
func (g *Graph) SequenceEdgesCached(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	return ok && n.SequenceEdgesCached()
}

// SpatialEdgesCached reports whether the node's spatial edge set is cached.
func (g *Graph) SpatialEdgesCached(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	return ok && n.SpatialEdgesCached()
}

// CacheSequenceEdges computes and stores the node's sequence edge set.
// The node must be full, its cache initialized, and its sequence cached.
// Recomputing a still-cached set is a programming error.
func (g *Graph) CacheSequenceEdges(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[key]
	if !ok {
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	if _, ok := g.initialized[key]; !ok {
		return domain.WithDetail(domain.ErrCacheNotInitialized, "key", key)
	}
	seq, ok := g.sequences[n.SequenceKey()]
	if !ok {
		return domain.WithDetail(domain.ErrSequenceNotCached, "sequence", n.SequenceKey())
	}

	return n.SetSequenceEdges(g.calculator.SequenceEdges(n, seq))
}

// CacheSpatialEdges gathers neighbor candidates from the spatial index,
// applies the active filter, classifies the survivors, and stores the
// resulting edge set. Recomputing a still-cached set for the current
// generation is a programming error. No partial sets are ever stored.
func (g *Graph) CacheSpatialEdges(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[key]
	if !ok {
		return domain.WithDetail(domain.ErrNodeNotFound, "key", key)
	}
	if _, ok := g.initialized[key]; !ok {
		return domain.WithDetail(domain.ErrCacheNotInitialized, "key", key)
	}
	if !n.Full() {
		return domain.WithDetail(domain.ErrNodeNotFull, "key", key)
	}

	sw, ne := g.searchBounds(n)
	var candidates []*domain.Node
	for _, candidateKey := range g.index.Search(sw, ne) {
		candidate, ok := g.nodes[candidateKey]
		if !ok || candidateKey == key {
			continue
		}
		if !g.filterFn(candidate) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	// Sequence-adjacent nodes are reached via sequence edges; exclude them
	// from spatial classification.
	var excluded []string
	if seq, ok := g.sequences[n.SequenceKey()]; ok {
		if prev := seq.Prev(key); prev != "" {
			excluded = append(excluded, prev)
		}
		if next := seq.Next(key); next != "" {
			excluded = append(excluded, next)
		}
	}

	potentials, err := g.calculator.PotentialEdges(n, candidates, excluded)
	if err != nil {
		return err
	}

	var edgeSet []domain.Edge
	edgeSet = append(edgeSet, g.calculator.StepEdges(n, potentials)...)
	edgeSet = append(edgeSet, g.calculator.TurnEdges(n, potentials)...)
	edgeSet = append(edgeSet, g.calculator.PanoEdges(n, potentials)...)
	edgeSet = append(edgeSet, g.calculator.PerspectiveToPanoEdges(n, potentials)...)
	edgeSet = append(edgeSet, g.calculator.SimilarEdges(n, potentials)...)

	return n.SetSpatialEdges(edgeSet)
}

// ResetSpatialEdges clears the cached spatial edges of every node, leaving
// sequence edges and node metadata untouched.
func (g *Graph) ResetSpatialEdges() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		n.ResetSpatialEdges()
	}
}

// SetFilter recompiles and swaps the active predicate. It does not reset
// cached spatial edges; callers follow up with ResetSpatialEdges.
func (g *Graph) SetFilter(expr *domain.FilterExpression) error {
	fn, err := filter.Compile(expr)
	if err != nil {
		return err
	}
	hash := filter.Hash(expr)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.filterExpr = expr
	g.filterFn = fn
	g.filterHash = hash
	return nil
}

// FilterHash returns the generation token of the active filter.
func (g *Graph) FilterHash() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filterHash
}

// Reset bulk-clears all node, sequence, and tile state while preserving the
// retained keys. Retained nodes keep metadata, assets, and sequence edges;
// their spatial edges are reset since the surrounding area is dropped.
// In-flight stage commits from before the reset are discarded.
func (g *Graph) Reset(keepKeys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++

	kept := make(map[string]*domain.Node, len(keepKeys))
	for _, key := range keepKeys {
		if n, ok := g.nodes[key]; ok {
			kept[key] = n
		}
	}

	nodes := make(map[string]*domain.Node, len(kept))
	sequences := make(map[string]*domain.Sequence)
	initialized := make(map[string]*cacheTab)
	index := spatial.NewIndex()

	for key, n := range kept {
		n.ResetSpatialEdges()
		nodes[key] = n
		index.Insert(key, n.Position().LatLon)
		if seq, ok := g.sequences[n.SequenceKey()]; ok {
			sequences[n.SequenceKey()] = seq
		}
		if tab, ok := g.initialized[key]; ok {
			initialized[key] = tab
		}
	}

	g.nodes = nodes
	g.sequences = sequences
	g.initialized = initialized
	g.index = index
	g.cells = make(map[string]struct{})
}

// Uncache evicts least-recently-accessed nodes beyond the configured cache
// size, preserving the retained keys. Evicted nodes drop their tile cell
// marks so the area is re-fetched on the next request.
func (g *Graph) Uncache(keepKeys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	keep := make(map[string]struct{}, len(keepKeys))
	for _, key := range keepKeys {
		keep[key] = struct{}{}
	}

	type aged struct {
		key      string
		accessed time.Time
	}
	var candidates []aged
	for key, tab := range g.initialized {
		if _, ok := keep[key]; ok {
			continue
		}
		candidates = append(candidates, aged{key: key, accessed: tab.accessed})
	}
	if len(candidates) <= g.cfg.MaxUnusedNodes {
		return
	}

	// Oldest first.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].accessed.Before(candidates[j].accessed)
	})

	evict := candidates[:len(candidates)-g.cfg.MaxUnusedNodes]
	for _, victim := range evict {
		n, ok := g.nodes[victim.key]
		if !ok {
			continue
		}
		delete(g.cells, spatial.CellID(n.Position().LatLon))
		delete(g.nodes, victim.key)
		delete(g.initialized, victim.key)
	}

	// Stubs pulled in by tile expansion live in the evicted cells too.
	// Sweep the ones whose cell mark is gone so they are re-fetched with
	// the cell instead of lingering.
	for key, n := range g.nodes {
		if _, ok := keep[key]; ok {
			continue
		}
		if _, ok := g.initialized[key]; ok {
			continue
		}
		if _, ok := g.cells[spatial.CellID(n.Position().LatLon)]; !ok {
			delete(g.nodes, key)
		}
	}

	// Drop sequences with no remaining member nodes and rebuild the index
	// so it again contains exactly the known nodes.
	remaining := make(map[string]struct{})
	index := spatial.NewIndex()
	for key, n := range g.nodes {
		remaining[n.SequenceKey()] = struct{}{}
		index.Insert(key, n.Position().LatLon)
	}
	for sequenceKey := range g.sequences {
		if _, ok := remaining[sequenceKey]; !ok {
			delete(g.sequences, sequenceKey)
		}
	}
	g.index = index
}
