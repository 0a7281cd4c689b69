package graph_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/core/ports/mocks"
	"go.trai.ch/streetgraph/internal/engine/edges"
	"go.trai.ch/streetgraph/internal/engine/graph"
	"go.uber.org/mock/gomock"
)

// testOrigin sits in the middle of tile cell 0_0 so a small tile radius
// stays within a single cell.
var testOrigin = domain.LatLon{Lat: 0.001, Lon: 0.001}

func testConfig() graph.Config {
	return graph.Config{
		SearchRadius:     20,
		TileRadius:       10,
		MaxUnusedNodes:   100,
		FetchParallelism: 2,
	}
}

func setupGraphTest(t *testing.T) (*graph.Graph, *mocks.MockDataProvider) {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockDataProvider(ctrl)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	calculator := edges.NewCalculator(edges.DefaultSettings())
	return graph.New(provider, log, calculator, testConfig()), provider
}

// record builds a full metadata record offset east/north meters from the
// test origin.
func record(key, sequenceKey string, east, north, quality float64) ports.NodeRecord {
	return ports.NodeRecord{
		Core: domain.NodeCore{
			Key:         key,
			SequenceKey: sequenceKey,
			Position:    domain.LatLonAlt{LatLon: testOrigin.Translate(east, north)},
		},
		Fill: domain.NodeFill{
			CompassAngle: 0,
			MergeCC:      1,
			Quality:      quality,
		},
	}
}

func seedFullNode(t *testing.T, g *graph.Graph, provider *mocks.MockDataProvider, rec ports.NodeRecord) {
	t.Helper()
	provider.EXPECT().Images(gomock.Any(), []string{rec.Core.Key}).
		Return(map[string]ports.NodeRecord{rec.Core.Key: rec}, nil)
	require.NoError(t, g.CacheFull(context.Background(), rec.Core.Key))
}

func TestGraph_CacheFull_SharedFetch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, provider := setupGraphTest(t)

		provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				time.Sleep(10 * time.Millisecond)
				return map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil
			}).Times(1)

		errs := make(chan error, 2)
		for range 2 {
			go func() {
				errs <- g.CacheFull(context.Background(), "n1")
			}()
		}
		require.NoError(t, <-errs)
		require.NoError(t, <-errs)
		require.True(t, g.NodeFull("n1"))

		// A third call finds the node and skips the provider entirely.
		require.NoError(t, g.CacheFull(context.Background(), "n1"))
	})
}

func TestGraph_CacheFull_NotFound(t *testing.T) {
	g, provider := setupGraphTest(t)

	provider.EXPECT().Images(gomock.Any(), []string{"missing"}).
		Return(map[string]ports.NodeRecord{}, nil)

	err := g.CacheFull(context.Background(), "missing")
	require.True(t, errors.Is(err, domain.ErrNodeNotFound))
	require.False(t, g.HasNode("missing"))
}

func TestGraph_CacheFull_ProviderErrorPropagates(t *testing.T) {
	g, provider := setupGraphTest(t)

	provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
		Return(nil, domain.ErrTransport)

	err := g.CacheFull(context.Background(), "n1")
	require.True(t, errors.Is(err, domain.ErrTransport))
}

func TestGraph_CacheTiles_InsertsStubs(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))

	provider.EXPECT().CoreImages(gomock.Any(), "0_0").
		Return([]domain.NodeCore{
			{Key: "n2", SequenceKey: "s1", Position: domain.LatLonAlt{LatLon: testOrigin.Translate(5, 0)}},
			{Key: "n1", SequenceKey: "s1", Position: domain.LatLonAlt{LatLon: testOrigin}},
		}, nil).Times(1)

	require.False(t, g.HasTiles("n1"))
	require.NoError(t, g.CacheTiles(context.Background(), "n1"))
	require.True(t, g.HasTiles("n1"))

	require.True(t, g.HasNode("n2"))
	require.False(t, g.NodeFull("n2"))
	// The already-full node is not downgraded to a stub.
	require.True(t, g.NodeFull("n1"))

	// Cells are cached, a repeat expansion fetches nothing.
	require.NoError(t, g.CacheTiles(context.Background(), "n1"))
}

func TestGraph_CacheSpatialArea_FillsStubs(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))

	provider.EXPECT().CoreImages(gomock.Any(), "0_0").
		Return([]domain.NodeCore{
			{Key: "n2", SequenceKey: "s1", Position: domain.LatLonAlt{LatLon: testOrigin.Translate(5, 0)}},
		}, nil)
	require.NoError(t, g.CacheTiles(context.Background(), "n1"))
	require.False(t, g.HasSpatialArea("n1"))

	provider.EXPECT().Images(gomock.Any(), []string{"n2"}).
		Return(map[string]ports.NodeRecord{"n2": record("n2", "s1", 5, 0, 1)}, nil)

	require.NoError(t, g.CacheSpatialArea(context.Background(), "n1"))
	require.True(t, g.HasSpatialArea("n1"))
	require.True(t, g.NodeFull("n2"))
}

func TestGraph_InitializeCache_Twice(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))

	require.NoError(t, g.InitializeCache("n1"))
	require.True(t, g.HasInitializedCache("n1"))

	err := g.InitializeCache("n1")
	require.True(t, errors.Is(err, domain.ErrCacheAlreadyInitialized))
	require.True(t, domain.IsInvariantViolation(err))
}

func TestGraph_CacheSequenceEdges(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))

	err := g.CacheSequenceEdges("n1")
	require.True(t, errors.Is(err, domain.ErrCacheNotInitialized))

	require.NoError(t, g.InitializeCache("n1"))

	err = g.CacheSequenceEdges("n1")
	require.True(t, errors.Is(err, domain.ErrSequenceNotCached))

	provider.EXPECT().Sequence(gomock.Any(), "s1").
		Return(&domain.Sequence{Key: "s1", Keys: []string{"n0", "n1", "n2"}}, nil)
	require.NoError(t, g.CacheNodeSequence(context.Background(), "n1"))

	require.NoError(t, g.CacheSequenceEdges("n1"))
	require.True(t, g.SequenceEdgesCached("n1"))

	node := g.Node("n1")
	require.Len(t, node.SequenceEdges(), 2)
}

func TestGraph_CacheSpatialEdges_FilterAndGuard(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))
	seedFullNode(t, g, provider, record("good", "s2", 0, 5, 0.9))
	seedFullNode(t, g, provider, record("bad", "s3", 0, 8, 0.1))
	require.NoError(t, g.InitializeCache("n1"))

	expr, err := domain.ParseFilter([]any{">=", "quality", 0.5})
	require.NoError(t, err)
	require.NoError(t, g.SetFilter(expr))

	require.NoError(t, g.CacheSpatialEdges("n1"))
	require.True(t, g.SpatialEdgesCached("n1"))

	spatialEdges := g.Node("n1").SpatialEdges()
	require.Len(t, spatialEdges, 1)
	require.Equal(t, domain.EdgeStepForward, spatialEdges[0].Type)
	require.Equal(t, "good", spatialEdges[0].To)

	// Recomputing a still-cached set is a programming error.
	err = g.CacheSpatialEdges("n1")
	require.True(t, errors.Is(err, domain.ErrSpatialEdgesCached))

	g.ResetSpatialEdges()
	require.False(t, g.SpatialEdgesCached("n1"))
	require.NoError(t, g.CacheSpatialEdges("n1"))
}

func TestGraph_Reset_Retention(t *testing.T) {
	g, provider := setupGraphTest(t)
	seedFullNode(t, g, provider, record("keep", "s1", 0, 0, 1))
	seedFullNode(t, g, provider, record("drop", "s2", 5, 0, 1))
	require.NoError(t, g.InitializeCache("keep"))

	provider.EXPECT().Sequence(gomock.Any(), "s1").
		Return(&domain.Sequence{Key: "s1", Keys: []string{"keep"}}, nil)
	require.NoError(t, g.CacheNodeSequence(context.Background(), "keep"))
	require.NoError(t, g.CacheSequenceEdges("keep"))
	require.NoError(t, g.CacheSpatialEdges("keep"))

	provider.EXPECT().CoreImages(gomock.Any(), "0_0").Return(nil, nil)
	require.NoError(t, g.CacheTiles(context.Background(), "keep"))
	require.True(t, g.HasTiles("keep"))

	g.Reset([]string{"keep"})

	require.True(t, g.NodeFull("keep"))
	require.False(t, g.HasNode("drop"))
	require.True(t, g.HasSequence("s1"))
	require.True(t, g.HasInitializedCache("keep"))

	// Kept nodes keep sequence edges but lose spatial edges and tiles.
	require.True(t, g.SequenceEdgesCached("keep"))
	require.False(t, g.SpatialEdgesCached("keep"))
	require.False(t, g.HasTiles("keep"))
}

func TestGraph_Reset_DiscardsInFlightCommits(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, provider := setupGraphTest(t)

		fetched := make(chan struct{})
		provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				close(fetched)
				time.Sleep(10 * time.Millisecond)
				return map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil
			})

		done := make(chan error, 1)
		go func() {
			done <- g.CacheFull(context.Background(), "n1")
		}()

		<-fetched
		g.Reset(nil)

		err := <-done
		require.True(t, errors.Is(err, domain.ErrAborted))
		require.False(t, g.HasNode("n1"))
	})
}

func TestGraph_CacheFull_AfterResetRefetches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, provider := setupGraphTest(t)

		fetched := make(chan struct{})
		release := make(chan struct{})
		provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				close(fetched)
				<-release
				return map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil
			})
		provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			Return(map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil)

		done := make(chan error, 1)
		go func() {
			done <- g.CacheFull(context.Background(), "n1")
		}()

		<-fetched
		g.Reset(nil)

		// A request after the reset dispatches a fresh fetch instead of
		// joining the pre-reset flight, whose commit will be discarded.
		require.NoError(t, g.CacheFull(context.Background(), "n1"))
		require.True(t, g.NodeFull("n1"))

		close(release)
		require.True(t, errors.Is(<-done, domain.ErrAborted))
		require.True(t, g.NodeFull("n1"))
	})
}

func TestGraph_Uncache_EvictsLRU(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockDataProvider(ctrl)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
		log.EXPECT().Error(gomock.Any()).AnyTimes()

		cfg := testConfig()
		cfg.MaxUnusedNodes = 1
		g := graph.New(provider, log, edges.NewCalculator(edges.DefaultSettings()), cfg)

		for i, key := range []string{"old", "mid", "new"} {
			seedFullNode(t, g, provider, record(key, "s-"+key, float64(i), 0, 1))
			require.NoError(t, g.InitializeCache(key))
			time.Sleep(time.Second)
		}

		// Refresh "old" so "mid" becomes the least recently accessed.
		g.TouchAccess("old")

		// "new" is retained; of the two unused nodes, the least recently
		// accessed is evicted until one remains.
		g.Uncache([]string{"new"})

		require.False(t, g.HasNode("mid"))
		require.True(t, g.HasNode("old"))
		require.True(t, g.HasNode("new"))
	})
}

func TestGraph_Uncache_DropsStubsOfEvictedCells(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockDataProvider(ctrl)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	cfg := testConfig()
	cfg.MaxUnusedNodes = 0
	g := graph.New(provider, log, edges.NewCalculator(edges.DefaultSettings()), cfg)

	seedFullNode(t, g, provider, record("n1", "s1", 0, 0, 1))
	require.NoError(t, g.InitializeCache("n1"))

	provider.EXPECT().CoreImages(gomock.Any(), "0_0").
		Return([]domain.NodeCore{
			{Key: "stub", SequenceKey: "s2", Position: domain.LatLonAlt{LatLon: testOrigin.Translate(5, 0)}},
		}, nil)
	require.NoError(t, g.CacheTiles(context.Background(), "n1"))
	require.True(t, g.HasNode("stub"))

	// Evicting the node drops its cell mark, so stubs expanded from that
	// cell go with it and are re-fetched with the next expansion.
	g.Uncache(nil)

	require.False(t, g.HasNode("n1"))
	require.False(t, g.HasNode("stub"))
}
