package graph_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/core/ports/mocks"
	"go.trai.ch/streetgraph/internal/engine/edges"
	"go.trai.ch/streetgraph/internal/engine/graph"
	"go.uber.org/mock/gomock"
)

type serviceTestMocks struct {
	provider *mocks.MockDataProvider
	log      *mocks.MockLogger
}

func setupServiceTest(t *testing.T) (*graph.Service, serviceTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := serviceTestMocks{
		provider: mocks.NewMockDataProvider(ctrl),
		log:      mocks.NewMockLogger(ctrl),
	}

	m.log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	m.log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	m.log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	m.log.EXPECT().Error(gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()

	calculator := edges.NewCalculator(edges.DefaultSettings())
	store := graph.New(m.provider, m.log, calculator, testConfig())
	return graph.NewService(store, m.log, tracer), m
}

// expectPipeline sets up the provider calls of a complete single-node cache
// pipeline around the test origin.
func expectPipeline(m serviceTestMocks, key, sequenceKey string) {
	rec := record(key, sequenceKey, 0, 0, 1)

	m.provider.EXPECT().Images(gomock.Any(), []string{key}).
		Return(map[string]ports.NodeRecord{key: rec}, nil).Times(1)
	m.provider.EXPECT().Sequence(gomock.Any(), sequenceKey).
		Return(&domain.Sequence{Key: sequenceKey, Keys: []string{"prev", key, "next"}}, nil).Times(1)
	m.provider.EXPECT().ImageBuffer(gomock.Any(), key).
		Return([]byte{0xff}, nil).Times(1)
	m.provider.EXPECT().Mesh(gomock.Any(), key).
		Return(&domain.Mesh{}, nil).Times(1)
	m.provider.EXPECT().CoreImages(gomock.Any(), gomock.Any()).
		Return(nil, nil).AnyTimes()
}

func TestService_CacheNode_FullPipeline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)
		expectPipeline(m, "n1", "s1")

		task := s.CacheNode(context.Background(), "n1")
		<-task.Done()
		require.NoError(t, task.Err())

		node := task.Node()
		require.NotNil(t, node)
		require.True(t, node.Full())
		require.True(t, node.AssetsCached())

		// Edges resolve in the background after the task is done.
		synctest.Wait()
		require.True(t, node.SequenceEdgesCached())
		require.Len(t, node.SequenceEdges(), 2)
		require.True(t, node.SpatialEdgesCached())
	})
}

func TestService_CacheNode_Deduplicates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)
		expectPipeline(m, "n1", "s1")

		first := s.CacheNode(context.Background(), "n1")
		second := s.CacheNode(context.Background(), "n1")
		require.Same(t, first, second)

		<-first.Done()
		require.NoError(t, first.Err())
	})
}

func TestService_CacheNode_FetchErrorSurfaces(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)

		m.provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			Return(nil, domain.ErrTransport)

		task := s.CacheNode(context.Background(), "n1")
		<-task.Done()
		require.True(t, errors.Is(task.Err(), domain.ErrTransport))
		require.Nil(t, task.Node())
	})
}

func TestService_CacheNode_SequenceFailureDoesNotFailTask(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)

		m.provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			Return(map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil)
		m.provider.EXPECT().ImageBuffer(gomock.Any(), "n1").
			Return([]byte{0xff}, nil)
		m.provider.EXPECT().Mesh(gomock.Any(), "n1").
			Return(&domain.Mesh{}, nil)
		m.provider.EXPECT().Sequence(gomock.Any(), "s1").
			Return(nil, domain.ErrTransport)

		task := s.CacheNode(context.Background(), "n1")
		<-task.Done()
		require.NoError(t, task.Err())

		node := task.Node()
		require.NotNil(t, node)
		require.True(t, node.AssetsCached())

		// The failed sequence stage is logged, not surfaced, and the
		// spatial stage does not run without it.
		synctest.Wait()
		require.False(t, node.SequenceEdgesCached())
		require.False(t, node.SpatialEdgesCached())
	})
}

func TestService_Reset_AbortsPendingTasks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)

		fetching := make(chan struct{})
		m.provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				close(fetching)
				<-ctx.Done()
				return nil, ctx.Err()
			})

		task := s.CacheNode(context.Background(), "n1")
		<-fetching

		s.Reset(nil)

		<-task.Done()
		require.True(t, errors.Is(task.Err(), domain.ErrAborted))

		synctest.Wait()
		require.Nil(t, s.Node("n1"))
	})
}

func TestService_CacheNode_AfterResetStartsFreshTask(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)

		fetching1 := make(chan struct{})
		release1 := make(chan struct{})
		m.provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				close(fetching1)
				<-release1
				return nil, ctx.Err()
			})

		fetching2 := make(chan struct{})
		release2 := make(chan struct{})
		m.provider.EXPECT().Images(gomock.Any(), []string{"n1"}).
			DoAndReturn(func(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
				close(fetching2)
				<-release2
				return map[string]ports.NodeRecord{"n1": record("n1", "s1", 0, 0, 1)}, nil
			})
		m.provider.EXPECT().Sequence(gomock.Any(), "s1").
			Return(&domain.Sequence{Key: "s1", Keys: []string{"prev", "n1", "next"}}, nil)
		m.provider.EXPECT().ImageBuffer(gomock.Any(), "n1").
			Return([]byte{0xff}, nil)
		m.provider.EXPECT().Mesh(gomock.Any(), "n1").
			Return(&domain.Mesh{}, nil)
		m.provider.EXPECT().CoreImages(gomock.Any(), gomock.Any()).
			Return(nil, nil).AnyTimes()

		first := s.CacheNode(context.Background(), "n1")
		<-fetching1

		s.Reset(nil)
		<-first.Done()
		require.True(t, errors.Is(first.Err(), domain.ErrAborted))

		second := s.CacheNode(context.Background(), "n1")
		require.NotSame(t, first, second)
		<-fetching2

		// The aborted pipeline winding down must not unregister the new
		// task: a third request still joins it.
		close(release1)
		synctest.Wait()
		require.Same(t, second, s.CacheNode(context.Background(), "n1"))

		close(release2)
		<-second.Done()
		require.NoError(t, second.Err())
	})
}

func TestService_SetFilter_InvalidatesSpatialEdges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)
		expectPipeline(m, "n1", "s1")

		task := s.CacheNode(context.Background(), "n1")
		<-task.Done()
		require.NoError(t, task.Err())
		synctest.Wait()

		node := task.Node()
		require.True(t, node.SpatialEdgesCached())

		// Setting an equivalent filter is a no-op.
		require.NoError(t, s.SetFilter(nil))
		require.True(t, node.SpatialEdgesCached())

		expr, err := domain.ParseFilter([]any{"==", "full", true})
		require.NoError(t, err)
		require.NoError(t, s.SetFilter(expr))

		require.False(t, node.SpatialEdgesCached())
		require.True(t, node.SequenceEdgesCached())
		require.True(t, node.AssetsCached())
	})
}

func TestService_CacheSequence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupServiceTest(t)

		m.provider.EXPECT().Sequence(gomock.Any(), "s1").
			Return(&domain.Sequence{Key: "s1", Keys: []string{"a", "b"}}, nil).Times(1)

		seq, err := s.CacheSequence(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, seq.Keys)

		// Cached, no second fetch.
		again, err := s.CacheSequence(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, seq, again)
	})
}
