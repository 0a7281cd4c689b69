package graph

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/streetgraph/internal/adapters/api"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/streetgraph/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/streetgraph/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/streetgraph/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/engine/edges"
)

// NodeID is the unique identifier for the graph service Graft node.
const NodeID graft.ID = "engine.graph"

func init() {
	graft.Register(graft.Node[*Service]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			api.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Service, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}

			provider, err := graft.Dep[ports.DataProvider](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			calculator := edges.NewCalculator(cfg.Edges)
			store := New(provider, log, calculator, Config{
				SearchRadius:     cfg.Graph.SearchRadius,
				TileRadius:       cfg.Graph.TileRadius,
				MaxUnusedNodes:   cfg.Graph.MaxUnusedNodes,
				FetchParallelism: cfg.Graph.FetchParallelism,
			})
			return NewService(store, log, tracer), nil
		},
	})
}
