package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/streetgraph/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/streetgraph/internal/engine/graph"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the App with the adapters the interface layer needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			graph.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			service, err := graft.Dep[*graph.Service](ctx)
			if err != nil {
				return nil, err
			}
			return New(service), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    application,
				Logger: log,
			}, nil
		},
	})
}
