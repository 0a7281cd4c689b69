package api

import (
	"context"
	"time"

	"github.com/grindlemire/graft"
	"go.trai.ch/streetgraph/internal/adapters/config"
	"go.trai.ch/streetgraph/internal/core/ports"
)

const NodeID graft.ID = "adapter.api"

func init() {
	graft.Register(graft.Node[ports.DataProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.DataProvider, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
			return New(cfg.Provider.Endpoint, cfg.Provider.Token, timeout), nil
		},
	})
}
