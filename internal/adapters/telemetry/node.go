package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/streetgraph/internal/adapters/telemetry/progrock"
	"go.trai.ch/streetgraph/internal/core/ports"
)

// TracerNodeID is the unique identifier for the tracer adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return progrock.New(), nil
		},
	})
}
