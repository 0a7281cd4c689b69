// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/streetgraph/internal/adapters/api"
	_ "go.trai.ch/streetgraph/internal/adapters/config"
	_ "go.trai.ch/streetgraph/internal/adapters/logger"
	_ "go.trai.ch/streetgraph/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/streetgraph/internal/app"
	_ "go.trai.ch/streetgraph/internal/engine/graph"
)
