package config

import (
	"go.trai.ch/streetgraph/internal/engine/edges"
)

// Config is the structure of the streetgraph.yaml configuration file.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Graph    GraphConfig    `yaml:"graph"`
	Edges    edges.Settings `yaml:"edges"`
}

// ProviderConfig configures the image API client.
type ProviderConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// GraphConfig configures the graph store.
type GraphConfig struct {
	SearchRadius     float64 `yaml:"searchRadius"`
	TileRadius       float64 `yaml:"tileRadius"`
	MaxUnusedNodes   int     `yaml:"maxUnusedNodes"`
	FetchParallelism int     `yaml:"fetchParallelism"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Endpoint:       "https://graph.mapillary.com",
			TimeoutSeconds: 30,
		},
		Graph: GraphConfig{
			SearchRadius:     20,
			TileRadius:       200,
			MaxUnusedNodes:   100,
			FetchParallelism: 4,
		},
		Edges: edges.DefaultSettings(),
	}
}
