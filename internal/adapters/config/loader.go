// Package config provides the configuration loader for streetgraph.
package config

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up when no path is given.
const DefaultFilename = "streetgraph.yaml"

// Load reads a configuration file from the given path. A missing file
// yields the defaults; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, domain.WithDetail(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.WithDetail(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	if err := validate(cfg); err != nil {
		return nil, domain.WithDetail(err, "path", path)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Provider.Endpoint == "" {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "provider.endpoint")
	}
	if cfg.Provider.TimeoutSeconds <= 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "provider.timeoutSeconds")
	}
	if cfg.Graph.SearchRadius <= 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "graph.searchRadius")
	}
	if cfg.Graph.TileRadius < cfg.Graph.SearchRadius {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "graph.tileRadius")
	}
	if cfg.Graph.MaxUnusedNodes < 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "graph.maxUnusedNodes")
	}
	if cfg.Graph.FetchParallelism <= 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "graph.fetchParallelism")
	}
	if cfg.Edges.MaxDistance <= 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "edges.maxDistance")
	}
	if cfg.Edges.PanoMaxItems <= 0 {
		return domain.WithDetail(domain.ErrConfigInvalid, "field", "edges.panoMaxItems")
	}
	return nil
}
