// Package app implements the application layer for streetgraph.
package app

import (
	"context"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/engine/graph"
)

// App represents the main application logic. It exposes the caching
// operations the interfaces drive.
type App struct {
	service *graph.Service
}

// New creates a new App instance.
func New(service *graph.Service) *App {
	return &App{service: service}
}

// CacheNode caches the node and waits for metadata, assets, and sequence
// edges. Spatial edges keep resolving in the background.
func (a *App) CacheNode(ctx context.Context, key string) (*domain.Node, error) {
	task := a.service.CacheNode(ctx, key)
	select {
	case <-task.Done():
	case <-ctx.Done():
		return nil, domain.WithDetail(domain.ErrAborted, "key", key)
	}
	if err := task.Err(); err != nil {
		return nil, err
	}
	return task.Node(), nil
}

// CacheSequence caches a sequence by key.
func (a *App) CacheSequence(ctx context.Context, sequenceKey string) (*domain.Sequence, error) {
	return a.service.CacheSequence(ctx, sequenceKey)
}

// SetFilter parses and applies a spatial-edge filter expression.
func (a *App) SetFilter(raw []any) error {
	expr, err := domain.ParseFilter(raw)
	if err != nil {
		return err
	}
	return a.service.SetFilter(expr)
}

// Reset clears the graph, preserving the given keys.
func (a *App) Reset(keepKeys []string) {
	a.service.Reset(keepKeys)
}

// Uncache evicts least-recently-used nodes, preserving the given keys.
func (a *App) Uncache(keepKeys []string) {
	a.service.Uncache(keepKeys)
}

// Node returns the cached node, or nil when unknown.
func (a *App) Node(key string) *domain.Node {
	return a.service.Node(key)
}
