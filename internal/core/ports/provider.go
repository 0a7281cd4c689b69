// Package ports defines the core interfaces for the library.
package ports

import (
	"context"

	"go.trai.ch/streetgraph/internal/core/domain"
)

// NodeRecord is a full metadata record returned by a provider.
type NodeRecord struct {
	Core domain.NodeCore
	Fill domain.NodeFill
}

// DataProvider is the backing data source for the graph: node metadata,
// spatial tile contents, sequence membership lists, and asset payloads.
// Fetches fail with a transport error on network failure or timeout.
//
//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks
type DataProvider interface {
	// CoreImages returns the stub records of every image inside a tile cell.
	CoreImages(ctx context.Context, cellID string) ([]domain.NodeCore, error)

	// Images returns full metadata records for the given image keys.
	// Keys unknown to the backend are absent from the result.
	Images(ctx context.Context, keys []string) (map[string]NodeRecord, error)

	// Sequence returns the ordered key list of a sequence.
	Sequence(ctx context.Context, sequenceKey string) (*domain.Sequence, error)

	// ImageBuffer returns the encoded image bytes of a node.
	ImageBuffer(ctx context.Context, key string) ([]byte, error)

	// Mesh returns the reconstruction geometry of a node.
	Mesh(ctx context.Context, key string) (*domain.Mesh, error)
}
