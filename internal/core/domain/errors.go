package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrNodeNotFound is returned when a requested node is not in the graph.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrSequenceNotFound is returned when a requested sequence is not in the graph.
	ErrSequenceNotFound = zerr.New("sequence not found")

	// ErrTransport is returned when a backing data fetch fails or times out.
	ErrTransport = zerr.New("data fetch failed")

	// ErrAborted is raised against caller-facing tasks still pending when the
	// service is reset.
	ErrAborted = zerr.New("request aborted")

	// ErrNodeNotFull is returned when an operation requires complete metadata
	// on a node that is still a stub.
	ErrNodeNotFull = zerr.New("node metadata not cached")

	// ErrSequenceNotCached is returned when edge computation needs a sequence
	// that has not been cached yet.
	ErrSequenceNotCached = zerr.New("sequence not cached")

	// ErrCacheAlreadyInitialized indicates a second InitializeCache call for
	// the same key before a reset. This is a programming error.
	ErrCacheAlreadyInitialized = zerr.New("node cache already initialized")

	// ErrCacheNotInitialized indicates edge caching was attempted before
	// InitializeCache. This is a programming error.
	ErrCacheNotInitialized = zerr.New("node cache not initialized")

	// ErrSequenceEdgesCached indicates sequence edges were recomputed while
	// still marked cached. This is a programming error.
	ErrSequenceEdgesCached = zerr.New("sequence edges already cached")

	// ErrSpatialEdgesCached indicates spatial edges were recomputed while
	// still marked cached for the current generation. This is a programming error.
	ErrSpatialEdgesCached = zerr.New("spatial edges already cached")

	// ErrFilterOperator is returned when a filter expression uses an unknown operator.
	ErrFilterOperator = zerr.New("unknown filter operator")

	// ErrFilterOperand is returned when a filter expression operand is malformed.
	ErrFilterOperand = zerr.New("invalid filter operand")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")
)

// WithDetail attaches a key/value pair to err without detaching it from the
// unwrap chain: errors.Is against err still matches. zerr.With on a bare
// sentinel returns a copy that no longer unwraps to the sentinel.
func WithDetail(err error, key string, value any) error {
	return zerr.With(zerr.Wrap(err, ""), key, value)
}

// IsInvariantViolation reports whether err is one of the fatal programming
// errors, as opposed to a transport or abort error. Callers must not retry
// these: they indicate an orchestrator bug.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrCacheAlreadyInitialized) ||
		errors.Is(err, ErrCacheNotInitialized) ||
		errors.Is(err, ErrSequenceEdgesCached) ||
		errors.Is(err, ErrSpatialEdgesCached)
}
