package domain_test

import (
	"errors"
	"testing"

	"go.trai.ch/streetgraph/internal/core/domain"
)

func TestWithDetail_KeepsSentinelMatchable(t *testing.T) {
	err := domain.WithDetail(domain.ErrNodeNotFound, "key", "n1")
	if !errors.Is(err, domain.ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound in chain, got %v", err)
	}

	// Wrapping an already-detailed error keeps the whole chain intact.
	err = domain.WithDetail(err, "cell", "0_0")
	if !errors.Is(err, domain.ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound after second detail, got %v", err)
	}
}

func TestWithDetail_PreservesInvariantClassification(t *testing.T) {
	err := domain.WithDetail(domain.ErrCacheAlreadyInitialized, "key", "n1")
	if !domain.IsInvariantViolation(err) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if domain.IsInvariantViolation(domain.WithDetail(domain.ErrTransport, "key", "n1")) {
		t.Fatal("transport error misclassified as invariant violation")
	}
}
