package domain_test

import (
	"errors"
	"testing"

	"go.trai.ch/streetgraph/internal/core/domain"
)

func stubNode(key, sequenceKey string) *domain.Node {
	return domain.NewNode(domain.NodeCore{Key: key, SequenceKey: sequenceKey})
}

func fullNode(key, sequenceKey string) *domain.Node {
	return domain.NewFullNode(
		domain.NodeCore{Key: key, SequenceKey: sequenceKey},
		domain.NodeFill{CompassAngle: 90, Quality: 0.8, Camera: domain.CameraInfo{Type: "perspective"}},
	)
}

func TestNode_StubToFullTransition(t *testing.T) {
	n := stubNode("n1", "s1")
	if n.Full() {
		t.Fatal("stub node reported full")
	}

	n.MakeFull(domain.NodeFill{CompassAngle: 45})
	if !n.Full() {
		t.Fatal("node not full after MakeFull")
	}
	if n.Fill().CompassAngle != 45 {
		t.Errorf("unexpected fill: %v", n.Fill())
	}

	// First metadata fetch wins.
	n.MakeFull(domain.NodeFill{CompassAngle: 99})
	if n.Fill().CompassAngle != 45 {
		t.Errorf("second MakeFull overwrote fill: %v", n.Fill().CompassAngle)
	}
}

func TestNode_SetAssetsRequiresFull(t *testing.T) {
	n := stubNode("n1", "s1")
	err := n.SetAssets(&domain.NodeAssets{Image: []byte{1}})
	if !errors.Is(err, domain.ErrNodeNotFull) {
		t.Fatalf("expected ErrNodeNotFull, got %v", err)
	}

	n.MakeFull(domain.NodeFill{})
	if err := n.SetAssets(&domain.NodeAssets{Image: []byte{1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.AssetsCached() {
		t.Fatal("assets not cached after SetAssets")
	}

	// First fetch wins.
	if err := n.SetAssets(&domain.NodeAssets{Image: []byte{2}}); err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if n.Assets().Image[0] != 1 {
		t.Error("repeated SetAssets replaced assets")
	}
}

func TestNode_EdgeSetGuards(t *testing.T) {
	n := fullNode("n1", "s1")

	if err := n.SetSequenceEdges(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := n.SetSequenceEdges(nil)
	if !errors.Is(err, domain.ErrSequenceEdgesCached) {
		t.Fatalf("expected ErrSequenceEdgesCached, got %v", err)
	}
	if !domain.IsInvariantViolation(err) {
		t.Error("double sequence edge set should be an invariant violation")
	}

	if err := n.SetSpatialEdges(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = n.SetSpatialEdges(nil)
	if !errors.Is(err, domain.ErrSpatialEdgesCached) {
		t.Fatalf("expected ErrSpatialEdgesCached, got %v", err)
	}

	n.ResetSpatialEdges()
	if n.SpatialEdgesCached() {
		t.Fatal("spatial edges still cached after reset")
	}
	if err := n.SetSpatialEdges(nil); err != nil {
		t.Fatalf("recompute after reset failed: %v", err)
	}
	if !n.SequenceEdgesCached() {
		t.Error("spatial reset touched sequence edges")
	}
}

func TestNode_Property(t *testing.T) {
	stub := stubNode("n1", "s1")

	if v, ok := stub.Property("key"); !ok || v != "n1" {
		t.Errorf("key = %v, %v", v, ok)
	}
	if v, ok := stub.Property("full"); !ok || v != false {
		t.Errorf("full = %v, %v", v, ok)
	}
	if _, ok := stub.Property("quality"); ok {
		t.Error("fill-backed property resolved on stub")
	}
	if _, ok := stub.Property("unknown"); ok {
		t.Error("unknown property resolved")
	}

	full := fullNode("n2", "s1")
	if v, ok := full.Property("camera.type"); !ok || v != "perspective" {
		t.Errorf("camera.type = %v, %v", v, ok)
	}
	if v, ok := full.Property("quality"); !ok || v != 0.8 {
		t.Errorf("quality = %v, %v", v, ok)
	}
}
