package domain

// CameraInfo describes the capture device of a node.
type CameraInfo struct {
	Type        string  `json:"type"`
	Pano        bool    `json:"pano"`
	FocalLength float64 `json:"focalLength"`
}

// Mesh is the reconstruction geometry attached to a node's assets.
type Mesh struct {
	Vertices []float64 `json:"vertices"`
	Faces    []int     `json:"faces"`
}

// NodeCore is the stub payload of a node: the fields known as soon as the
// node is referenced via a spatial or sequence lookup.
type NodeCore struct {
	Key              string    `json:"key"`
	SequenceKey      string    `json:"sequenceKey"`
	Position         LatLonAlt `json:"position"`
	OriginalPosition LatLonAlt `json:"originalPosition"`
}

// NodeFill is the remainder of a node's metadata, present once the node is full.
type NodeFill struct {
	CompassAngle float64    `json:"compassAngle"`
	Rotation     [3]float64 `json:"rotation"`
	CapturedAt   int64      `json:"capturedAt"`
	MergeCC      int64      `json:"mergeCC"`
	Camera       CameraInfo `json:"camera"`
	Quality      float64    `json:"quality"`
}

// NodeAssets holds the decoded image and mesh data of a node.
type NodeAssets struct {
	Image []byte
	Mesh  *Mesh
}

// Node is one geotagged image and its cached state. A node is created in
// stub form (core only) when first referenced and transitions to full when
// its metadata arrives. Assets are fetched only once full. The two edge sets
// are independently cacheable and independently resettable.
//
// Nodes are not self-synchronizing: the owning graph serializes mutation.
type Node struct {
	core   NodeCore
	fill   *NodeFill
	assets *NodeAssets

	sequenceEdges       []Edge
	sequenceEdgesCached bool
	spatialEdges        []Edge
	spatialEdgesCached  bool
}

// NewNode creates a stub node from core properties.
func NewNode(core NodeCore) *Node {
	return &Node{core: core}
}

// NewFullNode creates a node with complete metadata.
func NewFullNode(core NodeCore, fill NodeFill) *Node {
	return &Node{core: core, fill: &fill}
}

// Key returns the node's immutable unique key.
func (n *Node) Key() string { return n.core.Key }

// SequenceKey returns the key of the sequence the node belongs to.
func (n *Node) SequenceKey() string { return n.core.SequenceKey }

// Position returns the node's geographic position.
func (n *Node) Position() LatLonAlt { return n.core.Position }

// Full reports whether complete metadata is loaded.
func (n *Node) Full() bool { return n.fill != nil }

// Fill returns the node's full metadata. It must only be called when Full.
func (n *Node) Fill() NodeFill { return *n.fill }

// Pano reports whether the node is a full panorama. False for stubs.
func (n *Node) Pano() bool { return n.fill != nil && n.fill.Camera.Pano }

// MakeFull promotes a stub node with the given fill payload. Promoting an
// already full node is a no-op: the first metadata fetch wins.
func (n *Node) MakeFull(fill NodeFill) {
	if n.fill != nil {
		return
	}
	n.fill = &fill
}

// AssetsCached reports whether decoded image and mesh data are ready.
// AssetsCached implies Full.
func (n *Node) AssetsCached() bool { return n.assets != nil }

// Assets returns the node's cached assets, or nil.
func (n *Node) Assets() *NodeAssets { return n.assets }

// SetAssets stores the node's fetched image buffer and mesh. Assets require
// complete metadata; setting them twice is a no-op, the first fetch wins.
func (n *Node) SetAssets(assets *NodeAssets) error {
	if n.fill == nil {
		return WithDetail(ErrNodeNotFull, "key", n.core.Key)
	}
	if n.assets != nil {
		return nil
	}
	n.assets = assets
	return nil
}

// SequenceEdgesCached reports whether the sequence edge set is cached.
func (n *Node) SequenceEdgesCached() bool { return n.sequenceEdgesCached }

// SequenceEdges returns the cached sequence edge set.
func (n *Node) SequenceEdges() []Edge { return n.sequenceEdges }

// SetSequenceEdges stores the sequence edge set. Storing over a still-cached
// set is a programming error.
func (n *Node) SetSequenceEdges(edges []Edge) error {
	if n.sequenceEdgesCached {
		return WithDetail(ErrSequenceEdgesCached, "key", n.core.Key)
	}
	n.sequenceEdges = edges
	n.sequenceEdgesCached = true
	return nil
}

// SpatialEdgesCached reports whether the spatial edge set is cached for the
// current generation.
func (n *Node) SpatialEdgesCached() bool { return n.spatialEdgesCached }

// SpatialEdges returns the cached spatial edge set.
func (n *Node) SpatialEdges() []Edge { return n.spatialEdges }

// SetSpatialEdges stores the spatial edge set. Storing over a still-cached
// set is a programming error.
func (n *Node) SetSpatialEdges(edges []Edge) error {
	if n.spatialEdgesCached {
		return WithDetail(ErrSpatialEdgesCached, "key", n.core.Key)
	}
	n.spatialEdges = edges
	n.spatialEdgesCached = true
	return nil
}

// ResetSpatialEdges clears the spatial edge set and its cached flag.
func (n *Node) ResetSpatialEdges() {
	n.spatialEdges = nil
	n.spatialEdgesCached = false
}

// Property resolves a dotted property path against the node for filter
// evaluation. The second return is false when any path segment is absent,
// which includes fill-backed properties on stub nodes.
func (n *Node) Property(path string) (any, bool) {
	switch path {
	case "key":
		return n.core.Key, true
	case "sequenceKey":
		return n.core.SequenceKey, true
	case "full":
		return n.fill != nil, true
	case "assetsCached":
		return n.assets != nil, true
	case "lat":
		return n.core.Position.Lat, true
	case "lon":
		return n.core.Position.Lon, true
	case "alt":
		return n.core.Position.Alt, true
	}

	if n.fill == nil {
		return nil, false
	}
	switch path {
	case "capturedAt":
		return float64(n.fill.CapturedAt), true
	case "mergeCC":
		return float64(n.fill.MergeCC), true
	case "compassAngle":
		return n.fill.CompassAngle, true
	case "quality":
		return n.fill.Quality, true
	case "camera.type":
		return n.fill.Camera.Type, true
	case "camera.pano":
		return n.fill.Camera.Pano, true
	case "camera.focalLength":
		return n.fill.Camera.FocalLength, true
	}
	return nil, false
}
