package domain

// EdgeType classifies a directed navigable relation between two nodes.
type EdgeType string

const (
	// EdgeSequenceNext points to the successor within the capture sequence.
	EdgeSequenceNext EdgeType = "sequence-next"
	// EdgeSequencePrev points to the predecessor within the capture sequence.
	EdgeSequencePrev EdgeType = "sequence-prev"
	// EdgeStepForward points to the closest node roughly ahead.
	EdgeStepForward EdgeType = "step-forward"
	// EdgeStepBackward points to the closest node roughly behind.
	EdgeStepBackward EdgeType = "step-backward"
	// EdgeStepLeft points to the closest node roughly to the left.
	EdgeStepLeft EdgeType = "step-left"
	// EdgeStepRight points to the closest node roughly to the right.
	EdgeStepRight EdgeType = "step-right"
	// EdgeTurnLeft points to a node reached by a sharp left turn.
	EdgeTurnLeft EdgeType = "turn-left"
	// EdgeTurnRight points to a node reached by a sharp right turn.
	EdgeTurnRight EdgeType = "turn-right"
	// EdgeTurnU points to a node facing the opposite direction.
	EdgeTurnU EdgeType = "turn-u"
	// EdgePano points to a nearby full panorama.
	EdgePano EdgeType = "pano"
	// EdgePerspectivePano bridges a perspective node to a nearby panorama
	// even when the panorama's own direction constraint would exclude the
	// reverse edge.
	EdgePerspectivePano EdgeType = "perspective-pano"
	// EdgeSimilar flags a near-duplicate viewpoint used for snapping.
	EdgeSimilar EdgeType = "similar"
)

// EdgeData carries the relative geometry the navigation layer needs to
// reconstruct a transition along the edge.
type EdgeData struct {
	// WorldMotionAzimuth is the bearing in degrees from the source node to
	// the destination node, measured clockwise from north.
	WorldMotionAzimuth float64 `json:"worldMotionAzimuth"`
	// MotionChange is the azimuth relative to the source node's heading.
	MotionChange float64 `json:"motionChange"`
	// DirectionChange is the heading difference between the two nodes.
	DirectionChange float64 `json:"directionChange"`
	// Distance is the planar distance in meters between the two nodes.
	Distance float64 `json:"distance"`
}

// Edge is a directed relation (From, To, Type) plus relative geometry.
// Edges are derived data: they are owned by the source node and are
// invalidated and recomputed as a whole set, never patched incrementally.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
	Data EdgeData `json:"data"`
}
