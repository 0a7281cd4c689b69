// Package edges implements the pure geometric edge classification of the
// street image graph. The calculator has no mutable state beyond its
// threshold settings.
package edges

import (
	"math"
	"slices"
	"sort"

	"go.trai.ch/streetgraph/internal/core/domain"
)

// PotentialEdge is a candidate node annotated with its geometric relation
// to the source node.
type PotentialEdge struct {
	Key string
	// Distance is the planar distance to the candidate in meters.
	Distance float64
	// VerticalDistance is the altitude difference in meters.
	VerticalDistance float64
	// WorldMotionAzimuth is the bearing to the candidate, degrees clockwise
	// from north.
	WorldMotionAzimuth float64
	// MotionChange is the bearing relative to the source node's heading.
	MotionChange float64
	// DirectionChange is the heading difference between candidate and source.
	DirectionChange float64
	// RotationDiff is the magnitude of the rotation vector difference.
	RotationDiff float64
	// SameSequence reports sequence co-membership.
	SameSequence bool
	// SameMergeCC reports whether both nodes are in the same reconstruction
	// connected component.
	SameMergeCC bool
	// Pano reports whether the candidate is a full panorama.
	Pano bool
}

// Calculator classifies candidate sets into typed edge sets.
type Calculator struct {
	settings Settings
}

// NewCalculator creates a Calculator with the given thresholds.
func NewCalculator(settings Settings) *Calculator {
	return &Calculator{settings: settings}
}

// PotentialEdges computes the geometric relation of every candidate to the
// source node, discarding candidates beyond MaxDistance, in the exclusion
// set, lacking full metadata, or identical to the source. The source node
// must be full.
func (c *Calculator) PotentialEdges(
	node *domain.Node,
	candidates []*domain.Node,
	excluded []string,
) ([]PotentialEdge, error) {
	if !node.Full() {
		return nil, domain.ErrNodeNotFull
	}

	fill := node.Fill()
	potentials := make([]PotentialEdge, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Key() == node.Key() || !candidate.Full() {
			continue
		}
		if slices.Contains(excluded, candidate.Key()) {
			continue
		}

		east, north, up := node.Position().ENU(candidate.Position())
		distance := math.Hypot(east, north)
		if distance > c.settings.MaxDistance {
			continue
		}

		candidateFill := candidate.Fill()
		azimuth := math.Atan2(east, north) * 180 / math.Pi

		potentials = append(potentials, PotentialEdge{
			Key:                candidate.Key(),
			Distance:           distance,
			VerticalDistance:   up,
			WorldMotionAzimuth: domain.NormalizeAngle(azimuth),
			MotionChange:       domain.AngleDifference(fill.CompassAngle, azimuth),
			DirectionChange:    domain.AngleDifference(fill.CompassAngle, candidateFill.CompassAngle),
			RotationDiff:       rotationDiff(fill.Rotation, candidateFill.Rotation),
			SameSequence:       candidate.SequenceKey() == node.SequenceKey(),
			SameMergeCC:        candidateFill.MergeCC == fill.MergeCC,
			Pano:               candidateFill.Camera.Pano,
		})
	}
	return potentials, nil
}

func rotationDiff(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// stepBand maps a relative motion direction to a step edge type.
type stepBand struct {
	direction float64
	edgeType  domain.EdgeType
}

var stepBands = []stepBand{
	{0, domain.EdgeStepForward},
	{90, domain.EdgeStepRight},
	{-90, domain.EdgeStepLeft},
	{180, domain.EdgeStepBackward},
}

// StepEdges partitions potential edges into the four directional step bands.
// Within each band the closest candidate wins: at most one edge per band,
// so navigation is never ambiguous.
func (c *Calculator) StepEdges(node *domain.Node, potentials []PotentialEdge) []domain.Edge {
	var result []domain.Edge
	for _, band := range stepBands {
		var best *PotentialEdge
		for i := range potentials {
			p := &potentials[i]
			if p.Pano || !p.SameMergeCC {
				continue
			}
			if p.Distance > c.settings.StepMaxDistance {
				continue
			}
			if math.Abs(p.DirectionChange) > c.settings.StepMaxDirectionChange {
				continue
			}
			drift := math.Abs(domain.AngleDifference(band.direction, p.MotionChange))
			if drift > c.settings.StepMaxDrift {
				continue
			}
			if best == nil || p.Distance < best.Distance {
				best = p
			}
		}
		if best != nil {
			result = append(result, makeEdge(node.Key(), band.edgeType, *best))
		}
	}
	return result
}

// TurnEdges selects the closest candidate per sharp-turn band: left, right,
// and U-turn, classified by heading change.
func (c *Calculator) TurnEdges(node *domain.Node, potentials []PotentialEdge) []domain.Edge {
	best := map[domain.EdgeType]*PotentialEdge{}
	for i := range potentials {
		p := &potentials[i]
		if p.Pano || !p.SameMergeCC {
			continue
		}
		if p.Distance > c.settings.TurnMaxDistance {
			continue
		}
		change := math.Abs(p.DirectionChange)
		if change < c.settings.TurnMinDirectionChange {
			continue
		}
		var edgeType domain.EdgeType
		switch {
		case change >= c.settings.TurnMinUTurnChange:
			edgeType = domain.EdgeTurnU
		case p.DirectionChange > 0:
			edgeType = domain.EdgeTurnRight
		default:
			edgeType = domain.EdgeTurnLeft
		}
		if current := best[edgeType]; current == nil || p.Distance < current.Distance {
			best[edgeType] = p
		}
	}

	var result []domain.Edge
	for _, edgeType := range []domain.EdgeType{domain.EdgeTurnLeft, domain.EdgeTurnRight, domain.EdgeTurnU} {
		if p := best[edgeType]; p != nil {
			result = append(result, makeEdge(node.Key(), edgeType, *p))
		}
	}
	return result
}

// PanoEdges selects candidates that are full panoramas within the configured
// distance window. Multiple edges may be retained, up to PanoMaxItems,
// preferring candidates nearest the preferred hop distance: panorama
// browsing is non-directional, so no band restriction applies.
func (c *Calculator) PanoEdges(node *domain.Node, potentials []PotentialEdge) []domain.Edge {
	selected := c.selectPanos(potentials, c.settings.PanoMaxItems)
	result := make([]domain.Edge, 0, len(selected))
	for _, p := range selected {
		result = append(result, makeEdge(node.Key(), domain.EdgePano, p))
	}
	return result
}

// PerspectiveToPanoEdges bridges a perspective node to the single best
// nearby panorama, ignoring the panorama's own direction constraint so the
// bridge exists even when the reverse edge would not.
func (c *Calculator) PerspectiveToPanoEdges(node *domain.Node, potentials []PotentialEdge) []domain.Edge {
	if node.Pano() {
		return nil
	}
	selected := c.selectPanos(potentials, 1)
	if len(selected) == 0 {
		return nil
	}
	return []domain.Edge{makeEdge(node.Key(), domain.EdgePerspectivePano, selected[0])}
}

func (c *Calculator) selectPanos(potentials []PotentialEdge, limit int) []PotentialEdge {
	var panos []PotentialEdge
	for _, p := range potentials {
		if !p.Pano || !p.SameMergeCC {
			continue
		}
		if p.Distance < c.settings.PanoMinDistance || p.Distance > c.settings.PanoMaxDistance {
			continue
		}
		panos = append(panos, p)
	}
	sort.Slice(panos, func(i, j int) bool {
		di := math.Abs(panos[i].Distance - c.settings.PanoPreferredDistance)
		dj := math.Abs(panos[j].Distance - c.settings.PanoPreferredDistance)
		return di < dj
	})
	if len(panos) > limit {
		panos = panos[:limit]
	}
	return panos
}

// SimilarEdges flags near-duplicate viewpoints: distance and heading change
// both below tight tolerances, outside the source's own sequence. These are
// consumed for snapping and de-duplication, independent of navigation edges.
func (c *Calculator) SimilarEdges(node *domain.Node, potentials []PotentialEdge) []domain.Edge {
	var result []domain.Edge
	for _, p := range potentials {
		if p.SameSequence {
			continue
		}
		if p.Distance > c.settings.SimilarMaxDistance {
			continue
		}
		if math.Abs(p.DirectionChange) > c.settings.SimilarMaxDirectionChange {
			continue
		}
		result = append(result, makeEdge(node.Key(), domain.EdgeSimilar, p))
	}
	return result
}

// SequenceEdges returns the immediate predecessor and successor edges of the
// node within its sequence's ordered key list. At sequence boundaries the
// missing side is simply absent.
func (c *Calculator) SequenceEdges(node *domain.Node, sequence *domain.Sequence) []domain.Edge {
	if sequence == nil {
		return nil
	}
	var result []domain.Edge
	if prev := sequence.Prev(node.Key()); prev != "" {
		result = append(result, domain.Edge{From: node.Key(), To: prev, Type: domain.EdgeSequencePrev})
	}
	if next := sequence.Next(node.Key()); next != "" {
		result = append(result, domain.Edge{From: node.Key(), To: next, Type: domain.EdgeSequenceNext})
	}
	return result
}

func makeEdge(from string, edgeType domain.EdgeType, p PotentialEdge) domain.Edge {
	return domain.Edge{
		From: from,
		To:   p.Key,
		Type: edgeType,
		Data: domain.EdgeData{
			WorldMotionAzimuth: p.WorldMotionAzimuth,
			MotionChange:       p.MotionChange,
			DirectionChange:    p.DirectionChange,
			Distance:           p.Distance,
		},
	}
}
