package api

import "go.trai.ch/streetgraph/internal/core/domain"

// coreDTO is the wire representation of stub image metadata.
type coreDTO struct {
	Key         string  `json:"key"`
	SequenceKey string  `json:"sequence_key"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Alt         float64 `json:"alt"`
	OriginalLat float64 `json:"original_lat"`
	OriginalLon float64 `json:"original_lon"`
	OriginalAlt float64 `json:"original_alt"`
}

// imageDTO is the wire representation of full image metadata.
type imageDTO struct {
	coreDTO

	CompassAngle float64    `json:"compass_angle"`
	Rotation     [3]float64 `json:"rotation"`
	CapturedAt   int64      `json:"captured_at"`
	MergeCC      int64      `json:"merge_cc"`
	Camera       cameraDTO  `json:"camera"`
	Quality      float64    `json:"quality_score"`
}

type cameraDTO struct {
	Type        string  `json:"type"`
	Pano        bool    `json:"pano"`
	FocalLength float64 `json:"focal_length"`
}

type sequenceDTO struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

type meshDTO struct {
	Vertices []float64 `json:"vertices"`
	Faces    []int     `json:"faces"`
}

func (d coreDTO) toDomain() domain.NodeCore {
	return domain.NodeCore{
		Key:         d.Key,
		SequenceKey: d.SequenceKey,
		Position: domain.LatLonAlt{
			LatLon: domain.LatLon{Lat: d.Lat, Lon: d.Lon},
			Alt:    d.Alt,
		},
		OriginalPosition: domain.LatLonAlt{
			LatLon: domain.LatLon{Lat: d.OriginalLat, Lon: d.OriginalLon},
			Alt:    d.OriginalAlt,
		},
	}
}

func (d imageDTO) toFill() domain.NodeFill {
	return domain.NodeFill{
		CompassAngle: d.CompassAngle,
		Rotation:     d.Rotation,
		CapturedAt:   d.CapturedAt,
		MergeCC:      d.MergeCC,
		Camera: domain.CameraInfo{
			Type:        d.Camera.Type,
			Pano:        d.Camera.Pano,
			FocalLength: d.Camera.FocalLength,
		},
		Quality: d.Quality,
	}
}
