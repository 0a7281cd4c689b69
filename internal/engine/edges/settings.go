package edges

// Settings holds the classification thresholds of the edge calculator.
// Distances are meters, angles are degrees. The values are configuration,
// not policy: tuning them does not change the algorithm shape.
type Settings struct {
	// MaxDistance is the radius beyond which candidates are discarded
	// before any classification.
	MaxDistance float64 `yaml:"maxDistance"`

	// StepMaxDistance caps step edge length.
	StepMaxDistance float64 `yaml:"stepMaxDistance"`
	// StepMaxDrift is the maximum deviation of the motion azimuth from a
	// step band's direction.
	StepMaxDrift float64 `yaml:"stepMaxDrift"`
	// StepMaxDirectionChange is the maximum heading difference for a step.
	StepMaxDirectionChange float64 `yaml:"stepMaxDirectionChange"`

	// TurnMaxDistance caps turn edge length.
	TurnMaxDistance float64 `yaml:"turnMaxDistance"`
	// TurnMinDirectionChange is the heading change from which a candidate
	// counts as a sharp turn rather than a step.
	TurnMinDirectionChange float64 `yaml:"turnMinDirectionChange"`
	// TurnMinUTurnChange is the heading change from which a turn counts as
	// a U-turn.
	TurnMinUTurnChange float64 `yaml:"turnMinUTurnChange"`

	// PanoMinDistance discards panoramas that are effectively the same spot.
	PanoMinDistance float64 `yaml:"panoMinDistance"`
	// PanoMaxDistance caps pano edge length.
	PanoMaxDistance float64 `yaml:"panoMaxDistance"`
	// PanoPreferredDistance is the ideal pano hop length used for scoring.
	PanoPreferredDistance float64 `yaml:"panoPreferredDistance"`
	// PanoMaxItems bounds how many pano edges a node retains.
	PanoMaxItems int `yaml:"panoMaxItems"`

	// SimilarMaxDistance is the distance below which two viewpoints may be
	// near-duplicates.
	SimilarMaxDistance float64 `yaml:"similarMaxDistance"`
	// SimilarMaxDirectionChange is the heading tolerance for near-duplicates.
	SimilarMaxDirectionChange float64 `yaml:"similarMaxDirectionChange"`
}

// DefaultSettings returns the thresholds tuned for street-level capture
// spacing of a few meters.
func DefaultSettings() Settings {
	return Settings{
		MaxDistance: 20,

		StepMaxDistance:        20,
		StepMaxDrift:           30,
		StepMaxDirectionChange: 45,

		TurnMaxDistance:        15,
		TurnMinDirectionChange: 45,
		TurnMinUTurnChange:     135,

		PanoMinDistance:       0.1,
		PanoMaxDistance:       20,
		PanoPreferredDistance: 5,
		PanoMaxItems:          4,

		SimilarMaxDistance:        2.5,
		SimilarMaxDirectionChange: 25,
	}
}
