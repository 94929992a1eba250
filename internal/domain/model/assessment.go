package model

import "time"

// Assessment is the outcome of one risk assessment.
type Assessment struct {
	ID         string    `json:"id"`
	Verdict    Verdict   `json:"verdict"`
	Label      string    `json:"label"`
	Advice     string    `json:"advice"`
	Features   []float64 `json:"features"`
	AssessedAt time.Time `json:"assessed_at"`
}

// NewAssessment fills the human-readable parts from the verdict.
func NewAssessment(id string, verdict Verdict, vector FeatureVector, at time.Time) Assessment {
	return Assessment{
		ID:         id,
		Verdict:    verdict,
		Label:      verdict.Label(),
		Advice:     verdict.Advice(),
		Features:   vector.Slice(),
		AssessedAt: at,
	}
}

// Schema is what a front end needs to render and submit a form.
type Schema struct {
	Fields   []FieldSpec `json:"fields"`
	Features []Feature   `json:"features"`
}

// CurrentSchema returns the form catalogue and feature layout.
func CurrentSchema() Schema {
	return Schema{Fields: Fields(), Features: Features()}
}

// Stats is a point-in-time summary of service activity.
type Stats struct {
	Started    bool      `json:"started"`
	Assessed   int64     `json:"assessed"`
	AtRisk     int64     `json:"at_risk"`
	NoRisk     int64     `json:"no_risk"`
	Invalid    int64     `json:"invalid"`
	Failed     int64     `json:"failed"`
	LoadedAt   time.Time `json:"loaded_at,omitzero"`
	Widths     []int     `json:"layer_widths,omitempty"`
	Activation string    `json:"hidden_activation,omitempty"`
}
