package entities

// ValidationStatus is the policy classification of a finding.
type ValidationStatus string

const (
	StatusVerified    ValidationStatus = "verified"
	StatusNeedsReview ValidationStatus = "needs_review"
	StatusConflicting ValidationStatus = "conflicting"
)

// Correction is one field change proposed by an oracle.
type Correction struct {
	Field     string `json:"field"`
	Original  any    `json:"original"`
	Corrected any    `json:"corrected"`
	Reason    string `json:"reason,omitempty"`
}

// ConflictCandidate is one oracle's value for a disputed field.
type ConflictCandidate struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Conflict records two oracles disagreeing on the same field.
// Candidates are ordered by confidence, highest first.
type Conflict struct {
	Field      string              `json:"field"`
	Original   any                 `json:"original"`
	Candidates []ConflictCandidate `json:"candidates"`
}

// ValidationOutcome is the classified result for one entity.
type ValidationOutcome struct {
	Status      ValidationStatus `json:"status"`
	Corrections []Correction     `json:"corrections"`
	Confidence  float64          `json:"confidence"`
	Conflicts   []Conflict       `json:"conflicts,omitempty"`
	HasPhoto    bool             `json:"has_photo"`

	// OracleErr is set when the outcome was forced by an oracle failure.
	OracleErr OracleErrorKind `json:"oracle_error,omitempty"`
}

// Apply overlays the corrections on a copy of data.
func (o ValidationOutcome) Apply(data map[string]any) map[string]any {
	out := CloneData(data)
	if out == nil {
		out = make(map[string]any, len(o.Corrections))
	}
	for _, c := range o.Corrections {
		out[c.Field] = c.Corrected
	}
	return out
}
