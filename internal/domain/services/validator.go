package services

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// Policy holds the thresholds used to classify findings.
type Policy struct {
	// MinConfidence is inclusive: a finding at exactly this confidence passes.
	MinConfidence float64
	// MaxGaps is the largest number of corrections a verified entity may need.
	MaxGaps int
}

// DefaultPolicy returns the thresholds used when none are configured.
func DefaultPolicy() Policy {
	return Policy{
		MinConfidence: 0.8,
		MaxGaps:       3,
	}
}

// Validator applies a Policy to oracle results. It performs no I/O.
type Validator struct {
	policy Policy
}

// NewValidator creates a validator for the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Policy returns the thresholds in use.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Classify turns an oracle result into a ValidationOutcome. current is the
// entity data the oracle saw; it supplies the original value of each correction.
func (v *Validator) Classify(current map[string]any, result entities.OracleResult) entities.ValidationOutcome {
	if !result.OK() {
		return entities.ValidationOutcome{
			Status:      entities.StatusNeedsReview,
			Corrections: []entities.Correction{},
			OracleErr:   result.ErrKind,
		}
	}

	finding := result.Finding
	corrections := buildCorrections(current, finding)

	status := entities.StatusNeedsReview
	if finding.Confidence >= v.policy.MinConfidence && len(corrections) <= v.policy.MaxGaps {
		status = entities.StatusVerified
	}

	return entities.ValidationOutcome{
		Status:      status,
		Corrections: corrections,
		Confidence:  finding.Confidence,
		HasPhoto:    finding.HasPhoto,
	}
}

// buildCorrections returns one correction per suggested update, ordered by field name.
func buildCorrections(current map[string]any, finding entities.OracleFinding) []entities.Correction {
	fields := make([]string, 0, len(finding.SuggestedUpdates))
	for field := range finding.SuggestedUpdates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	corrections := make([]entities.Correction, 0, len(fields))
	for _, field := range fields {
		corrections = append(corrections, entities.Correction{
			Field:     field,
			Original:  current[field],
			Corrected: finding.SuggestedUpdates[field],
			Reason:    finding.Reasons[field],
		})
	}
	return corrections
}

// Merge combines the outcomes of two independent oracles for the same entity.
//
// A field corrected by both with different values becomes a Conflict and is
// withheld from the merged corrections; its candidates are ordered by
// confidence with ties keeping the primary first. Fields only one side
// corrected, or both corrected identically, are kept. Without conflicts the
// stricter status wins. If secondary came from a failed oracle, primary is
// returned unchanged.
func (v *Validator) Merge(primary, secondary entities.ValidationOutcome) entities.ValidationOutcome {
	if secondary.OracleErr != entities.OracleErrNone {
		return primary
	}
	if primary.OracleErr != entities.OracleErrNone {
		return primary
	}

	second := make(map[string]entities.Correction, len(secondary.Corrections))
	for _, c := range secondary.Corrections {
		second[c.Field] = c
	}

	merged := entities.ValidationOutcome{
		Corrections: make([]entities.Correction, 0, len(primary.Corrections)+len(secondary.Corrections)),
		Confidence:  min(primary.Confidence, secondary.Confidence),
		HasPhoto:    primary.HasPhoto || secondary.HasPhoto,
	}

	seen := make(map[string]bool, len(primary.Corrections))
	for _, p := range primary.Corrections {
		seen[p.Field] = true
		s, both := second[p.Field]
		if !both || cmp.Equal(p.Corrected, s.Corrected) {
			merged.Corrections = append(merged.Corrections, p)
			continue
		}
		merged.Conflicts = append(merged.Conflicts, newConflict(p, primary.Confidence, s, secondary.Confidence))
	}
	for _, s := range secondary.Corrections {
		if !seen[s.Field] {
			merged.Corrections = append(merged.Corrections, s)
		}
	}
	sort.Slice(merged.Corrections, func(i, j int) bool {
		return merged.Corrections[i].Field < merged.Corrections[j].Field
	})

	switch {
	case len(merged.Conflicts) > 0:
		merged.Status = entities.StatusConflicting
	case primary.Status == entities.StatusVerified && secondary.Status == entities.StatusVerified:
		merged.Status = entities.StatusVerified
	default:
		merged.Status = entities.StatusNeedsReview
	}

	return merged
}

func newConflict(p entities.Correction, pConf float64, s entities.Correction, sConf float64) entities.Conflict {
	first := entities.ConflictCandidate{Value: p.Corrected, Confidence: pConf}
	second := entities.ConflictCandidate{Value: s.Corrected, Confidence: sConf}
	if sConf > pConf {
		first, second = second, first
	}
	return entities.Conflict{
		Field:      p.Field,
		Original:   p.Original,
		Candidates: []entities.ConflictCandidate{first, second},
	}
}
