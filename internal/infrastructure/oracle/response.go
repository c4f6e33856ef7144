package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// rawResponse is the JSON structure returned by oracles.
type rawResponse struct {
	Correctness *float64        `json:"correctness"`
	Confidence  *float64        `json:"confidence"`
	Verified    bool            `json:"verified"`
	HasPhoto    bool            `json:"hasPhoto"`
	Corrections []rawCorrection `json:"corrections"`
	Sources     []string        `json:"sources"`
}

type rawCorrection struct {
	Field     string `json:"field"`
	Original  any    `json:"original"`
	Corrected any    `json:"corrected"`
	Reason    string `json:"reason"`
}

// ParseResponse turns an oracle payload into a finding.
//
// Markdown code fences are tolerated. A missing score becomes confidence 0
// and missing corrections become an empty update set. Scores above 1 are
// read as percentages. Payloads that are not a JSON object fail with a
// KindMalformed error.
func ParseResponse(content string) (entities.OracleFinding, error) {
	content = cleanJSONResponse(content)
	if content == "" {
		return entities.OracleFinding{}, Malformed(errors.New("empty response"))
	}
	if !strings.HasPrefix(content, "{") {
		return entities.OracleFinding{}, Malformed(fmt.Errorf("expected a JSON object (response: %s)", truncate(content, 200)))
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return entities.OracleFinding{}, Malformed(fmt.Errorf("parsing oracle JSON: %w (response: %s)", err, truncate(content, 200)))
	}

	score := raw.Correctness
	if score == nil {
		score = raw.Confidence
	}

	finding := entities.OracleFinding{
		SuggestedUpdates: make(map[string]any, len(raw.Corrections)),
		Reasons:          make(map[string]string, len(raw.Corrections)),
		Confidence:       normalizeConfidence(score),
		Evidence:         raw.Sources,
		HasPhoto:         raw.HasPhoto,
	}
	for _, c := range raw.Corrections {
		field := strings.TrimSpace(c.Field)
		if field == "" {
			continue
		}
		finding.SuggestedUpdates[field] = c.Corrected
		if c.Reason != "" {
			finding.Reasons[field] = c.Reason
		}
	}
	return finding, nil
}

// percentCutoff separates slightly over-range fractions, which are clamped
// to 1, from scores given as percentages.
const percentCutoff = 2

func normalizeConfidence(score *float64) float64 {
	if score == nil {
		return 0
	}
	v := *score
	if v >= percentCutoff && v <= 100 {
		v /= 100
	}
	return max(0, min(v, 1))
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
