package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// SystemPrompt instructs a language model to act as a verification oracle.
const SystemPrompt = `You are a fact checker for a knowledge base about techno music culture
(artists, venues, labels, festivals, promoters, releases).

You receive one record as JSON. Check every field against what you know and
report what is wrong or missing.

Return ONLY a JSON object, no other text:
{
  "correctness": 0.0-1.0 as a fraction, never a percentage (how confident you are that the record, after your corrections, is accurate),
  "verified": true|false,
  "hasPhoto": true|false (whether the record already references a usable photo),
  "corrections": [
    {"field": "country", "original": null, "corrected": "Germany", "reason": "..."}
  ],
  "sources": ["https://..."]
}

Only correct fields you are sure about. Use an empty corrections array when
nothing needs to change.`

// BuildPrompt renders the user message for a verification request.
func BuildPrompt(req entities.VerificationRequest) (string, error) {
	current, err := json.MarshalIndent(req.CurrentData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling entity data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Entity type: %s\nEntity id: %s\n\nRecord:\n%s\n", req.EntityType, req.EntityID, current)

	if len(req.Related) > 0 {
		b.WriteString("\nVerified records of the same type, for reference:\n")
		for _, ref := range req.Related {
			data, err := json.Marshal(ref.Data)
			if err != nil {
				return "", fmt.Errorf("marshaling related entity %s: %w", ref.Key(), err)
			}
			fmt.Fprintf(&b, "- %s: %s\n", ref.ID, data)
		}
	}
	return b.String(), nil
}
