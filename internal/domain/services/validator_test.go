package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

func finding(confidence float64, updates map[string]any) entities.OracleResult {
	return entities.FindingResult(entities.OracleFinding{
		Confidence:       confidence,
		SuggestedUpdates: updates,
	}, 1)
}

func TestValidator_Classify(t *testing.T) {
	v := NewValidator(Policy{MinConfidence: 0.8, MaxGaps: 1})

	tests := []struct {
		name     string
		result   entities.OracleResult
		expected entities.ValidationStatus
		gaps     int
	}{
		{
			name:     "confidence exactly at threshold passes",
			result:   finding(0.8, nil),
			expected: entities.StatusVerified,
		},
		{
			name:     "confidence at threshold with max gaps passes",
			result:   finding(0.8, map[string]any{"country": "Germany"}),
			expected: entities.StatusVerified,
			gaps:     1,
		},
		{
			name:     "confidence just below threshold",
			result:   finding(0.7999, nil),
			expected: entities.StatusNeedsReview,
		},
		{
			name:     "too many corrections",
			result:   finding(0.95, map[string]any{"country": "Germany", "city": "Berlin"}),
			expected: entities.StatusNeedsReview,
			gaps:     2,
		},
		{
			name:     "zero confidence from clamped payload",
			result:   finding(0, nil),
			expected: entities.StatusNeedsReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := v.Classify(map[string]any{"name": "DJ X"}, tt.result)
			assert.Equal(t, tt.expected, outcome.Status)
			assert.Len(t, outcome.Corrections, tt.gaps)
		})
	}
}

func TestValidator_ClassifyOracleFailure(t *testing.T) {
	v := NewValidator(Policy{MinConfidence: 0, MaxGaps: 100})

	for _, kind := range []entities.OracleErrorKind{entities.OracleErrUnavailable, entities.OracleErrMalformed} {
		t.Run(string(kind), func(t *testing.T) {
			outcome := v.Classify(nil, entities.FailedResult(kind, errors.New("boom"), 3))

			assert.Equal(t, entities.StatusNeedsReview, outcome.Status)
			assert.Empty(t, outcome.Corrections)
			assert.NotNil(t, outcome.Corrections)
			assert.Equal(t, kind, outcome.OracleErr)
		})
	}
}

func TestValidator_ClassifyCorrectionDetails(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	result := entities.FindingResult(entities.OracleFinding{
		Confidence:       0.9,
		SuggestedUpdates: map[string]any{"country": "Germany", "city": "Berlin"},
		Reasons:          map[string]string{"country": "label discography lists Berlin"},
		HasPhoto:         true,
	}, 1)

	outcome := v.Classify(map[string]any{"name": "DJ X", "country": nil, "city": "Hamburg"}, result)

	require.Len(t, outcome.Corrections, 2)
	assert.Equal(t, "city", outcome.Corrections[0].Field)
	assert.Equal(t, "Hamburg", outcome.Corrections[0].Original)
	assert.Equal(t, "Berlin", outcome.Corrections[0].Corrected)
	assert.Equal(t, "country", outcome.Corrections[1].Field)
	assert.Nil(t, outcome.Corrections[1].Original)
	assert.Equal(t, "label discography lists Berlin", outcome.Corrections[1].Reason)
	assert.True(t, outcome.HasPhoto)
	assert.Equal(t, 0.9, outcome.Confidence)
}

func TestValidator_Merge(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	current := map[string]any{"name": "DJ X", "country": nil}

	t.Run("disagreeing field is a conflict and higher confidence comes first", func(t *testing.T) {
		primary := v.Classify(current, finding(0.82, map[string]any{"country": "Germany", "city": "Berlin"}))
		secondary := v.Classify(current, finding(0.91, map[string]any{"country": "Austria"}))

		merged := v.Merge(primary, secondary)

		assert.Equal(t, entities.StatusConflicting, merged.Status)
		require.Len(t, merged.Conflicts, 1)
		assert.Equal(t, "country", merged.Conflicts[0].Field)
		assert.Equal(t, "Austria", merged.Conflicts[0].Candidates[0].Value)
		assert.Equal(t, "Germany", merged.Conflicts[0].Candidates[1].Value)
		require.Len(t, merged.Corrections, 1)
		assert.Equal(t, "city", merged.Corrections[0].Field)
		assert.Equal(t, 0.82, merged.Confidence)
	})

	t.Run("equal confidence keeps primary first", func(t *testing.T) {
		primary := v.Classify(current, finding(0.9, map[string]any{"country": "Germany"}))
		secondary := v.Classify(current, finding(0.9, map[string]any{"country": "Austria"}))

		merged := v.Merge(primary, secondary)

		require.Len(t, merged.Conflicts, 1)
		assert.Equal(t, "Germany", merged.Conflicts[0].Candidates[0].Value)
	})

	t.Run("agreeing oracles stay verified", func(t *testing.T) {
		primary := v.Classify(current, finding(0.9, map[string]any{"country": "Germany"}))
		secondary := v.Classify(current, finding(0.95, map[string]any{"country": "Germany", "founded": float64(1991)}))

		merged := v.Merge(primary, secondary)

		assert.Equal(t, entities.StatusVerified, merged.Status)
		assert.Empty(t, merged.Conflicts)
		require.Len(t, merged.Corrections, 2)
		assert.Equal(t, "country", merged.Corrections[0].Field)
		assert.Equal(t, "founded", merged.Corrections[1].Field)
	})

	t.Run("stricter status wins without conflicts", func(t *testing.T) {
		primary := v.Classify(current, finding(0.9, nil))
		secondary := v.Classify(current, finding(0.4, nil))

		merged := v.Merge(primary, secondary)
		assert.Equal(t, entities.StatusNeedsReview, merged.Status)
	})

	t.Run("unavailable secondary falls back to primary", func(t *testing.T) {
		primary := v.Classify(current, finding(0.9, map[string]any{"country": "Germany"}))
		secondary := v.Classify(current, entities.FailedResult(entities.OracleErrUnavailable, nil, 3))

		merged := v.Merge(primary, secondary)
		assert.Equal(t, primary, merged)
	})
}
