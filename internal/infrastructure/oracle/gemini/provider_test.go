package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
)

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), config.OracleConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func generateServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/"+defaultModel+":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_Call(t *testing.T) {
	srv := generateServer(t, `{"correctness": 0.7, "hasPhoto": true, "corrections": [{"field": "city", "corrected": "Berlin"}]}`)
	p, err := NewProvider(context.Background(), config.OracleConfig{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	finding, err := p.Call(context.Background(), entities.VerificationRequest{
		EntityType:  "venue",
		EntityID:    "V1",
		CurrentData: map[string]any{"name": "Berghain"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.7, finding.Confidence)
	assert.True(t, finding.HasPhoto)
	assert.Equal(t, map[string]any{"city": "Berlin"}, finding.SuggestedUpdates)
}

func TestProvider_CallMalformed(t *testing.T) {
	srv := generateServer(t, "Berghain is a club in Berlin.")
	p, err := NewProvider(context.Background(), config.OracleConfig{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = p.Call(context.Background(), entities.VerificationRequest{EntityType: "venue", EntityID: "V1"})
	require.Error(t, err)
	assert.Equal(t, oracle.KindMalformed, oracle.KindOf(err))
}

func TestProvider_CallErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   oracle.Kind
	}{
		{"bad key", http.StatusUnauthorized, oracle.KindPermanent},
		{"bad request", http.StatusBadRequest, oracle.KindPermanent},
		{"unavailable", http.StatusServiceUnavailable, oracle.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{
						"code":    tt.status,
						"message": http.StatusText(tt.status),
						"status":  "ERROR",
					},
				})
			}))
			t.Cleanup(srv.Close)

			p, err := NewProvider(context.Background(), config.OracleConfig{APIKey: "test-key", Endpoint: srv.URL})
			require.NoError(t, err)

			_, err = p.Call(context.Background(), entities.VerificationRequest{EntityType: "venue", EntityID: "V1"})
			require.Error(t, err)
			assert.Equal(t, tt.want, oracle.KindOf(err))
		})
	}
}

func TestClassify_ConnectionErrorIsTransient(t *testing.T) {
	err := classify(errors.New("dial tcp: connection refused"))
	assert.Equal(t, oracle.KindTransient, oracle.KindOf(err))
}
