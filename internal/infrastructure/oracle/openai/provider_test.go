package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.OracleConfig
		wantErr bool
	}{
		{"valid config", config.OracleConfig{APIKey: "test-key"}, false},
		{"valid config with model", config.OracleConfig{APIKey: "test-key", Model: "gpt-4o"}, false},
		{"missing API key", config.OracleConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "API key is required")
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "openai", p.Name())
		})
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"message": "upstream says no", "type": "error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := NewProvider(config.OracleConfig{APIKey: "test-key", Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	return p
}

var request = entities.VerificationRequest{
	EntityType:  "artist",
	EntityID:    "A1",
	CurrentData: map[string]any{"name": "DJ X", "country": nil},
}

func TestProvider_Call(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"correctness": 0.9, "hasPhoto": false,
		"corrections": [{"field": "country", "original": null, "corrected": "Germany"}]}`)

	finding, err := newTestProvider(t, srv).Call(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, 0.9, finding.Confidence)
	assert.Equal(t, map[string]any{"country": "Germany"}, finding.SuggestedUpdates)
	assert.False(t, finding.HasPhoto)
}

func TestProvider_CallErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		want    oracle.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, "", oracle.KindTransient},
		{"server error", http.StatusBadGateway, "", oracle.KindTransient},
		{"unauthorized", http.StatusUnauthorized, "", oracle.KindPermanent},
		{"bad request", http.StatusBadRequest, "", oracle.KindPermanent},
		{"prose answer", http.StatusOK, "I could not find this artist.", oracle.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.content)

			_, err := newTestProvider(t, srv).Call(context.Background(), request)
			require.Error(t, err)
			assert.Equal(t, tt.want, oracle.KindOf(err))
		})
	}
}

func TestClassify_NetworkError(t *testing.T) {
	p, err := NewProvider(config.OracleConfig{APIKey: "test-key", Endpoint: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)

	_, err = p.Call(context.Background(), request)
	require.Error(t, err)
	assert.Equal(t, oracle.KindTransient, oracle.KindOf(err))
}
