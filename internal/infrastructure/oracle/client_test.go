package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/mocks"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

func testConfig() config.OracleConfig {
	return config.OracleConfig{
		Timeout:        time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
}

var testRequest = entities.VerificationRequest{
	EntityType:  "venue",
	EntityID:    "V2",
	CurrentData: map[string]any{"name": "Berghain"},
}

func TestClient_FetchFinding(t *testing.T) {
	finding := entities.OracleFinding{
		Confidence:       0.9,
		SuggestedUpdates: map[string]any{"city": "Berlin"},
	}
	timeout := Transient(context.DeadlineExceeded)
	garbage := Malformed(errors.New("invalid character 'S'"))

	tests := []struct {
		name         string
		errs         []error
		wantKind     entities.OracleErrorKind
		wantSentinel error
		wantAttempts int
	}{
		{
			name:         "first attempt succeeds",
			wantAttempts: 1,
		},
		{
			name:         "recovers after transient failures",
			errs:         []error{timeout, timeout},
			wantAttempts: 3,
		},
		{
			name:         "recovers after malformed payload",
			errs:         []error{garbage},
			wantAttempts: 2,
		},
		{
			name:         "budget exhausted by timeouts",
			errs:         []error{timeout, timeout, timeout},
			wantKind:     entities.OracleErrUnavailable,
			wantSentinel: entities.ErrOracleUnavailable,
			wantAttempts: 3,
		},
		{
			name:         "budget exhausted by malformed payloads",
			errs:         []error{timeout, garbage, garbage},
			wantKind:     entities.OracleErrMalformed,
			wantSentinel: entities.ErrMalformedOracleResponse,
			wantAttempts: 3,
		},
		{
			name:         "last failure decides the tag",
			errs:         []error{garbage, garbage, timeout},
			wantKind:     entities.OracleErrUnavailable,
			wantSentinel: entities.ErrOracleUnavailable,
			wantAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mocks.Provider{Finding: finding, Errs: tt.errs}
			client := NewClient(provider, testConfig())

			result, err := client.FetchFinding(context.Background(), testRequest)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, result.ErrKind)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			assert.Equal(t, tt.wantAttempts, provider.Calls)
			if tt.wantSentinel != nil {
				assert.ErrorIs(t, result.Err, tt.wantSentinel)
				assert.Empty(t, result.Finding.SuggestedUpdates)
				return
			}
			assert.True(t, result.OK())
			assert.Equal(t, finding.SuggestedUpdates, result.Finding.SuggestedUpdates)
		})
	}
}

func TestClient_PermanentErrorIsReturned(t *testing.T) {
	provider := &mocks.Provider{Errs: []error{Permanent(errors.New("401 invalid api key"))}}
	client := NewClient(provider, testConfig())

	_, err := client.FetchFinding(context.Background(), testRequest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Equal(t, 1, provider.Calls)
}

func TestClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &mocks.Provider{}
	client := NewClient(provider, testConfig())

	_, err := client.FetchFinding(ctx, testRequest)
	assert.ErrorIs(t, err, context.Canceled)
}

// slowProvider blocks until its context is done.
type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Call(ctx context.Context, _ entities.VerificationRequest) (entities.OracleFinding, error) {
	<-ctx.Done()
	return entities.OracleFinding{}, ctx.Err()
}

func TestClient_PerAttemptTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	metrics := mocks.NewSyncMetrics()
	client := NewClient(slowProvider{}, cfg, WithMetrics(metrics))

	result, err := client.FetchFinding(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, entities.OracleErrUnavailable, result.ErrKind)
	assert.Equal(t, 3, result.Attempts)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Equal(t, 1, metrics.OracleCalls)
}

func TestClient_BackoffGrows(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBackoff = 20 * time.Millisecond
	provider := &mocks.Provider{Errs: []error{Transient(errors.New("429")), Transient(errors.New("429"))}}
	client := NewClient(provider, cfg)

	start := time.Now()
	result, err := client.FetchFinding(context.Background(), testRequest)
	require.NoError(t, err)
	require.True(t, result.OK())

	// 20ms before the second attempt, 40ms before the third.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(&mocks.Provider{}, config.OracleConfig{})
	assert.Equal(t, 30*time.Second, client.timeout)
	assert.Equal(t, 3, client.maxAttempts)
	assert.Equal(t, 500*time.Millisecond, client.initialBackoff)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"tagged transient", Transient(errors.New("x")), KindTransient},
		{"tagged malformed", Malformed(errors.New("x")), KindMalformed},
		{"wrapped tag", errors.Join(errors.New("ctx"), Permanent(errors.New("x"))), KindPermanent},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"unknown", errors.New("boom"), KindPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
