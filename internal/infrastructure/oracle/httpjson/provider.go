// Package httpjson provides an oracle provider for a bearer-token
// authenticated JSON endpoint.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Provider posts each entity to an HTTP endpoint.
type Provider struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// verifyRequest is the JSON body sent to the endpoint.
type verifyRequest struct {
	EntityType  string               `json:"entityType"`
	EntityID    string               `json:"entityId"`
	CurrentData map[string]any       `json:"currentData"`
	Related     []entities.EntityRef `json:"related,omitempty"`
	Model       string               `json:"model,omitempty"`
}

// NewProvider creates a new HTTP oracle provider.
func NewProvider(cfg config.OracleConfig, httpClient *http.Client) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("oracle endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("oracle API key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Provider{
		httpClient: httpClient,
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "http"
}

// Call posts one request and parses the answer.
func (p *Provider) Call(ctx context.Context, req entities.VerificationRequest) (entities.OracleFinding, error) {
	body, err := json.Marshal(verifyRequest{
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		CurrentData: req.CurrentData,
		Related:     req.Related,
		Model:       p.model,
	})
	if err != nil {
		return entities.OracleFinding{}, oracle.Permanent(fmt.Errorf("marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return entities.OracleFinding{}, oracle.Permanent(fmt.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return entities.OracleFinding{}, oracle.Transient(fmt.Errorf("calling oracle endpoint: %w", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return entities.OracleFinding{}, oracle.Transient(fmt.Errorf("reading oracle response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return entities.OracleFinding{}, oracle.ForStatus(resp.StatusCode,
			fmt.Errorf("oracle endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload)))
	}

	return oracle.ParseResponse(string(payload))
}
