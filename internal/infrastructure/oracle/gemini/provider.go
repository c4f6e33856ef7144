// Package gemini provides an oracle provider using Google Gemini, used as
// the independent cross-check oracle.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
)

const defaultModel = "gemini-2.5-flash"

// Provider asks a Gemini model to verify entities.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a new Gemini oracle provider.
// cfg.Endpoint, when set, replaces the API base URL.
func NewProvider(ctx context.Context, cfg config.OracleConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	model := defaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Provider{
		client: client,
		model:  model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// Call performs one generation and parses the answer.
func (p *Provider) Call(ctx context.Context, req entities.VerificationRequest) (entities.OracleFinding, error) {
	prompt, err := oracle.BuildPrompt(req)
	if err != nil {
		return entities.OracleFinding{}, oracle.Permanent(err)
	}

	resp, err := p.client.Models.GenerateContent(ctx,
		p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(oracle.SystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.1),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return entities.OracleFinding{}, classify(fmt.Errorf("calling Gemini: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return entities.OracleFinding{}, oracle.Malformed(errors.New("empty response from Gemini"))
	}
	return oracle.ParseResponse(text)
}

// classify maps Gemini API errors onto oracle error kinds by their HTTP code.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return oracle.ForStatus(apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return oracle.ForStatus(apiErrPtr.Code, err)
	}
	// Connection failures surface as plain errors from the HTTP client.
	return oracle.Transient(err)
}
