// Package openai provides an oracle provider using OpenAI chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
)

// Provider asks an OpenAI model to verify entities.
type Provider struct {
	client *openai.Client
	model  string
}

// NewProvider creates a new OpenAI oracle provider.
// cfg.Endpoint, when set, replaces the API base URL (OpenAI-compatible servers).
func NewProvider(cfg config.OracleConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Call performs one chat completion and parses the answer.
func (p *Provider) Call(ctx context.Context, req entities.VerificationRequest) (entities.OracleFinding, error) {
	prompt, err := oracle.BuildPrompt(req)
	if err != nil {
		return entities.OracleFinding{}, oracle.Permanent(err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: oracle.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return entities.OracleFinding{}, classify(fmt.Errorf("calling OpenAI: %w", err))
	}

	if len(resp.Choices) == 0 {
		return entities.OracleFinding{}, oracle.Malformed(errors.New("no response from OpenAI"))
	}

	return oracle.ParseResponse(resp.Choices[0].Message.Content)
}

// classify maps OpenAI HTTP errors onto oracle error kinds.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		// Connection failures surface as plain errors from the HTTP client.
		return oracle.Transient(err)
	}
	return oracle.ForStatus(status, err)
}
