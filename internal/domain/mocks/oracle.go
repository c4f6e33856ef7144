// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// Oracle is a mock implementation of ports.Oracle.
// Results and errors are keyed by "type/id"; Default is used otherwise.
type Oracle struct {
	Results map[string]entities.OracleResult
	Errors  map[string]error
	Panics  map[string]bool
	Default entities.OracleResult

	// Hook runs before the canned answer is returned.
	Hook func(ctx context.Context, req entities.VerificationRequest)

	mu       sync.Mutex
	Requests []entities.VerificationRequest
}

// FetchFinding returns the configured result or error.
func (m *Oracle) FetchFinding(ctx context.Context, req entities.VerificationRequest) (entities.OracleResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.Hook != nil {
		m.Hook(ctx, req)
	}

	key := req.EntityType + "/" + req.EntityID
	if m.Panics[key] {
		panic("oracle exploded for " + key)
	}
	if err, ok := m.Errors[key]; ok {
		return entities.OracleResult{}, err
	}
	if res, ok := m.Results[key]; ok {
		return res, nil
	}
	return m.Default, nil
}

// CallCount returns how many requests were received.
func (m *Oracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Provider is a mock implementation of ports.Provider.
// Each call consumes the next entry of Errs; once exhausted Finding is returned.
type Provider struct {
	ProviderName string
	Finding      entities.OracleFinding
	Errs         []error

	mu    sync.Mutex
	Calls int
}

// Name returns the provider name.
func (m *Provider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Call returns the next configured error, then the finding.
func (m *Provider) Call(ctx context.Context, _ entities.VerificationRequest) (entities.OracleFinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := ctx.Err(); err != nil {
		return entities.OracleFinding{}, err
	}
	if m.Calls <= len(m.Errs) && m.Errs[m.Calls-1] != nil {
		return entities.OracleFinding{}, m.Errs[m.Calls-1]
	}
	return m.Finding, nil
}
