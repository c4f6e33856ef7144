package mocks

import (
	"context"
	"sync"
)

// Embedder is a mock implementation of ports.Embedder.
type Embedder struct {
	EmbeddingResult []float32
	Err             error

	mu    sync.Mutex
	Calls int
}

// Embed returns the configured embedding.
func (m *Embedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.EmbeddingResult, nil
}

// EmbedBatch returns the configured embedding for every text.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.EmbeddingResult
	}
	return out, nil
}
