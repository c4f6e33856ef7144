package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// ReferenceIndex is a mock implementation of ports.ReferenceIndex.
type ReferenceIndex struct {
	SearchResult []entities.EntityRef
	Err          error

	mu         sync.Mutex
	Upserted   []entities.EntityRef
	Searches   int
	VectorSize uint64
}

// EnsureCollection records the vector size.
func (m *ReferenceIndex) EnsureCollection(_ context.Context, vectorSize uint64) error {
	if m.Err != nil {
		return m.Err
	}
	m.VectorSize = vectorSize
	return nil
}

// Upsert records the ref.
func (m *ReferenceIndex) Upsert(_ context.Context, ref entities.EntityRef, _ []float32) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserted = append(m.Upserted, ref)
	return nil
}

// SearchByType returns the configured refs.
func (m *ReferenceIndex) SearchByType(_ context.Context, _ string, _ []float32, _ int) ([]entities.EntityRef, error) {
	m.mu.Lock()
	m.Searches++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SearchResult, nil
}
