package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// MediaQueue is a mock implementation of ports.MediaQueue.
type MediaQueue struct {
	Err error

	mu   sync.Mutex
	Jobs []entities.MediaJob
}

// Enqueue records the job or returns the configured error.
func (m *MediaQueue) Enqueue(_ context.Context, job entities.MediaJob) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs = append(m.Jobs, job)
	return nil
}

// Count returns the number of accepted jobs.
func (m *MediaQueue) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Jobs)
}
