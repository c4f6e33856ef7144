package mocks

import (
	"sync"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// SyncMetrics is a mock implementation of ports.SyncMetrics that counts observations.
type SyncMetrics struct {
	mu           sync.Mutex
	Entities     map[string]int
	OracleCalls  int
	Runs         map[entities.RunState]int
	MediaDropped int
}

// NewSyncMetrics creates an empty recorder.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{
		Entities: make(map[string]int),
		Runs:     make(map[entities.RunState]int),
	}
}

// ObserveEntity counts an entity outcome.
func (m *SyncMetrics) ObserveEntity(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entities[status]++
}

// ObserveOracleCall counts an oracle call.
func (m *SyncMetrics) ObserveOracleCall(_ string, _ string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OracleCalls++
}

// ObserveRun counts a finished run.
func (m *SyncMetrics) ObserveRun(state entities.RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs[state]++
}

// ObserveMediaJobDropped counts a dropped notification.
func (m *SyncMetrics) ObserveMediaJobDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MediaDropped++
}
