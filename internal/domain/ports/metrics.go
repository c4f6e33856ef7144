package ports

import (
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// SyncMetrics records pipeline measurements. Implementations must be safe
// for concurrent use.
type SyncMetrics interface {
	ObserveEntity(status string)
	ObserveOracleCall(provider string, outcome string, attempts int, duration time.Duration)
	ObserveRun(state entities.RunState)
	ObserveMediaJobDropped()
}
