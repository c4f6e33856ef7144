package handlers

import (
	"context"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

// StatusHandler answers sync status queries.
type StatusHandler struct {
	service *services.StatusService
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(service *services.StatusService) *StatusHandler {
	return &StatusHandler{
		service: service,
	}
}

// HandleAll returns counts for every type with at least one status row.
func (h *StatusHandler) HandleAll(ctx context.Context) (map[string]entities.TypeCounts, error) {
	return h.service.QueryAll(ctx)
}

// HandleType returns counts for one type. Types that were never synced have zero counts.
func (h *StatusHandler) HandleType(ctx context.Context, entityType string) (entities.TypeCounts, error) {
	return h.service.QueryByType(ctx, entityType)
}

// HandleEntity returns the status row of one entity, or nil.
func (h *StatusHandler) HandleEntity(ctx context.Context, entityType, entityID string) (*entities.SyncStatusRecord, error) {
	return h.service.Get(ctx, entities.NormalizeTypeName(entityType), entityID)
}
