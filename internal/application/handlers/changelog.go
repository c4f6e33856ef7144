package handlers

import (
	"context"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

// ChangeLogHandler lists and reverses change log entries.
type ChangeLogHandler struct {
	service *services.ChangeLogService
}

// NewChangeLogHandler creates a new change log handler.
func NewChangeLogHandler(service *services.ChangeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{
		service: service,
	}
}

// HandleHistory returns the entries of an entity, most recent first.
func (h *ChangeLogHandler) HandleHistory(ctx context.Context, entityType, entityID string) ([]entities.ChangeLogEntry, error) {
	return h.service.History(ctx, entities.NormalizeTypeName(entityType), entityID)
}

// HandleEntry returns one entry.
func (h *ChangeLogHandler) HandleEntry(ctx context.Context, entryID string) (*entities.ChangeLogEntry, error) {
	return h.service.Entry(ctx, entryID)
}

// HandleReverse undoes an entry and returns the reversal entry.
func (h *ChangeLogHandler) HandleReverse(ctx context.Context, entryID, reversedBy string) (*entities.ChangeLogEntry, error) {
	return h.service.Reverse(ctx, entryID, reversedBy)
}
