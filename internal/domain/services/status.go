package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
)

// StatusService records and aggregates per-entity verification status.
type StatusService struct {
	store ports.StatusStore
}

// NewStatusService creates a new status service.
func NewStatusService(store ports.StatusStore) *StatusService {
	return &StatusService{store: store}
}

// Upsert overwrites the status row of one entity. The last write wins.
func (s *StatusService) Upsert(ctx context.Context, entityType, entityID string, status entities.SyncStatus, at time.Time) error {
	rec := entities.SyncStatusRecord{
		EntityType:   entityType,
		EntityID:     entityID,
		Status:       status,
		LastSyncedAt: at.UTC(),
	}
	if err := s.store.UpsertStatus(ctx, rec); err != nil {
		return fmt.Errorf("%w: writing status of %s/%s: %v", entities.ErrStorageUnreachable, entityType, entityID, err)
	}
	return nil
}

// Get returns the status row of one entity, or nil if it was never synced.
func (s *StatusService) Get(ctx context.Context, entityType, entityID string) (*entities.SyncStatusRecord, error) {
	return s.store.FindStatus(ctx, entityType, entityID)
}

// QueryByType returns the counts for one entity type. An unknown type has zero counts.
func (s *StatusService) QueryByType(ctx context.Context, entityType string) (entities.TypeCounts, error) {
	return s.store.CountByType(ctx, entities.NormalizeTypeName(entityType))
}

// QueryAll returns the counts of every entity type with at least one row.
func (s *StatusService) QueryAll(ctx context.Context) (map[string]entities.TypeCounts, error) {
	return s.store.CountAll(ctx)
}
