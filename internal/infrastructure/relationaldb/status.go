package relationaldb

import (
	"context"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

const countColumns = `
	COUNT(*),
	COALESCE(SUM(CASE WHEN status = 'verified' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'needs_review' THEN 1 ELSE 0 END), 0)`

// UpsertStatus overwrites the status row of one entity.
func (r *Repository) UpsertStatus(ctx context.Context, rec entities.SyncStatusRecord) error {
	query := `
		INSERT INTO sync_status (entity_type, entity_id, status, last_synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			status = excluded.status,
			last_synced_at = excluded.last_synced_at
	`
	_, err := r.exec(ctx, query, rec.EntityType, rec.EntityID, string(rec.Status), rec.LastSyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting status: %w", err)
	}
	return nil
}

// FindStatus returns the status row of one entity, or nil.
func (r *Repository) FindStatus(ctx context.Context, entityType, entityID string) (*entities.SyncStatusRecord, error) {
	query := `
		SELECT entity_type, entity_id, status, last_synced_at
		FROM sync_status
		WHERE entity_type = ? AND entity_id = ?
	`
	var rec entities.SyncStatusRecord
	var status string
	err := r.queryRow(ctx, query, entityType, entityID).Scan(&rec.EntityType, &rec.EntityID, &status, &rec.LastSyncedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	rec.Status = entities.SyncStatus(status)
	return &rec, nil
}

// CountByType aggregates the status rows of one entity type.
func (r *Repository) CountByType(ctx context.Context, entityType string) (entities.TypeCounts, error) {
	query := `SELECT` + countColumns + ` FROM sync_status WHERE entity_type = ?`
	var c entities.TypeCounts
	if err := r.queryRow(ctx, query, entityType).Scan(&c.Total, &c.Verified, &c.NeedsReview); err != nil {
		return entities.TypeCounts{}, fmt.Errorf("counting status: %w", err)
	}
	return c, nil
}

// CountAll aggregates the status rows of every entity type.
func (r *Repository) CountAll(ctx context.Context) (map[string]entities.TypeCounts, error) {
	query := `SELECT entity_type,` + countColumns + ` FROM sync_status GROUP BY entity_type`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]entities.TypeCounts)
	for rows.Next() {
		var entityType string
		var c entities.TypeCounts
		if err := rows.Scan(&entityType, &c.Total, &c.Verified, &c.NeedsReview); err != nil {
			return nil, fmt.Errorf("scanning status counts: %w", err)
		}
		counts[entityType] = c
	}
	return counts, rows.Err()
}
