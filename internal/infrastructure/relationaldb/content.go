package relationaldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// GetContent returns the data of one entity, or nil when it doesn't exist.
func (r *Repository) GetContent(ctx context.Context, entityType, entityID string) (map[string]any, error) {
	query := `SELECT data FROM content WHERE entity_type = ? AND entity_id = ?`
	var raw sql.NullString
	err := r.queryRow(ctx, query, entityType, entityID).Scan(&raw)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning content: %w", err)
	}
	data, err := decodeData(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling content: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// PutContent creates or replaces the data of one entity.
func (r *Repository) PutContent(ctx context.Context, entityType, entityID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := encodeData(data)
	if err != nil {
		return fmt.Errorf("marshaling content: %w", err)
	}
	query := `
		INSERT INTO content (entity_type, entity_id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	if _, err := r.exec(ctx, query, entityType, entityID, raw, timeNow().UTC()); err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

// DeleteContent removes an entity. Missing entities are ignored.
func (r *Repository) DeleteContent(ctx context.Context, entityType, entityID string) error {
	query := `DELETE FROM content WHERE entity_type = ? AND entity_id = ?`
	if _, err := r.exec(ctx, query, entityType, entityID); err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	return nil
}

// ListContent returns every entity of a type ordered by id.
func (r *Repository) ListContent(ctx context.Context, entityType string) ([]entities.EntityRef, error) {
	query := `SELECT entity_id, data FROM content WHERE entity_type = ? ORDER BY entity_id ASC`
	rows, err := r.query(ctx, query, entityType)
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	defer rows.Close()

	refs := make([]entities.EntityRef, 0, 16)
	for rows.Next() {
		ref := entities.EntityRef{Type: entityType}
		var raw sql.NullString
		if err := rows.Scan(&ref.ID, &raw); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		if ref.Data, err = decodeData(raw); err != nil {
			return nil, fmt.Errorf("unmarshaling content of %s: %w", ref.Key(), err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
