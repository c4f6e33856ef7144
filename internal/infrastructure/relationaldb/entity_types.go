package relationaldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// SaveEntityType saves or updates an entity type.
func (r *Repository) SaveEntityType(ctx context.Context, entityType *entities.EntityType) error {
	query := `
		INSERT INTO entity_types (name, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			description = excluded.description
	`
	_, err := r.exec(ctx, query,
		entityType.Name,
		entityType.Description,
		entityType.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving entity type: %w", err)
	}
	return nil
}

// FindEntityType finds an entity type by name.
func (r *Repository) FindEntityType(ctx context.Context, name string) (*entities.EntityType, error) {
	query := `
		SELECT name, description, created_at
		FROM entity_types
		WHERE name = ?
	`
	var et entities.EntityType
	var description sql.NullString

	err := r.queryRow(ctx, query, name).Scan(&et.Name, &description, &et.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity type: %w", err)
	}

	et.Description = description.String
	return &et, nil
}

// ListEntityTypes lists all entity types ordered by name.
func (r *Repository) ListEntityTypes(ctx context.Context) ([]entities.EntityType, error) {
	query := `
		SELECT name, description, created_at
		FROM entity_types
		ORDER BY name ASC
	`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying entity types: %w", err)
	}
	defer rows.Close()

	entityTypes := make([]entities.EntityType, 0, 16)
	for rows.Next() {
		var et entities.EntityType
		var description sql.NullString

		if err := rows.Scan(&et.Name, &description, &et.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entity type: %w", err)
		}
		et.Description = description.String
		entityTypes = append(entityTypes, et)
	}
	return entityTypes, rows.Err()
}

// DeleteEntityType deletes an entity type by name.
func (r *Repository) DeleteEntityType(ctx context.Context, name string) error {
	result, err := r.exec(ctx, `DELETE FROM entity_types WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting entity type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("entity type not found: %s", name)
	}
	return nil
}
