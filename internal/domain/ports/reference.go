package ports

import (
	"context"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// ReferenceIndex stores embeddings of verified entities for similarity lookups.
type ReferenceIndex interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// Upsert stores or replaces the vector of one entity.
	Upsert(ctx context.Context, ref entities.EntityRef, vector []float32) error

	// SearchByType returns the closest entities of the given type.
	SearchByType(ctx context.Context, entityType string, vector []float32, limit int) ([]entities.EntityRef, error)
}
