package ports

import (
	"context"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// ChangeLogStore persists change log entries.
type ChangeLogStore interface {
	// AppendEntry writes a new immutable entry.
	AppendEntry(ctx context.Context, entry *entities.ChangeLogEntry) error

	// FindEntry returns the entry or entities.ErrEntryNotFound.
	FindEntry(ctx context.Context, id string) (*entities.ChangeLogEntry, error)

	// MarkReversed sets reversed_at only if it is unset.
	// Returns entities.ErrAlreadyReversed when another caller got there first.
	MarkReversed(ctx context.Context, id, reversedBy string, at time.Time) error

	// ClearReversed undoes MarkReversed when the inverse mutation could not be applied.
	ClearReversed(ctx context.Context, id string) error

	// FindHistory lists entries for an entity, most recent first.
	FindHistory(ctx context.Context, entityType, entityID string) ([]entities.ChangeLogEntry, error)
}

// ChangeCommitter is implemented by a ChangeLogStore that also owns the
// entity content, so a mutation and its entry are written together.
type ChangeCommitter interface {
	// CommitChange applies entry's mutation to the content and appends entry
	// in one transaction. When reverses is non-empty that entry is claimed
	// first, with entry.Actor and entry.CreatedAt as reversed_by and
	// reversed_at; nothing is written if the claim fails.
	CommitChange(ctx context.Context, entry *entities.ChangeLogEntry, reverses string) error
}

// StatusStore persists per-entity verification status.
type StatusStore interface {
	// UpsertStatus overwrites the row for (entity_type, entity_id).
	UpsertStatus(ctx context.Context, rec entities.SyncStatusRecord) error

	// FindStatus returns nil when no row exists.
	FindStatus(ctx context.Context, entityType, entityID string) (*entities.SyncStatusRecord, error)

	// CountByType aggregates rows for one entity type.
	CountByType(ctx context.Context, entityType string) (entities.TypeCounts, error)

	// CountAll aggregates rows for every entity type present.
	CountAll(ctx context.Context) (map[string]entities.TypeCounts, error)
}

// ContentStore holds the current data of each entity.
type ContentStore interface {
	// GetContent returns nil data when the entity does not exist.
	GetContent(ctx context.Context, entityType, entityID string) (map[string]any, error)

	// PutContent creates or replaces the entity data.
	PutContent(ctx context.Context, entityType, entityID string, data map[string]any) error

	// DeleteContent removes the entity; deleting a missing entity is not an error.
	DeleteContent(ctx context.Context, entityType, entityID string) error

	// ListContent returns every entity of a type ordered by id.
	ListContent(ctx context.Context, entityType string) ([]entities.EntityRef, error)
}

// EntityTypeStore persists the registered entity types.
type EntityTypeStore interface {
	SaveEntityType(ctx context.Context, entityType *entities.EntityType) error
	FindEntityType(ctx context.Context, name string) (*entities.EntityType, error)
	ListEntityTypes(ctx context.Context) ([]entities.EntityType, error)
	DeleteEntityType(ctx context.Context, name string) error
}
