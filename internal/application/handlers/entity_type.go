package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

// TypeOverview is an entity type together with what the pipeline holds for it.
type TypeOverview struct {
	entities.EntityType
	Default bool
	// Stored is the number of entities in the content store. Only HandleDescribe fills it.
	Stored int
	Sync   entities.TypeCounts
}

// EntityTypeHandler registers and retires the entity types a batch may contain.
type EntityTypeHandler struct {
	types    *services.EntityTypeService
	statuses *services.StatusService
	content  ports.ContentStore
}

// NewEntityTypeHandler creates a new EntityTypeHandler.
func NewEntityTypeHandler(types *services.EntityTypeService, statuses *services.StatusService, content ports.ContentStore) *EntityTypeHandler {
	return &EntityTypeHandler{
		types:    types,
		statuses: statuses,
		content:  content,
	}
}

// HandleList returns every registered type with its sync counts.
func (h *EntityTypeHandler) HandleList(ctx context.Context) ([]TypeOverview, error) {
	types, err := h.types.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := h.statuses.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying sync status: %w", err)
	}

	out := make([]TypeOverview, 0, len(types))
	for _, et := range types {
		out = append(out, TypeOverview{
			EntityType: et,
			Default:    entities.IsDefaultType(et.Name),
			Sync:       counts[et.Name],
		})
	}
	return out, nil
}

// HandleAdd registers a custom entity type.
func (h *EntityTypeHandler) HandleAdd(ctx context.Context, name, description string) error {
	return h.types.Add(ctx, name, description)
}

// HandleRemove retires a custom entity type. A type that still has stored
// entities cannot be removed, since those entities could no longer be synced.
func (h *EntityTypeHandler) HandleRemove(ctx context.Context, name string) error {
	name = entities.NormalizeTypeName(name)

	stored, err := h.content.ListContent(ctx, name)
	if err != nil {
		return fmt.Errorf("checking stored %s entities: %w", name, err)
	}
	if len(stored) > 0 {
		return fmt.Errorf("entity type %q still has %d stored entities", name, len(stored))
	}
	return h.types.Remove(ctx, name)
}

// HandleDescribe returns one type with its stored and sync counts, or nil.
func (h *EntityTypeHandler) HandleDescribe(ctx context.Context, name string) (*TypeOverview, error) {
	name = entities.NormalizeTypeName(name)
	types, err := h.types.List(ctx)
	if err != nil {
		return nil, err
	}

	var found *entities.EntityType
	for i := range types {
		if types[i].Name == name {
			found = &types[i]
			break
		}
	}
	if found == nil {
		return nil, nil
	}

	stored, err := h.content.ListContent(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing stored %s entities: %w", name, err)
	}
	counts, err := h.statuses.QueryByType(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("querying sync status: %w", err)
	}

	return &TypeOverview{
		EntityType: *found,
		Default:    entities.IsDefaultType(name),
		Stored:     len(stored),
		Sync:       counts,
	}, nil
}
