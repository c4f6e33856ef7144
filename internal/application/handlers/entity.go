package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

// EntityHandler edits entity content. Every edit is recorded in the change log.
type EntityHandler struct {
	changes *services.ChangeLogService
	types   *services.EntityTypeService
	content ports.ContentStore
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(changes *services.ChangeLogService, types *services.EntityTypeService, content ports.ContentStore) *EntityHandler {
	return &EntityHandler{
		changes: changes,
		types:   types,
		content: content,
	}
}

// HandlePut creates or replaces an entity and returns the change log entry id.
func (h *EntityHandler) HandlePut(ctx context.Context, actor string, ref entities.EntityRef) (string, error) {
	ref.Type = entities.NormalizeTypeName(ref.Type)
	if err := h.types.Require(ctx, ref.Type); err != nil {
		return "", err
	}

	before, err := h.content.GetContent(ctx, ref.Type, ref.ID)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ref.Key(), err)
	}

	action := entities.ActionUpdate
	if before == nil {
		action = entities.ActionInsert
	}
	data := ref.Data
	if data == nil {
		data = map[string]any{}
	}

	return h.changes.Record(ctx, services.ChangeParams{
		Actor:      actor,
		Action:     action,
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Before:     before,
		After:      data,
	})
}

// HandleDelete removes an entity and returns the change log entry id.
func (h *EntityHandler) HandleDelete(ctx context.Context, actor, entityType, entityID string) (string, error) {
	entityType = entities.NormalizeTypeName(entityType)
	before, err := h.content.GetContent(ctx, entityType, entityID)
	if err != nil {
		return "", fmt.Errorf("reading %s/%s: %w", entityType, entityID, err)
	}
	if before == nil {
		return "", fmt.Errorf("entity not found: %s/%s", entityType, entityID)
	}

	return h.changes.Record(ctx, services.ChangeParams{
		Actor:      actor,
		Action:     entities.ActionDelete,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
	})
}

// HandleShow returns the current data of an entity, or nil when it doesn't exist.
func (h *EntityHandler) HandleShow(ctx context.Context, entityType, entityID string) (map[string]any, error) {
	return h.content.GetContent(ctx, entities.NormalizeTypeName(entityType), entityID)
}

// HandleList returns every entity of a type.
func (h *EntityHandler) HandleList(ctx context.Context, entityType string) ([]entities.EntityRef, error) {
	entityType = entities.NormalizeTypeName(entityType)
	if err := h.types.Require(ctx, entityType); err != nil {
		return nil, err
	}
	return h.content.ListContent(ctx, entityType)
}
