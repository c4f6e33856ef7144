package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/domain/services"
	"github.com/ersonp/lore-sync/internal/infrastructure/parsers"
)

// SyncHandler runs verification batches.
type SyncHandler struct {
	orchestrator *services.Orchestrator
	types        *services.EntityTypeService
	content      ports.ContentStore
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(orchestrator *services.Orchestrator, types *services.EntityTypeService, content ports.ContentStore) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		types:        types,
		content:      content,
	}
}

// SyncOptions controls a sync run.
type SyncOptions struct {
	Format string // "json", "csv", or "auto"
	services.RunOptions
}

// HandleFile parses a JSON or CSV file and verifies every entity in it.
func (h *SyncHandler) HandleFile(ctx context.Context, filePath string, opts SyncOptions) (*entities.SyncSummary, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rows, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	return h.Handle(ctx, parsers.Refs(rows), opts.RunOptions)
}

// HandleType verifies every stored entity of one type.
func (h *SyncHandler) HandleType(ctx context.Context, entityType string, opts services.RunOptions) (*entities.SyncSummary, error) {
	entityType = entities.NormalizeTypeName(entityType)
	if err := h.types.Require(ctx, entityType); err != nil {
		return nil, err
	}

	refs, err := h.content.ListContent(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("listing %s entities: %w", entityType, err)
	}

	return h.orchestrator.Run(ctx, refs, opts)
}

// Handle verifies refs after checking that every type is registered.
// Nothing is processed when a type is unknown.
func (h *SyncHandler) Handle(ctx context.Context, refs []entities.EntityRef, opts services.RunOptions) (*entities.SyncSummary, error) {
	normalized := make([]entities.EntityRef, len(refs))
	seen := make(map[string]bool)
	for i, ref := range refs {
		ref.Type = entities.NormalizeTypeName(ref.Type)
		normalized[i] = ref
		if seen[ref.Type] {
			continue
		}
		seen[ref.Type] = true
		if err := h.types.Require(ctx, ref.Type); err != nil {
			return nil, err
		}
	}

	return h.orchestrator.Run(ctx, normalized, opts)
}
