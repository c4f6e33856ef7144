// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

// InitHandler handles project initialization.
type InitHandler struct {
	index      ports.ReferenceIndex
	vectorSize uint64
}

// NewInitHandler creates a new init handler. index may be nil when the
// reference index is disabled.
func NewInitHandler(index ports.ReferenceIndex, vectorSize uint64) *InitHandler {
	return &InitHandler{
		index:      index,
		vectorSize: vectorSize,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	DatabasePath   string
	CollectionName string
}

// Handle writes the default configuration into basePath.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("lore-sync already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: cfg.DatabasePath(basePath),
	}

	if h.index != nil {
		if err := h.index.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = cfg.Qdrant.Collection
	}

	return result, nil
}
