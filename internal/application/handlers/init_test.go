package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/mocks"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

func TestInitHandler_Handle_Success(t *testing.T) {
	tmpDir := t.TempDir()

	handler := NewInitHandler(nil, 0)

	result, err := handler.Handle(context.Background(), tmpDir)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Contains(t, result.DatabasePath, config.DefaultDatabaseFile)
	assert.Empty(t, result.CollectionName)

	// Verify config was created
	assert.True(t, config.Exists(tmpDir))
}

func TestInitHandler_Handle_WithIndex(t *testing.T) {
	tmpDir := t.TempDir()
	index := &mocks.ReferenceIndex{}

	result, err := NewInitHandler(index, 1536).Handle(context.Background(), tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "lore_sync_references", result.CollectionName)
	assert.Equal(t, uint64(1536), index.VectorSize)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()

	// Initialize first
	err := config.WriteDefault(tmpDir)
	require.NoError(t, err)

	_, err = NewInitHandler(nil, 0).Handle(context.Background(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_CollectionError(t *testing.T) {
	tmpDir := t.TempDir()
	index := &mocks.ReferenceIndex{Err: errors.New("connection failed")}

	_, err := NewInitHandler(index, 1536).Handle(context.Background(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")
	assert.Contains(t, err.Error(), "connection failed")
}
