package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

func newTypeHandler(p *pipeline) *EntityTypeHandler {
	return NewEntityTypeHandler(p.types, p.statuses, p.content)
}

func TestEntityTypeHandler_HandleList(t *testing.T) {
	p := newPipeline(t)
	handler := newTypeHandler(p)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, p.statuses.Upsert(ctx, "artist", "A1", entities.SyncVerified, now))
	require.NoError(t, p.statuses.Upsert(ctx, "artist", "A2", entities.SyncNeedsReview, now))
	require.NoError(t, handler.HandleAdd(ctx, "collective", "Artist collectives and crews"))

	types, err := handler.HandleList(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 7)

	byName := make(map[string]TypeOverview, len(types))
	for _, et := range types {
		byName[et.Name] = et
	}
	for _, name := range []string{"artist", "venue", "label", "festival", "promoter", "release"} {
		assert.True(t, byName[name].Default, name)
	}

	assert.False(t, byName["collective"].Default)
	assert.Equal(t, "Artist collectives and crews", byName["collective"].Description)
	assert.Equal(t, entities.TypeCounts{Total: 2, Verified: 1, NeedsReview: 1}, byName["artist"].Sync)
	assert.Zero(t, byName["venue"].Sync.Total)
}

func TestEntityTypeHandler_HandleAdd_Errors(t *testing.T) {
	p := newPipeline(t)
	handler := newTypeHandler(p)
	require.NoError(t, handler.HandleAdd(context.Background(), "collective", "Crews"))

	tests := []struct {
		name    string
		typ     string
		wantErr string
	}{
		{"duplicate", "collective", "already exists"},
		{"default type", "artist", "already exists"},
		{"invalid name", "record-shop", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.HandleAdd(context.Background(), tt.typ, "Description")
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEntityTypeHandler_HandleRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("custom type without content", func(t *testing.T) {
		p := newPipeline(t)
		handler := newTypeHandler(p)
		require.NoError(t, handler.HandleAdd(ctx, "collective", "Crews"))

		require.NoError(t, handler.HandleRemove(ctx, "Collective"))

		et, err := handler.HandleDescribe(ctx, "collective")
		require.NoError(t, err)
		assert.Nil(t, et)
	})

	t.Run("custom type with stored entities", func(t *testing.T) {
		p := newPipeline(t)
		handler := newTypeHandler(p)
		require.NoError(t, handler.HandleAdd(ctx, "collective", "Crews"))
		require.NoError(t, p.content.PutContent(ctx, "collective", "C1", map[string]any{"name": "Herrensauna"}))

		err := handler.HandleRemove(ctx, "collective")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "still has 1 stored entities")

		require.NoError(t, p.types.Require(ctx, "collective"))
	})

	t.Run("default type", func(t *testing.T) {
		handler := newTypeHandler(newPipeline(t))

		err := handler.HandleRemove(ctx, "artist")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot remove default")
	})

	t.Run("unknown type", func(t *testing.T) {
		handler := newTypeHandler(newPipeline(t))

		err := handler.HandleRemove(ctx, "nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown entity type")
	})
}

func TestEntityTypeHandler_HandleDescribe(t *testing.T) {
	p := newPipeline(t)
	handler := newTypeHandler(p)
	ctx := context.Background()

	require.NoError(t, p.content.PutContent(ctx, "venue", "V1", map[string]any{"name": "Tresor"}))
	require.NoError(t, p.content.PutContent(ctx, "venue", "V2", map[string]any{"name": "Berghain"}))
	require.NoError(t, p.statuses.Upsert(ctx, "venue", "V1", entities.SyncVerified, time.Now()))

	et, err := handler.HandleDescribe(ctx, "Venue")
	require.NoError(t, err)
	require.NotNil(t, et)
	assert.Equal(t, "venue", et.Name)
	assert.True(t, et.Default)
	assert.Equal(t, 2, et.Stored)
	assert.Equal(t, entities.TypeCounts{Total: 1, Verified: 1}, et.Sync)

	missing, err := handler.HandleDescribe(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
