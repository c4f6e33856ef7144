package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSyncHandler_HandleFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json",
			file:    "batch.json",
			content: `[{"type": "artist", "id": "A1", "data": {"name": "DJ X"}}, {"type": "venue", "id": "V1", "data": {"name": "Tresor"}}]`,
		},
		{
			name:    "csv",
			file:    "batch.csv",
			content: "type,id,name\nartist,A1,DJ X\nvenue,V1,Tresor\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			handler := NewSyncHandler(p.orchestrator, p.types, p.content)

			summary, err := handler.HandleFile(context.Background(), writeFile(t, tt.file, tt.content), SyncOptions{})
			require.NoError(t, err)
			assert.Equal(t, entities.RunCompleted, summary.State)
			assert.Equal(t, 2, summary.Processed)
			assert.Equal(t, 2, summary.Verified)

			rec, ok := p.status.Get("venue", "V1")
			require.True(t, ok)
			assert.Equal(t, entities.SyncVerified, rec.Status)
		})
	}
}

func TestSyncHandler_HandleFile_Errors(t *testing.T) {
	p := newPipeline(t)
	handler := NewSyncHandler(p.orchestrator, p.types, p.content)
	ctx := context.Background()

	_, err := handler.HandleFile(ctx, writeFile(t, "batch.txt", "x"), SyncOptions{})
	assert.ErrorContains(t, err, "unsupported format")

	_, err = handler.HandleFile(ctx, filepath.Join(t.TempDir(), "missing.json"), SyncOptions{})
	assert.ErrorContains(t, err, "opening file")

	_, err = handler.HandleFile(ctx, writeFile(t, "batch.json", "{"), SyncOptions{})
	assert.ErrorContains(t, err, "parsing file")

	// Explicit format overrides the extension.
	summary, err := handler.HandleFile(ctx, writeFile(t, "batch.txt", "type,id\nartist,A9\n"), SyncOptions{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed, "entity without stored content fails")
}

func TestSyncHandler_UnknownTypeRejectsBatch(t *testing.T) {
	p := newPipeline(t)
	handler := NewSyncHandler(p.orchestrator, p.types, p.content)

	refs := []entities.EntityRef{
		{Type: "artist", ID: "A1", Data: map[string]any{"name": "X"}},
		{Type: "spaceship", ID: "S1", Data: map[string]any{"name": "Y"}},
	}
	_, err := handler.Handle(context.Background(), refs, services.RunOptions{})

	require.ErrorIs(t, err, entities.ErrUnknownEntityType)
	assert.Equal(t, 0, p.oracle.CallCount())
}

func TestSyncHandler_HandleType(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	require.NoError(t, p.content.PutContent(ctx, "label", "L1", map[string]any{"name": "Tresor Records"}))
	require.NoError(t, p.content.PutContent(ctx, "label", "L2", map[string]any{"name": "Ostgut Ton"}))
	require.NoError(t, p.content.PutContent(ctx, "venue", "V1", map[string]any{"name": "Berghain"}))

	handler := NewSyncHandler(p.orchestrator, p.types, p.content)

	summary, err := handler.HandleType(ctx, "Label", services.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, p.oracle.CallCount())

	_, err = handler.HandleType(ctx, "spaceship", services.RunOptions{})
	assert.ErrorIs(t, err, entities.ErrUnknownEntityType)
}

func TestSyncHandler_HandleLeavesInputUntouched(t *testing.T) {
	p := newPipeline(t)
	handler := NewSyncHandler(p.orchestrator, p.types, p.content)

	refs := []entities.EntityRef{
		{Type: "Artist", ID: "A1", Data: map[string]any{"name": "DJ X"}},
		{Type: " VENUE ", ID: "V1", Data: map[string]any{"name": "Tresor"}},
	}

	summary, err := handler.Handle(context.Background(), refs, services.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Verified)

	assert.Equal(t, "Artist", refs[0].Type)
	assert.Equal(t, " VENUE ", refs[1].Type)

	_, ok := p.status.Get("venue", "V1")
	assert.True(t, ok)
}
