package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/mocks"
)

func TestReferenceService_RelatedSkipsSelf(t *testing.T) {
	index := &mocks.ReferenceIndex{SearchResult: []entities.EntityRef{
		{Type: "artist", ID: "A1"},
		{Type: "artist", ID: "A2"},
		{Type: "artist", ID: "A3"},
		{Type: "artist", ID: "A4"},
	}}
	svc := NewReferenceService(&mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}, index, 2, nil)

	related, err := svc.Related(context.Background(), entities.EntityRef{Type: "artist", ID: "A1", Data: map[string]any{"name": "DJ X"}})
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "A2", related[0].ID)
	assert.Equal(t, "A3", related[1].ID)
}

func TestReferenceService_Errors(t *testing.T) {
	ref := entities.EntityRef{Type: "venue", ID: "V1"}

	t.Run("embedder", func(t *testing.T) {
		svc := NewReferenceService(&mocks.Embedder{Err: errors.New("quota")}, &mocks.ReferenceIndex{}, 3, nil)
		_, err := svc.Related(context.Background(), ref)
		assert.ErrorContains(t, err, "quota")
		assert.ErrorContains(t, svc.Remember(context.Background(), ref), "quota")
	})

	t.Run("index", func(t *testing.T) {
		svc := NewReferenceService(&mocks.Embedder{}, &mocks.ReferenceIndex{Err: errors.New("unavailable")}, 3, nil)
		_, err := svc.Related(context.Background(), ref)
		assert.ErrorContains(t, err, "unavailable")
		assert.ErrorContains(t, svc.Remember(context.Background(), ref), "unavailable")
	})
}

func TestReferenceService_Remember(t *testing.T) {
	index := &mocks.ReferenceIndex{}
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1}}
	svc := NewReferenceService(embedder, index, 0, nil)

	ref := entities.EntityRef{Type: "label", ID: "L1", Data: map[string]any{"name": "Ostgut Ton"}}
	require.NoError(t, svc.Remember(context.Background(), ref))

	require.Len(t, index.Upserted, 1)
	assert.Equal(t, ref, index.Upserted[0])
	assert.Equal(t, 1, embedder.Calls)
}

func TestDescribe(t *testing.T) {
	got := describe(entities.EntityRef{Type: "artist", ID: "A1", Data: map[string]any{
		"name":    "DJ X",
		"country": nil,
		"aliases": []any{"X", "Mr X"},
		"active":  true,
	}})
	assert.Equal(t, "artist\nactive: true\naliases: [\"X\",\"Mr X\"]\nname: DJ X", got)
}
