package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
)

// ReferenceService keeps an index of verified entities and finds similar ones
// to send to the oracle as context.
type ReferenceService struct {
	embedder ports.Embedder
	index    ports.ReferenceIndex
	limit    int
	logger   *zap.Logger
}

// NewReferenceService creates a reference service returning at most limit matches.
func NewReferenceService(embedder ports.Embedder, index ports.ReferenceIndex, limit int, logger *zap.Logger) *ReferenceService {
	if limit <= 0 {
		limit = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		embedder: embedder,
		index:    index,
		limit:    limit,
		logger:   logger,
	}
}

// Related returns verified entities of the same type whose data resembles ref.
// ref itself is never part of the result.
func (s *ReferenceService) Related(ctx context.Context, ref entities.EntityRef) ([]entities.EntityRef, error) {
	vector, err := s.embedder.Embed(ctx, describe(ref))
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", ref.Key(), err)
	}

	// One extra in case the entity itself is already indexed.
	found, err := s.index.SearchByType(ctx, ref.Type, vector, s.limit+1)
	if err != nil {
		return nil, fmt.Errorf("searching references for %s: %w", ref.Key(), err)
	}

	related := make([]entities.EntityRef, 0, len(found))
	for _, r := range found {
		if r.Type == ref.Type && r.ID == ref.ID {
			continue
		}
		related = append(related, r)
		if len(related) == s.limit {
			break
		}
	}
	return related, nil
}

// Remember indexes the data of a verified entity.
func (s *ReferenceService) Remember(ctx context.Context, ref entities.EntityRef) error {
	vector, err := s.embedder.Embed(ctx, describe(ref))
	if err != nil {
		return fmt.Errorf("embedding %s: %w", ref.Key(), err)
	}
	if err := s.index.Upsert(ctx, ref, vector); err != nil {
		return fmt.Errorf("indexing %s: %w", ref.Key(), err)
	}
	s.logger.Debug("reference indexed", zap.String("entity", ref.Key()))
	return nil
}

// describe renders entity data as stable text for embedding.
func describe(ref entities.EntityRef) string {
	keys := make([]string, 0, len(ref.Data))
	for k := range ref.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(ref.Type)
	for _, k := range keys {
		v := ref.Data[k]
		if v == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		if s, ok := v.(string); ok {
			b.WriteString(s)
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			fmt.Fprint(&b, v)
			continue
		}
		b.Write(raw)
	}
	return b.String()
}
