package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
)

// timeNow returns the current time (can be replaced in tests).
var timeNow = time.Now

// ChangeParams describes one mutation to record.
type ChangeParams struct {
	Actor      string
	Action     entities.Action
	EntityType string
	EntityID   string
	Before     map[string]any
	After      map[string]any
	Metadata   map[string]any
}

// ChangeLogService appends, reverses and lists change log entries.
type ChangeLogService struct {
	log       ports.ChangeLogStore
	content   ports.ContentStore
	committer ports.ChangeCommitter
	logger    *zap.Logger
}

// NewChangeLogService creates a new change log service.
// When log also implements ports.ChangeCommitter, mutations and their entries
// are committed in one transaction; otherwise a mutation whose entry cannot
// be appended is rolled back by restoring the previous content.
func NewChangeLogService(log ports.ChangeLogStore, content ports.ContentStore, logger *zap.Logger) *ChangeLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ChangeLogService{
		log:     log,
		content: content,
		logger:  logger,
	}
	if committer, ok := log.(ports.ChangeCommitter); ok {
		s.committer = committer
	}
	return s
}

// Append writes an entry for a mutation that has already been applied.
func (s *ChangeLogService) Append(ctx context.Context, p ChangeParams) (string, error) {
	if !p.Action.IsValid() {
		return "", fmt.Errorf("invalid action %q", p.Action)
	}

	entry := newEntry(p)
	if err := s.log.AppendEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("appending change log entry: %w", err)
	}
	return entry.ID, nil
}

// Record applies a mutation to the content store and appends its entry.
// Before is read from the content store when the caller leaves it nil.
func (s *ChangeLogService) Record(ctx context.Context, p ChangeParams) (string, error) {
	if !p.Action.IsValid() {
		return "", fmt.Errorf("invalid action %q", p.Action)
	}

	var prior map[string]any
	if p.Before == nil || s.committer == nil {
		current, err := s.content.GetContent(ctx, p.EntityType, p.EntityID)
		if err != nil {
			return "", fmt.Errorf("reading current content: %w", err)
		}
		prior = current
	}
	if p.Before == nil {
		p.Before = prior
	}

	entry := newEntry(p)
	if err := s.commit(ctx, entry, "", prior); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// Reverse undoes an entry and appends a new entry describing the reversal.
//
// The original entry is claimed with a compare-and-set on reversed_at, so
// concurrent callers cannot both reverse it. If the inverse mutation or the
// reversal entry cannot be written the claim is released.
func (s *ChangeLogService) Reverse(ctx context.Context, entryID, reversedBy string) (*entities.ChangeLogEntry, error) {
	entry, err := s.log.FindEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Reversed() {
		return nil, entities.ErrAlreadyReversed
	}
	if !entry.Reversible {
		return nil, entities.ErrNotReversible
	}

	current, err := s.content.GetContent(ctx, entry.EntityType, entry.EntityID)
	if err != nil {
		return nil, fmt.Errorf("reading current content: %w", err)
	}
	before := current
	if before == nil {
		before = entry.After
	}
	action, after := inverse(entry)

	reversal := newEntry(ChangeParams{
		Actor:      reversedBy,
		Action:     action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Before:     before,
		After:      after,
		Metadata:   map[string]any{entities.MetaReversalOf: entry.ID},
	})
	if err := s.commit(ctx, reversal, entry.ID, current); err != nil {
		return nil, err
	}

	s.logger.Info("change reversed",
		zap.String("entry_id", entry.ID),
		zap.String("reversal_id", reversal.ID),
		zap.String("action", string(action)),
		zap.String("reversed_by", reversedBy))

	return reversal, nil
}

// History lists the entries of an entity, most recent first.
func (s *ChangeLogService) History(ctx context.Context, entityType, entityID string) ([]entities.ChangeLogEntry, error) {
	return s.log.FindHistory(ctx, entityType, entityID)
}

// Entry returns a single entry.
func (s *ChangeLogService) Entry(ctx context.Context, id string) (*entities.ChangeLogEntry, error) {
	return s.log.FindEntry(ctx, id)
}

// inverse returns the action and resulting data that undo an entry.
func inverse(entry *entities.ChangeLogEntry) (entities.Action, map[string]any) {
	switch entry.Action {
	case entities.ActionInsert:
		return entities.ActionDelete, nil
	case entities.ActionDelete:
		return entities.ActionInsert, entry.Before
	default:
		if entry.Before == nil {
			return entities.ActionDelete, nil
		}
		return entities.ActionUpdate, entry.Before
	}
}

func newEntry(p ChangeParams) *entities.ChangeLogEntry {
	return &entities.ChangeLogEntry{
		ID:         uuid.New().String(),
		Actor:      p.Actor,
		Action:     p.Action,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		Before:     p.Before,
		After:      p.After,
		Metadata:   p.Metadata,
		Reversible: entities.IsReversible(p.Action, p.Before),
		CreatedAt:  timeNow().UTC(),
	}
}

// commit applies entry's mutation and appends entry as one unit. reverses
// names the entry being reversed, if any; prior is the stored content before
// the mutation and is only used when the store cannot commit atomically.
func (s *ChangeLogService) commit(ctx context.Context, entry *entities.ChangeLogEntry, reverses string, prior map[string]any) error {
	if s.committer != nil {
		if err := s.committer.CommitChange(ctx, entry, reverses); err != nil {
			if IsCallerError(err) {
				return err
			}
			return fmt.Errorf("committing change: %w", err)
		}
		return nil
	}

	if reverses != "" {
		if err := s.log.MarkReversed(ctx, reverses, entry.Actor, entry.CreatedAt); err != nil {
			return err
		}
	}
	if err := s.apply(ctx, entry.Action, entry.EntityType, entry.EntityID, entry.After); err != nil {
		s.release(ctx, reverses)
		return err
	}
	if err := s.log.AppendEntry(ctx, entry); err != nil {
		s.restore(ctx, entry, prior)
		s.release(ctx, reverses)
		return fmt.Errorf("appending change log entry: %w", err)
	}
	return nil
}

// restore puts back the content an unlogged mutation replaced.
func (s *ChangeLogService) restore(ctx context.Context, entry *entities.ChangeLogEntry, prior map[string]any) {
	action := entities.ActionUpdate
	if prior == nil {
		action = entities.ActionDelete
	}
	if err := s.apply(ctx, action, entry.EntityType, entry.EntityID, prior); err != nil {
		s.logger.Error("restoring content after failed append",
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// release drops a reversal claim so the entry can be reversed again.
func (s *ChangeLogService) release(ctx context.Context, reverses string) {
	if reverses == "" {
		return
	}
	if err := s.log.ClearReversed(ctx, reverses); err != nil {
		s.logger.Error("releasing reversal claim",
			zap.String("entry_id", reverses),
			zap.Error(err))
	}
}

func (s *ChangeLogService) apply(ctx context.Context, action entities.Action, entityType, entityID string, after map[string]any) error {
	var err error
	switch action {
	case entities.ActionDelete:
		err = s.content.DeleteContent(ctx, entityType, entityID)
	case entities.ActionInsert, entities.ActionUpdate:
		err = s.content.PutContent(ctx, entityType, entityID, after)
	default:
		return fmt.Errorf("invalid action %q", action)
	}
	if err != nil {
		return fmt.Errorf("applying %s to %s/%s: %w", action, entityType, entityID, err)
	}
	return nil
}

// IsCallerError reports whether err is a change log error the caller can act on.
func IsCallerError(err error) bool {
	return errors.Is(err, entities.ErrAlreadyReversed) ||
		errors.Is(err, entities.ErrNotReversible) ||
		errors.Is(err, entities.ErrEntryNotFound)
}
