package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

const changeLogColumns = `id, actor, action, entity_type, entity_id, before_data, after_data,
	metadata, reversible, reversed_at, reversed_by, created_at`

// AppendEntry writes a new change log entry.
func (r *Repository) AppendEntry(ctx context.Context, entry *entities.ChangeLogEntry) error {
	before, err := encodeData(entry.Before)
	if err != nil {
		return fmt.Errorf("marshaling before: %w", err)
	}
	after, err := encodeData(entry.After)
	if err != nil {
		return fmt.Errorf("marshaling after: %w", err)
	}
	metadata, err := encodeData(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	query := `
		INSERT INTO change_log (` + changeLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var reversedAt sql.NullTime
	if entry.ReversedAt != nil {
		reversedAt = sql.NullTime{Time: *entry.ReversedAt, Valid: true}
	}
	_, err = r.exec(ctx, query,
		entry.ID,
		entry.Actor,
		string(entry.Action),
		entry.EntityType,
		entry.EntityID,
		before,
		after,
		metadata,
		entry.Reversible,
		reversedAt,
		sql.NullString{String: entry.ReversedBy, Valid: entry.ReversedBy != ""},
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending change log entry: %w", err)
	}
	return nil
}

// CommitChange claims reverses (when set), applies entry's mutation to the
// content table and appends entry, all in one transaction.
func (r *Repository) CommitChange(ctx context.Context, entry *entities.ChangeLogEntry, reverses string) error {
	return r.inTx(ctx, func(tx *Repository) error {
		if reverses != "" {
			if err := tx.MarkReversed(ctx, reverses, entry.Actor, entry.CreatedAt); err != nil {
				return err
			}
		}

		switch entry.Action {
		case entities.ActionDelete:
			if err := tx.DeleteContent(ctx, entry.EntityType, entry.EntityID); err != nil {
				return err
			}
		case entities.ActionInsert, entities.ActionUpdate:
			if err := tx.PutContent(ctx, entry.EntityType, entry.EntityID, entry.After); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid action %q", entry.Action)
		}

		return tx.AppendEntry(ctx, entry)
	})
}

// FindEntry returns one entry or entities.ErrEntryNotFound.
func (r *Repository) FindEntry(ctx context.Context, id string) (*entities.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log WHERE id = ?`
	rows, err := r.query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying change log entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying change log entry: %w", err)
		}
		return nil, entities.ErrEntryNotFound
	}
	return scanEntry(rows)
}

// MarkReversed claims an entry for reversal. Only the first caller succeeds.
func (r *Repository) MarkReversed(ctx context.Context, id, reversedBy string, at time.Time) error {
	query := `UPDATE change_log SET reversed_at = ?, reversed_by = ? WHERE id = ? AND reversed_at IS NULL`
	result, err := r.exec(ctx, query, at.UTC(), reversedBy, id)
	if err != nil {
		return fmt.Errorf("marking entry reversed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking entry reversed: %w", err)
	}
	if n == 1 {
		return nil
	}

	var count int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM change_log WHERE id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("checking change log entry: %w", err)
	}
	if count == 0 {
		return entities.ErrEntryNotFound
	}
	return entities.ErrAlreadyReversed
}

// ClearReversed releases a reversal claim.
func (r *Repository) ClearReversed(ctx context.Context, id string) error {
	query := `UPDATE change_log SET reversed_at = NULL, reversed_by = NULL WHERE id = ?`
	if _, err := r.exec(ctx, query, id); err != nil {
		return fmt.Errorf("clearing reversal: %w", err)
	}
	return nil
}

// FindHistory lists the entries of an entity, most recent first.
func (r *Repository) FindHistory(ctx context.Context, entityType, entityID string) ([]entities.ChangeLogEntry, error) {
	query := `
		SELECT ` + changeLogColumns + `
		FROM change_log
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY seq DESC
	`
	rows, err := r.query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying change log: %w", err)
	}
	defer rows.Close()

	var history []entities.ChangeLogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *entry)
	}
	return history, rows.Err()
}

func scanEntry(rows *sql.Rows) (*entities.ChangeLogEntry, error) {
	var (
		e                       entities.ChangeLogEntry
		action                  string
		before, after, metadata sql.NullString
		reversedAt              sql.NullTime
		reversedBy              sql.NullString
	)
	err := rows.Scan(
		&e.ID,
		&e.Actor,
		&action,
		&e.EntityType,
		&e.EntityID,
		&before,
		&after,
		&metadata,
		&e.Reversible,
		&reversedAt,
		&reversedBy,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning change log entry: %w", err)
	}

	e.Action = entities.Action(action)
	e.ReversedBy = reversedBy.String
	if reversedAt.Valid {
		t := reversedAt.Time
		e.ReversedAt = &t
	}
	if e.Before, err = decodeData(before); err != nil {
		return nil, fmt.Errorf("unmarshaling before: %w", err)
	}
	if e.After, err = decodeData(after); err != nil {
		return nil, fmt.Errorf("unmarshaling after: %w", err)
	}
	if e.Metadata, err = decodeData(metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return &e, nil
}
