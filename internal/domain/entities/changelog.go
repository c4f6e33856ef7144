package entities

import "time"

// Action is the kind of mutation a change log entry records.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionInsert, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Metadata keys written by the pipeline.
const (
	MetaReversalOf  = "reversal_of"
	MetaStatus      = "status"
	MetaConfidence  = "confidence"
	MetaCorrections = "corrections"
	MetaRunID       = "run_id"
)

// ChangeLogEntry is an append-only record of one applied mutation.
// Only ReversedAt/ReversedBy are ever written after creation, exactly once.
type ChangeLogEntry struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     Action         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Before     map[string]any `json:"before"`
	After      map[string]any `json:"after"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Reversible bool           `json:"reversible"`
	ReversedAt *time.Time     `json:"reversed_at,omitempty"`
	ReversedBy string         `json:"reversed_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IsReversible computes the reversible flag for a new entry:
// a delete can only be undone when the deleted data was captured.
func IsReversible(action Action, before map[string]any) bool {
	return action != ActionDelete || before != nil
}

// Reversed reports whether the entry has already been reversed.
func (e *ChangeLogEntry) Reversed() bool {
	return e.ReversedAt != nil
}
