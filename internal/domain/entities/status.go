package entities

import "time"

// SyncStatus is the persisted verification state of one entity.
type SyncStatus string

const (
	SyncVerified    SyncStatus = "verified"
	SyncNeedsReview SyncStatus = "needs_review"
	SyncPending     SyncStatus = "pending"
)

// SyncStatusFor maps a validation status onto the stored status.
// Conflicting entities need a human, so they are stored as needs_review.
func SyncStatusFor(s ValidationStatus) SyncStatus {
	if s == StatusVerified {
		return SyncVerified
	}
	return SyncNeedsReview
}

// SyncStatusRecord is the last pipeline outcome for one entity.
type SyncStatusRecord struct {
	EntityType   string     `json:"entity_type"`
	EntityID     string     `json:"entity_id"`
	Status       SyncStatus `json:"status"`
	LastSyncedAt time.Time  `json:"last_synced_at"`
}

// TypeCounts aggregates status rows for one entity type.
// Pending rows count towards Total only.
type TypeCounts struct {
	Total       int `json:"total"`
	Verified    int `json:"verified"`
	NeedsReview int `json:"needs_review"`
}
