package entities

import "time"

// RunState is the lifecycle state of a batch run.
type RunState string

const (
	RunIdle            RunState = "idle"
	RunRunning         RunState = "running"
	RunCompleted       RunState = "completed"
	RunPartiallyFailed RunState = "partially_failed"
	RunCancelled       RunState = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunPartiallyFailed || s == RunCancelled
}

// SyncSummary aggregates the outcome of one batch run.
type SyncSummary struct {
	RunID       string `json:"run_id"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Verified    int    `json:"verified"`
	NeedsReview int    `json:"needs_review"`
	// Conflicting entities are also counted in NeedsReview.
	Conflicting          int       `json:"conflicting"`
	Failed               int       `json:"failed"`
	WithPhotos           int       `json:"with_photos"`
	Corrected            int       `json:"corrected"`
	NotificationsDropped int       `json:"notifications_dropped"`
	State                RunState  `json:"state"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
}
