package entities

import "time"

// MediaJob asks the media curator to find a photo for an entity.
type MediaJob struct {
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
