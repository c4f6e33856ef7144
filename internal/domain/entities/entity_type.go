package entities

import "time"

// EntityType is a category of content record the pipeline accepts.
type EntityType struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
