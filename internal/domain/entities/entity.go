// Package entities contains core domain data structures.
package entities

import "strings"

// EntityRef identifies a content record (artist, venue, label, ...) and
// optionally carries its current data.
type EntityRef struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	Data map[string]any `json:"data,omitempty"`
}

// Key returns the "type/id" form used in logs and lookups.
func (r EntityRef) Key() string {
	return r.Type + "/" + r.ID
}

// VerificationRequest is one unit of work dispatched to an oracle.
// It is never persisted.
type VerificationRequest struct {
	EntityType  string
	EntityID    string
	CurrentData map[string]any

	// Related holds verified entities of the same type that resemble this
	// one. Oracles may use them as grounding context.
	Related []EntityRef
}

// NewVerificationRequest builds a request from a reference.
func NewVerificationRequest(ref EntityRef) VerificationRequest {
	return VerificationRequest{
		EntityType:  ref.Type,
		EntityID:    ref.ID,
		CurrentData: ref.Data,
	}
}

// NormalizeTypeName lowercases and trims an entity type name.
func NormalizeTypeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CloneData returns a shallow copy of an entity data map.
// A nil map stays nil so that "no record" remains distinguishable from "empty record".
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
