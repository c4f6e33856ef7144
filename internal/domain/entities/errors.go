package entities

import "errors"

var (
	// ErrOracleUnavailable is returned when the retry budget is exhausted.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrMalformedOracleResponse is returned when an oracle payload cannot be parsed.
	ErrMalformedOracleResponse = errors.New("malformed oracle response")
	// ErrStorageUnreachable marks a change log, status or content store failure.
	ErrStorageUnreachable = errors.New("storage unreachable")
	// ErrAlreadyReversed is returned when reversing an entry twice.
	ErrAlreadyReversed = errors.New("change already reversed")
	// ErrNotReversible is returned for entries that cannot be undone.
	ErrNotReversible = errors.New("change not reversible")
	// ErrEntryNotFound is returned for unknown change log ids.
	ErrEntryNotFound = errors.New("change log entry not found")
	// ErrUnknownEntityType is returned for refs whose type is not registered.
	ErrUnknownEntityType = errors.New("unknown entity type")
)
