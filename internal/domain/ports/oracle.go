// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// Oracle answers "what is wrong with this entity" for one request.
//
// Oracle-side failures (timeouts, rate limits, malformed payloads) are
// reported inside the OracleResult. The error return is reserved for
// failures that are not the oracle's fault, such as misconfiguration or
// a cancelled context.
type Oracle interface {
	FetchFinding(ctx context.Context, req entities.VerificationRequest) (entities.OracleResult, error)
}

// Provider performs a single oracle call with no retries.
// Implementations classify their errors with the oracle package error kinds.
type Provider interface {
	Name() string
	Call(ctx context.Context, req entities.VerificationRequest) (entities.OracleFinding, error)
}
