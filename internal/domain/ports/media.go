package ports

import (
	"context"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// MediaQueue receives best-effort media curation jobs.
// Delivery may not happen; callers must not depend on it.
type MediaQueue interface {
	Enqueue(ctx context.Context, job entities.MediaJob) error
}
