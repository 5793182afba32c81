package observation

import (
	"context"
)

// Repository manages observation audit persistence with pagination support.
// Writes are best effort from the engine's point of view: an audit failure
// is logged but never fails the observation itself.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByReference(ctx context.Context, reference string, limit, offset int) ([]*Entry, error)
	CountByReference(ctx context.Context, reference string) (int64, error)
}
