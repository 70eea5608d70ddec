package storage

import (
	"context"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
)

// Store abstracts durable persistence of the gateway snapshot. Mutating
// callers save the full snapshot after each change; there is no background
// sync.
type Store interface {
	// Load returns the last saved snapshot, or ErrNotFound when nothing has
	// been persisted yet.
	Load(ctx context.Context) (*model.Snapshot, error)
	// Save persists a point-in-time snapshot, replacing any previous one.
	Save(ctx context.Context, snap *model.Snapshot) error
	Close() error
}
