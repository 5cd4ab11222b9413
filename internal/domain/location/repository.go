package location

import (
	"context"

	"forestledger/internal/core/id"
)

// Repository persists storage locations.
type Repository interface {
	// Create inserts a location. Returns apperror Duplicate when (kind, source) is taken.
	Create(ctx context.Context, loc *Location) error

	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)

	// GetBySource returns apperror NotFound when no location points at the source.
	GetBySource(ctx context.Context, kind Kind, sourceID id.ID) (*Location, error)

	// List returns locations ordered by kind, then id. An empty kind lists all.
	List(ctx context.Context, kind Kind) ([]*Location, error)
}
