package movement

import (
	"context"
	"time"

	"forestledger/internal/core/id"
)

// ListFilter narrows movement listings.
type ListFilter struct {
	Completed      *bool
	AccountingType AccountingType
	LocationID     *id.ID // matches either side
	MaterialID     *id.ID

	// CompletedFrom/CompletedTo bound completed_at, both inclusive.
	CompletedFrom *time.Time
	CompletedTo   *time.Time

	// NewestFirst orders by completed_at (or date) descending.
	NewestFirst bool

	Limit  int
	Offset int
}

// Repository persists movement documents.
type Repository interface {
	Create(ctx context.Context, m *Movement) error

	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, movementID id.ID) (*Movement, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, movementID id.ID) (*Movement, error)

	// Update persists status and total with optimistic locking on Version.
	// m.Version must already be bumped; the stored row must hold m.Version-1.
	Update(ctx context.Context, m *Movement) error

	List(ctx context.Context, filter ListFilter) ([]*Movement, error)
}
