package balance

import (
	"context"
	"time"

	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
)

// Repository persists balance rows.
type Repository interface {
	// Get returns apperror BalanceNotFound when the pair is untracked.
	Get(ctx context.Context, locationID, materialID id.ID) (*Balance, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, locationID, materialID id.ID) (*Balance, error)

	// Upsert adds delta to the row, creating it seeded with delta when absent.
	// Absent units of delta leave the stored value untouched.
	// The boolean is true when the row was created.
	Upsert(ctx context.Context, locationID, materialID id.ID, delta types.Quantities, at time.Time) (*Balance, bool, error)

	// Save overwrites the quantities of an existing row.
	Save(ctx context.Context, b *Balance) error

	// List returns rows matching filter ordered by material type, then material name.
	// When filter.PiecesBelow is set rows are ordered by pieces ascending instead.
	List(ctx context.Context, filter Filter) ([]*Balance, error)

	// Total sums a material over every location. A material with no rows totals zero.
	Total(ctx context.Context, materialID id.ID) (*Total, error)
}
