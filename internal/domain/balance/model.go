// Package balance provides the material balance store (Остатки материалов).
// One row exists per (storage location, material) pair; the three units are tracked
// independently and never go below zero.
package balance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
)

// Balance is the stock of one material at one storage location.
type Balance struct {
	LocationID id.ID           `db:"storage_location_id" json:"locationId"`
	MaterialID id.ID           `db:"material_id" json:"materialId"`
	Pieces     decimal.Decimal `db:"quantity_pieces" json:"quantityPieces"`
	Meters     decimal.Decimal `db:"quantity_meters" json:"quantityMeters"`
	Cubic      decimal.Decimal `db:"quantity_cubic" json:"quantityCubic"`
	UpdatedAt  time.Time       `db:"last_updated" json:"lastUpdated"`
}

// Zero returns the virtual balance of an untracked pair.
func Zero(locationID, materialID id.ID) *Balance {
	return &Balance{
		LocationID: locationID,
		MaterialID: materialID,
		Pieces:     decimal.Zero,
		Meters:     decimal.Zero,
		Cubic:      decimal.Zero,
	}
}

// Quantity returns the stored amount for a unit.
func (b *Balance) Quantity(u types.Unit) decimal.Decimal {
	switch u {
	case types.UnitPieces:
		return b.Pieces
	case types.UnitMeters:
		return b.Meters
	case types.UnitCubic:
		return b.Cubic
	}
	return decimal.Zero
}

func (b *Balance) set(u types.Unit, v decimal.Decimal) {
	switch u {
	case types.UnitPieces:
		b.Pieces = v
	case types.UnitMeters:
		b.Meters = v
	case types.UnitCubic:
		b.Cubic = v
	}
}

// Shortage returns the first requested unit the balance cannot cover.
func (b *Balance) Shortage(q types.Quantities) (types.Unit, bool) {
	for _, u := range q.RequestedUnits() {
		if b.Quantity(u).LessThan(q.Get(u).Decimal) {
			return u, true
		}
	}
	return 0, false
}

// Covers reports whether every requested unit is available.
func (b *Balance) Covers(q types.Quantities) bool {
	_, short := b.Shortage(q)
	return !short
}

// Add credits every present unit of q. Absent units are left untouched.
func (b *Balance) Add(q types.Quantities, at time.Time) {
	for _, u := range types.Units {
		if v := q.Get(u); v.Valid {
			b.set(u, b.Quantity(u).Add(v.Decimal))
		}
	}
	b.UpdatedAt = at.UTC()
}

// Sub debits every requested unit of q. Callers check Shortage first.
func (b *Balance) Sub(q types.Quantities, at time.Time) {
	for _, u := range q.RequestedUnits() {
		b.set(u, b.Quantity(u).Sub(q.Get(u).Decimal))
	}
	b.UpdatedAt = at.UTC()
}

// Display renders the balance as "20 шт, 10 м.п." or "0".
func (b *Balance) Display() string {
	return types.Display(b.Pieces, b.Meters, b.Cubic)
}

func (b *Balance) String() string {
	return fmt.Sprintf("%s @ %s: %s", b.MaterialID, b.LocationID, b.Display())
}

// Total is the sum of a material's stock across all locations.
type Total struct {
	MaterialID id.ID           `db:"material_id" json:"materialId"`
	Pieces     decimal.Decimal `db:"total_pieces" json:"totalPieces"`
	Meters     decimal.Decimal `db:"total_meters" json:"totalMeters"`
	Cubic      decimal.Decimal `db:"total_cubic" json:"totalCubic"`
}

// Display renders the total the same way as a balance.
func (t Total) Display() string {
	return types.Display(t.Pieces, t.Meters, t.Cubic)
}

// Filter narrows balance listings.
type Filter struct {
	LocationID   *id.ID
	MaterialID   *id.ID
	MaterialType string

	// PiecesBelow keeps rows whose piece count is strictly below the threshold.
	PiecesBelow *decimal.Decimal
}
