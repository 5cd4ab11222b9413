// Package types provides decimal quantity and money helpers for the ledger.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Stored precision: quantities NUMERIC(12,3), prices NUMERIC(12,2), totals NUMERIC(15,2).
const (
	QuantityPlaces int32 = 3
	MoneyPlaces    int32 = 2
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// OptQuantity is a quantity that may be absent ("not applicable" differs from zero).
type OptQuantity = decimal.NullDecimal

// Unit is one of the three independently tracked measures.
type Unit int

const (
	UnitPieces Unit = iota
	UnitMeters
	UnitCubic
)

// Units lists every unit in precedence order (pieces, meters, cubic).
var Units = [...]Unit{UnitPieces, UnitMeters, UnitCubic}

// String returns the machine name used in error details.
func (u Unit) String() string {
	switch u {
	case UnitPieces:
		return "pieces"
	case UnitMeters:
		return "meters"
	case UnitCubic:
		return "cubic"
	}
	return "unknown"
}

// Suffix returns the short display suffix.
func (u Unit) Suffix() string {
	switch u {
	case UnitPieces:
		return "шт"
	case UnitMeters:
		return "м.п."
	case UnitCubic:
		return "м³"
	}
	return ""
}

// Qty builds a present quantity. Panics on malformed input; use for constants and tests.
func Qty(s string) OptQuantity {
	return OptQuantity{Decimal: decimal.RequireFromString(s), Valid: true}
}

// QtyOf wraps a decimal as a present quantity.
func QtyOf(d decimal.Decimal) OptQuantity {
	return OptQuantity{Decimal: d, Valid: true}
}

// NoQty returns an absent quantity.
func NoQty() OptQuantity {
	return OptQuantity{}
}

// MustMoney creates a Money value from a string, panics on error.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// Quantities groups the three measures of one material.
// Absent units are left untouched by credit/debit and skipped by sufficiency checks.
type Quantities struct {
	Pieces OptQuantity
	Meters OptQuantity
	Cubic  OptQuantity
}

// Get returns the quantity for a unit.
func (q Quantities) Get(u Unit) OptQuantity {
	switch u {
	case UnitPieces:
		return q.Pieces
	case UnitMeters:
		return q.Meters
	case UnitCubic:
		return q.Cubic
	}
	return NoQty()
}

// Requested reports whether a unit takes part in a movement: present and non-zero.
func (q Quantities) Requested(u Unit) bool {
	v := q.Get(u)
	return v.Valid && !v.Decimal.IsZero()
}

// RequestedUnits returns the units that take part in a movement, in precedence order.
func (q Quantities) RequestedUnits() []Unit {
	var units []Unit
	for _, u := range Units {
		if q.Requested(u) {
			units = append(units, u)
		}
	}
	return units
}

// IsEmpty reports whether no unit is requested.
func (q Quantities) IsEmpty() bool {
	return len(q.RequestedUnits()) == 0
}

// HasNegative reports whether any present unit is below zero.
func (q Quantities) HasNegative() (Unit, bool) {
	for _, u := range Units {
		v := q.Get(u)
		if v.Valid && v.Decimal.IsNegative() {
			return u, true
		}
	}
	return 0, false
}

// Display renders "20 шт, 10 м.п., 3 м³" or "0" when nothing is set.
func Display(pieces, meters, cubic decimal.Decimal) string {
	parts := make([]string, 0, 3)
	vals := [...]decimal.Decimal{pieces, meters, cubic}
	for i, u := range Units {
		if !vals[i].IsZero() {
			parts = append(parts, vals[i].String()+" "+u.Suffix())
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, ", ")
}

// Display renders the present, non-zero quantities.
func (q Quantities) Display() string {
	return Display(q.Pieces.Decimal, q.Meters.Decimal, q.Cubic.Decimal)
}
