// Package movement provides material movement documents (Движения материалов).
// A movement describes a transfer, sale or write-off of one material between storage
// locations. It stays pending until the ledger processor executes it.
package movement

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/entity"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
)

// AccountingType is the kind of movement (Вид учета).
// Values are the stored tags and must stay stable.
type AccountingType string

const (
	Transfer AccountingType = "Перемещение"
	Sale     AccountingType = "Реализация"
	WriteOff AccountingType = "Списание"
)

// ParseAccountingType converts a stored tag into an AccountingType.
func ParseAccountingType(s string) (AccountingType, error) {
	t := AccountingType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", apperror.NewValidation("unknown accounting type").
			WithDetail("field", "accountingType").
			WithDetail("value", s)
	}
	return t, nil
}

// Valid reports whether t is a known accounting type.
func (t AccountingType) Valid() bool {
	switch t {
	case Transfer, Sale, WriteOff:
		return true
	}
	return false
}

// RequiresDestination reports whether documents of this type must name a receiver.
func (t AccountingType) RequiresDestination() bool {
	return t == Transfer || t == Sale
}

// Movement is a material movement document.
type Movement struct {
	entity.Document

	AccountingType AccountingType `db:"accounting_type" json:"accountingType"`

	// Optional actors: who and what carried the material.
	EmployeeID *id.ID `db:"employee_id" json:"employeeId,omitempty"`
	VehicleID  *id.ID `db:"vehicle_id" json:"vehicleId,omitempty"`

	FromLocationID id.ID  `db:"from_location_id" json:"fromLocationId"`
	ToLocationID   *id.ID `db:"to_location_id" json:"toLocationId,omitempty"`
	MaterialID     id.ID  `db:"material_id" json:"materialId"`

	QuantityPieces types.OptQuantity `db:"quantity_pieces" json:"quantityPieces"`
	QuantityMeters types.OptQuantity `db:"quantity_meters" json:"quantityMeters"`
	QuantityCubic  types.OptQuantity `db:"quantity_cubic" json:"quantityCubic"`

	// Price per unit, Sale only.
	Price       decimal.NullDecimal `db:"price" json:"price"`
	TotalAmount decimal.Decimal     `db:"total_amount" json:"totalAmount"`
}

func newMovement(t AccountingType, author string, from id.ID, to *id.ID, materialID id.ID, q types.Quantities) *Movement {
	m := &Movement{
		Document:       entity.NewDocument(author),
		AccountingType: t,
		FromLocationID: from,
		ToLocationID:   to,
		MaterialID:     materialID,
		TotalAmount:    decimal.Zero,
	}
	m.SetQuantities(q)
	return m
}

// NewTransfer creates a pending transfer between two locations.
func NewTransfer(author string, from, to, materialID id.ID, q types.Quantities) *Movement {
	return newMovement(Transfer, author, from, &to, materialID, q)
}

// NewSale creates a pending sale of one unit type at price per unit.
func NewSale(author string, from, to, materialID id.ID, price types.Money, q types.Quantities) *Movement {
	m := newMovement(Sale, author, from, &to, materialID, q)
	m.Price = decimal.NewNullDecimal(price)
	return m
}

// NewWriteOff creates a pending write-off. Written-off material leaves the books.
func NewWriteOff(author string, from, materialID id.ID, q types.Quantities) *Movement {
	return newMovement(WriteOff, author, from, nil, materialID, q)
}

// Quantities returns the moved amounts.
func (m *Movement) Quantities() types.Quantities {
	return types.Quantities{
		Pieces: m.QuantityPieces,
		Meters: m.QuantityMeters,
		Cubic:  m.QuantityCubic,
	}
}

// SetQuantities replaces the moved amounts.
func (m *Movement) SetQuantities(q types.Quantities) {
	m.QuantityPieces = q.Pieces
	m.QuantityMeters = q.Meters
	m.QuantityCubic = q.Cubic
}

// CreditsDestination reports whether executing m adds stock at the destination.
// A write-off never credits, even when a legacy row carries a destination.
func (m *Movement) CreditsDestination() bool {
	return m.ToLocationID != nil && m.AccountingType != WriteOff
}

// CalculateTotal returns price × the first requested unit (pieces, meters, cubic)
// for a priced sale and zero otherwise.
func (m *Movement) CalculateTotal() decimal.Decimal {
	if m.AccountingType != Sale || !m.Price.Valid {
		return decimal.Zero
	}
	q := m.Quantities()
	units := q.RequestedUnits()
	if len(units) == 0 {
		return decimal.Zero
	}
	return m.Price.Decimal.Mul(q.Get(units[0]).Decimal).Round(types.MoneyPlaces)
}

// QuantityDisplay renders the moved amounts.
func (m *Movement) QuantityDisplay() string {
	return m.Quantities().Display()
}

func (m *Movement) String() string {
	return fmt.Sprintf("%s №%s от %s", m.AccountingType, m.Number, m.Date.Format("02.01.2006"))
}

// ValidateStructure checks what execution relies on. Legacy rows that fail the
// stricter creation rules but pass these can still be executed.
func (m *Movement) ValidateStructure() error {
	if !m.AccountingType.Valid() {
		return apperror.NewInvalidDocument("unknown accounting type").
			WithDetail("accounting_type", string(m.AccountingType))
	}
	if id.IsNil(m.FromLocationID) {
		return apperror.NewInvalidDocument("source location is required")
	}
	if id.IsNil(m.MaterialID) {
		return apperror.NewInvalidDocument("material is required")
	}
	if m.AccountingType.RequiresDestination() && (m.ToLocationID == nil || id.IsNil(*m.ToLocationID)) {
		return apperror.NewInvalidDocument(fmt.Sprintf("%s requires a destination location", m.AccountingType)).
			WithDetail("accounting_type", string(m.AccountingType))
	}

	q := m.Quantities()
	if u, neg := q.HasNegative(); neg {
		return apperror.NewInvalidDocument("quantity must not be negative").
			WithDetail("unit", u.String())
	}
	units := q.RequestedUnits()
	if len(units) == 0 {
		return apperror.NewInvalidDocument("at least one quantity must be set")
	}
	if m.AccountingType == Sale && len(units) > 1 {
		return apperror.NewInvalidDocument("sale must use exactly one quantity unit").
			WithDetail("units", len(units))
	}
	return nil
}

// Validate implements entity.Validatable. It applies the creation rules.
func (m *Movement) Validate(ctx context.Context) error {
	if err := m.ValidateStructure(); err != nil {
		return err
	}
	if strings.TrimSpace(m.Author) == "" {
		return apperror.NewInvalidDocument("author is required")
	}
	if m.AccountingType == WriteOff && m.ToLocationID != nil {
		return apperror.NewInvalidDocument("write-off must not have a destination location")
	}
	if m.ToLocationID != nil && *m.ToLocationID == m.FromLocationID {
		return apperror.NewInvalidDocument("source and destination must differ")
	}
	if m.AccountingType == Sale {
		if !m.Price.Valid {
			return apperror.NewInvalidDocument("sale requires a price")
		}
		if m.Price.Decimal.IsNegative() {
			return apperror.NewInvalidDocument("price must not be negative")
		}
	}
	return nil
}
