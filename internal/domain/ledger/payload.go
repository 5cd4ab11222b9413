package ledger

import (
	"time"

	"forestledger/internal/core/id"
)

// MovementPayload is the body of movement events.
type MovementPayload struct {
	MovementID     id.ID      `json:"movementId"`
	Number         string     `json:"number"`
	AccountingType string     `json:"accountingType"`
	FromLocationID id.ID      `json:"fromLocationId"`
	ToLocationID   *id.ID     `json:"toLocationId,omitempty"`
	MaterialID     id.ID      `json:"materialId"`
	Pieces         string     `json:"quantityPieces,omitempty"`
	Meters         string     `json:"quantityMeters,omitempty"`
	Cubic          string     `json:"quantityCubic,omitempty"`
	TotalAmount    string     `json:"totalAmount"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	SourceBalance      string `json:"sourceBalance"`
	DestinationBalance string `json:"destinationBalance,omitempty"`
}

func newPayload(res *Result) MovementPayload {
	m := res.Movement
	p := MovementPayload{
		MovementID:     m.ID,
		Number:         m.Number,
		AccountingType: string(m.AccountingType),
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		MaterialID:     m.MaterialID,
		TotalAmount:    m.TotalAmount.StringFixed(2),
		CompletedAt:    m.CompletedAt,
	}
	if m.QuantityPieces.Valid {
		p.Pieces = m.QuantityPieces.Decimal.String()
	}
	if m.QuantityMeters.Valid {
		p.Meters = m.QuantityMeters.Decimal.String()
	}
	if m.QuantityCubic.Valid {
		p.Cubic = m.QuantityCubic.Decimal.String()
	}
	if res.Source != nil {
		p.SourceBalance = res.Source.Display()
	}
	if res.Destination != nil {
		p.DestinationBalance = res.Destination.Display()
	}
	return p
}
