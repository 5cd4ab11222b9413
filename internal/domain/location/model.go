// Package location provides the storage location registry (Места хранения).
// A storage location is a typed pointer at a catalog entity: a warehouse, a vehicle,
// a counterparty or a brigade. Exactly one location exists per (kind, source) pair.
package location

import (
	"context"
	"fmt"
	"strings"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/entity"
	"forestledger/internal/core/id"
)

// Kind is the type of entity a location points at.
// Values are the stored tags and must stay stable.
type Kind string

const (
	KindWarehouse    Kind = "склад"
	KindVehicle      Kind = "автомобиль"
	KindCounterparty Kind = "контрагент"
	KindBrigade      Kind = "бригады"
)

// ParseKind converts a stored tag into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", apperror.NewValidation("unknown storage location kind").
			WithDetail("field", "kind").
			WithDetail("value", s)
	}
	return k, nil
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindWarehouse, KindVehicle, KindCounterparty, KindBrigade:
		return true
	}
	return false
}

// Title returns the human label shown in front of location names.
func (k Kind) Title() string {
	switch k {
	case KindWarehouse:
		return "Склад"
	case KindVehicle:
		return "Автомобиль"
	case KindCounterparty:
		return "Контрагент"
	case KindBrigade:
		return "Бригада"
	}
	return string(k)
}

// entityName is the catalog model name used in fallback labels.
func (k Kind) entityName() string {
	switch k {
	case KindWarehouse:
		return "Warehouse"
	case KindVehicle:
		return "Vehicle"
	case KindCounterparty:
		return "Counterparty"
	case KindBrigade:
		return "Brigade"
	}
	return string(k)
}

// Location is a registered storage location.
type Location struct {
	entity.BaseEntity

	Kind     Kind  `db:"source_type" json:"kind"`
	SourceID id.ID `db:"source_id" json:"sourceId"`
}

// New creates an unsaved Location.
func New(kind Kind, sourceID id.ID) *Location {
	return &Location{
		BaseEntity: entity.NewBaseEntity(),
		Kind:       kind,
		SourceID:   sourceID,
	}
}

// Validate implements entity.Validatable.
func (l *Location) Validate(ctx context.Context) error {
	if !l.Kind.Valid() {
		return apperror.NewValidation("unknown storage location kind").
			WithDetail("field", "kind").
			WithDetail("value", string(l.Kind))
	}
	if id.IsNil(l.SourceID) {
		return apperror.NewValidation("source id is required").
			WithDetail("field", "sourceId")
	}
	return nil
}

func (l *Location) String() string {
	return fmt.Sprintf("%s %s", l.Kind, l.SourceID)
}
