// Package catalog describes the reference data the ledger reads: materials and the
// entities that can act as storage locations (Справочники).
// Catalog rows are owned by the data-entry side; the ledger never writes them
// outside of seeding.
package catalog

import (
	"context"
	"fmt"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/entity"
)

// MaterialType is the material category (Вид материала).
// Values are the stored tags and must stay stable.
type MaterialType string

const (
	MaterialWood       MaterialType = "древесина"
	MaterialFuel       MaterialType = "ГСМ"
	MaterialSpareParts MaterialType = "запчасти"
)

// Valid reports whether t is a known material type.
func (t MaterialType) Valid() bool {
	switch t {
	case MaterialWood, MaterialFuel, MaterialSpareParts:
		return true
	}
	return false
}

// Title returns the display label.
func (t MaterialType) Title() string {
	switch t {
	case MaterialWood:
		return "Древесина"
	case MaterialFuel:
		return "ГСМ"
	case MaterialSpareParts:
		return "Запчасти"
	}
	return string(t)
}

// Material is a nomenclature entry, unique by (Type, Name).
type Material struct {
	entity.Catalog

	Type MaterialType `db:"material_type" json:"materialType"`
}

// NewMaterial creates a new Material.
func NewMaterial(t MaterialType, name string) *Material {
	return &Material{
		Catalog: entity.NewCatalog(name),
		Type:    t,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !m.Type.Valid() {
		return apperror.NewValidation("invalid material type").
			WithDetail("field", "materialType").
			WithDetail("value", string(m.Type))
	}
	return nil
}

func (m *Material) String() string {
	return fmt.Sprintf("%s - %s", m.Type.Title(), m.Name)
}

// Warehouse is a storage facility (Склад).
type Warehouse struct {
	entity.Catalog
}

// Vehicle is a truck or machine that can carry material (Автомобиль).
type Vehicle struct {
	entity.BaseEntity

	Brand        string `db:"brand" json:"brand"`
	Model        string `db:"model" json:"model"`
	LicensePlate string `db:"license_plate" json:"licensePlate"`
}

// Title renders "brand model (plate)".
func (v *Vehicle) Title() string {
	return fmt.Sprintf("%s %s (%s)", v.Brand, v.Model, v.LicensePlate)
}

// Counterparty is an external party: buyer, supplier or contractor (Контрагент).
type Counterparty struct {
	entity.Catalog

	INN  string `db:"inn" json:"inn"`
	OGRN string `db:"ogrn" json:"ogrn"`
}

// Brigade is an internal work crew (Бригада).
type Brigade struct {
	entity.Catalog
}
