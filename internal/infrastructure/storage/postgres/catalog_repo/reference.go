package catalog_repo

import (
	"context"

	"forestledger/internal/core/id"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/infrastructure/storage/postgres"
)

const (
	materialTable     = "cat_materials"
	warehouseTable    = "cat_warehouses"
	vehicleTable      = "cat_vehicles"
	counterpartyTable = "cat_counterparties"
	brigadeTable      = "cat_brigades"
)

var _ catalog.Reader = (*ReferenceRepo)(nil)

// ReferenceRepo implements catalog.Reader over the cat_* tables.
type ReferenceRepo struct {
	Materials      *BaseCatalogRepo[*catalog.Material]
	Warehouses     *BaseCatalogRepo[*catalog.Warehouse]
	Vehicles       *BaseCatalogRepo[*catalog.Vehicle]
	Counterparties *BaseCatalogRepo[*catalog.Counterparty]
	Brigades       *BaseCatalogRepo[*catalog.Brigade]
}

// NewReferenceRepo creates a new catalog reader.
func NewReferenceRepo(txManager *postgres.TxManager) *ReferenceRepo {
	return &ReferenceRepo{
		Materials: NewBaseCatalogRepo(txManager, materialTable, "material",
			postgres.ExtractDBColumns[catalog.Material](),
			func() *catalog.Material { return &catalog.Material{} }),
		Warehouses: NewBaseCatalogRepo(txManager, warehouseTable, "warehouse",
			postgres.ExtractDBColumns[catalog.Warehouse](),
			func() *catalog.Warehouse { return &catalog.Warehouse{} }),
		Vehicles: NewBaseCatalogRepo(txManager, vehicleTable, "vehicle",
			postgres.ExtractDBColumns[catalog.Vehicle](),
			func() *catalog.Vehicle { return &catalog.Vehicle{} }),
		Counterparties: NewBaseCatalogRepo(txManager, counterpartyTable, "counterparty",
			postgres.ExtractDBColumns[catalog.Counterparty](),
			func() *catalog.Counterparty { return &catalog.Counterparty{} }),
		Brigades: NewBaseCatalogRepo(txManager, brigadeTable, "brigade",
			postgres.ExtractDBColumns[catalog.Brigade](),
			func() *catalog.Brigade { return &catalog.Brigade{} }),
	}
}

func (r *ReferenceRepo) GetMaterial(ctx context.Context, materialID id.ID) (*catalog.Material, error) {
	return r.Materials.GetByID(ctx, materialID)
}

func (r *ReferenceRepo) GetWarehouse(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return r.Warehouses.GetByID(ctx, warehouseID)
}

func (r *ReferenceRepo) GetVehicle(ctx context.Context, vehicleID id.ID) (*catalog.Vehicle, error) {
	return r.Vehicles.GetByID(ctx, vehicleID)
}

func (r *ReferenceRepo) GetCounterparty(ctx context.Context, counterpartyID id.ID) (*catalog.Counterparty, error) {
	return r.Counterparties.GetByID(ctx, counterpartyID)
}

func (r *ReferenceRepo) GetBrigade(ctx context.Context, brigadeID id.ID) (*catalog.Brigade, error) {
	return r.Brigades.GetByID(ctx, brigadeID)
}

// ListMaterials returns materials ordered by type, then name.
func (r *ReferenceRepo) ListMaterials(ctx context.Context) ([]*catalog.Material, error) {
	return r.Materials.List(ctx, "material_type", "name")
}
