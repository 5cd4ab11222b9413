package catalog

import (
	"context"

	"forestledger/internal/core/id"
)

// Reader is the read-only view of the reference catalogs.
// Every getter returns an apperror NotFound when the row does not exist.
type Reader interface {
	GetMaterial(ctx context.Context, materialID id.ID) (*Material, error)
	GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetVehicle(ctx context.Context, vehicleID id.ID) (*Vehicle, error)
	GetCounterparty(ctx context.Context, counterpartyID id.ID) (*Counterparty, error)
	GetBrigade(ctx context.Context, brigadeID id.ID) (*Brigade, error)
}
