package memory

import (
	"context"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/domain/catalog"
)

var _ catalog.Reader = (*CatalogRepo)(nil)

// CatalogRepo stores reference rows.
type CatalogRepo struct {
	s *Store
}

func get[T any](ctx context.Context, r *CatalogRepo, m func(st *state) map[id.ID]T, entity string, key id.ID) (*T, error) {
	var out T
	err := r.s.do(ctx, func(st *state) error {
		v, ok := m(st)[key]
		if !ok {
			return apperror.NewNotFound(entity, key.String())
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func put[T any](ctx context.Context, r *CatalogRepo, m func(st *state) map[id.ID]T, key id.ID, v T) {
	_ = r.s.do(ctx, func(st *state) error {
		m(st)[key] = v
		return nil
	})
}

func (r *CatalogRepo) GetMaterial(ctx context.Context, materialID id.ID) (*catalog.Material, error) {
	return get(ctx, r, func(st *state) map[id.ID]catalog.Material { return st.materials }, "material", materialID)
}

func (r *CatalogRepo) GetWarehouse(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return get(ctx, r, func(st *state) map[id.ID]catalog.Warehouse { return st.warehouses }, "warehouse", warehouseID)
}

func (r *CatalogRepo) GetVehicle(ctx context.Context, vehicleID id.ID) (*catalog.Vehicle, error) {
	return get(ctx, r, func(st *state) map[id.ID]catalog.Vehicle { return st.vehicles }, "vehicle", vehicleID)
}

func (r *CatalogRepo) GetCounterparty(ctx context.Context, counterpartyID id.ID) (*catalog.Counterparty, error) {
	return get(ctx, r, func(st *state) map[id.ID]catalog.Counterparty { return st.counterparties }, "counterparty", counterpartyID)
}

func (r *CatalogRepo) GetBrigade(ctx context.Context, brigadeID id.ID) (*catalog.Brigade, error) {
	return get(ctx, r, func(st *state) map[id.ID]catalog.Brigade { return st.brigades }, "brigade", brigadeID)
}

func (r *CatalogRepo) PutMaterial(ctx context.Context, m *catalog.Material) {
	put(ctx, r, func(st *state) map[id.ID]catalog.Material { return st.materials }, m.ID, *m)
}

func (r *CatalogRepo) PutWarehouse(ctx context.Context, w *catalog.Warehouse) {
	put(ctx, r, func(st *state) map[id.ID]catalog.Warehouse { return st.warehouses }, w.ID, *w)
}

func (r *CatalogRepo) PutVehicle(ctx context.Context, v *catalog.Vehicle) {
	put(ctx, r, func(st *state) map[id.ID]catalog.Vehicle { return st.vehicles }, v.ID, *v)
}

func (r *CatalogRepo) PutCounterparty(ctx context.Context, c *catalog.Counterparty) {
	put(ctx, r, func(st *state) map[id.ID]catalog.Counterparty { return st.counterparties }, c.ID, *c)
}

func (r *CatalogRepo) PutBrigade(ctx context.Context, b *catalog.Brigade) {
	put(ctx, r, func(st *state) map[id.ID]catalog.Brigade { return st.brigades }, b.ID, *b)
}
