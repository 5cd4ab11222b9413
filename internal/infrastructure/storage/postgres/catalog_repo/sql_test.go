package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/id"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/location"
)

func TestReferenceRepo_SelectColumns(t *testing.T) {
	repo := NewReferenceRepo(nil)

	sql, _, err := repo.Materials.baseSelect().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, version, name, material_type FROM cat_materials", sql)

	sql, _, err = repo.Vehicles.baseSelect().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, version, brand, model, license_plate FROM cat_vehicles", sql)
}

func TestBaseCatalogRepo_InsertSQL(t *testing.T) {
	repo := NewReferenceRepo(nil)
	m := catalog.NewMaterial(catalog.MaterialWood, "Сосна")

	q, err := repo.Materials.insertQuery(m)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO cat_materials (id,version,name,material_type) VALUES ($1,$2,$3,$4)", sql)
	assert.Equal(t, []any{m.ID, 1, "Сосна", catalog.MaterialWood}, args)
}

func TestLocationRepo_BySourceSQL(t *testing.T) {
	repo := NewLocationRepo(nil)
	src := id.New()

	sql, args, err := repo.bySourceQuery(location.KindVehicle, src).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, version, source_type, source_id FROM inv_storage_locations WHERE source_id = $1 AND source_type = $2 LIMIT 1",
		sql)
	assert.Equal(t, []any{src.String(), location.KindVehicle}, args)
}

func TestLocationRepo_ListSQL(t *testing.T) {
	repo := NewLocationRepo(nil)

	tests := []struct {
		name     string
		kind     location.Kind
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "all kinds",
			kind:    "",
			wantSQL: "SELECT id, version, source_type, source_id FROM inv_storage_locations ORDER BY source_type, id",
		},
		{
			name:     "warehouses only",
			kind:     location.KindWarehouse,
			wantSQL:  "SELECT id, version, source_type, source_id FROM inv_storage_locations WHERE source_type = $1 ORDER BY source_type, id",
			wantArgs: []any{location.KindWarehouse},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.kind).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
