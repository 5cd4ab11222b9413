package movement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/apperror"
	appctx "forestledger/internal/core/context"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/location"
	"forestledger/internal/domain/movement"
	"forestledger/internal/infrastructure/storage/memory"
	"forestledger/pkg/numerator"
)

type fixture struct {
	store    *memory.Store
	svc      *movement.Service
	material *catalog.Material
	from, to id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	mat := catalog.NewMaterial(catalog.MaterialWood, "Ель")
	store.Catalogs().PutMaterial(ctx, mat)

	from := location.New(location.KindWarehouse, id.New())
	to := location.New(location.KindBrigade, id.New())
	require.NoError(t, store.Locations().Create(ctx, from))
	require.NoError(t, store.Locations().Create(ctx, to))

	return &fixture{
		store: store,
		svc: movement.NewService(
			store.Movements(), store.Locations(), store.Catalogs(),
			numerator.New(numerator.NewMemorySequencer()), store,
		),
		material: mat,
		from:     from.ID,
		to:       to.ID,
	}
}

func TestCreate_AssignsNumberAndAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := appctx.WithActor(context.Background(), &appctx.Actor{UserID: "u-1", UserName: "Петров"})

	m := movement.NewTransfer("", f.from, f.to, f.material.ID, types.Quantities{Pieces: types.Qty("5")})
	require.NoError(t, f.svc.Create(ctx, m))

	stored, err := f.svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Петров", stored.Author)
	assert.False(t, stored.Completed)
	assert.Equal(t, int64(1), numerator.ParseNumber(stored.Number))
	assert.Contains(t, stored.Number, movement.NumberPrefix+"-")

	m2 := movement.NewTransfer("", f.from, f.to, f.material.ID, types.Quantities{Pieces: types.Qty("1")})
	require.NoError(t, f.svc.Create(ctx, m2))
	assert.Equal(t, int64(2), numerator.ParseNumber(m2.Number))
}

func TestCreate_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := types.Quantities{Pieces: types.Qty("5")}

	err := f.svc.Create(ctx, movement.NewTransfer("u", f.from, id.New(), f.material.ID, q))
	assert.True(t, apperror.IsNotFound(err))

	err = f.svc.Create(ctx, movement.NewTransfer("u", f.from, f.to, id.New(), q))
	assert.True(t, apperror.IsNotFound(err))

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed creates leave nothing behind")
}

func TestCreate_RejectsInvalid(t *testing.T) {
	f := newFixture(t)

	m := movement.NewSale("u", f.from, f.to, f.material.ID, types.MustMoney("150"),
		types.Quantities{Pieces: types.Qty("1"), Cubic: types.Qty("2")})
	err := f.svc.Create(context.Background(), m)
	assert.True(t, apperror.IsInvalidDocument(err))
}

func TestCreate_PrecomputesSaleTotal(t *testing.T) {
	f := newFixture(t)

	m := movement.NewSale("u", f.from, f.to, f.material.ID, types.MustMoney("150"), types.Quantities{Meters: types.Qty("10")})
	require.NoError(t, f.svc.Create(context.Background(), m))
	assert.Equal(t, "1500", m.TotalAmount.String())
}

func TestListPending_OldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	var ids []id.ID
	for _, offset := range []int{2, 0, 1} {
		m := movement.NewWriteOff("u", f.from, f.material.ID, types.Quantities{Pieces: types.Qty("1")})
		m.Date = base.Add(time.Duration(offset) * time.Hour)
		require.NoError(t, f.svc.Create(ctx, m))
		ids = append(ids, m.ID)
	}

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []id.ID{ids[1], ids[2], ids[0]}, []id.ID{pending[0].ID, pending[1].ID, pending[2].ID})
}

func TestListCompleted_WindowNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var ids []id.ID
	for day := 0; day < 3; day++ {
		m := movement.NewWriteOff("u", f.from, f.material.ID, types.Quantities{Pieces: types.Qty("1")})
		require.NoError(t, f.svc.Create(ctx, m))

		// Completion is the processor's job; emulate it through the repository.
		m.MarkCompleted(base.AddDate(0, 0, day))
		require.NoError(t, f.store.Movements().Update(ctx, m))
		ids = append(ids, m.ID)
	}

	done, err := f.svc.ListCompleted(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, ids[2], done[0].ID)
	assert.Equal(t, ids[1], done[1].ID)

	all, err := f.svc.ListCompleted(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.ListCompleted(ctx, base, base.AddDate(0, 0, -1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestList_ByLocationMatchesEitherSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Create(ctx, movement.NewTransfer("u", f.from, f.to, f.material.ID, types.Quantities{Pieces: types.Qty("1")})))
	require.NoError(t, f.svc.Create(ctx, movement.NewWriteOff("u", f.from, f.material.ID, types.Quantities{Pieces: types.Qty("1")})))

	got, err := f.svc.List(ctx, movement.ListFilter{LocationID: &f.to})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.List(ctx, movement.ListFilter{AccountingType: movement.WriteOff})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
