package balance_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/balance"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *balance.Service
	loc   id.ID
	pine  *catalog.Material
	fuel  *catalog.Material
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store: store,
		svc:   balance.NewService(store.Balances(), store),
		loc:   id.New(),
		pine:  catalog.NewMaterial(catalog.MaterialWood, "Сосна"),
		fuel:  catalog.NewMaterial(catalog.MaterialFuel, "Дизель"),
	}
	store.Catalogs().PutMaterial(context.Background(), f.pine)
	store.Catalogs().PutMaterial(context.Background(), f.fuel)
	return f
}

func pieces(s string) types.Quantities {
	return types.Quantities{Pieces: types.Qty(s)}
}

func TestGet_VirtualZero(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Get(context.Background(), f.loc, f.pine.ID)
	require.NoError(t, err)
	assert.True(t, b.Pieces.IsZero())
	assert.True(t, b.Meters.IsZero())
	assert.True(t, b.Cubic.IsZero())
	assert.Equal(t, "0", b.Display())

	// Reading must not create a row.
	_, err = f.store.Balances().Get(context.Background(), f.loc, f.pine.ID)
	assert.True(t, apperror.IsBalanceNotFound(err))
}

func TestCredit_CreatesThenAdds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, created, err := f.svc.Credit(ctx, f.loc, f.pine.ID, types.Quantities{
		Pieces: types.Qty("20"),
		Cubic:  types.Qty("3.5"),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "20", b.Pieces.String())
	assert.Equal(t, "3.5", b.Cubic.String())

	b, created, err = f.svc.Credit(ctx, f.loc, f.pine.ID, types.Quantities{Meters: types.Qty("12.25")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "20", b.Pieces.String(), "absent unit left untouched")
	assert.Equal(t, "12.25", b.Meters.String())
	assert.Equal(t, "20 шт, 12.25 м.п., 3.5 м³", b.Display())
}

func TestCredit_RejectsNegative(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Credit(context.Background(), f.loc, f.pine.ID, pieces("-1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestDebit_MissingRow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Debit(context.Background(), f.loc, f.pine.ID, pieces("1"))
	assert.True(t, apperror.IsBalanceNotFound(err))
}

func TestDebit_InsufficientLeavesBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, types.Quantities{Pieces: types.Qty("5"), Meters: types.Qty("100")})
	require.NoError(t, err)

	_, err = f.svc.Debit(ctx, f.loc, f.pine.ID, types.Quantities{Pieces: types.Qty("10"), Meters: types.Qty("1")})
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "pieces", appErr.Details["unit"])
	assert.Equal(t, "5", appErr.Details["available"])
	assert.Equal(t, "10", appErr.Details["requested"])

	b, err := f.svc.Get(ctx, f.loc, f.pine.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", b.Pieces.String())
	assert.Equal(t, "100", b.Meters.String())
}

func TestDebit_ExactAmountReachesZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, pieces("7.125"))
	require.NoError(t, err)

	b, err := f.svc.Debit(ctx, f.loc, f.pine.ID, pieces("7.125"))
	require.NoError(t, err)
	assert.True(t, b.Pieces.IsZero())
}

func TestDebit_UnrequestedUnitsNotChecked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, pieces("3"))
	require.NoError(t, err)

	// Meters are zero at the location, but a zero request is not a request.
	_, err = f.svc.Debit(ctx, f.loc, f.pine.ID, types.Quantities{Pieces: types.Qty("2"), Meters: types.Qty("0")})
	require.NoError(t, err)
}

func TestHasSufficient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, pieces("10"))
	require.NoError(t, err)

	ok, err := f.svc.HasSufficient(ctx, f.loc, f.pine.ID, pieces("10"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasSufficient(ctx, f.loc, f.pine.ID, pieces("10.001"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.HasSufficient(ctx, id.New(), f.pine.ID, pieces("1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByLocation_FiltersByMaterialType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, pieces("1"))
	require.NoError(t, err)
	_, _, err = f.svc.Credit(ctx, f.loc, f.fuel.ID, types.Quantities{Cubic: types.Qty("2")})
	require.NoError(t, err)
	_, _, err = f.svc.Credit(ctx, id.New(), f.pine.ID, pieces("9"))
	require.NoError(t, err)

	all, err := f.svc.ListByLocation(ctx, f.loc, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// ГСМ sorts before древесина.
	assert.Equal(t, f.fuel.ID, all[0].MaterialID)

	wood, err := f.svc.ListByLocation(ctx, f.loc, string(catalog.MaterialWood))
	require.NoError(t, err)
	require.Len(t, wood, 1)
	assert.Equal(t, f.pine.ID, wood[0].MaterialID)
}

func TestMaterialTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Credit(ctx, f.loc, f.pine.ID, types.Quantities{Pieces: types.Qty("4"), Meters: types.Qty("1.5")})
	require.NoError(t, err)
	_, _, err = f.svc.Credit(ctx, id.New(), f.pine.ID, types.Quantities{Pieces: types.Qty("6")})
	require.NoError(t, err)

	total, err := f.svc.MaterialTotal(ctx, f.pine.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", total.Pieces.String())
	assert.Equal(t, "1.5", total.Meters.String())
	assert.Equal(t, "10 шт, 1.5 м.п.", total.Display())

	empty, err := f.svc.MaterialTotal(ctx, id.New())
	require.NoError(t, err)
	assert.Equal(t, "0", empty.Display())
}

func TestLowStock_AscendingByPieces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	locA, locB, locC := id.New(), id.New(), id.New()
	_, _, _ = f.svc.Credit(ctx, locA, f.pine.ID, pieces("8"))
	_, _, _ = f.svc.Credit(ctx, locB, f.pine.ID, pieces("2"))
	_, _, _ = f.svc.Credit(ctx, locC, f.pine.ID, pieces("10"))

	low, err := f.svc.LowStock(ctx, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, locB, low[0].LocationID)
	assert.Equal(t, locA, low[1].LocationID)
}

type readOnlyCounter struct {
	*memory.Store
	calls int
}

func (c *readOnlyCounter) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return c.Store.ReadOnly(ctx, fn)
}

func TestQueries_RunReadOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	txm := &readOnlyCounter{Store: store}
	svc := balance.NewService(store.Balances(), txm)
	loc, mat := id.New(), id.New()

	_, _, err := svc.Credit(ctx, loc, mat, pieces("3"))
	require.NoError(t, err)
	assert.Zero(t, txm.calls, "writes do not use read-only transactions")

	_, err = svc.ListByLocation(ctx, loc, "")
	require.NoError(t, err)
	_, err = svc.LowStock(ctx, decimal.NewFromInt(5), "")
	require.NoError(t, err)
	_, err = svc.MaterialTotal(ctx, mat)
	require.NoError(t, err)
	assert.Equal(t, 3, txm.calls)
}

func TestBalance_Shortage(t *testing.T) {
	b := balance.Zero(id.New(), id.New())
	b.Meters = decimal.NewFromInt(4)

	u, short := b.Shortage(types.Quantities{Pieces: types.NoQty(), Meters: types.Qty("5")})
	assert.True(t, short)
	assert.Equal(t, types.UnitMeters, u)

	assert.True(t, b.Covers(types.Quantities{Meters: types.Qty("4")}))
}
