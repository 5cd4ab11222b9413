// Package register_repo provides PostgreSQL storage for material balances.
package register_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/balance"
	"forestledger/internal/infrastructure/storage/postgres"
)

const balanceTable = "inv_material_balances"

var balanceCols = []string{
	"storage_location_id",
	"material_id",
	"quantity_pieces",
	"quantity_meters",
	"quantity_cubic",
	"last_updated",
}

var _ balance.Repository = (*BalanceRepo)(nil)

// BalanceRepo implements balance.Repository.
type BalanceRepo struct {
	txManager *postgres.TxManager
}

// NewBalanceRepo creates a new balance repository.
func NewBalanceRepo(txManager *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{txManager: txManager}
}

func (r *BalanceRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BalanceRepo) selectOne(locationID, materialID id.ID, forUpdate bool) squirrel.SelectBuilder {
	q := r.builder().
		Select(balanceCols...).
		From(balanceTable).
		Where(squirrel.Eq{"storage_location_id": locationID, "material_id": materialID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *BalanceRepo) get(ctx context.Context, locationID, materialID id.ID, forUpdate bool) (*balance.Balance, error) {
	sql, args, err := r.selectOne(locationID, materialID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	b := &balance.Balance{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewBalanceNotFound(locationID.String(), materialID.String())
		}
		return nil, postgres.WrapDBError(err, "get balance failed")
	}
	return b, nil
}

func (r *BalanceRepo) Get(ctx context.Context, locationID, materialID id.ID) (*balance.Balance, error) {
	return r.get(ctx, locationID, materialID, false)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, locationID, materialID id.ID) (*balance.Balance, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires transaction context")
	}
	return r.get(ctx, locationID, materialID, true)
}

// upsertQuery adds delta to an existing row or inserts it seeded with delta.
// Absent units contribute zero, so the stored value is kept.
func (r *BalanceRepo) upsertQuery(locationID, materialID id.ID, delta types.Quantities, at time.Time) squirrel.InsertBuilder {
	return r.builder().
		Insert(balanceTable).
		Columns(balanceCols...).
		Values(
			locationID,
			materialID,
			present(delta.Pieces),
			present(delta.Meters),
			present(delta.Cubic),
			at.UTC(),
		).
		Suffix(`ON CONFLICT (storage_location_id, material_id) DO UPDATE SET
			quantity_pieces = inv_material_balances.quantity_pieces + EXCLUDED.quantity_pieces,
			quantity_meters = inv_material_balances.quantity_meters + EXCLUDED.quantity_meters,
			quantity_cubic = inv_material_balances.quantity_cubic + EXCLUDED.quantity_cubic,
			last_updated = EXCLUDED.last_updated
		RETURNING ` + strings.Join(balanceCols, ", ") + `, (xmax = 0) AS inserted`)
}

func (r *BalanceRepo) Upsert(ctx context.Context, locationID, materialID id.ID, delta types.Quantities, at time.Time) (*balance.Balance, bool, error) {
	sql, args, err := r.upsertQuery(locationID, materialID, delta, at).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build upsert: %w", err)
	}

	var row struct {
		balance.Balance
		Inserted bool `db:"inserted"`
	}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if u, ok := negativeUnit(err); ok {
			return nil, false, apperror.NewInsufficientStock(u.String(), "0", delta.Get(u).Decimal.Neg().String()).
				WithDetail("location_id", locationID.String()).
				WithDetail("material_id", materialID.String())
		}
		return nil, false, postgres.WrapDBError(err, "upsert balance failed")
	}

	b := row.Balance
	return &b, row.Inserted, nil
}

func (r *BalanceRepo) saveQuery(b *balance.Balance) squirrel.UpdateBuilder {
	return r.builder().
		Update(balanceTable).
		Set("quantity_pieces", b.Pieces).
		Set("quantity_meters", b.Meters).
		Set("quantity_cubic", b.Cubic).
		Set("last_updated", b.UpdatedAt.UTC()).
		Where(squirrel.Eq{"storage_location_id": b.LocationID, "material_id": b.MaterialID})
}

func (r *BalanceRepo) Save(ctx context.Context, b *balance.Balance) error {
	sql, args, err := r.saveQuery(b).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if u, ok := negativeUnit(err); ok {
			return apperror.NewInsufficientStock(u.String(), "0", b.Quantity(u).Neg().String()).
				WithDetail("location_id", b.LocationID.String()).
				WithDetail("material_id", b.MaterialID.String())
		}
		return postgres.WrapDBError(err, "save balance failed")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewBalanceNotFound(b.LocationID.String(), b.MaterialID.String())
	}
	return nil
}

func (r *BalanceRepo) listQuery(filter balance.Filter) squirrel.SelectBuilder {
	cols := make([]string, len(balanceCols))
	for i, c := range balanceCols {
		cols[i] = "b." + c
	}

	q := r.builder().
		Select(cols...).
		From(balanceTable + " b").
		Join("cat_materials m ON m.id = b.material_id")

	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"b.storage_location_id": *filter.LocationID})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"b.material_id": *filter.MaterialID})
	}
	if filter.MaterialType != "" {
		q = q.Where(squirrel.Eq{"m.material_type": filter.MaterialType})
	}
	if filter.PiecesBelow != nil {
		q = q.Where(squirrel.Lt{"b.quantity_pieces": *filter.PiecesBelow}).
			OrderBy("b.quantity_pieces")
	}

	return q.OrderBy("m.material_type", "m.name", "b.storage_location_id")
}

func (r *BalanceRepo) List(ctx context.Context, filter balance.Filter) ([]*balance.Balance, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*balance.Balance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.WrapDBError(err, "list balances failed")
	}
	return items, nil
}

func (r *BalanceRepo) totalQuery(materialID id.ID) squirrel.SelectBuilder {
	return r.builder().
		Select(
			"COALESCE(SUM(quantity_pieces), 0) AS total_pieces",
			"COALESCE(SUM(quantity_meters), 0) AS total_meters",
			"COALESCE(SUM(quantity_cubic), 0) AS total_cubic",
		).
		From(balanceTable).
		Where(squirrel.Eq{"material_id": materialID})
}

func (r *BalanceRepo) Total(ctx context.Context, materialID id.ID) (*balance.Total, error) {
	sql, args, err := r.totalQuery(materialID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	total := &balance.Total{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), total, sql, args...); err != nil {
		return nil, postgres.WrapDBError(err, "sum balances failed")
	}
	total.MaterialID = materialID
	return total, nil
}

func present(q types.OptQuantity) decimal.Decimal {
	if !q.Valid {
		return decimal.Zero
	}
	return q.Decimal
}

// negativeUnit maps a CHECK (quantity_* >= 0) violation back to its unit.
func negativeUnit(err error) (types.Unit, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !postgres.IsCheckViolation(err) {
		return 0, false
	}
	for _, u := range types.Units {
		if strings.Contains(pgErr.ConstraintName, "quantity_"+u.String()) {
			return u, true
		}
	}
	return 0, false
}
