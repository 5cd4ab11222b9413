// Package document_repo provides PostgreSQL storage for movement documents.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/domain/movement"
	"forestledger/internal/infrastructure/storage/postgres"
)

const (
	movementTable      = "inv_material_movements"
	movementNumberKey  = "inv_material_movements_number_key"
	movementEntityName = "movement"
)

var _ movement.Repository = (*MovementRepo)(nil)

// MovementRepo implements movement.Repository.
type MovementRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[movement.Movement](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *MovementRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) insertQuery(m *movement.Movement) squirrel.InsertBuilder {
	cols, vals := postgres.ColumnsAndValues(m)
	return r.Builder().
		Insert(movementTable).
		Columns(cols...).
		Values(vals...)
}

func (r *MovementRepo) Create(ctx context.Context, m *movement.Movement) error {
	sql, args, err := r.insertQuery(m).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, movementNumberKey) {
			return apperror.NewDuplicate(movementEntityName, "number", m.Number)
		}
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate(movementEntityName, "id", m.ID.String())
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewInvalidDocument("movement references a missing location, material or vehicle").
				WithCause(err)
		}
		return postgres.WrapDBError(err, "insert movement failed")
	}
	return nil
}

func (r *MovementRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(movementTable)
}

func (r *MovementRepo) getQuery(movementID id.ID, forUpdate bool) squirrel.SelectBuilder {
	q := r.baseSelect().Where(squirrel.Eq{"id": movementID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *MovementRepo) get(ctx context.Context, movementID id.ID, forUpdate bool) (*movement.Movement, error) {
	sql, args, err := r.getQuery(movementID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	m := &movement.Movement{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(movementEntityName, movementID.String())
		}
		return nil, postgres.WrapDBError(err, "get movement failed")
	}
	return m, nil
}

func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	return r.get(ctx, movementID, false)
}

// GetForUpdate locks the document row until the surrounding transaction ends.
func (r *MovementRepo) GetForUpdate(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires transaction context")
	}
	return r.get(ctx, movementID, true)
}

// updateQuery writes the execution state. Only status, total and audit columns change after creation.
func (r *MovementRepo) updateQuery(m *movement.Movement) squirrel.UpdateBuilder {
	return r.Builder().
		Update(movementTable).
		Set("is_completed", m.Completed).
		Set("completed_at", m.CompletedAt).
		Set("total_amount", m.TotalAmount).
		Set("updated_at", m.UpdatedAt).
		Set("version", m.Version).
		Where(squirrel.Eq{"id": m.ID}).
		Where(squirrel.Eq{"version": m.Version - 1})
}

func (r *MovementRepo) Update(ctx context.Context, m *movement.Movement) error {
	sql, args, err := r.updateQuery(m).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.WrapDBError(err, "update movement failed")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(movementEntityName, m.ID.String())
	}
	return nil
}

func (r *MovementRepo) listQuery(filter movement.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if filter.Completed != nil {
		q = q.Where(squirrel.Eq{"is_completed": *filter.Completed})
	}
	if filter.AccountingType != "" {
		q = q.Where(squirrel.Eq{"accounting_type": filter.AccountingType})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_location_id": *filter.LocationID},
			squirrel.Eq{"to_location_id": *filter.LocationID},
		})
	}
	if filter.CompletedFrom != nil {
		q = q.Where(squirrel.GtOrEq{"completed_at": *filter.CompletedFrom})
	}
	if filter.CompletedTo != nil {
		q = q.Where(squirrel.LtOrEq{"completed_at": *filter.CompletedTo})
	}

	sortCol := "date_time"
	if filter.Completed != nil && *filter.Completed {
		sortCol = "completed_at"
	}
	dir := "ASC"
	if filter.NewestFirst {
		dir = "DESC"
	}
	q = q.OrderBy(sortCol+" "+dir, "id "+dir)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func (r *MovementRepo) List(ctx context.Context, filter movement.ListFilter) ([]*movement.Movement, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*movement.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.WrapDBError(err, "list movements failed")
	}
	return items, nil
}
