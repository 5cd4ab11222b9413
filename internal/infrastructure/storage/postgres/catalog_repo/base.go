// Package catalog_repo provides PostgreSQL implementations for reference catalogs
// and the storage location registry.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common read/insert operations for catalog tables.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// insertQuery builds an INSERT from the entity's "db" tags restricted to selectCols.
func (r *BaseCatalogRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	cols, vals := postgres.ColumnsAndValues(entity)
	if len(cols) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in entity")
	}

	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, c := range r.selectCols {
		allowed[c] = struct{}{}
	}

	var insCols []string
	var insVals []any
	for i, c := range cols {
		if _, ok := allowed[c]; ok {
			insCols = append(insCols, c)
			insVals = append(insVals, vals[i])
		}
	}

	return r.Builder().
		Insert(r.tableName).
		Columns(insCols...).
		Values(insVals...), nil
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	q, err := r.insertQuery(entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate(r.entityName, "id", fmt.Sprint(postgres.StructToMap(entity)["id"]))
		}
		return postgres.WrapDBError(err, fmt.Sprintf("insert %s failed", r.tableName))
	}

	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return entity, postgres.WrapDBError(err, fmt.Sprintf("get %s failed", r.entityName))
	}

	return entity, nil
}

// List returns every row ordered by the given columns.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, orderBy ...string) ([]T, error) {
	q := r.baseSelect()
	if len(orderBy) > 0 {
		q = q.OrderBy(orderBy...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.WrapDBError(err, fmt.Sprintf("list %s failed", r.tableName))
	}
	return items, nil
}
