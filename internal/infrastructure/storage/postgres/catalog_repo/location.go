package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/domain/location"
	"forestledger/internal/infrastructure/storage/postgres"
)

const (
	locationTable        = "inv_storage_locations"
	locationSourceUnique = "inv_storage_locations_source_key"
	locationEntityName   = "storage location"
)

var _ location.Repository = (*LocationRepo)(nil)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
}

// NewLocationRepo creates a new storage location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, locationTable, locationEntityName,
			postgres.ExtractDBColumns[location.Location](),
			func() *location.Location { return &location.Location{} }),
	}
}

// Create inserts a location. A concurrent registration of the same source
// surfaces as Duplicate so the caller can re-read the winner.
func (r *LocationRepo) Create(ctx context.Context, loc *location.Location) error {
	q, err := r.insertQuery(loc)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, locationSourceUnique) {
			return apperror.NewDuplicate(locationEntityName, "source", string(loc.Kind)+":"+loc.SourceID.String())
		}
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate(locationEntityName, "id", loc.ID.String())
		}
		return postgres.WrapDBError(err, "insert storage location failed")
	}
	return nil
}

func (r *LocationRepo) bySourceQuery(kind location.Kind, sourceID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"source_type": kind, "source_id": sourceID}).
		Limit(1)
}

func (r *LocationRepo) GetBySource(ctx context.Context, kind location.Kind, sourceID id.ID) (*location.Location, error) {
	sql, args, err := r.bySourceQuery(kind, sourceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	loc := &location.Location{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(locationEntityName, string(kind)+":"+sourceID.String())
		}
		return nil, postgres.WrapDBError(err, "get storage location failed")
	}
	return loc, nil
}

func (r *LocationRepo) listQuery(kind location.Kind) squirrel.SelectBuilder {
	q := r.baseSelect().OrderBy("source_type", "id")
	if kind != "" {
		q = q.Where(squirrel.Eq{"source_type": kind})
	}
	return q
}

func (r *LocationRepo) List(ctx context.Context, kind location.Kind) ([]*location.Location, error) {
	sql, args, err := r.listQuery(kind).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*location.Location
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, postgres.WrapDBError(err, "list storage locations failed")
	}
	return items, nil
}
