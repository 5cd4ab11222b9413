package memory

import (
	"context"
	"slices"
	"strings"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/domain/location"
)

var _ location.Repository = (*LocationRepo)(nil)

// LocationRepo stores storage locations.
type LocationRepo struct {
	s *Store
}

func (r *LocationRepo) Create(ctx context.Context, loc *location.Location) error {
	return r.s.do(ctx, func(st *state) error {
		for _, existing := range st.locations {
			if existing.Kind == loc.Kind && existing.SourceID == loc.SourceID {
				return apperror.NewDuplicate("storage location", "source", string(loc.Kind)+":"+loc.SourceID.String())
			}
		}
		if _, ok := st.locations[loc.ID]; ok {
			return apperror.NewDuplicate("storage location", "id", loc.ID.String())
		}
		st.locations[loc.ID] = *loc
		return nil
	})
}

func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	var out location.Location
	err := r.s.do(ctx, func(st *state) error {
		loc, ok := st.locations[locationID]
		if !ok {
			return apperror.NewNotFound("storage location", locationID.String())
		}
		out = loc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *LocationRepo) GetBySource(ctx context.Context, kind location.Kind, sourceID id.ID) (*location.Location, error) {
	var out *location.Location
	err := r.s.do(ctx, func(st *state) error {
		for _, loc := range st.locations {
			if loc.Kind == kind && loc.SourceID == sourceID {
				out = &loc
				return nil
			}
		}
		return apperror.NewNotFound("storage location", string(kind)+":"+sourceID.String())
	})
	return out, err
}

func (r *LocationRepo) List(ctx context.Context, kind location.Kind) ([]*location.Location, error) {
	var out []*location.Location
	err := r.s.do(ctx, func(st *state) error {
		for _, loc := range st.locations {
			if kind == "" || loc.Kind == kind {
				out = append(out, &loc)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *location.Location) int {
		if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, err
}
