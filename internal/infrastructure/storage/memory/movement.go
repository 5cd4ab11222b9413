package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/domain/movement"
)

var _ movement.Repository = (*MovementRepo)(nil)

// MovementRepo stores movement documents.
type MovementRepo struct {
	s *Store
}

func (r *MovementRepo) Create(ctx context.Context, m *movement.Movement) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.movements[m.ID]; ok {
			return apperror.NewDuplicate("movement", "id", m.ID.String())
		}
		for _, existing := range st.movements {
			if m.Number != "" && existing.Number == m.Number {
				return apperror.NewDuplicate("movement", "number", m.Number)
			}
		}
		st.movements[m.ID] = *m
		return nil
	})
}

func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	var out movement.Movement
	err := r.s.do(ctx, func(st *state) error {
		m, ok := st.movements[movementID]
		if !ok {
			return apperror.NewNotFound("movement", movementID.String())
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is GetByID: transactions already hold the store lock.
func (r *MovementRepo) GetForUpdate(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	return r.GetByID(ctx, movementID)
}

func (r *MovementRepo) Update(ctx context.Context, m *movement.Movement) error {
	return r.s.do(ctx, func(st *state) error {
		stored, ok := st.movements[m.ID]
		if !ok {
			return apperror.NewNotFound("movement", m.ID.String())
		}
		if stored.Version != m.Version-1 {
			return apperror.NewConcurrentModification("movement", m.ID.String())
		}
		st.movements[m.ID] = *m
		return nil
	})
}

func (r *MovementRepo) List(ctx context.Context, filter movement.ListFilter) ([]*movement.Movement, error) {
	var out []*movement.Movement
	err := r.s.do(ctx, func(st *state) error {
		for _, m := range st.movements {
			if matches(&m, filter) {
				out = append(out, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b *movement.Movement) int {
		c := sortTime(a, filter).Compare(sortTime(b, filter))
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if filter.NewestFirst {
			return -c
		}
		return c
	})

	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(m *movement.Movement, f movement.ListFilter) bool {
	if f.Completed != nil && m.Completed != *f.Completed {
		return false
	}
	if f.AccountingType != "" && m.AccountingType != f.AccountingType {
		return false
	}
	if f.MaterialID != nil && m.MaterialID != *f.MaterialID {
		return false
	}
	if f.LocationID != nil {
		to := m.ToLocationID != nil && *m.ToLocationID == *f.LocationID
		if m.FromLocationID != *f.LocationID && !to {
			return false
		}
	}
	if f.CompletedFrom != nil || f.CompletedTo != nil {
		if m.CompletedAt == nil {
			return false
		}
		if f.CompletedFrom != nil && m.CompletedAt.Before(*f.CompletedFrom) {
			return false
		}
		if f.CompletedTo != nil && m.CompletedAt.After(*f.CompletedTo) {
			return false
		}
	}
	return true
}

// sortTime orders completed listings by completion and everything else by date.
func sortTime(m *movement.Movement, f movement.ListFilter) time.Time {
	if f.Completed != nil && *f.Completed && m.CompletedAt != nil {
		return *m.CompletedAt
	}
	return m.Date
}
