package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/balance"
)

var _ balance.Repository = (*BalanceRepo)(nil)

// BalanceRepo stores material balances.
type BalanceRepo struct {
	s *Store
}

func (r *BalanceRepo) Get(ctx context.Context, locationID, materialID id.ID) (*balance.Balance, error) {
	var out balance.Balance
	err := r.s.do(ctx, func(st *state) error {
		b, ok := st.balances[balanceKey{locationID, materialID}]
		if !ok {
			return apperror.NewBalanceNotFound(locationID.String(), materialID.String())
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is Get: transactions already hold the store lock.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, locationID, materialID id.ID) (*balance.Balance, error) {
	return r.Get(ctx, locationID, materialID)
}

func (r *BalanceRepo) Upsert(ctx context.Context, locationID, materialID id.ID, delta types.Quantities, at time.Time) (*balance.Balance, bool, error) {
	var (
		out     balance.Balance
		created bool
	)
	err := r.s.do(ctx, func(st *state) error {
		key := balanceKey{locationID, materialID}
		b, ok := st.balances[key]
		if !ok {
			b = *balance.Zero(locationID, materialID)
			created = true
		}
		b.Add(delta, at)
		if u, neg := negativeUnit(&b); neg {
			return apperror.NewInsufficientStock(u.String(), "0", b.Quantity(u).Neg().String())
		}
		st.balances[key] = b
		out = b
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (r *BalanceRepo) Save(ctx context.Context, b *balance.Balance) error {
	if u, neg := negativeUnit(b); neg {
		return apperror.NewInsufficientStock(u.String(), "0", b.Quantity(u).Neg().String())
	}
	return r.s.do(ctx, func(st *state) error {
		key := balanceKey{b.LocationID, b.MaterialID}
		if _, ok := st.balances[key]; !ok {
			return apperror.NewBalanceNotFound(b.LocationID.String(), b.MaterialID.String())
		}
		st.balances[key] = *b
		return nil
	})
}

func (r *BalanceRepo) List(ctx context.Context, filter balance.Filter) ([]*balance.Balance, error) {
	type row struct {
		b    balance.Balance
		kind string
		name string
	}
	var rows []row

	err := r.s.do(ctx, func(st *state) error {
		for _, b := range st.balances {
			if filter.LocationID != nil && b.LocationID != *filter.LocationID {
				continue
			}
			if filter.MaterialID != nil && b.MaterialID != *filter.MaterialID {
				continue
			}
			if filter.PiecesBelow != nil && !b.Pieces.LessThan(*filter.PiecesBelow) {
				continue
			}
			mat := st.materials[b.MaterialID]
			if filter.MaterialType != "" && string(mat.Type) != filter.MaterialType {
				continue
			}
			rows = append(rows, row{b: b, kind: string(mat.Type), name: mat.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b row) int {
		if filter.PiecesBelow != nil {
			if c := a.b.Pieces.Cmp(b.b.Pieces); c != 0 {
				return c
			}
		}
		if c := strings.Compare(a.kind, b.kind); c != 0 {
			return c
		}
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		return strings.Compare(a.b.LocationID.String(), b.b.LocationID.String())
	})

	out := make([]*balance.Balance, len(rows))
	for i := range rows {
		out[i] = &rows[i].b
	}
	return out, nil
}

func (r *BalanceRepo) Total(ctx context.Context, materialID id.ID) (*balance.Total, error) {
	total := &balance.Total{
		MaterialID: materialID,
		Pieces:     decimal.Zero,
		Meters:     decimal.Zero,
		Cubic:      decimal.Zero,
	}
	err := r.s.do(ctx, func(st *state) error {
		for _, b := range st.balances {
			if b.MaterialID != materialID {
				continue
			}
			total.Pieces = total.Pieces.Add(b.Pieces)
			total.Meters = total.Meters.Add(b.Meters)
			total.Cubic = total.Cubic.Add(b.Cubic)
		}
		return nil
	})
	return total, err
}

// negativeUnit mirrors the CHECK (quantity >= 0) constraints of the SQL schema.
func negativeUnit(b *balance.Balance) (types.Unit, bool) {
	for _, u := range types.Units {
		if b.Quantity(u).IsNegative() {
			return u, true
		}
	}
	return 0, false
}
