package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/tx"
	"forestledger/internal/core/types"
	"forestledger/pkg/logger"
)

// Service implements balance arithmetic on top of Repository.
// Credit and Debit join the caller's transaction when one is open.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new balance service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       time.Now,
	}
}

// Get returns the balance of the pair, or a zero balance when it is untracked.
func (s *Service) Get(ctx context.Context, locationID, materialID id.ID) (*Balance, error) {
	b, err := s.repo.Get(ctx, locationID, materialID)
	if apperror.IsBalanceNotFound(err) {
		return Zero(locationID, materialID), nil
	}
	return b, err
}

// Credit adds q to the pair's balance. A missing row is created seeded with q.
// The boolean is true when the row was created.
func (s *Service) Credit(ctx context.Context, locationID, materialID id.ID, q types.Quantities) (*Balance, bool, error) {
	if u, neg := q.HasNegative(); neg {
		return nil, false, apperror.NewValidation("credit quantity must not be negative").
			WithDetail("unit", u.String())
	}

	var (
		b       *Balance
		created bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, created, err = s.repo.Upsert(ctx, locationID, materialID, q, s.now())
		return err
	})
	if err != nil {
		return nil, false, err
	}

	logger.Debug(ctx, "balance credited",
		"location_id", locationID,
		"material_id", materialID,
		"delta", q.Display(),
		"created", created)
	return b, created, nil
}

// Lock loads the pair's row for update and verifies it covers q.
// Nothing is written; callers use it to run every check before any mutation.
func (s *Service) Lock(ctx context.Context, locationID, materialID id.ID, q types.Quantities) (*Balance, error) {
	b, err := s.repo.GetForUpdate(ctx, locationID, materialID)
	if err != nil {
		return nil, err
	}
	if u, short := b.Shortage(q); short {
		return nil, insufficient(b, q, u)
	}
	return b, nil
}

// Debit subtracts q from the pair's balance.
// Fails with BalanceNotFound when the row is missing and InsufficientStock when any
// requested unit would go below zero; in both cases the balance is unchanged.
func (s *Service) Debit(ctx context.Context, locationID, materialID id.ID, q types.Quantities) (*Balance, error) {
	if u, neg := q.HasNegative(); neg {
		return nil, apperror.NewValidation("debit quantity must not be negative").
			WithDetail("unit", u.String())
	}

	var b *Balance
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if b, err = s.Lock(ctx, locationID, materialID, q); err != nil {
			return err
		}
		b.Sub(q, s.now())
		return s.repo.Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "balance debited",
		"location_id", locationID,
		"material_id", materialID,
		"delta", q.Display())
	return b, nil
}

// HasSufficient reports whether the pair holds at least q. Untracked pairs only
// cover a request with no units in it.
func (s *Service) HasSufficient(ctx context.Context, locationID, materialID id.ID, q types.Quantities) (bool, error) {
	b, err := s.Get(ctx, locationID, materialID)
	if err != nil {
		return false, err
	}
	return b.Covers(q), nil
}

// ListByLocation returns all balances at a location, optionally one material type only.
func (s *Service) ListByLocation(ctx context.Context, locationID id.ID, materialType string) ([]*Balance, error) {
	return s.list(ctx, Filter{LocationID: &locationID, MaterialType: materialType})
}

// MaterialTotal sums a material across all locations.
func (s *Service) MaterialTotal(ctx context.Context, materialID id.ID) (*Total, error) {
	var total *Total
	err := s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		total, err = s.repo.Total(ctx, materialID)
		return err
	})
	return total, err
}

// LowStock returns balances whose piece count is below threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, threshold decimal.Decimal, materialType string) ([]*Balance, error) {
	return s.list(ctx, Filter{PiecesBelow: &threshold, MaterialType: materialType})
}

func (s *Service) list(ctx context.Context, filter Filter) ([]*Balance, error) {
	var out []*Balance
	err := s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.List(ctx, filter)
		return err
	})
	return out, err
}

// readOnly runs multi-row reads in a read-only transaction when the manager supports one.
func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

func insufficient(b *Balance, q types.Quantities, u types.Unit) *apperror.AppError {
	return apperror.NewInsufficientStock(
		u.String(),
		b.Quantity(u).String(),
		q.Get(u).Decimal.String(),
	).
		WithDetail("location_id", b.LocationID.String()).
		WithDetail("material_id", b.MaterialID.String())
}
