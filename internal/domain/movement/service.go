package movement

import (
	"context"
	"fmt"
	"time"

	"forestledger/internal/core/apperror"
	appctx "forestledger/internal/core/context"
	"forestledger/internal/core/id"
	"forestledger/internal/core/tx"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/location"
	"forestledger/pkg/logger"
	"forestledger/pkg/numerator"
)

// NumberPrefix prefixes movement document numbers.
const NumberPrefix = "ДМ"

// Numerator issues document numbers.
type Numerator interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error)
}

// Service creates and reads movement documents. It never touches balances.
type Service struct {
	repo      Repository
	locations location.Repository
	catalogs  catalog.Reader
	numerator Numerator
	txManager tx.Manager
}

// NewService creates a new movement service.
func NewService(
	repo Repository,
	locations location.Repository,
	catalogs catalog.Reader,
	numerator Numerator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		locations: locations,
		catalogs:  catalogs,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create validates m, assigns its number and persists it as pending.
// The author defaults to the user in ctx.
func (s *Service) Create(ctx context.Context, m *Movement) error {
	if m.Author == "" {
		if actor := appctx.GetActor(ctx); actor != nil {
			m.Author = actor.UserName
			if m.Author == "" {
				m.Author = actor.UserID
			}
		}
	}
	m.Completed = false
	m.CompletedAt = nil
	m.TotalAmount = m.CalculateTotal()

	if err := m.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, m); err != nil {
			return err
		}

		if m.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), m.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			m.Number = number
		}

		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "movement created",
		"movement_id", m.ID,
		"number", m.Number,
		"accounting_type", m.AccountingType,
		"quantity", m.QuantityDisplay())
	return nil
}

func (s *Service) checkReferences(ctx context.Context, m *Movement) error {
	if _, err := s.catalogs.GetMaterial(ctx, m.MaterialID); err != nil {
		return err
	}
	if _, err := s.locations.GetByID(ctx, m.FromLocationID); err != nil {
		return err
	}
	if m.ToLocationID != nil {
		if _, err := s.locations.GetByID(ctx, *m.ToLocationID); err != nil {
			return err
		}
	}
	if m.VehicleID != nil {
		if _, err := s.catalogs.GetVehicle(ctx, *m.VehicleID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a movement by id.
func (s *Service) Get(ctx context.Context, movementID id.ID) (*Movement, error) {
	return s.repo.GetByID(ctx, movementID)
}

// ListPending returns pending movements, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*Movement, error) {
	pending := false
	return s.repo.List(ctx, ListFilter{Completed: &pending})
}

// ListCompleted returns movements executed within [from, to], newest first.
// Zero bounds are open.
func (s *Service) ListCompleted(ctx context.Context, from, to time.Time) ([]*Movement, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperror.NewValidation("period end is before period start").
			WithDetail("from", from.Format(time.RFC3339)).
			WithDetail("to", to.Format(time.RFC3339))
	}

	completed := true
	filter := ListFilter{Completed: &completed, NewestFirst: true}
	if !from.IsZero() {
		filter.CompletedFrom = &from
	}
	if !to.IsZero() {
		filter.CompletedTo = &to
	}
	return s.repo.List(ctx, filter)
}

// List returns movements matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Movement, error) {
	if filter.AccountingType != "" && !filter.AccountingType.Valid() {
		return nil, apperror.NewValidation("unknown accounting type").
			WithDetail("value", string(filter.AccountingType))
	}
	return s.repo.List(ctx, filter)
}
