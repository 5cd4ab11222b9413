package location

import (
	"context"
	"fmt"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/tx"
	"forestledger/internal/domain/catalog"
	"forestledger/pkg/logger"
)

// Service manages the location registry and renders location names.
type Service struct {
	repo      Repository
	catalogs  catalog.Reader
	txManager tx.Manager
}

// NewService creates a new location service.
func NewService(repo Repository, catalogs catalog.Reader, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		catalogs:  catalogs,
		txManager: txManager,
	}
}

// Register returns the location for (kind, sourceID), creating it when absent.
// The boolean is true when a new location was created.
func (s *Service) Register(ctx context.Context, kind Kind, sourceID id.ID) (*Location, bool, error) {
	loc := New(kind, sourceID)
	if err := loc.Validate(ctx); err != nil {
		return nil, false, err
	}

	// A savepoint keeps an enclosing transaction usable after a unique violation,
	// so the winner of a registration race can be read back in it.
	run := s.txManager.RunInTransaction
	if sp, ok := s.txManager.(tx.SavepointManager); ok {
		run = sp.RunInSavepoint
	}

	var created bool
	err := run(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetBySource(ctx, kind, sourceID)
		if err == nil {
			loc = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		if err := s.repo.Create(ctx, loc); err != nil {
			return err
		}
		created = true
		return nil
	})
	if apperror.IsDuplicate(err) {
		// Lost a registration race: the other writer's row is the answer.
		existing, getErr := s.repo.GetBySource(ctx, kind, sourceID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("register storage location: %w", err)
	}

	if created {
		logger.Info(ctx, "storage location registered",
			"location_id", loc.ID,
			"kind", kind,
			"source_id", sourceID)
	}
	return loc, created, nil
}

// Resolve returns the id of the location registered for (kind, sourceID).
func (s *Service) Resolve(ctx context.Context, kind Kind, sourceID id.ID) (id.ID, error) {
	if !kind.Valid() {
		return id.Nil(), apperror.NewValidation("unknown storage location kind").
			WithDetail("value", string(kind))
	}
	loc, err := s.repo.GetBySource(ctx, kind, sourceID)
	if err != nil {
		return id.Nil(), err
	}
	return loc.ID, nil
}

// Get returns a location by id.
func (s *Service) Get(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// List returns registered locations, optionally restricted to one kind.
func (s *Service) List(ctx context.Context, kind Kind) ([]*Location, error) {
	if kind != "" && !kind.Valid() {
		return nil, apperror.NewValidation("unknown storage location kind").
			WithDetail("value", string(kind))
	}
	return s.repo.List(ctx, kind)
}

// DisplayName renders the name of the underlying catalog entity.
// It never fails: a missing entry or lookup error is rendered into the name.
func (s *Service) DisplayName(ctx context.Context, loc *Location) string {
	var (
		name string
		err  error
	)

	switch loc.Kind {
	case KindWarehouse:
		var w *catalog.Warehouse
		if w, err = s.catalogs.GetWarehouse(ctx, loc.SourceID); err == nil {
			name = w.Name
		}
	case KindVehicle:
		var v *catalog.Vehicle
		if v, err = s.catalogs.GetVehicle(ctx, loc.SourceID); err == nil {
			name = v.Title()
		}
	case KindCounterparty:
		var c *catalog.Counterparty
		if c, err = s.catalogs.GetCounterparty(ctx, loc.SourceID); err == nil {
			name = c.Name
		}
	case KindBrigade:
		var b *catalog.Brigade
		if b, err = s.catalogs.GetBrigade(ctx, loc.SourceID); err == nil {
			name = b.Name
		}
	default:
		return fmt.Sprintf("Неизвестный тип: %s ID:%s", loc.Kind, loc.SourceID)
	}

	switch {
	case err == nil:
		return name
	case apperror.IsNotFound(err):
		return fmt.Sprintf("%s ID:%s (не найден)", loc.Kind.entityName(), loc.SourceID)
	default:
		logger.Warn(ctx, "catalog lookup failed", "location_id", loc.ID, "kind", loc.Kind, "error", err)
		return fmt.Sprintf("Ошибка получения %s: %v", loc.Kind, err)
	}
}

// Label renders "<kind title>: <display name>".
func (s *Service) Label(ctx context.Context, loc *Location) string {
	return fmt.Sprintf("%s: %s", loc.Kind.Title(), s.DisplayName(ctx, loc))
}

// NameOf loads the location and renders its display name.
func (s *Service) NameOf(ctx context.Context, locationID id.ID) (string, error) {
	loc, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return "", err
	}
	return s.DisplayName(ctx, loc), nil
}
