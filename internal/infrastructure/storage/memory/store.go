// Package memory provides an in-process transactional store implementing every
// ledger repository. Transactions take a store-wide lock and roll back by
// restoring a snapshot, so they are serializable.
package memory

import (
	"context"
	"maps"
	"sync"

	"forestledger/internal/core/event"
	"forestledger/internal/core/id"
	"forestledger/internal/core/tx"
	"forestledger/internal/domain/balance"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/location"
	"forestledger/internal/domain/movement"
)

var (
	_ tx.ReadOnlyManager  = (*Store)(nil)
	_ tx.SavepointManager = (*Store)(nil)
)

type balanceKey struct {
	location id.ID
	material id.ID
}

// AuditEntry is a recorded audit row.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     event.AuditAction
	Changes    map[string]any
}

type state struct {
	materials      map[id.ID]catalog.Material
	warehouses     map[id.ID]catalog.Warehouse
	vehicles       map[id.ID]catalog.Vehicle
	counterparties map[id.ID]catalog.Counterparty
	brigades       map[id.ID]catalog.Brigade

	locations map[id.ID]location.Location
	balances  map[balanceKey]balance.Balance
	movements map[id.ID]movement.Movement

	events []event.DomainEvent
	audit  []AuditEntry
}

func newState() state {
	return state{
		materials:      map[id.ID]catalog.Material{},
		warehouses:     map[id.ID]catalog.Warehouse{},
		vehicles:       map[id.ID]catalog.Vehicle{},
		counterparties: map[id.ID]catalog.Counterparty{},
		brigades:       map[id.ID]catalog.Brigade{},
		locations:      map[id.ID]location.Location{},
		balances:       map[balanceKey]balance.Balance{},
		movements:      map[id.ID]movement.Movement{},
	}
}

// clone copies the maps. Stored values are replaced, never mutated in place,
// so a shallow copy of each map is a full snapshot.
func (s state) clone() state {
	return state{
		materials:      maps.Clone(s.materials),
		warehouses:     maps.Clone(s.warehouses),
		vehicles:       maps.Clone(s.vehicles),
		counterparties: maps.Clone(s.counterparties),
		brigades:       maps.Clone(s.brigades),
		locations:      maps.Clone(s.locations),
		balances:       maps.Clone(s.balances),
		movements:      maps.Clone(s.movements),
		events:         append([]event.DomainEvent(nil), s.events...),
		audit:          append([]AuditEntry(nil), s.audit...),
	}
}

// Store is the in-memory backend.
type Store struct {
	mu sync.Mutex
	st state
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

// RunInTransaction implements tx.Manager. Nested calls reuse the open transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.guarded(func() error {
		return fn(context.WithValue(ctx, txKey{}, s))
	})
}

// RunInSavepoint implements tx.SavepointManager. Inside a transaction a failing
// fn rolls back to the state it started from; the transaction goes on.
func (s *Store) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.inTx(ctx) {
		return s.RunInTransaction(ctx, fn)
	}
	return s.guarded(func() error { return fn(ctx) })
}

// ReadOnly implements tx.ReadOnlyManager. Reads run under the store lock and
// see one consistent state.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

// guarded restores the state taken before fn when fn fails or panics.
// The caller holds the store lock.
func (s *Store) guarded(fn func() error) (err error) {
	snapshot := s.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.st = snapshot
			panic(r)
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn()
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do runs fn against the state, locking unless ctx already holds the store.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(&s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}

// Catalogs returns the catalog repository.
func (s *Store) Catalogs() *CatalogRepo { return &CatalogRepo{s: s} }

// Locations returns the storage location repository.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// Balances returns the balance repository.
func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{s: s} }

// Movements returns the movement repository.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Publish implements event.Publisher. Events roll back with the transaction.
func (s *Store) Publish(ctx context.Context, e event.DomainEvent) error {
	return s.do(ctx, func(st *state) error {
		st.events = append(st.events, e)
		return nil
	})
}

// LogChange implements event.Auditor.
func (s *Store) LogChange(ctx context.Context, entityType string, entityID id.ID, action event.AuditAction, changes map[string]any) error {
	return s.do(ctx, func(st *state) error {
		st.audit = append(st.audit, AuditEntry{
			EntityType: entityType,
			EntityID:   entityID,
			Action:     action,
			Changes:    changes,
		})
		return nil
	})
}

// Events returns a copy of the published events.
func (s *Store) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.st.events...)
}

// AuditLog returns a copy of the audit entries.
func (s *Store) AuditLog() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.st.audit...)
}
