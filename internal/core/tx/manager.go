// Package tx provides transaction management abstractions.
// Domain services depend on Manager; postgres and memory stores implement it.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, every write made through ctx is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// SavepointManager runs fn so that a failure undoes only fn's own writes.
// Inside an open transaction the enclosing transaction stays usable afterwards.
type SavepointManager interface {
	Manager

	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}
