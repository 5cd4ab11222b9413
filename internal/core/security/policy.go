// Package security provides period-closing policies for ledger documents.
package security

import (
	"context"
	"time"

	"forestledger/internal/core/apperror"
)

// PeriodPolicy decides whether a document dated docDate may change balances.
// Different deployments may close accounting periods strictly or not at all.
type PeriodPolicy interface {
	// CanExecute checks if a document with given date can be executed
	CanExecute(ctx context.Context, docDate time.Time) error

	// CanCancel checks if an executed document can be reversed
	CanCancel(ctx context.Context, docDate time.Time) error

	// ClosedUntil returns the date before which the period is closed
	ClosedUntil(ctx context.Context) time.Time
}

// StrictPolicy forbids execute and cancel for documents dated before closedUntil.
type StrictPolicy struct {
	closedUntil time.Time
}

// NewStrictPolicy creates policy that forbids changes before closedUntil.
func NewStrictPolicy(closedUntil time.Time) *StrictPolicy {
	return &StrictPolicy{closedUntil: closedUntil}
}

func (p *StrictPolicy) CanExecute(ctx context.Context, docDate time.Time) error {
	if docDate.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01-02")).
			WithDetail("document_date", docDate.Format(time.RFC3339))
	}
	return nil
}

func (p *StrictPolicy) CanCancel(ctx context.Context, docDate time.Time) error {
	return p.CanExecute(ctx, docDate)
}

func (p *StrictPolicy) ClosedUntil(ctx context.Context) time.Time {
	return p.closedUntil
}

// OpenPolicy allows all operations.
type OpenPolicy struct{}

func (OpenPolicy) CanExecute(ctx context.Context, docDate time.Time) error { return nil }
func (OpenPolicy) CanCancel(ctx context.Context, docDate time.Time) error  { return nil }
func (OpenPolicy) ClosedUntil(ctx context.Context) time.Time               { return time.Time{} }

// FromClosedUntil returns OpenPolicy for a zero date and StrictPolicy otherwise.
func FromClosedUntil(closedUntil time.Time) PeriodPolicy {
	if closedUntil.IsZero() {
		return OpenPolicy{}
	}
	return NewStrictPolicy(closedUntil)
}
