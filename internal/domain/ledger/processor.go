// Package ledger applies movement documents to balances (Проведение документов).
// Execute and Cancel each run as one transaction: either the document status and
// every balance it touches change together, or nothing changes.
package ledger

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"forestledger/internal/core/event"
	"forestledger/internal/core/id"
	"forestledger/internal/core/security"
	"forestledger/internal/core/tx"
	"forestledger/internal/domain/balance"
	"forestledger/internal/domain/movement"
	"forestledger/pkg/logger"
)

var tracer = otel.Tracer("forestledger/ledger")

const (
	EventMovementExecuted  = "MaterialMovementExecuted"
	EventMovementCancelled = "MaterialMovementCancelled"

	aggregateMovement = "MaterialMovement"
)

// Locker serializes operations on one document across processes.
type Locker interface {
	// Acquire returns apperror DocumentLocked when another holder has the key.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// Result is the state after a successful Execute or Cancel.
type Result struct {
	Movement *movement.Movement
	Source   *balance.Balance
	// Destination is nil when the movement has no credited receiver.
	Destination *balance.Balance
}

// Processor executes and cancels movements.
type Processor struct {
	txManager tx.Manager
	movements movement.Repository
	balances  *balance.Service

	policy    security.PeriodPolicy
	publisher event.Publisher
	auditor   event.Auditor
	locker    Locker
	now       func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithPeriodPolicy rejects documents dated inside a closed period.
func WithPeriodPolicy(p security.PeriodPolicy) Option {
	return func(pr *Processor) { pr.policy = p }
}

// WithPublisher emits an event per executed or cancelled movement.
func WithPublisher(p event.Publisher) Option {
	return func(pr *Processor) { pr.publisher = p }
}

// WithAuditor writes an audit entry per executed or cancelled movement.
func WithAuditor(a event.Auditor) Option {
	return func(pr *Processor) { pr.auditor = a }
}

// WithLocker takes a distributed lock on the document before the transaction.
func WithLocker(l Locker) Option {
	return func(pr *Processor) { pr.locker = l }
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(pr *Processor) { pr.now = now }
}

// NewProcessor creates a new movement processor.
func NewProcessor(txManager tx.Manager, movements movement.Repository, balances *balance.Service, opts ...Option) *Processor {
	p := &Processor{
		txManager: txManager,
		movements: movements,
		balances:  balances,
		policy:    security.OpenPolicy{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute applies a pending movement: debits the source, credits the destination
// unless the movement is a write-off, computes the total and marks it completed.
func (p *Processor) Execute(ctx context.Context, movementID id.ID) (*Result, error) {
	return p.run(ctx, "ledger.Execute", movementID, p.execute)
}

// Cancel reverses an executed movement and marks it pending again.
// The destination must still hold what was credited to it.
func (p *Processor) Cancel(ctx context.Context, movementID id.ID) (*Result, error) {
	return p.run(ctx, "ledger.Cancel", movementID, p.cancel)
}

type stepFunc func(ctx context.Context, m *movement.Movement) (*Result, error)

func (p *Processor) run(ctx context.Context, spanName string, movementID id.ID, step stepFunc) (*Result, error) {
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String("movement.id", movementID.String())))
	defer span.End()

	res, err := p.locked(ctx, movementID, func(ctx context.Context) (*Result, error) {
		var res *Result
		err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			m, err := p.movements.GetForUpdate(ctx, movementID)
			if err != nil {
				return err
			}
			span.SetAttributes(
				attribute.String("movement.number", m.Number),
				attribute.String("movement.accounting_type", string(m.AccountingType)),
			)

			res, err = step(ctx, m)
			return err
		})
		return res, err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "movement operation failed",
			"operation", spanName,
			"movement_id", movementID,
			"error", err)
		return nil, err
	}
	return res, nil
}

func (p *Processor) locked(ctx context.Context, movementID id.ID, fn func(ctx context.Context) (*Result, error)) (*Result, error) {
	if p.locker == nil {
		return fn(ctx)
	}

	release, err := p.locker.Acquire(ctx, "ledger:movement:"+movementID.String())
	if err != nil {
		return nil, err
	}
	defer func() {
		// The lock expires on its own if release fails.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "release movement lock", "movement_id", movementID, "error", err)
		}
	}()

	return fn(ctx)
}

func (p *Processor) execute(ctx context.Context, m *movement.Movement) (*Result, error) {
	if err := m.CanExecute(); err != nil {
		return nil, err
	}
	if err := p.policy.CanExecute(ctx, m.Date); err != nil {
		return nil, err
	}
	if err := m.ValidateStructure(); err != nil {
		return nil, err
	}

	q := m.Quantities()
	res := &Result{Movement: m}

	// Debit checks the source before writing, so a shortage leaves everything untouched.
	src, err := p.balances.Debit(ctx, m.FromLocationID, m.MaterialID, q)
	if err != nil {
		return nil, err
	}
	res.Source = src

	if m.CreditsDestination() {
		dst, created, err := p.balances.Credit(ctx, *m.ToLocationID, m.MaterialID, q)
		if err != nil {
			return nil, err
		}
		if created {
			logger.Debug(ctx, "balance row opened", "location_id", dst.LocationID, "material_id", dst.MaterialID)
		}
		res.Destination = dst
	}

	m.TotalAmount = m.CalculateTotal()
	m.MarkCompleted(p.now())
	if err := p.movements.Update(ctx, m); err != nil {
		return nil, err
	}

	if err := p.record(ctx, EventMovementExecuted, event.AuditActionExecute, res); err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement executed",
		"movement_id", m.ID,
		"number", m.Number,
		"accounting_type", m.AccountingType,
		"quantity", m.QuantityDisplay(),
		"total_amount", m.TotalAmount)
	return res, nil
}

func (p *Processor) cancel(ctx context.Context, m *movement.Movement) (*Result, error) {
	if err := m.CanCancel(); err != nil {
		return nil, err
	}
	if err := p.policy.CanCancel(ctx, m.Date); err != nil {
		return nil, err
	}

	q := m.Quantities()
	res := &Result{Movement: m}

	// Check the destination before crediting the source back.
	if m.CreditsDestination() {
		if _, err := p.balances.Lock(ctx, *m.ToLocationID, m.MaterialID, q); err != nil {
			return nil, err
		}
	}

	src, _, err := p.balances.Credit(ctx, m.FromLocationID, m.MaterialID, q)
	if err != nil {
		return nil, err
	}
	res.Source = src

	if m.CreditsDestination() {
		dst, err := p.balances.Debit(ctx, *m.ToLocationID, m.MaterialID, q)
		if err != nil {
			return nil, err
		}
		res.Destination = dst
	}

	m.MarkPending()
	if err := p.movements.Update(ctx, m); err != nil {
		return nil, err
	}

	if err := p.record(ctx, EventMovementCancelled, event.AuditActionCancel, res); err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement cancelled",
		"movement_id", m.ID,
		"number", m.Number,
		"accounting_type", m.AccountingType,
		"quantity", m.QuantityDisplay())
	return res, nil
}

// record writes the outbox event and audit entry inside the open transaction.
func (p *Processor) record(ctx context.Context, eventType string, action event.AuditAction, res *Result) error {
	m := res.Movement
	payload := newPayload(res)

	if p.publisher != nil {
		err := p.publisher.Publish(ctx, event.DomainEvent{
			AggregateType: aggregateMovement,
			AggregateID:   m.ID,
			EventType:     eventType,
			Payload:       payload,
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", eventType, err)
		}
	}

	if p.auditor != nil {
		changes := map[string]any{
			"is_completed": map[string]any{"old": !m.Completed, "new": m.Completed},
			"total_amount": m.TotalAmount.StringFixed(2),
			"source":       payload.SourceBalance,
		}
		if payload.DestinationBalance != "" {
			changes["destination"] = payload.DestinationBalance
		}
		if err := p.auditor.LogChange(ctx, aggregateMovement, m.ID, action, changes); err != nil {
			return fmt.Errorf("audit %s: %w", action, err)
		}
	}
	return nil
}
