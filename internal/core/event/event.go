// Package event defines the contracts for domain events and audit entries.
// Writers run inside the caller's transaction so an event or audit row exists
// only when the change it describes is committed.
package event

import (
	"context"

	"forestledger/internal/core/id"
)

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher records domain events.
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionExecute AuditAction = "execute"
	AuditActionCancel  AuditAction = "cancel"
)

// Auditor records who changed what.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action AuditAction, changes map[string]any) error
}
