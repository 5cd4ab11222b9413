package entity

import (
	"time"

	"forestledger/internal/core/apperror"
)

// Document is the base type for ledger documents.
// A document is pending until executed; cancellation returns it to pending.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within prefix+year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date_time" json:"dateTime"`

	// Completed is true while the document's effect is applied to balances
	Completed bool `db:"is_completed" json:"isCompleted"`

	// CompletedAt is set on execution and cleared on cancellation
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	// Author is the user who created the document
	Author string `db:"author" json:"author"`
}

// NewDocument creates a pending Document dated now.
func NewDocument(author string) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Author:       author,
	}
}

// CanExecute fails when the document is already applied.
func (d *Document) CanExecute() error {
	if d.Completed {
		return apperror.NewAlreadyExecuted(d.ID.String()).
			WithDetail("number", d.Number)
	}
	return nil
}

// CanCancel fails when the document has not been applied.
func (d *Document) CanCancel() error {
	if !d.Completed {
		return apperror.NewNotExecuted(d.ID.String()).
			WithDetail("number", d.Number)
	}
	return nil
}

// MarkCompleted flips the document to executed at the given instant.
func (d *Document) MarkCompleted(at time.Time) {
	at = at.UTC()
	d.Completed = true
	d.CompletedAt = &at
	d.Touch()
}

// MarkPending flips the document back to pending.
func (d *Document) MarkPending() {
	d.Completed = false
	d.CompletedAt = nil
	d.Touch()
}
