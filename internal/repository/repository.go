package repository

import (
	"context"

	"github.com/andy/wattsun/internal/domain"
)

// Storage keys of the key-value boundary
const (
	KeyInvoices       = "invoices"
	KeyCurrentInvoice = "currentInvoice"
)

// InvoiceStore is the durable collection of saved invoices plus the single
// draft slot used to hand a saved invoice back to the form.
type InvoiceStore interface {
	// ListSaved returns the saved collection, newest first
	ListSaved(ctx context.Context) ([]*domain.Invoice, error)
	// Count returns the number of saved invoices
	Count(ctx context.Context) (int, error)
	// Save prepends a persistable record and rewrites the collection
	Save(ctx context.Context, invoice *domain.Invoice) error
	// Update replaces the record with the same ID, keeping its position
	Update(ctx context.Context, invoice *domain.Invoice) error
	// Delete removes the record with the given ID; unknown IDs are a no-op
	Delete(ctx context.Context, id string) error

	SetDraft(ctx context.Context, invoice *domain.Invoice) error
	// GetDraft returns nil when the slot is empty
	GetDraft(ctx context.Context) (*domain.Invoice, error)
	ClearDraft(ctx context.Context) error
}
