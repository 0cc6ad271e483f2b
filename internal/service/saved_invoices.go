package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/repository"
	"github.com/rs/zerolog"
)

// SavedInvoices backs the saved-invoice list. It works on the store directly
// and never touches a Controller session.
type SavedInvoices struct {
	store  repository.InvoiceStore
	logger zerolog.Logger
}

// NewSavedInvoices creates the saved-invoice service
func NewSavedInvoices(store repository.InvoiceStore, logger zerolog.Logger) *SavedInvoices {
	return &SavedInvoices{
		store:  store,
		logger: logger.With().Str("component", "saved_invoices").Logger(),
	}
}

// List returns saved invoices, newest first
func (s *SavedInvoices) List(ctx context.Context) ([]*domain.Invoice, error) {
	return s.store.ListSaved(ctx)
}

// Get finds a saved invoice by ID. A unique ID prefix is accepted so the CLI
// can take the short form shown in listings.
func (s *SavedInvoices) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	invoices, err := s.store.ListSaved(ctx)
	if err != nil {
		return nil, err
	}

	var match *domain.Invoice
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, nil
		}
		if id != "" && strings.HasPrefix(inv.ID, id) {
			if match != nil && match.ID != inv.ID {
				return nil, fmt.Errorf("id prefix %q is ambiguous", id)
			}
			match = inv
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrInvoiceNotFound, id)
	}
	return match, nil
}

// Open hands a saved invoice to the form through the draft slot. The form
// shows it read-only on its next Start.
func (s *SavedInvoices) Open(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDraft(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("id", inv.ID).Msg("invoice placed in draft slot")
	return inv, nil
}

// Delete removes a saved invoice. Unknown IDs are ignored.
func (s *SavedInvoices) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
