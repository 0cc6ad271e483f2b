package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/kv"
	"github.com/rs/zerolog"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// KVInvoiceStore implements InvoiceStore on a flat key-value store. Every
// mutation rewrites the whole collection under KeyInvoices; the rewrite is not
// atomic across a crash.
type KVInvoiceStore struct {
	kv     kv.Store
	logger zerolog.Logger
}

// NewKVInvoiceStore creates a new KVInvoiceStore
func NewKVInvoiceStore(store kv.Store, logger zerolog.Logger) *KVInvoiceStore {
	return &KVInvoiceStore{
		kv:     store,
		logger: logger.With().Str("component", "invoice_store").Logger(),
	}
}

// ListSaved reads the saved collection. A missing key is an empty collection.
func (s *KVInvoiceStore) ListSaved(ctx context.Context) ([]*domain.Invoice, error) {
	text, ok, err := s.kv.Get(ctx, KeyInvoices)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved invoices: %w", err)
	}
	if !ok {
		return []*domain.Invoice{}, nil
	}

	invoices, err := DecodeInvoices(text)
	if err != nil {
		s.logger.Error().Err(err).Msg("saved collection failed to decode")
		return nil, err
	}
	return invoices, nil
}

// Count returns the number of saved invoices
func (s *KVInvoiceStore) Count(ctx context.Context) (int, error) {
	invoices, err := s.ListSaved(ctx)
	if err != nil {
		return 0, err
	}
	return len(invoices), nil
}

// Save prepends the record. It never replaces an existing entry, even one with
// the same ID; use Update for that.
func (s *KVInvoiceStore) Save(ctx context.Context, invoice *domain.Invoice) error {
	if err := checkPersistable(invoice); err != nil {
		return err
	}

	existing, err := s.ListSaved(ctx)
	if err != nil {
		return err
	}

	invoices := make([]*domain.Invoice, 0, len(existing)+1)
	invoices = append(invoices, invoice.Clone())
	invoices = append(invoices, existing...)

	if err := s.write(ctx, invoices); err != nil {
		return err
	}

	s.logger.Info().
		Str("id", invoice.ID).
		Int("invoice_number", invoice.InvoiceNumber).
		Int("items", len(invoice.Items)).
		Msg("invoice saved")
	return nil
}

// Update replaces the entry carrying invoice.ID in place
func (s *KVInvoiceStore) Update(ctx context.Context, invoice *domain.Invoice) error {
	if err := checkPersistable(invoice); err != nil {
		return err
	}

	invoices, err := s.ListSaved(ctx)
	if err != nil {
		return err
	}

	found := false
	for i, inv := range invoices {
		if inv.ID == invoice.ID {
			invoices[i] = invoice.Clone()
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoice.ID)
	}

	if err := s.write(ctx, invoices); err != nil {
		return err
	}

	s.logger.Info().Str("id", invoice.ID).Msg("invoice updated")
	return nil
}

// Delete removes the entry with the given ID. Unknown IDs leave the stored
// collection untouched.
func (s *KVInvoiceStore) Delete(ctx context.Context, id string) error {
	invoices, err := s.ListSaved(ctx)
	if err != nil {
		return err
	}

	kept := make([]*domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	if len(kept) == len(invoices) {
		s.logger.Debug().Str("id", id).Msg("delete of unknown invoice ignored")
		return nil
	}

	if err := s.write(ctx, kept); err != nil {
		return err
	}

	s.logger.Info().Str("id", id).Msg("invoice deleted")
	return nil
}

// SetDraft stores the invoice in the draft slot, replacing any previous value
func (s *KVInvoiceStore) SetDraft(ctx context.Context, invoice *domain.Invoice) error {
	if err := checkPersistable(invoice); err != nil {
		return err
	}
	text, err := EncodeInvoice(invoice)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyCurrentInvoice, text); err != nil {
		return fmt.Errorf("failed to write draft slot: %w", err)
	}
	return nil
}

// GetDraft reads the draft slot. Callers clear the slot after a successful
// read so a later start does not reopen a stale draft.
func (s *KVInvoiceStore) GetDraft(ctx context.Context) (*domain.Invoice, error) {
	text, ok, err := s.kv.Get(ctx, KeyCurrentInvoice)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft slot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	invoice, err := DecodeInvoice(text)
	if err != nil {
		s.logger.Error().Err(err).Msg("draft slot failed to decode")
		return nil, fmt.Errorf("draft slot: %w", err)
	}
	return invoice, nil
}

// ClearDraft empties the draft slot
func (s *KVInvoiceStore) ClearDraft(ctx context.Context) error {
	if err := s.kv.Remove(ctx, KeyCurrentInvoice); err != nil {
		return fmt.Errorf("failed to clear draft slot: %w", err)
	}
	return nil
}

func (s *KVInvoiceStore) write(ctx context.Context, invoices []*domain.Invoice) error {
	text, err := EncodeInvoices(invoices)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyInvoices, text); err != nil {
		return fmt.Errorf("failed to write saved invoices: %w", err)
	}
	return nil
}

// checkPersistable rejects records the decoder would later refuse
func checkPersistable(invoice *domain.Invoice) error {
	if invoice == nil {
		return errors.New("invoice cannot be nil")
	}
	if invoice.ID == "" {
		return errors.New("invoice ID is required")
	}
	if !invoice.HasName() {
		return domain.ErrNameRequired
	}
	if invoice.InvoiceNumber < 1 {
		return fmt.Errorf("invoice number must be positive, got %d", invoice.InvoiceNumber)
	}
	return nil
}
