package service

import (
	"context"
	"fmt"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/repository"
)

// fakeStore is an in-memory InvoiceStore that records every call
type fakeStore struct {
	saved []*domain.Invoice
	draft *domain.Invoice

	calls    []string
	saveErr  error
	clearErr error
	draftErr error

	// onSave and onUpdate run inside Save and Update before they return
	onSave   func()
	onUpdate func()
}

func (f *fakeStore) ListSaved(ctx context.Context) ([]*domain.Invoice, error) {
	f.calls = append(f.calls, "ListSaved")
	out := make([]*domain.Invoice, len(f.saved))
	copy(out, f.saved)
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	f.calls = append(f.calls, "Count")
	return len(f.saved), nil
}

func (f *fakeStore) Save(ctx context.Context, invoice *domain.Invoice) error {
	f.calls = append(f.calls, "Save")
	if f.onSave != nil {
		f.onSave()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append([]*domain.Invoice{invoice.Clone()}, f.saved...)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, invoice *domain.Invoice) error {
	f.calls = append(f.calls, "Update")
	if f.onUpdate != nil {
		f.onUpdate()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, inv := range f.saved {
		if inv.ID == invoice.ID {
			f.saved[i] = invoice.Clone()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", repository.ErrInvoiceNotFound, invoice.ID)
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.calls = append(f.calls, "Delete")
	kept := f.saved[:0]
	for _, inv := range f.saved {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	f.saved = kept
	return nil
}

func (f *fakeStore) SetDraft(ctx context.Context, invoice *domain.Invoice) error {
	f.calls = append(f.calls, "SetDraft")
	f.draft = invoice.Clone()
	return nil
}

func (f *fakeStore) GetDraft(ctx context.Context) (*domain.Invoice, error) {
	f.calls = append(f.calls, "GetDraft")
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	if f.draft == nil {
		return nil, nil
	}
	return f.draft.Clone(), nil
}

func (f *fakeStore) ClearDraft(ctx context.Context) error {
	f.calls = append(f.calls, "ClearDraft")
	if f.clearErr != nil {
		return f.clearErr
	}
	f.draft = nil
	f.draftErr = nil
	return nil
}

func (f *fakeStore) reset() {
	f.calls = nil
}

func (f *fakeStore) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}
