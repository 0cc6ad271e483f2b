package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, store *fakeStore) *Controller {
	t.Helper()
	n := 0
	c := NewController(store,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("ID%02d", n)
		}),
	)
	require.NoError(t, c.Start(context.Background()))
	store.reset()
	return c
}

func fillRow(t *testing.T, c *Controller, row int, qty, desc, price string) {
	t.Helper()
	require.NoError(t, c.UpdateField(row, domain.FieldQuantity, qty))
	require.NoError(t, c.UpdateField(row, domain.FieldDescription, desc))
	require.NoError(t, c.UpdateField(row, domain.FieldUnitPrice, price))
}

func TestController_SaveScenario(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)

	assert.Equal(t, StateBlankDraft, c.State())
	assert.Equal(t, 1, c.Draft().InvoiceNumber)
	assert.Equal(t, "03/04/2025", c.Draft().Date)

	fillRow(t, c, 0, "2", "Inverter", "150.00")
	assert.Equal(t, StateEditingNew, c.State())
	assert.Equal(t, "300.00", c.GrandTotal())
	assert.Empty(t, store.calls, "field edits must not touch the store")

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveNeedsName, outcome)
	assert.Empty(t, store.calls, "a save without a name must not touch the store")

	prompt := c.Prompt()
	require.NotNil(t, prompt)
	assert.Equal(t, 1, prompt.InvoiceNumber)
	assert.Equal(t, "03/04/2025", prompt.Date)

	prompt.Name = "Test Invoice"
	outcome, err = c.ConfirmPrompt(ctx, *prompt)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, outcome)
	assert.Nil(t, c.Prompt())

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "Test Invoice", saved.Name)
	assert.Equal(t, "ID01", saved.ID)
	assert.Equal(t, "300.00", domain.FormatAmount(saved.Total))
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "Inverter", saved.Items[0].Description)

	// back to a blank draft numbered after the collection
	assert.Equal(t, StateBlankDraft, c.State())
	draft := c.Draft()
	assert.Equal(t, 2, draft.InvoiceNumber)
	assert.Empty(t, draft.Name)
	assert.Len(t, draft.Items, domain.DefaultDraftRows)
	assert.Equal(t, "0.00", c.GrandTotal())
}

func TestController_CancelPromptKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "1", "Panel", "100")

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, SaveNeedsName, outcome)

	c.CancelPrompt()
	assert.Nil(t, c.Prompt())
	assert.Equal(t, StateEditingNew, c.State())
	assert.Equal(t, "100.00", c.GrandTotal())
	assert.Empty(t, store.calls)

	_, err = c.ConfirmPrompt(ctx, NamePrompt{Name: "late"})
	assert.ErrorIs(t, err, ErrNoPrompt)
	assert.Empty(t, store.saved)
}

func TestController_ConfirmPromptBlankNameReopens(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)

	_, err := c.Save(ctx)
	require.NoError(t, err)

	outcome, err := c.ConfirmPrompt(ctx, NamePrompt{Name: "   ", BilledTo: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, SaveNeedsName, outcome)
	require.NotNil(t, c.Prompt())
	assert.Equal(t, "Jane", c.Prompt().BilledTo)
	assert.False(t, store.called("Save"))
}

func TestController_ConfirmPromptAppliesMetadata(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "1", "Battery", "80")

	_, err := c.Save(ctx)
	require.NoError(t, err)
	_, err = c.ConfirmPrompt(ctx, NamePrompt{
		Name:          "  Roof job ",
		Type:          "Solar",
		BilledTo:      "Jane",
		Telephone:     "0712",
		InvoiceNumber: 9,
	})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "Roof job", saved.Name)
	assert.Equal(t, domain.Metadata{Type: "Solar", BilledTo: "Jane", Telephone: "0712", Date: "03/04/2025"}, saved.Metadata())
	assert.Equal(t, 9, saved.InvoiceNumber)
}

func TestController_SaveDropsIncompleteRows(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)

	fillRow(t, c, 0, "2", "Panel", "100")
	require.NoError(t, c.UpdateField(1, domain.FieldQuantity, "5"))
	require.NoError(t, c.SetName("Partial"))
	assert.Equal(t, "200.00", c.GrandTotal())

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, SaveCompleted, outcome)

	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0].Items, 1)
	assert.Equal(t, "200.00", domain.FormatAmount(store.saved[0].Total))
}

func TestController_StartFromDraftSlotIsReadOnly(t *testing.T) {
	ctx := context.Background()
	opened := &domain.Invoice{
		ID:            "OLD",
		Name:          "Opened",
		InvoiceNumber: 4,
		Items:         []domain.LineItem{domain.NewLineItem("1", "Cable", "10")},
	}
	opened.Total = opened.GrandTotal()
	store := &fakeStore{draft: opened, saved: []*domain.Invoice{opened}}

	c := NewController(store)
	require.NoError(t, c.Start(ctx))

	assert.Equal(t, StateViewingSaved, c.State())
	assert.True(t, c.ReadOnly())
	assert.Nil(t, store.draft, "slot is cleared once loaded")
	assert.Equal(t, 4, c.Draft().InvoiceNumber)
	store.reset()

	before := c.Draft()
	assert.ErrorIs(t, c.UpdateField(0, domain.FieldQuantity, "9"), ErrReadOnly)
	assert.ErrorIs(t, c.AddLine(), ErrReadOnly)
	assert.ErrorIs(t, c.SetMetadata(domain.Metadata{Type: "x"}), ErrReadOnly)
	assert.ErrorIs(t, c.SetName("x"), ErrReadOnly)
	_, err := c.Save(ctx)
	assert.ErrorIs(t, err, ErrReadOnly)

	after := c.Draft()
	assert.Equal(t, before.Items[0].Quantity, after.Items[0].Quantity)
	assert.Len(t, after.Items, 1)
	assert.Empty(t, after.Type)
	assert.Equal(t, StateViewingSaved, c.State())
	assert.Empty(t, store.calls)
}

func TestController_EditSavedUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	first := &domain.Invoice{ID: "A", Name: "first", InvoiceNumber: 1,
		Items: []domain.LineItem{domain.NewLineItem("1", "Cable", "10")}}
	first.Total = first.GrandTotal()
	second := &domain.Invoice{ID: "B", Name: "second", InvoiceNumber: 2, Items: []domain.LineItem{}}
	store := &fakeStore{draft: first, saved: []*domain.Invoice{second, first}}

	c := NewController(store)
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Edit())
	assert.Equal(t, StateEditingSaved, c.State())

	require.NoError(t, c.UpdateField(0, domain.FieldQuantity, "3"))
	assert.Equal(t, StateEditingSaved, c.State())

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, outcome)
	assert.True(t, store.called("Update"))

	require.Len(t, store.saved, 2, "no duplicate is appended")
	assert.Equal(t, "B", store.saved[0].ID)
	assert.Equal(t, "A", store.saved[1].ID)
	assert.Equal(t, "30.00", domain.FormatAmount(store.saved[1].Total))

	assert.Equal(t, StateViewingSaved, c.State())
	assert.Equal(t, "A", c.Draft().ID)
	assert.Equal(t, "30.00", c.GrandTotal())
}

func TestController_EditSavedAfterDeleteSavesAsNew(t *testing.T) {
	ctx := context.Background()
	gone := &domain.Invoice{ID: "GONE", Name: "gone", InvoiceNumber: 1, Items: []domain.LineItem{}}
	store := &fakeStore{draft: gone}

	c := newTestController(t, store)
	require.NoError(t, c.Edit())

	_, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Update", "Save"}, store.calls)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "GONE", store.saved[0].ID)
}

func TestController_EditRequiresViewing(t *testing.T) {
	c := newTestController(t, &fakeStore{})
	assert.ErrorIs(t, c.Edit(), ErrNotViewing)
	assert.Equal(t, StateBlankDraft, c.State())
}

func TestController_CloseClearsSlot(t *testing.T) {
	ctx := context.Background()
	opened := &domain.Invoice{ID: "A", Name: "a", InvoiceNumber: 1, Items: []domain.LineItem{}}
	store := &fakeStore{draft: opened, saved: []*domain.Invoice{opened}}
	c := newTestController(t, store)
	require.Equal(t, StateViewingSaved, c.State())

	store.draft = opened.Clone()
	require.NoError(t, c.Close(ctx))
	assert.True(t, store.called("ClearDraft"))
	assert.Nil(t, store.draft)
	assert.Equal(t, StateBlankDraft, c.State())
	assert.Equal(t, 2, c.Draft().InvoiceNumber)
}

func TestController_ClearAll(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "2", "Panel", "100")
	require.NoError(t, c.AddLine())

	require.NoError(t, c.ClearAll(ctx))
	assert.Equal(t, StateBlankDraft, c.State())
	assert.Len(t, c.Draft().Items, domain.DefaultDraftRows)
	assert.Equal(t, "0.00", c.GrandTotal())
	assert.True(t, store.called("ClearDraft"))
	assert.Empty(t, store.saved)
}

func TestController_ClearAllFailureKeepsDraft(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "2", "Panel", "100")

	store.clearErr = errors.New("storage unavailable")
	require.Error(t, c.ClearAll(context.Background()))
	assert.Equal(t, StateEditingNew, c.State())
	assert.Equal(t, "200.00", c.GrandTotal())
}

func TestController_StoreFailurePreservesDraft(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{saveErr: errors.New("storage full")}
	c := newTestController(t, store)
	fillRow(t, c, 0, "2", "Inverter", "150")
	require.NoError(t, c.SetName("Kept"))

	_, err := c.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.saveErr)

	assert.Equal(t, StateEditingNew, c.State())
	draft := c.Draft()
	assert.Equal(t, "Kept", draft.Name)
	assert.Empty(t, draft.ID, "the draft does not keep the ID of a failed save")
	assert.Equal(t, "300.00", c.GrandTotal())
	assert.False(t, c.Saving())

	store.saveErr = nil
	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, outcome)
	assert.Len(t, store.saved, 1)
}

func TestController_SaveBusy(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	require.NoError(t, c.SetName("Busy"))

	var nested SaveOutcome
	var nestedErr error
	store.onSave = func() {
		assert.True(t, c.Saving())
		nested, nestedErr = c.Save(ctx)
	}

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, outcome)
	require.NoError(t, nestedErr)
	assert.Equal(t, SaveBusy, nested)
	assert.Len(t, store.saved, 1, "the second save never reached the store")
	assert.False(t, c.Saving())
}

func TestController_RejectsWorkDuringSave(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	require.NoError(t, c.SetName("Busy"))
	fillRow(t, c, 0, "1", "Panel", "10")

	var clearErr, editErr, addErr, resetErr, loadErr error
	store.onSave = func() {
		clearErr = c.ClearAll(ctx)
		editErr = c.UpdateField(0, domain.FieldDescription, "typed mid-save")
		addErr = c.AddLine()
		resetErr = c.Reset(ctx)
		_, loadErr = c.LoadPending(ctx)
	}

	outcome, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, outcome)

	assert.ErrorIs(t, clearErr, ErrBusy)
	assert.ErrorIs(t, editErr, ErrBusy)
	assert.ErrorIs(t, addErr, ErrBusy)
	assert.ErrorIs(t, resetErr, ErrBusy)
	assert.ErrorIs(t, loadErr, ErrBusy)
	assert.Equal(t, []string{"Save", "Count"}, store.calls)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Panel", store.saved[0].Items[0].Description)

	// the guard lifts once the save returns
	assert.False(t, c.Saving())
	assert.NoError(t, c.UpdateField(0, domain.FieldDescription, "after"))
	assert.NoError(t, c.ClearAll(ctx))
}

func TestController_EditRejectedDuringSave(t *testing.T) {
	ctx := context.Background()
	opened := &domain.Invoice{ID: "A", Name: "Roof", InvoiceNumber: 1,
		Items: []domain.LineItem{domain.NewLineItem("1", "Cable", "10")}}
	store := &fakeStore{draft: opened, saved: []*domain.Invoice{opened}}
	c := newTestController(t, store)
	require.NoError(t, c.Edit())
	fillRow(t, c, 0, "2", "Panel", "10")

	var viewErr error
	store.onUpdate = func() {
		viewErr = c.Edit()
	}
	_, err := c.Save(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, viewErr, ErrBusy)
}

func TestController_StartDiscardsCorruptSlot(t *testing.T) {
	store := &fakeStore{draftErr: fmt.Errorf("draft slot: %w", repository.ErrCorruptRecord)}
	c := NewController(store, WithDraftRows(2))

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, repository.ErrCorruptRecord)
	assert.True(t, store.called("ClearDraft"))
	assert.Equal(t, StateBlankDraft, c.State())
	assert.Len(t, c.Draft().Items, 2)
}

func TestController_InvoiceNumberFollowsCollection(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{saved: []*domain.Invoice{
		{ID: "B", Name: "b", InvoiceNumber: 2},
		{ID: "A", Name: "a", InvoiceNumber: 1},
	}}
	c := newTestController(t, store)
	assert.Equal(t, 3, c.Draft().InvoiceNumber)

	// a delete on the list surface is picked up on the next fresh draft
	store.saved = store.saved[:1]
	require.NoError(t, c.ClearAll(ctx))
	assert.Equal(t, 2, c.Draft().InvoiceNumber)
}

func TestController_DraftIsACopy(t *testing.T) {
	c := newTestController(t, &fakeStore{})
	d := c.Draft()
	d.Items[0].Quantity = "99"
	d.Name = "mutated"

	assert.Empty(t, c.Draft().Items[0].Quantity)
	assert.Empty(t, c.Draft().Name)
}

func TestController_ResetLeavesDraftSlot(t *testing.T) {
	pending := &domain.Invoice{ID: "P", Name: "pending", InvoiceNumber: 1, Items: []domain.LineItem{}}
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "1", "Panel", "10")
	store.draft = pending

	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, StateBlankDraft, c.State())
	assert.Equal(t, "0.00", c.GrandTotal())
	assert.False(t, store.called("ClearDraft"))
	assert.NotNil(t, store.draft)
}

func TestController_LoadPendingKeepsSessionWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := newTestController(t, store)
	fillRow(t, c, 0, "2", "Panel", "100")

	loaded, err := c.LoadPending(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, StateEditingNew, c.State())
	assert.Equal(t, "200.00", c.GrandTotal())

	store.draft = &domain.Invoice{ID: "S", Name: "slot", InvoiceNumber: 1, Items: []domain.LineItem{}}
	loaded, err = c.LoadPending(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, StateViewingSaved, c.State())
	assert.Equal(t, "S", c.Draft().ID)
	assert.Nil(t, store.draft)
}
