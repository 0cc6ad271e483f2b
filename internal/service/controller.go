package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/repository"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var (
	ErrReadOnly   = errors.New("invoice is read-only, switch to edit first")
	ErrNoPrompt   = errors.New("no name prompt is open")
	ErrNotViewing = errors.New("no saved invoice is being viewed")
	ErrBusy       = errors.New("another invoice operation is still running")
)

// State is the lifecycle state of the form
type State int

const (
	StateBlankDraft State = iota
	StateEditingNew
	StateViewingSaved
	StateEditingSaved
)

func (s State) String() string {
	switch s {
	case StateBlankDraft:
		return "blank"
	case StateEditingNew:
		return "editing"
	case StateViewingSaved:
		return "viewing"
	case StateEditingSaved:
		return "editing saved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SaveOutcome tells the caller what a Save call did
type SaveOutcome int

const (
	// SaveCompleted means the record reached the store
	SaveCompleted SaveOutcome = iota
	// SaveNeedsName means the name prompt was opened and nothing was stored
	SaveNeedsName
	// SaveBusy means another save was still in flight
	SaveBusy
)

// NamePrompt collects the name and header fields before a first save.
// It is pre-filled from the draft.
type NamePrompt struct {
	Name          string
	Type          string
	BilledTo      string
	Telephone     string
	Date          string
	InvoiceNumber int
}

// Controller owns the single editing session of the invoice form. Field edits
// stay in memory; only Start, LoadPending, Reset, Save, ClearAll and Close
// reach the store, and at most one of them runs at a time.
type Controller struct {
	store     repository.InvoiceStore
	now       func() time.Time
	newID     func() string
	draftRows int
	logger    zerolog.Logger

	mu     sync.Mutex
	state  State
	draft  *domain.Invoice
	prompt *NamePrompt

	busy atomic.Bool
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithClock sets the clock used for draft dates
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator sets the generator used for new record IDs
func WithIDGenerator(newID func() string) ControllerOption {
	return func(c *Controller) { c.newID = newID }
}

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithDraftRows sets how many blank rows a fresh draft has
func WithDraftRows(rows int) ControllerOption {
	return func(c *Controller) { c.draftRows = rows }
}

// NewController creates a controller. Call Start before using it.
func NewController(store repository.InvoiceStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:     store,
		now:       time.Now,
		newID:     func() string { return ulid.Make().String() },
		draftRows: domain.DefaultDraftRows,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "controller").Logger()
	c.draft = domain.NewDraftWithRows(1, c.now(), c.draftRows)
	return c
}

// Start loads a pending draft slot as a read-only saved invoice, or begins a
// blank draft numbered after the saved collection. A corrupt slot is cleared
// and reported; the controller is still left on a usable blank draft.
func (c *Controller) Start(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	loaded, slotErr := c.loadPending(ctx)
	if loaded {
		return nil
	}
	if err := c.reset(ctx); err != nil {
		return errors.Join(slotErr, err)
	}
	return slotErr
}

// LoadPending switches to viewing the invoice waiting in the draft slot, if
// any, and clears the slot. With an empty slot the session is left as is.
func (c *Controller) LoadPending(ctx context.Context) (bool, error) {
	if !c.acquire() {
		return false, ErrBusy
	}
	defer c.release()
	return c.loadPending(ctx)
}

func (c *Controller) loadPending(ctx context.Context) (bool, error) {
	pending, err := c.store.GetDraft(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable draft slot")
		if clearErr := c.store.ClearDraft(ctx); clearErr != nil {
			return false, errors.Join(err, clearErr)
		}
		return false, err
	}
	if pending == nil {
		return false, nil
	}

	if err := c.store.ClearDraft(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	c.state = StateViewingSaved
	c.draft = pending
	c.prompt = nil
	c.mu.Unlock()
	c.logger.Debug().Str("id", pending.ID).Msg("opened invoice from draft slot")
	return true, nil
}

// UpdateField edits one column of one row
func (c *Controller) UpdateField(index int, field domain.ItemField, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	if err := c.draft.UpdateItem(index, field, raw); err != nil {
		return err
	}
	c.markEdited()
	return nil
}

// AddLine appends a blank row
func (c *Controller) AddLine() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	c.draft.AddLine()
	c.markEdited()
	return nil
}

// SetMetadata replaces the header fields of the draft
func (c *Controller) SetMetadata(meta domain.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	c.draft.SetMetadata(meta)
	c.markEdited()
	return nil
}

// SetName sets the invoice name directly, skipping the prompt on save
func (c *Controller) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	c.draft.Name = name
	c.markEdited()
	return nil
}

// ClearAll empties the draft slot and starts over on a blank draft. If the
// slot cannot be cleared the current draft is kept.
func (c *Controller) ClearAll(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	if err := c.store.ClearDraft(ctx); err != nil {
		c.logger.Error().Err(err).Msg("clear all aborted")
		return err
	}
	return c.reset(ctx)
}

// Reset starts a blank draft numbered after the saved collection. Unlike
// ClearAll it leaves the draft slot alone.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()
	return c.reset(ctx)
}

func (c *Controller) reset(ctx context.Context) error {
	draft, err := c.freshDraft(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateBlankDraft
	c.draft = draft
	c.prompt = nil
	c.mu.Unlock()
	return nil
}

// Edit unlocks the saved invoice being viewed
func (c *Controller) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy.Load() {
		return ErrBusy
	}
	if c.state != StateViewingSaved {
		return ErrNotViewing
	}
	c.state = StateEditingSaved
	return nil
}

// Close leaves the saved invoice and returns to a blank draft
func (c *Controller) Close(ctx context.Context) error {
	return c.ClearAll(ctx)
}

// Save persists the draft. With no name it opens the prompt and stores
// nothing. A store failure leaves state and draft as they were. The outcome
// is only meaningful when err is nil.
func (c *Controller) Save(ctx context.Context) (SaveOutcome, error) {
	if !c.acquire() {
		return SaveBusy, nil
	}
	defer c.release()

	return c.save(ctx)
}

func (c *Controller) save(ctx context.Context) (SaveOutcome, error) {
	c.mu.Lock()
	state := c.state
	if state == StateViewingSaved {
		c.mu.Unlock()
		return SaveCompleted, ErrReadOnly
	}
	if !c.draft.HasName() {
		c.prompt = c.promptDefaults()
		c.mu.Unlock()
		return SaveNeedsName, nil
	}
	record, err := c.draft.ToPersistable(c.newID)
	c.mu.Unlock()
	if err != nil {
		return SaveCompleted, err
	}

	if state == StateEditingSaved {
		err = c.store.Update(ctx, record)
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			c.logger.Warn().Str("id", record.ID).Msg("edited invoice no longer saved, storing as new")
			err = c.store.Save(ctx, record)
		}
	} else {
		err = c.store.Save(ctx, record)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("id", record.ID).Msg("save failed, draft kept")
		return SaveCompleted, fmt.Errorf("failed to save invoice: %w", err)
	}

	if state == StateEditingSaved {
		c.mu.Lock()
		c.state = StateViewingSaved
		c.draft = record
		c.prompt = nil
		c.mu.Unlock()
		return SaveCompleted, nil
	}

	draft, err := c.freshDraft(ctx)
	if err != nil {
		// The record is stored; only the next number is unknown.
		c.logger.Warn().Err(err).Msg("could not count saved invoices")
		draft = domain.NewDraftWithRows(record.InvoiceNumber+1, c.now(), c.draftRows)
	}
	c.mu.Lock()
	c.state = StateBlankDraft
	c.draft = draft
	c.prompt = nil
	c.mu.Unlock()
	return SaveCompleted, nil
}

// ConfirmPrompt applies the prompt values to the draft and saves again
func (c *Controller) ConfirmPrompt(ctx context.Context, p NamePrompt) (SaveOutcome, error) {
	if !c.acquire() {
		return SaveBusy, nil
	}
	defer c.release()

	c.mu.Lock()
	if c.prompt == nil {
		c.mu.Unlock()
		return SaveNeedsName, ErrNoPrompt
	}
	c.prompt = nil
	c.draft.Name = strings.TrimSpace(p.Name)
	c.draft.SetMetadata(domain.Metadata{
		Type:      p.Type,
		BilledTo:  p.BilledTo,
		Telephone: p.Telephone,
		Date:      p.Date,
	})
	if p.InvoiceNumber > 0 {
		c.draft.InvoiceNumber = p.InvoiceNumber
	}
	c.markEdited()
	c.mu.Unlock()

	return c.save(ctx)
}

// CancelPrompt closes the prompt without touching the draft
func (c *Controller) CancelPrompt() {
	c.mu.Lock()
	c.prompt = nil
	c.mu.Unlock()
}

// Prompt returns the open name prompt, or nil
func (c *Controller) Prompt() *NamePrompt {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.prompt == nil {
		return nil
	}
	p := *c.prompt
	return &p
}

// Draft returns a copy of the record being edited or viewed
func (c *Controller) Draft() *domain.Invoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// GrandTotal sums every row of the draft, including incomplete ones
func (c *Controller) GrandTotal() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.FormatAmount(c.draft.GrandTotal())
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Saving reports whether a store operation is in flight
func (c *Controller) Saving() bool {
	return c.busy.Load()
}

// ReadOnly reports whether field edits are currently rejected
func (c *Controller) ReadOnly() bool {
	return c.State() == StateViewingSaved
}

func (c *Controller) acquire() bool {
	return c.busy.CompareAndSwap(false, true)
}

func (c *Controller) release() {
	c.busy.Store(false)
}

// checkEditable rejects edits made while a store call is outstanding, since
// that call replaces the draft when it finishes.
func (c *Controller) checkEditable() error {
	if c.busy.Load() {
		return ErrBusy
	}
	if c.state == StateViewingSaved {
		return ErrReadOnly
	}
	return nil
}

func (c *Controller) markEdited() {
	if c.state == StateBlankDraft {
		c.state = StateEditingNew
	}
}

func (c *Controller) promptDefaults() *NamePrompt {
	return &NamePrompt{
		Name:          c.draft.Name,
		Type:          c.draft.Type,
		BilledTo:      c.draft.BilledTo,
		Telephone:     c.draft.Telephone,
		Date:          c.draft.Date,
		InvoiceNumber: c.draft.InvoiceNumber,
	}
}

// freshDraft numbers a new draft from the saved collection, never from a
// cached counter.
func (c *Controller) freshDraft(ctx context.Context) (*domain.Invoice, error) {
	count, err := c.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count saved invoices: %w", err)
	}
	return domain.NewDraftWithRows(count+1, c.now(), c.draftRows), nil
}
