package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DefaultDraftRows is the number of blank rows a new draft starts with
const DefaultDraftRows = 5

// DateLayout is the display format of Invoice.Date
const DateLayout = "01/02/2006"

var (
	ErrNameRequired = errors.New("invoice name is required")
	ErrItemIndex    = errors.New("line item index out of range")
)

// Metadata is the free-text header of an invoice
type Metadata struct {
	Type      string
	BilledTo  string
	Telephone string
	Date      string
}

// Invoice is either an in-memory draft or a persisted snapshot. A persisted
// snapshot only holds complete rows and its Total covers exactly those rows.
type Invoice struct {
	ID            string
	Name          string
	Type          string
	BilledTo      string
	Telephone     string
	Date          string
	InvoiceNumber int
	Items         []LineItem

	// Total is only meaningful on persisted snapshots; drafts use GrandTotal.
	Total decimal.Decimal
}

// NewDraft creates a blank draft with DefaultDraftRows empty rows
func NewDraft(invoiceNumber int, now time.Time) *Invoice {
	return NewDraftWithRows(invoiceNumber, now, DefaultDraftRows)
}

// NewDraftWithRows creates a blank draft with the given number of empty rows
func NewDraftWithRows(invoiceNumber int, now time.Time, rows int) *Invoice {
	if rows < 0 {
		rows = 0
	}
	return &Invoice{
		Date:          now.Format(DateLayout),
		InvoiceNumber: invoiceNumber,
		Items:         make([]LineItem, rows),
		Total:         decimal.Zero,
	}
}

// Metadata returns the header fields of the invoice
func (i *Invoice) Metadata() Metadata {
	return Metadata{
		Type:      i.Type,
		BilledTo:  i.BilledTo,
		Telephone: i.Telephone,
		Date:      i.Date,
	}
}

// SetMetadata overwrites the header fields. An empty Date keeps the current one.
func (i *Invoice) SetMetadata(m Metadata) {
	i.Type = m.Type
	i.BilledTo = m.BilledTo
	i.Telephone = m.Telephone
	if m.Date != "" {
		i.Date = m.Date
	}
}

// AddLine appends one blank row
func (i *Invoice) AddLine() {
	i.Items = append(i.Items, LineItem{})
}

// UpdateItem sets one field of the row at index
func (i *Invoice) UpdateItem(index int, field ItemField, raw string) error {
	if index < 0 || index >= len(i.Items) {
		return ErrItemIndex
	}
	i.Items[index] = i.Items[index].UpdateField(field, raw)
	return nil
}

// GrandTotal sums every row, including incomplete ones
func (i *Invoice) GrandTotal() decimal.Decimal {
	return sumTotals(i.Items)
}

// HasName reports whether the invoice carries a usable name
func (i *Invoice) HasName() bool {
	return strings.TrimSpace(i.Name) != ""
}

// ToPersistable returns the snapshot that would be written to the store:
// incomplete rows dropped, an ID assigned if missing, Total recomputed over the
// kept rows. The receiver is not modified.
func (i *Invoice) ToPersistable(newID func() string) (*Invoice, error) {
	if !i.HasName() {
		return nil, ErrNameRequired
	}

	out := i.Clone()
	out.Items = lo.Filter(out.Items, func(item LineItem, _ int) bool {
		return item.IsComplete()
	})
	if out.ID == "" {
		out.ID = newID()
	}
	out.Total = sumTotals(out.Items)
	return out, nil
}

// Clone returns a deep copy
func (i *Invoice) Clone() *Invoice {
	out := *i
	out.Items = make([]LineItem, len(i.Items))
	copy(out.Items, i.Items)
	return &out
}

func sumTotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}
