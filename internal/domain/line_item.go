package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ItemField names an editable column of a line item
type ItemField string

const (
	FieldQuantity    ItemField = "quantity"
	FieldDescription ItemField = "description"
	FieldUnitPrice   ItemField = "unitPrice"
)

// ParseItemField maps user-facing names (including the short column headers)
// to an ItemField.
func ParseItemField(s string) (ItemField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quantity", "qty":
		return FieldQuantity, true
	case "description", "desc", "name":
		return FieldDescription, true
	case "unitprice", "price":
		return FieldUnitPrice, true
	}
	return "", false
}

// LineItem is one row of an invoice. Quantity and UnitPrice hold the raw text
// the user typed; Total is derived from them and never edited directly.
type LineItem struct {
	Quantity    string
	Description string
	UnitPrice   string
	Total       decimal.Decimal
}

// NewLineItem builds a row and derives its total
func NewLineItem(quantity, description, unitPrice string) LineItem {
	return LineItem{
		Quantity:    quantity,
		Description: description,
		UnitPrice:   unitPrice,
		Total:       ComputeLineTotal(quantity, unitPrice),
	}
}

// UpdateField returns a copy of the item with field set to raw. Numeric fields
// recompute Total eagerly so a read never sees a stale value.
func (li LineItem) UpdateField(field ItemField, raw string) LineItem {
	switch field {
	case FieldQuantity:
		li.Quantity = raw
	case FieldDescription:
		li.Description = raw
	case FieldUnitPrice:
		li.UnitPrice = raw
	default:
		return li
	}
	li.Total = ComputeLineTotal(li.Quantity, li.UnitPrice)
	return li
}

// IsComplete reports whether all three input columns are filled in.
// Zero and negative values are accepted.
func (li LineItem) IsComplete() bool {
	return li.Description != "" && li.Quantity != "" && li.UnitPrice != ""
}

// IsBlank reports whether nothing has been typed into the row
func (li LineItem) IsBlank() bool {
	return li.Description == "" && li.Quantity == "" && li.UnitPrice == ""
}
