package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/wattsun/internal/domain"
)

// DefaultCurrencyPrefix is shown in front of every money value
const DefaultCurrencyPrefix = "Rs"

// TableHeader is the fixed header row of the line-item table
var TableHeader = []string{"Qty", "Description", "Price", "Total"}

// Company is the issuer block printed at the top of a document
type Company struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Options controls presentation details that are not part of the record
type Options struct {
	Company        Company
	CurrencyPrefix string
}

// Field is one labelled value of the metadata block
type Field struct {
	Label string
	Value string
}

// Table is the line-item table. Rows are in record order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Document is the structured form of a finalized invoice, ready to be
// serialized to HTML, text or PDF.
type Document struct {
	Title      string
	FileName   string
	Company    Company
	Metadata   []Field
	Table      Table
	GrandTotal Field
}

// Render builds the document for a persisted invoice. It never changes inv.
func Render(inv *domain.Invoice, opts Options) *Document {
	prefix := opts.CurrencyPrefix
	if prefix == "" {
		prefix = DefaultCurrencyPrefix
	}
	money := func(s string) string { return prefix + " " + s }

	header := make([]string, len(TableHeader))
	copy(header, TableHeader)

	rows := make([][]string, 0, len(inv.Items))
	for _, item := range inv.Items {
		rows = append(rows, []string{
			domain.FormatAmount(domain.ParseAmount(item.Quantity)),
			item.Description,
			money(domain.FormatAmount(domain.ParseAmount(item.UnitPrice))),
			money(domain.FormatAmount(item.Total)),
		})
	}

	return &Document{
		Title:    fmt.Sprintf("Invoice #%d", inv.InvoiceNumber),
		FileName: FileName(inv),
		Company:  opts.Company,
		Metadata: []Field{
			{Label: "Invoice", Value: inv.Name},
			{Label: "Invoice #", Value: strconv.Itoa(inv.InvoiceNumber)},
			{Label: "Type", Value: inv.Type},
			{Label: "To", Value: inv.BilledTo},
			{Label: "Telephone", Value: inv.Telephone},
			{Label: "Date", Value: inv.Date},
		},
		Table:      Table{Header: header, Rows: rows},
		GrandTotal: Field{Label: "Grand Total", Value: money(domain.FormatAmount(inv.Total))},
	}
}

// ShareTitle is the dialog title used when handing the file to a sharer
func ShareTitle(inv *domain.Invoice) string {
	return fmt.Sprintf("Share Invoice %d", inv.InvoiceNumber)
}

// FileName is the base name, without extension, of an exported invoice. Only
// letters, digits, '-' and '_' of the ID are kept, so the name never leaves
// the output directory.
func FileName(inv *domain.Invoice) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		}
		return '_'
	}, inv.ID)
	return "invoice-" + id
}
