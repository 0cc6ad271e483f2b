package repository

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andy/wattsun/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the version written into every persisted record
const SchemaVersion = 1

// ErrCorruptRecord is returned when stored text does not decode into a valid
// record. Decoding never returns a partially trusted value.
var ErrCorruptRecord = errors.New("corrupt invoice record")

//go:embed schema/invoice.schema.json
var invoiceSchemaJSON []byte

var (
	schemaOnce    sync.Once
	invoiceSchema *jsonschema.Schema
	schemaErr     error
)

// invoiceRecord is the wire shape of a persisted invoice
type invoiceRecord struct {
	SchemaVersion int          `json:"schemaVersion"`
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	To            string       `json:"to"`
	Telephone     string       `json:"telephone"`
	Date          string       `json:"date"`
	InvoiceNumber int          `json:"invoiceNumber"`
	Items         []itemRecord `json:"items"`
	Total         json.Number  `json:"total"`
}

type itemRecord struct {
	Qty   string      `json:"qty"`
	Name  string      `json:"name"`
	Price string      `json:"price"`
	Total json.Number `json:"total"`
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.schema.json", bytes.NewReader(invoiceSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		invoiceSchema, schemaErr = compiler.Compile("invoice.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return invoiceSchema, schemaErr
}

// EncodeInvoice serializes one record as a JSON object
func EncodeInvoice(inv *domain.Invoice) (string, error) {
	b, err := json.Marshal(toRecord(inv))
	if err != nil {
		return "", fmt.Errorf("failed to encode invoice: %w", err)
	}
	return string(b), nil
}

// EncodeInvoices serializes the saved collection as a JSON array, order kept
func EncodeInvoices(invoices []*domain.Invoice) (string, error) {
	records := make([]invoiceRecord, 0, len(invoices))
	for _, inv := range invoices {
		records = append(records, toRecord(inv))
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode invoices: %w", err)
	}
	return string(b), nil
}

// DecodeInvoice parses a single JSON object written by EncodeInvoice
func DecodeInvoice(text string) (*domain.Invoice, error) {
	return decodeRecord([]byte(text))
}

// DecodeInvoices parses a JSON array written by EncodeInvoices. Blank text is
// an empty collection. One bad element fails the whole decode.
func DecodeInvoices(text string) ([]*domain.Invoice, error) {
	if strings.TrimSpace(text) == "" {
		return []*domain.Invoice{}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raws); err != nil {
		return nil, fmt.Errorf("%w: saved collection: %w", ErrCorruptRecord, err)
	}

	invoices := make([]*domain.Invoice, 0, len(raws))
	for i, raw := range raws {
		inv, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func decodeRecord(raw []byte) (*domain.Invoice, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", ErrCorruptRecord)
	}
	if v, _ := obj["schemaVersion"].(json.Number); v.String() != fmt.Sprint(SchemaVersion) {
		return nil, fmt.Errorf("%w: unsupported schema version %q", ErrCorruptRecord, v.String())
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	var rec invoiceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return fromRecord(rec)
}

func toRecord(inv *domain.Invoice) invoiceRecord {
	items := make([]itemRecord, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, itemRecord{
			Qty:   item.Quantity,
			Name:  item.Description,
			Price: item.UnitPrice,
			Total: json.Number(item.Total.String()),
		})
	}
	return invoiceRecord{
		SchemaVersion: SchemaVersion,
		ID:            inv.ID,
		Name:          inv.Name,
		Type:          inv.Type,
		To:            inv.BilledTo,
		Telephone:     inv.Telephone,
		Date:          inv.Date,
		InvoiceNumber: inv.InvoiceNumber,
		Items:         items,
		Total:         json.Number(inv.Total.String()),
	}
}

// fromRecord converts the wire shape and checks every stored total against
// the inputs it was derived from.
func fromRecord(rec invoiceRecord) (*domain.Invoice, error) {
	inv := &domain.Invoice{
		ID:            rec.ID,
		Name:          rec.Name,
		Type:          rec.Type,
		BilledTo:      rec.To,
		Telephone:     rec.Telephone,
		Date:          rec.Date,
		InvoiceNumber: rec.InvoiceNumber,
		Items:         make([]domain.LineItem, 0, len(rec.Items)),
	}

	sum := decimal.Zero
	for i, it := range rec.Items {
		total, err := decimal.NewFromString(it.Total.String())
		if err != nil {
			return nil, fmt.Errorf("%w: item %d total: %w", ErrCorruptRecord, i, err)
		}
		item := domain.NewLineItem(it.Qty, it.Name, it.Price)
		if !item.Total.Equal(total) {
			return nil, fmt.Errorf("%w: item %d total %s does not match %s x %s",
				ErrCorruptRecord, i, total, it.Qty, it.Price)
		}
		inv.Items = append(inv.Items, item)
		sum = sum.Add(item.Total)
	}

	total, err := decimal.NewFromString(rec.Total.String())
	if err != nil {
		return nil, fmt.Errorf("%w: total: %w", ErrCorruptRecord, err)
	}
	if !total.Equal(sum) {
		return nil, fmt.Errorf("%w: total %s does not match item sum %s", ErrCorruptRecord, total, sum)
	}
	inv.Total = sum

	return inv, nil
}
