package render

import (
	"strings"
	"testing"

	"github.com/andy/wattsun/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *domain.Invoice {
	inv := &domain.Invoice{
		ID:            "01HXYZ",
		Name:          "Test Invoice",
		Type:          "Solar",
		BilledTo:      "Jane <Doe>",
		Telephone:     "0712",
		Date:          "03/04/2025",
		InvoiceNumber: 7,
		Items: []domain.LineItem{
			domain.NewLineItem("2", "Inverter", "150"),
			domain.NewLineItem("3", "Panel", "12.5"),
		},
	}
	inv.Total = inv.GrandTotal()
	return inv
}

func TestRender(t *testing.T) {
	inv := sampleInvoice()
	doc := Render(inv, Options{Company: Company{Name: "Wattsun Ltd"}})

	assert.Equal(t, "Invoice #7", doc.Title)
	assert.Equal(t, "invoice-01HXYZ", doc.FileName)
	assert.Equal(t, "Wattsun Ltd", doc.Company.Name)
	assert.Contains(t, doc.Metadata, Field{Label: "To", Value: "Jane <Doe>"})
	assert.Contains(t, doc.Metadata, Field{Label: "Invoice #", Value: "7"})

	assert.Equal(t, []string{"Qty", "Description", "Price", "Total"}, doc.Table.Header)
	require.Len(t, doc.Table.Rows, 2)
	assert.Equal(t, []string{"2.00", "Inverter", "Rs 150.00", "Rs 300.00"}, doc.Table.Rows[0])
	assert.Equal(t, []string{"3.00", "Panel", "Rs 12.50", "Rs 37.50"}, doc.Table.Rows[1])
	assert.Equal(t, Field{Label: "Grand Total", Value: "Rs 337.50"}, doc.GrandTotal)
}

func TestRender_KeepsItemOrderAndInput(t *testing.T) {
	inv := sampleInvoice()
	inv.Items[0], inv.Items[1] = inv.Items[1], inv.Items[0]
	before := inv.Clone()

	doc := Render(inv, Options{CurrencyPrefix: "$"})
	assert.Equal(t, "Panel", doc.Table.Rows[0][1])
	assert.Equal(t, "Inverter", doc.Table.Rows[1][1])
	assert.Equal(t, "$ 337.50", doc.GrandTotal.Value)

	doc.Table.Header[0] = "changed"
	assert.Equal(t, "Qty", TableHeader[0])
	assert.Equal(t, before.Items[0].Description, inv.Items[0].Description)
	assert.Equal(t, before.Name, inv.Name)
}

func TestRender_ZeroItems(t *testing.T) {
	inv := &domain.Invoice{ID: "E", Name: "Empty", InvoiceNumber: 1, Items: []domain.LineItem{}}
	doc := Render(inv, Options{})

	assert.Len(t, doc.Table.Header, 4)
	assert.Empty(t, doc.Table.Rows)
	assert.Equal(t, "Rs 0.00", doc.GrandTotal.Value)

	html, err := HTML(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, "<tr>"))
	assert.Contains(t, html, "Grand Total: Rs 0.00")
}

func TestHTML_Escapes(t *testing.T) {
	doc := Render(sampleInvoice(), Options{})
	html, err := HTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, "Jane &lt;Doe&gt;")
	assert.NotContains(t, html, "Jane <Doe>")
	assert.Contains(t, html, "<th>Qty</th><th>Description</th><th>Price</th><th>Total</th>")
	assert.Equal(t, 3, strings.Count(html, "<tr>"))
	assert.Less(t, strings.Index(html, "Inverter"), strings.Index(html, "Panel"))
}

func TestText(t *testing.T) {
	doc := Render(sampleInvoice(), Options{Company: Company{Name: "Wattsun Ltd", Phone: "555"}})
	out := Text(doc)

	assert.True(t, strings.HasPrefix(out, "Wattsun Ltd\n555\n\nInvoice #7\n"))
	assert.Contains(t, out, "Inverter")
	assert.Contains(t, out, "Rs 337.50")
}

func TestShareTitle(t *testing.T) {
	assert.Equal(t, "Share Invoice 7", ShareTitle(sampleInvoice()))
}

func TestFileName_StaysInOutputDir(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"01HXYZ", "invoice-01HXYZ"},
		{"a_b-c", "invoice-a_b-c"},
		{"../x", "invoice-___x"},
		{`..\..\evil`, "invoice-______evil"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := FileName(&domain.Invoice{ID: tt.id})
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/")
		})
	}
}
