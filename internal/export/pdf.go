package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andy/wattsun/internal/render"
	"github.com/jung-kurt/gofpdf"
)

// PDFConverter draws documents with gofpdf into an output directory
type PDFConverter struct {
	outputDir   string
	orientation string
	pageSize    string
	fontSize    float64
}

// NewPDFConverter creates a converter writing A4 portrait pages to outputDir
func NewPDFConverter(outputDir string) *PDFConverter {
	return &PDFConverter{
		outputDir:   outputDir,
		orientation: "P",
		pageSize:    "A4",
		fontSize:    10,
	}
}

// column widths in mm, matching render.TableHeader
var columnWidths = []float64{25, 85, 40, 40}

// Convert writes <fileName>.pdf and returns its path. Nothing is written
// unless the whole document rendered.
func (p *PDFConverter) Convert(ctx context.Context, doc *render.Document, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pdf := gofpdf.New(p.orientation, "mm", p.pageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()

	// Company block
	if doc.Company.Name != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 7, tr(doc.Company.Name))
		pdf.Ln(7)
	}
	pdf.SetFont("Arial", "", p.fontSize)
	for _, line := range []string{doc.Company.Address, doc.Company.Phone, doc.Company.Email} {
		if line != "" {
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(doc.Title))
	pdf.Ln(12)

	// Metadata block
	for _, f := range doc.Metadata {
		if f.Value == "" {
			continue
		}
		pdf.SetFont("Arial", "B", p.fontSize)
		pdf.CellFormat(30, 6, tr(f.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", p.fontSize)
		pdf.CellFormat(0, 6, tr(f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	p.drawHeader(pdf, tr, doc.Table.Header)
	pdf.SetFont("Arial", "", p.fontSize)
	for _, row := range doc.Table.Rows {
		for i, value := range row {
			align := "R"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(columnWidths[i], 6, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)

		// Near the bottom of an A4 page
		if pdf.GetY() > 270 {
			pdf.AddPage()
			p.drawHeader(pdf, tr, doc.Table.Header)
			pdf.SetFont("Arial", "", p.fontSize)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	labelWidth := columnWidths[0] + columnWidths[1] + columnWidths[2]
	pdf.CellFormat(labelWidth, 8, tr(doc.GrandTotal.Label), "", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[3], 8, tr(doc.GrandTotal.Value), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(p.outputDir, fileName+".pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}
	return path, nil
}

func (p *PDFConverter) drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, header []string) {
	pdf.SetFont("Arial", "B", p.fontSize)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(columnWidths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}
