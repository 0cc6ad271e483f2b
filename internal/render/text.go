package render

import (
	"fmt"
	"strings"
)

// Text lays the document out as fixed-width plain text for terminals
func Text(doc *Document) string {
	var b strings.Builder

	c := doc.Company
	for _, line := range []string{c.Name, c.Address, c.Phone, c.Email} {
		if line != "" {
			b.WriteString(line + "\n")
		}
	}
	if c != (Company{}) {
		b.WriteString("\n")
	}

	b.WriteString(doc.Title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, f := range doc.Metadata {
		if f.Value == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("%-11s %s\n", f.Label+":", f.Value))
	}
	b.WriteString("\n")

	h := doc.Table.Header
	b.WriteString(fmt.Sprintf("%8s  %-24s %12s %12s\n", h[0], h[1], h[2], h[3]))
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, row := range doc.Table.Rows {
		b.WriteString(fmt.Sprintf("%8s  %-24s %12s %12s\n", row[0], truncate(row[1], 24), row[2], row[3]))
	}
	b.WriteString(strings.Repeat("-", 60) + "\n")
	b.WriteString(fmt.Sprintf("%46s %12s\n", doc.GrandTotal.Label, doc.GrandTotal.Value))

	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
