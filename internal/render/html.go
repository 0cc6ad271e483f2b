package render

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{- with .Company}}
<header>
  {{- if .Name}}<h2>{{.Name}}</h2>{{end}}
  {{- if .Address}}<p>{{.Address}}</p>{{end}}
  {{- if .Phone}}<p>{{.Phone}}</p>{{end}}
  {{- if .Email}}<p>{{.Email}}</p>{{end}}
</header>
{{- end}}
<h1>{{.Title}}</h1>
<dl>
{{- range .Metadata}}
  <dt>{{.Label}}</dt><dd>{{.Value}}</dd>
{{- end}}
</dl>
<table border="1" style="width:100%; border-collapse: collapse;">
  <tr>{{range .Table.Header}}<th>{{.}}</th>{{end}}</tr>
{{- range .Table.Rows}}
  <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
<h2>{{.GrandTotal.Label}}: {{.GrandTotal.Value}}</h2>
</body>
</html>
`))

// HTML serializes the document. Every value is escaped.
func HTML(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render invoice html: %w", err)
	}
	return buf.String(), nil
}
