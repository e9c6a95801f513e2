package pdf

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templateFS, "templates/invoice.html"))

type htmlView struct {
	InvoiceData
	Content content
}

// InvoiceHTML renders the printable HTML page for d.
func InvoiceHTML(d InvoiceData) (string, error) {
	var buf bytes.Buffer
	view := htmlView{InvoiceData: d, Content: contentFor(d)}
	if err := invoiceTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute invoice template: %w", err)
	}
	return buf.String(), nil
}
