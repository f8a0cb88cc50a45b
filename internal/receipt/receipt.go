// Package receipt builds the printable checkout document.
package receipt

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/miamore/storefront/internal/cart"
)

//go:embed receipt.html.tmpl
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "receipt.html.tmpl"))

type row struct {
	Label    string
	Extended string
}

type document struct {
	Rows     []row
	Subtotal string
	Total    string
}

// Render produces a self-contained printable HTML document for the given
// line items and subtotal. It is pure: no store access, no clock, and
// identical inputs always yield identical output. Total equals subtotal;
// there is no delivery fee or tax.
func Render(items []cart.LineItem, subtotal int64) (string, error) {
	doc := document{
		Rows:     make([]row, 0, len(items)),
		Subtotal: FormatCents(subtotal),
		Total:    FormatCents(subtotal),
	}
	for _, it := range items {
		doc.Rows = append(doc.Rows, row{
			Label:    fmt.Sprintf("%s x%d", it.Name, it.Qty),
			Extended: FormatCents(it.Price * it.Qty),
		})
	}
	var b strings.Builder
	if err := receiptTemplate.Execute(&b, doc); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return b.String(), nil
}

// FormatCents renders a cent amount as a dollar string, e.g. 1100 -> "$11.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
