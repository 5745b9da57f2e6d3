package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
)

// DefaultColumns is the slip width used by TextPrinter when none is configured.
const DefaultColumns = 40

// Printer renders a receipt.
type Printer interface {
	Print(r *Receipt) (string, error)
}

// TextPrinter renders a receipt as a fixed-width till slip.
type TextPrinter struct {
	Columns int
}

// NewTextPrinter returns a TextPrinter; columns must be positive.
func NewTextPrinter(columns int) (*TextPrinter, error) {
	if columns < 1 {
		return nil, fmt.Errorf("receipt: columns must be positive integer, but got %d", columns)
	}
	return &TextPrinter{Columns: columns}, nil
}

// Print implements Printer.
func (p *TextPrinter) Print(r *Receipt) (string, error) {
	total, err := r.TotalCents()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, it := range r.Items() {
		b.WriteString(p.line(it.Product.Name, formatCents(it.TotalPriceCents)))
		if !it.Quantity.Equal(decimal.NewFromInt(1)) {
			fmt.Fprintf(&b, "  %s * %s\n", formatCents(it.UnitPriceCents), formatQuantity(it.Product, it.Quantity))
		}
	}
	for _, d := range r.Discounts() {
		b.WriteString(p.line(fmt.Sprintf("%s (%s)", d.Description, d.Product.Name), formatCents(d.AmountCents)))
	}
	b.WriteString("\n")
	b.WriteString(p.line("Total: ", formatCents(total)))
	return b.String(), nil
}

// line pads name and value apart, keeping at least one space between them.
func (p *TextPrinter) line(name, value string) string {
	columns := p.Columns
	if columns < 1 {
		columns = DefaultColumns
	}
	name += " "
	pad := columns - len(name) - len(value)
	if pad < 0 {
		pad = 0
	}
	return name + strings.Repeat(" ", pad) + value + "\n"
}

var htmlReceipt = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Receipt</title>
    <style>
      table, td, th { border : 1px solid black; }
      table { margin-bottom: 10px; margin-top: 10px;}
      th { padding : 13px; }
      td { padding : 15px; }
    </style>
  </head>
  <body>
{{- if .Items}}
    <table>
      <tr>
        <th>Product name</th>
        <th>Unit price (EUR)</th>
        <th>Quantity</th>
        <th>Total price (EUR)</th>
      </tr>
{{- range .Items}}
      <tr>
        <td>{{.Name}}</td>
        <td>{{.UnitPrice}}</td>
        <td>{{.Quantity}}</td>
        <td>{{.TotalPrice}}</td>
      </tr>
{{- end}}
    </table>
{{- end}}
{{- if .Discounts}}
    <table>
      <tr>
        <th>Discount description</th>
        <th>Discount value (EUR)</th>
      </tr>
{{- range .Discounts}}
      <tr>
        <td>{{.Description}}</td>
        <td>{{.Amount}}</td>
      </tr>
{{- end}}
    </table>
{{- end}}
    <p>Total: {{.Total}}</p>
  </body>
</html>`))

type htmlItem struct {
	Name       string
	UnitPrice  string
	Quantity   string
	TotalPrice string
}

type htmlDiscount struct {
	Description string
	Amount      string
}

type htmlView struct {
	Items     []htmlItem
	Discounts []htmlDiscount
	Total     string
}

// HTMLPrinter renders a receipt as a standalone HTML page.
type HTMLPrinter struct{}

// Print implements Printer.
func (HTMLPrinter) Print(r *Receipt) (string, error) {
	total, err := r.TotalCents()
	if err != nil {
		return "", err
	}
	view := htmlView{Total: formatCents(total)}
	for _, it := range r.Items() {
		view.Items = append(view.Items, htmlItem{
			Name:       it.Product.Name,
			UnitPrice:  formatCents(it.UnitPriceCents),
			Quantity:   formatQuantity(it.Product, it.Quantity),
			TotalPrice: formatCents(it.TotalPriceCents),
		})
	}
	for _, d := range r.Discounts() {
		view.Discounts = append(view.Discounts, htmlDiscount{
			Description: d.Description,
			Amount:      formatCents(d.AmountCents),
		})
	}
	var buf bytes.Buffer
	if err := htmlReceipt.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("receipt: render html: %w", err)
	}
	return buf.String(), nil
}

func formatCents(c pricing.Money) string {
	return decimal.New(c, -2).StringFixed(2)
}

func formatQuantity(p catalog.Product, q pricing.Quantity) string {
	if p.Unit == catalog.Each {
		return q.StringFixed(0)
	}
	return q.StringFixed(3)
}
