package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page geometry for A4 portrait, in mm.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginX      = 15.0
	marginTop    = 15.0
	marginBottom = 18.0
	footerHeight = 12.0
)

// SerializeOptions tweaks PDF output.
type SerializeOptions struct {
	// Compress deflates page content streams. Disable to inspect output.
	Compress bool
	// CreatedAt fixes the document creation date.
	CreatedAt time.Time
}

// Serialize writes doc to w as a PDF. Body nodes are laid out top to bottom,
// starting a new page when the next node does not fit.
func Serialize(w io.Writer, doc *Document, opts SerializeOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layout engine panic: %v", r)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetCreator("gymdesk", false)
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
	}

	c := newCanvas(pdf)
	contentWidth := pageWidth - 2*marginX
	bottom := pageHeight - marginBottom
	if doc.Footer != nil {
		bottom -= footerHeight
		pdf.SetFooterFunc(func() {
			doc.Footer.draw(c, marginX, pageHeight-marginBottom-footerHeight+2, contentWidth)
		})
	}

	pdf.AddPage()
	y := marginTop
	for _, node := range doc.Body {
		h := node.measure(c, contentWidth)
		if y+h > bottom && y > marginTop {
			pdf.AddPage()
			y = marginTop
		}
		node.draw(c, marginX, y, contentWidth)
		y += h
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

// InvoiceDocument builds the layout tree for one invoice.
func InvoiceDocument(d InvoiceData) *Document {
	c := contentFor(d)

	brand := colorBrand
	stripe := colorStripe

	header := Box{
		Padding: 6,
		Fill:    &brand,
		Child: Row{
			Flex: []float64{3, 2},
			Children: []Node{
				Column{Gap: 1, Children: []Node{
					Text{Content: d.Gym.Name, Style: TextStyle{Size: 18, Bold: true, Color: colorWhite}},
					Text{Content: d.Gym.Address, Style: TextStyle{Size: 9, Color: colorWhite}},
				}},
				Column{Gap: 1, Children: []Node{
					Text{Content: "INVOICE", Style: TextStyle{Size: 18, Bold: true, Color: colorWhite, Align: AlignRight}},
					Text{Content: d.InvoiceNumber, Style: TextStyle{Size: 10, Color: colorWhite, Align: AlignRight}},
				}},
			},
		},
	}

	billTo := []Node{
		Text{Content: "BILL TO", Style: TextStyle{Size: 8, Bold: true, Color: colorMuted}},
		Text{Content: d.Client.Name, Style: TextStyle{Size: 11, Bold: true, Color: colorText}},
		Text{Content: d.Client.Email, Style: TextStyle{Size: 9, Color: colorText}},
	}
	if d.Client.Phone != "" {
		billTo = append(billTo, Text{Content: d.Client.Phone, Style: TextStyle{Size: 9, Color: colorText}})
	}

	details := Column{Gap: 1, Children: []Node{
		Text{Content: "INVOICE DETAILS", Style: TextStyle{Size: 8, Bold: true, Color: colorMuted, Align: AlignRight}},
		Text{Content: "Invoice no: " + d.InvoiceNumber, Style: TextStyle{Size: 9, Color: colorText, Align: AlignRight}},
		Text{Content: "Issued: " + c.IssuedOn, Style: TextStyle{Size: 9, Color: colorText, Align: AlignRight}},
		Text{Content: "Payment date: " + c.PaidOn, Style: TextStyle{Size: 9, Color: colorText, Align: AlignRight}},
	}}

	addresses := Row{Gap: 10, Children: []Node{Column{Gap: 1, Children: billTo}, details}}

	tableFlex := []float64{6, 1.5, 2.5}
	table := []Node{
		Box{Padding: 2.5, Fill: &stripe, Child: Row{Flex: tableFlex, Children: []Node{
			Text{Content: "Description", Style: TextStyle{Size: 9, Bold: true, Color: colorText}},
			Text{Content: "Months", Style: TextStyle{Size: 9, Bold: true, Color: colorText, Align: AlignCenter}},
			Text{Content: "Amount", Style: TextStyle{Size: 9, Bold: true, Color: colorText, Align: AlignRight}},
		}}},
	}
	for _, item := range c.Items {
		table = append(table,
			Box{Padding: 2.5, Child: Row{Flex: tableFlex, Children: []Node{
				Text{Content: item.Description, Style: TextStyle{Size: 10, Color: colorText}},
				Text{Content: strconv.Itoa(item.Months), Style: TextStyle{Size: 10, Color: colorText, Align: AlignCenter}},
				Text{Content: item.Amount, Style: TextStyle{Size: 10, Color: colorText, Align: AlignRight}},
			}}},
			Rule{Color: colorRule, Thickness: 0.2},
		)
	}

	var summary []Node
	for _, row := range c.Summary {
		style := TextStyle{Size: 10, Color: colorText}
		if row.Emphasis {
			style = TextStyle{Size: 12, Bold: true, Color: colorBrand}
			summary = append(summary, Rule{Color: colorRule, Thickness: 0.3})
		}
		label, value := style, style
		value.Align = AlignRight
		summary = append(summary, Row{Children: []Node{
			Text{Content: row.Label, Style: label},
			Text{Content: row.Value, Style: value},
		}})
	}

	bannerColor := colorWarning
	if c.Banner.Complete {
		bannerColor = colorSuccess
	}
	banner := Box{Padding: 4, Fill: &bannerColor, Child: Text{
		Content: c.Banner.Text,
		Style:   TextStyle{Size: 12, Bold: true, Color: colorWhite, Align: AlignCenter},
	}}

	footerLines := []Node{Text{Content: c.ThankYou, Style: TextStyle{Size: 9, Color: colorMuted, Align: AlignCenter}}}
	if c.ContactUs != "" {
		footerLines = append(footerLines, Text{Content: c.ContactUs, Style: TextStyle{Size: 8, Color: colorMuted, Align: AlignCenter}})
	}

	return &Document{
		Title:  c.Title,
		Author: d.Gym.Name,
		Body: []Node{
			header,
			Spacer{Height: 8},
			addresses,
			Spacer{Height: 8},
			Column{Children: table},
			Spacer{Height: 6},
			Row{Flex: []float64{1, 1}, Children: []Node{Spacer{}, Column{Gap: 1.5, Children: summary}}},
			Spacer{Height: 8},
			banner,
		},
		Footer: Column{Gap: 0.5, Children: footerLines},
	}
}

// DeclarativeRenderer renders invoices in-process from a layout tree.
type DeclarativeRenderer struct {
	compress bool
	now      func() time.Time
}

// NewDeclarativeRenderer returns a renderer producing compressed PDFs.
func NewDeclarativeRenderer() *DeclarativeRenderer {
	return &DeclarativeRenderer{compress: true, now: time.Now}
}

func (r *DeclarativeRenderer) Name() string { return "declarative" }

// Render builds and serializes the invoice document.
func (r *DeclarativeRenderer) Render(ctx context.Context, data InvoiceData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Renderer: r.Name(), Attempts: 1, Err: err}
	}

	var buf bytes.Buffer
	err := Serialize(&buf, InvoiceDocument(data), SerializeOptions{
		Compress:  r.compress,
		CreatedAt: r.now(),
	})
	if err != nil {
		return nil, &RenderError{Renderer: r.Name(), Attempts: 1, Err: err}
	}
	return buf.Bytes(), nil
}
