package pdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

// Color is an RGB triple in the 0-255 range.
type Color struct{ R, G, B int }

var (
	colorText    = Color{33, 37, 41}
	colorMuted   = Color{108, 117, 125}
	colorWhite   = Color{255, 255, 255}
	colorBrand   = Color{24, 48, 89}
	colorStripe  = Color{241, 243, 245}
	colorRule    = Color{206, 212, 218}
	colorSuccess = Color{25, 135, 84}
	colorWarning = Color{176, 94, 0}
)

// Align is a horizontal text alignment understood by fpdf.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// TextStyle describes how a Text node is drawn. Size is in points.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color Color
	Align Align
}

// Node is an element of the layout tree. Coordinates and widths are in mm.
type Node interface {
	measure(c *canvas, width float64) float64
	draw(c *canvas, x, y, width float64)
}

// Document is the root of a layout tree.
type Document struct {
	Title  string
	Author string
	Body   []Node
	Footer Node
}

// Text is a run of wrapped text.
type Text struct {
	Content string
	Style   TextStyle
}

// Column stacks children vertically.
type Column struct {
	Gap      float64
	Children []Node
}

// Row places children side by side. Flex holds relative widths; missing
// entries count as 1.
type Row struct {
	Gap      float64
	Flex     []float64
	Children []Node
}

// Box pads a child and optionally fills or outlines it.
type Box struct {
	Padding float64
	Fill    *Color
	Border  *Color
	Child   Node
}

// Spacer is empty vertical space.
type Spacer struct{ Height float64 }

// Rule is a horizontal line.
type Rule struct {
	Color     Color
	Thickness float64
}

const ptToMM = 0.3528

type canvas struct {
	pdf *fpdf.Fpdf
}

// newCanvas registers the embedded UTF-8 fonts on pdf.
func newCanvas(pdf *fpdf.Fpdf) *canvas {
	registerFonts(pdf)
	return &canvas{pdf: pdf}
}

func (c *canvas) setStyle(s TextStyle) {
	style := ""
	if s.Bold {
		style = "B"
	}
	size := s.Size
	if size == 0 {
		size = 10
	}
	c.pdf.SetFont(fontFamily, style, size)
	c.pdf.SetTextColor(s.Color.R, s.Color.G, s.Color.B)
}

func lineHeight(s TextStyle) float64 {
	size := s.Size
	if size == 0 {
		size = 10
	}
	return size * ptToMM * 1.45
}

// wrap breaks text into lines no wider than width using the
// current font metrics.
func (c *canvas) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if c.pdf.GetStringWidth(candidate) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

func (t Text) lines(c *canvas, width float64) []string {
	c.setStyle(t.Style)
	return c.wrap(t.Content, width)
}

func (t Text) measure(c *canvas, width float64) float64 {
	return float64(len(t.lines(c, width))) * lineHeight(t.Style)
}

func (t Text) draw(c *canvas, x, y, width float64) {
	lh := lineHeight(t.Style)
	align := string(t.Style.Align)
	if align == "" {
		align = string(AlignLeft)
	}
	for i, line := range t.lines(c, width) {
		c.pdf.SetXY(x, y+float64(i)*lh)
		c.pdf.CellFormat(width, lh, line, "", 0, align, false, 0, "")
	}
}

func (col Column) measure(c *canvas, width float64) float64 {
	var h float64
	for i, child := range col.Children {
		if i > 0 {
			h += col.Gap
		}
		h += child.measure(c, width)
	}
	return h
}

func (col Column) draw(c *canvas, x, y, width float64) {
	for i, child := range col.Children {
		if i > 0 {
			y += col.Gap
		}
		child.draw(c, x, y, width)
		y += child.measure(c, width)
	}
}

func (r Row) widths(width float64) []float64 {
	n := len(r.Children)
	if n == 0 {
		return nil
	}
	avail := width - r.Gap*float64(n-1)
	var total float64
	flex := make([]float64, n)
	for i := range flex {
		flex[i] = 1
		if i < len(r.Flex) && r.Flex[i] > 0 {
			flex[i] = r.Flex[i]
		}
		total += flex[i]
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = avail * flex[i] / total
	}
	return out
}

func (r Row) measure(c *canvas, width float64) float64 {
	var h float64
	for i, w := range r.widths(width) {
		h = max(h, r.Children[i].measure(c, w))
	}
	return h
}

func (r Row) draw(c *canvas, x, y, width float64) {
	for i, w := range r.widths(width) {
		r.Children[i].draw(c, x, y, w)
		x += w + r.Gap
	}
}

func (b Box) measure(c *canvas, width float64) float64 {
	if b.Child == nil {
		return 2 * b.Padding
	}
	return b.Child.measure(c, width-2*b.Padding) + 2*b.Padding
}

func (b Box) draw(c *canvas, x, y, width float64) {
	h := b.measure(c, width)
	style := ""
	if b.Fill != nil {
		c.pdf.SetFillColor(b.Fill.R, b.Fill.G, b.Fill.B)
		style += "F"
	}
	if b.Border != nil {
		c.pdf.SetDrawColor(b.Border.R, b.Border.G, b.Border.B)
		c.pdf.SetLineWidth(0.3)
		style += "D"
	}
	if style != "" {
		c.pdf.Rect(x, y, width, h, style)
	}
	if b.Child != nil {
		b.Child.draw(c, x+b.Padding, y+b.Padding, width-2*b.Padding)
	}
}

func (s Spacer) measure(*canvas, float64) float64 { return s.Height }

func (s Spacer) draw(*canvas, float64, float64, float64) {}

func (r Rule) measure(*canvas, float64) float64 { return r.Thickness + 2 }

func (r Rule) draw(c *canvas, x, y, width float64) {
	c.pdf.SetDrawColor(r.Color.R, r.Color.G, r.Color.B)
	c.pdf.SetLineWidth(r.Thickness)
	c.pdf.Line(x, y+1, x+width, y+1)
}
