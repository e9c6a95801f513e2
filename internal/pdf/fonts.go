package pdf

import (
	_ "embed"

	"github.com/go-pdf/fpdf"
)

// DejaVu Sans Condensed covers U+20B9, so amounts print with the rupee sign.
const fontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte

	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

func registerFonts(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fontBold)
}
