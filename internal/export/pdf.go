package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"tailorkit/internal/config"
)

const (
	pdfMargin    = 15.0
	pdfTextWidth = 180.0

	defaultPDFFont       = "Helvetica"
	defaultPDFFontSize   = 11.0
	defaultPDFLineHeight = 5.5
)

// PDFWriter lays text out on A4 pages, wrapped at 180mm from a 15mm margin.
// Long text flows onto new pages.
type PDFWriter struct {
	Font       string
	FontSize   float64
	LineHeight float64
}

// NewPDFWriter creates a PDF writer, filling unset values with defaults
func NewPDFWriter(cfg config.ExportConfig) *PDFWriter {
	w := &PDFWriter{
		Font:       cfg.PDFFont,
		FontSize:   cfg.PDFFontSize,
		LineHeight: cfg.PDFLineHeight,
	}
	if w.Font == "" {
		w.Font = defaultPDFFont
	}
	if w.FontSize <= 0 {
		w.FontSize = defaultPDFFontSize
	}
	if w.LineHeight <= 0 {
		w.LineHeight = defaultPDFLineHeight
	}
	return w
}

func (p *PDFWriter) Write(w io.Writer, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf rendering panicked: %v", r)
		}
	}()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.AddPage()
	doc.SetFont(p.Font, "", p.FontSize)

	// core fonts are cp1252
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(pdfTextWidth, p.LineHeight, tr(text), "", "L", false)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
