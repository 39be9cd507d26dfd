package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is one label/value line on a form.
type Field struct {
	Label string
	Value string
}

// Section groups form lines under a heading.
type Section struct {
	Title string
	Lines []string
}

// Form describes a single-record PDF such as a printed application.
type Form struct {
	Title     string
	Fields    []Field
	Sections  []Section
	Photo     []byte
	PhotoType string // "jpg" or "png"
}

// PDFExporter renders datasets and forms with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape PDF with an optional title and a table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := 277.0 / float64(len(data.Headers))
	writeHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	writeHeader()
	_, pageHeight := pdf.GetPageSize()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-15 {
			pdf.AddPage()
			writeHeader()
		}
		for i := range data.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(colWidth, 7, tr(truncate(value, 40)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// RenderForm creates a portrait A4 form with the photo at the top right when present.
func (e *PDFExporter) RenderForm(form Form) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(140, 10, tr(form.Title), "", 1, "L", false, 0, "")

	if len(form.Photo) > 0 {
		imageType := strings.ToUpper(form.PhotoType)
		if imageType == "JPEG" {
			imageType = "JPG"
		}
		opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
		// An undecodable photo is left out rather than failing the whole form.
		pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(form.Photo))
		if pdf.Ok() {
			pdf.ImageOptions("photo", 160, 18, 32, 0, false, opts, 0, "")
		} else {
			pdf.ClearError()
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	for _, f := range form.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, tr(f.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(f.Value), "", 1, "L", false, 0, "")
	}

	for _, s := range form.Sections {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(s.Title), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if len(s.Lines) == 0 {
			pdf.CellFormat(0, 6, "-", "", 1, "L", false, 0, "")
		}
		for _, line := range s.Lines {
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "~"
}
