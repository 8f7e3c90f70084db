package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Letter page, one-inch margins, label and value columns of 2.5 and 3.5
// inches.
const (
	pdfMargin     = 72.0
	pdfLabelWidth = 180.0
	pdfValueWidth = 252.0
	pdfLineHeight = 13.0
	pdfRowGap     = 3.0
)

var (
	pdfHeadingFill = [3]int{245, 245, 245}
	pdfMutedText   = [3]int{128, 128, 128}
)

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// renderPDF lays doc out as a paginated letter-size PDF with a running
// header (title, generation time) and footer (confidentiality line, page
// x of y).
func renderPDF(w io.Writer, doc Document, compress bool) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AliasNbPages("")
	pw := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("intake", true)
	pdf.SetHeaderFunc(func() { pw.header(doc) })
	pdf.SetFooterFunc(func() { pw.footer(doc) })

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 24, pw.tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	for _, page := range doc.Pages {
		pw.page(page)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	return nil
}

func (pw *pdfWriter) header(doc Document) {
	pdf := pw.pdf
	width, _ := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(pdfMargin, pdfMargin*0.75-8)
	pdf.CellFormat(width/2-pdfMargin, 10, pw.tr(doc.Title), "", 0, "L", false, 0, "")
	pdf.CellFormat(width/2-pdfMargin, 10, pw.tr(doc.Generated), "", 0, "R", false, 0, "")
	pdf.SetXY(pdfMargin, pdfMargin)
}

func (pw *pdfWriter) footer(doc Document) {
	pdf := pw.pdf
	width, height := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(pdfMargin, height-pdfMargin*0.75)
	pdf.CellFormat(width/2-pdfMargin, 10, pw.tr(doc.Footer), "", 0, "L", false, 0, "")
	pdf.CellFormat(width/2-pdfMargin, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (pw *pdfWriter) page(page Page) {
	pdf := pw.pdf
	pw.keep(2*pdfLineHeight + 12)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(pdfHeadingFill[0], pdfHeadingFill[1], pdfHeadingFill[2])
	pdf.CellFormat(pdfLabelWidth+pdfValueWidth, 20, pw.tr(page.Title), "", 1, "L", true, 0, "")
	pdf.Ln(4)

	for _, block := range page.Blocks {
		if block.Heading != "" {
			pw.keep(2 * pdfLineHeight)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 16, pw.tr(block.Heading), "", 1, "L", false, 0, "")
		}
		if block.Note != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(pdfMutedText[0], pdfMutedText[1], pdfMutedText[2])
			for _, line := range pw.wrap(block.Note, pdfLabelWidth+pdfValueWidth) {
				pw.keep(pdfLineHeight)
				pdf.CellFormat(0, pdfLineHeight, line, "", 1, "L", false, 0, "")
			}
			pdf.SetTextColor(0, 0, 0)
		}
		for _, row := range block.Rows {
			pw.row(row)
		}
		pdf.Ln(4)
	}
}

// row draws a label/value pair, wrapping both columns and keeping the pair
// on one page.
func (pw *pdfWriter) row(row Row) {
	pdf := pw.pdf

	pdf.SetFont("Helvetica", "B", 10)
	labels := pw.wrap(row.Label, pdfLabelWidth-6)

	valueStyle := ""
	if row.Missing {
		valueStyle = "I"
	}
	pdf.SetFont("Helvetica", valueStyle, 10)
	values := pw.wrap(row.Value, pdfValueWidth)

	lines := len(labels)
	if len(values) > lines {
		lines = len(values)
	}
	if lines == 0 {
		lines = 1
	}
	pw.keep(float64(lines) * pdfLineHeight)

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	for idx, line := range labels {
		pdf.SetXY(pdfMargin, top+float64(idx)*pdfLineHeight)
		pdf.CellFormat(pdfLabelWidth, pdfLineHeight, line, "", 0, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", valueStyle, 10)
	if row.Missing {
		pdf.SetTextColor(pdfMutedText[0], pdfMutedText[1], pdfMutedText[2])
	}
	for idx, line := range values {
		pdf.SetXY(pdfMargin+pdfLabelWidth, top+float64(idx)*pdfLineHeight)
		pdf.CellFormat(pdfValueWidth, pdfLineHeight, line, "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(pdfMargin, top+float64(lines)*pdfLineHeight+pdfRowGap)
}

// wrap splits text into encoded lines no wider than width in the current
// font. SplitText indexes glyph widths by rune, so the cp1252 bytes are
// widened to runes for measuring and narrowed back afterwards.
func (pw *pdfWriter) wrap(text string, width float64) []string {
	encoded := []byte(pw.tr(text))
	wide := make([]rune, len(encoded))
	for idx, b := range encoded {
		wide[idx] = rune(b)
	}
	var lines []string
	for _, line := range pw.pdf.SplitText(string(wide), width) {
		narrow := make([]byte, 0, len(line))
		for _, r := range line {
			narrow = append(narrow, byte(r))
		}
		lines = append(lines, string(narrow))
	}
	return lines
}

// keep starts a new page when height would cross the bottom margin.
func (pw *pdfWriter) keep(height float64) {
	_, pageHeight := pw.pdf.GetPageSize()
	if pw.pdf.GetY()+height > pageHeight-pdfMargin {
		pw.pdf.AddPage()
	}
}
