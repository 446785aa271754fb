package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions configures PDF export. FontPath points to a UTF-8 TrueType font;
// without one the core Helvetica font is used and CJK text does not render.
type PDFOptions struct {
	FontPath string
}

const pdfFontFamily = "report"

// WritePDF renders the text layout of r as an A4 PDF.
func WritePDF(w io.Writer, r Report, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", opts.FontPath)
		if pdf.Err() {
			return fmt.Errorf("failed to load PDF font: %w", pdf.Error())
		}
		family = pdfFontFamily
		translate = func(s string) string { return s }
	}
	pdf.SetTitle(r.Info.Title, true)
	pdf.SetFont(family, "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(Text(r)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s := strings.TrimSpace(line)
		switch {
		case s == "":
			pdf.Ln(4)
		case strings.Trim(s, "=") == "":
			pdf.Ln(2)
		case s == r.Info.Title:
			pdf.SetFontSize(16)
			pdf.CellFormat(0, 10, translate(s), "", 1, "C", false, 0, "")
			pdf.SetFontSize(11)
		case isSectionHeading(s):
			pdf.SetFontSize(13)
			pdf.CellFormat(0, 8, translate(s), "", 1, "L", false, 0, "")
			pdf.SetFontSize(11)
		default:
			pdf.MultiCell(0, 6, translate(line), "", "L", false)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func isSectionHeading(s string) bool {
	for _, prefix := range []string{"一、", "二、", "三、", "四、"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
