package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/planreview/internal/models"
)

func extractPDF(content []byte) (models.ParsedDocument, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return models.ParsedDocument{}, fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	text := buf.String()
	return models.ParsedDocument{
		Content:        text,
		PageCount:      numPages,
		ParagraphCount: countParagraphs(text),
	}, nil
}
