package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/planreview/internal/models"
)

// extractExcel returns one table per sheet. The text content lists every row
// with cells separated by tabs.
func extractExcel(content []byte) (models.ParsedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var (
		buf    strings.Builder
		tables [][][]string
	)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return models.ParsedDocument{}, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, rows)
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	text := strings.TrimSpace(buf.String())
	return models.ParsedDocument{
		Content:        text,
		Tables:         tables,
		ParagraphCount: countParagraphs(text),
	}, nil
}
