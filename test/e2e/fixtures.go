// Package e2e runs the review workflow end to end over proposals written in
// every generated upload format.
package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions is the list of upload formats the fixtures produce.
// PDF is not generated here: CJK text needs an embedded font to be extractable.
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx"}

// WriteProposal renders text in the format of ext, one paragraph (or sheet
// row) per line.
func WriteProposal(ext, text string) ([]byte, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	switch ext {
	case ".txt", ".md":
		return []byte(text), nil
	case ".docx":
		return minimalDocx(lines)
	case ".xlsx":
		return minimalXlsx(lines)
	default:
		return nil, fmt.Errorf("no fixture writer for %s", ext)
	}
}

func minimalDocx(lines []string) ([]byte, error) {
	var body bytes.Buffer
	for _, line := range lines {
		body.WriteString(`<w:p><w:r><w:t>`)
		if err := xml.EscapeText(&body, []byte(line)); err != nil {
			return nil, err
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		return nil, err
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	if _, err := fw.Write([]byte(doc)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func minimalXlsx(lines []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue("Sheet1", cell, line); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
