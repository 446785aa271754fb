package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wordNamespace is the WordprocessingML namespace.
const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the named entry, or nil when it does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// extractDOCX extracts body paragraphs, one per line, and tables from .docx
// bytes. Table text is returned in Tables only, so headings in the body keep
// their own lines for segmentation.
func extractDOCX(content []byte) (models.ParsedDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	// Find main document path from [Content_Types].xml, fall back to default
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return models.ParsedDocument{}, fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	paragraphs, tables, err := parseDocumentXML(docXML)
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("extract DOCX: %w", err)
	}
	return models.ParsedDocument{
		Content:        strings.Join(paragraphs, "\n"),
		Tables:         tables,
		ParagraphCount: len(paragraphs),
	}, nil
}

type tableBuilder struct {
	rows [][]string
	row  []string
	cell []string
}

func isWord(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == wordNamespace || n.Space == "w")
}

// parseDocumentXML walks document.xml and returns the non-empty body
// paragraphs and the top-level tables. Nested tables are flattened into the
// enclosing cell; paragraphs nested in text boxes join their host paragraph.
func parseDocumentXML(data []byte) ([]string, [][][]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		paragraphs []string
		tables     [][][]string
		stack      []*tableBuilder
		cur        strings.Builder
		pDepth     int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case isWord(el.Name, "p"):
				pDepth++
				if pDepth == 1 {
					cur.Reset()
				}
			case isWord(el.Name, "t"):
				inText = true
			case isWord(el.Name, "tab"):
				if pDepth > 0 {
					cur.WriteByte('\t')
				}
			case isWord(el.Name, "br"), isWord(el.Name, "cr"):
				if pDepth > 0 {
					cur.WriteByte('\n')
				}
			case isWord(el.Name, "tbl"):
				stack = append(stack, &tableBuilder{})
			case isWord(el.Name, "tr"):
				if len(stack) > 0 {
					stack[len(stack)-1].row = nil
				}
			case isWord(el.Name, "tc"):
				if len(stack) > 0 {
					stack[len(stack)-1].cell = nil
				}
			}
		case xml.CharData:
			if inText && pDepth > 0 {
				cur.Write(el)
			}
		case xml.EndElement:
			switch {
			case isWord(el.Name, "t"):
				inText = false
			case isWord(el.Name, "p"):
				pDepth--
				if pDepth > 0 {
					cur.WriteByte('\n')
					continue
				}
				text := strings.TrimSpace(cur.String())
				cur.Reset()
				if text == "" {
					continue
				}
				if len(stack) > 0 {
					tb := stack[len(stack)-1]
					tb.cell = append(tb.cell, text)
				} else {
					paragraphs = append(paragraphs, text)
				}
			case isWord(el.Name, "tc"):
				if len(stack) > 0 {
					tb := stack[len(stack)-1]
					tb.row = append(tb.row, strings.Join(tb.cell, "\n"))
				}
			case isWord(el.Name, "tr"):
				if len(stack) > 0 {
					tb := stack[len(stack)-1]
					tb.rows = append(tb.rows, tb.row)
				}
			case isWord(el.Name, "tbl"):
				if len(stack) == 0 {
					continue
				}
				tb := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					if len(tb.rows) > 0 {
						tables = append(tables, tb.rows)
					}
					continue
				}
				parent := stack[len(stack)-1]
				for _, row := range tb.rows {
					parent.cell = append(parent.cell, strings.Join(row, "\t"))
				}
			}
		}
	}
	return paragraphs, tables, nil
}
