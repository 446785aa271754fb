// Package extract turns uploaded proposal files into the flat text stream and
// table data the review pipeline works on.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

// Extractor extracts text and tables from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its parsed content.
// For plain text files (.txt, .md), content is returned as-is (UTF-8 validated).
// For PDF, DOCX and Excel, text is extracted from the binary format.
// Returns an error if the file cannot be read or decoded.
func (e *Extractor) Extract(path string) (models.ParsedDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.ParsedDocument{}, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (models.ParsedDocument, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		// .txt, .md and unknown extensions are treated as plain text.
		return extractPlain(content)
	}
}

// countParagraphs counts the non-empty lines of text.
func countParagraphs(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
