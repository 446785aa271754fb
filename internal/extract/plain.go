package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/planreview/internal/models"
)

// extractPlain returns content as a document, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character and a
// leading byte order mark is dropped.
func extractPlain(content []byte) (models.ParsedDocument, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "\ufffd"))
	}
	text := strings.TrimPrefix(string(content), "\ufeff")
	return models.ParsedDocument{
		Content:        text,
		ParagraphCount: countParagraphs(text),
	}, nil
}
