package models

// Chapter is a node of the segmented document outline. Level 1 entries are
// chapters and carry their sections; level 2 entries never have sections.
type Chapter struct {
	Title      string    `json:"title"`
	Level      int       `json:"level"`
	LineNumber int       `json:"line_number"`
	Sections   []Chapter `json:"sections,omitempty"`
	Content    string    `json:"content,omitempty"`
}

// Titles returns the titles of the given chapters in order.
func Titles(chapters []Chapter) []string {
	out := make([]string, len(chapters))
	for i, ch := range chapters {
		out[i] = ch.Title
	}
	return out
}

// ParsedDocument is what ingestion hands to the review pipeline. When Chapters
// is nil the pipeline segments Content itself. Tables are carried for display
// only and are not reviewed.
type ParsedDocument struct {
	Content        string       `json:"content"`
	Chapters       []Chapter    `json:"chapters,omitempty"`
	Tables         [][][]string `json:"tables,omitempty"`
	PageCount      int          `json:"page_count,omitempty"`
	ParagraphCount int          `json:"paragraph_count,omitempty"`
}
