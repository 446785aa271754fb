package models

// RuleKind selects what a pattern rule is matched against.
type RuleKind string

const (
	// RuleKindContent rules search the whole document text.
	RuleKindContent RuleKind = "content"
	// RuleKindChapter rules search the top-level chapter titles.
	RuleKindChapter RuleKind = "chapter"
)

// ParseRuleKind accepts the English and Chinese spellings. Unknown values are
// returned as-is so the rule engine can report them; empty means content.
func ParseRuleKind(s string) RuleKind {
	switch s {
	case "", "content", "内容检查":
		return RuleKindContent
	case "chapter", "章节检查":
		return RuleKindChapter
	default:
		return RuleKind(s)
	}
}

// UnmarshalText lets JSON and YAML payloads use either spelling.
func (k *RuleKind) UnmarshalText(text []byte) error {
	*k = ParseRuleKind(string(text))
	return nil
}

// PatternRule is a "must appear somewhere" regular-expression check.
type PatternRule struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        RuleKind `json:"kind" yaml:"kind"`
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Description string   `json:"description" yaml:"description"`
}

// ReviewPoint is a named check scoped to one canonical chapter.
type ReviewPoint struct {
	ChapterKey      string   `json:"chapter_key"`
	Name            string   `json:"name"`
	RequiredContent []string `json:"required_content"`
	ReviewFocus     string   `json:"review_focus"`
	Severity        Severity `json:"severity"`
}
