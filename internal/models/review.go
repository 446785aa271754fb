package models

// CheckStatus is the outcome of a completeness or chapter check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
	// StatusUnresolved marks a chapter that maps to no library entry. It is
	// neither a pass nor a fail.
	StatusUnresolved CheckStatus = "unresolved"
)

// CompletenessResult reports which canonical chapters were found.
type CompletenessResult struct {
	Status           CheckStatus `json:"status"`
	Found            []string    `json:"found_chapters"`
	Missing          []string    `json:"missing_chapters"`
	CompletenessRate float64     `json:"completeness_rate"`
}

// ChapterReview is the content review of one segmented chapter.
type ChapterReview struct {
	ChapterName string      `json:"chapter_name"`
	Status      CheckStatus `json:"status"`
	Issues      []Finding   `json:"issues"`
	Suggestions []Finding   `json:"suggestions"`
}

// ReviewResult is the aggregate of one review invocation.
type ReviewResult struct {
	Score          int                `json:"score"`
	Completeness   CompletenessResult `json:"completeness"`
	ChapterReviews []ChapterReview    `json:"chapter_reviews"`
	Issues         []Finding          `json:"issues"`
	Suggestions    []Finding          `json:"suggestions"`
	Summary        string             `json:"summary"`
}

// Verdict is derived from the score alone.
type Verdict string

const (
	VerdictPass            Verdict = "pass"
	VerdictConditionalPass Verdict = "conditional pass"
	VerdictFail            Verdict = "fail"
)

// Score thresholds for verdicts.
const (
	PassScore        = 80
	ConditionalScore = 60
)

// VerdictFor maps a score onto a verdict.
func VerdictFor(score int) Verdict {
	switch {
	case score >= PassScore:
		return VerdictPass
	case score >= ConditionalScore:
		return VerdictConditionalPass
	default:
		return VerdictFail
	}
}

// Label returns the Chinese label shown in reports.
func (v Verdict) Label() string {
	switch v {
	case VerdictPass:
		return "通过"
	case VerdictConditionalPass:
		return "有条件通过"
	default:
		return "不通过"
	}
}

// ProjectStatus returns the project status recorded after a review with this verdict.
func (v Verdict) ProjectStatus() string {
	switch v {
	case VerdictPass:
		return "审核通过"
	case VerdictConditionalPass:
		return "有条件通过"
	default:
		return "审核不通过"
	}
}
