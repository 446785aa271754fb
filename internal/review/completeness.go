// Package review holds the library-driven checks and the aggregation of all
// findings into a scored ReviewResult.
package review

import (
	"regexp"
	"strings"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
)

// CompletenessFindingType is the Finding.Type of the missing-chapters issue.
const CompletenessFindingType = library.CompletenessKey

var firstInteger = regexp.MustCompile(`\d+`)

// CompletenessChecker compares a document outline against the library's
// required chapters.
type CompletenessChecker struct {
	required []library.RequiredChapter
}

func NewCompletenessChecker(lib *library.Library) *CompletenessChecker {
	return &CompletenessChecker{required: lib.RequiredChapters()}
}

// Check matches every required chapter against the top-level chapter titles.
// The first title that matches wins.
func (c *CompletenessChecker) Check(chapters []models.Chapter) models.CompletenessResult {
	res := models.CompletenessResult{
		Found:   make([]string, 0, len(c.required)),
		Missing: make([]string, 0),
	}
	titles := models.Titles(chapters)
	for _, rc := range c.required {
		found := false
		for _, title := range titles {
			if matchRequired(rc, title) {
				found = true
				break
			}
		}
		if found {
			res.Found = append(res.Found, rc.Title)
		} else {
			res.Missing = append(res.Missing, rc.Title)
		}
	}
	if len(c.required) > 0 {
		res.CompletenessRate = float64(len(res.Found)) / float64(len(c.required))
	}
	res.Status = models.StatusPass
	if len(res.Missing) > 0 {
		res.Status = models.StatusFail
	}
	return res
}

// matchRequired reports whether title is the required chapter: both carry the
// same leading integer, or title contains every keyword of the bundle.
func matchRequired(rc library.RequiredChapter, title string) bool {
	want := firstInteger.FindString(rc.Title)
	got := firstInteger.FindString(title)
	if want != "" && got != "" && want == got {
		return true
	}
	return containsAll(title, rc.Keywords)
}

func containsAll(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}

// CompletenessFinding returns the issue describing missing chapters, if any.
func CompletenessFinding(res models.CompletenessResult) (models.Finding, bool) {
	if len(res.Missing) == 0 {
		return models.Finding{}, false
	}
	return models.Finding{
		Type:        CompletenessFindingType,
		Severity:    models.SeveritySevere,
		Description: "缺少必含章节：" + strings.Join(res.Missing, ", "),
		Suggestion:  "请补充缺失的章节内容",
	}, true
}
