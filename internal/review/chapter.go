package review

import (
	"strings"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
)

// ChapterReviewer checks one chapter's text against the review points of the
// library entry its title resolves to.
type ChapterReviewer struct {
	lib      *library.Library
	chapters []library.Chapter
}

func NewChapterReviewer(lib *library.Library) *ChapterReviewer {
	return &ChapterReviewer{lib: lib, chapters: lib.Chapters()}
}

// Resolve maps a chapter title onto a library key: the exact key first, then
// the first entry whose keyword bundle is entirely contained in the title.
func (r *ChapterReviewer) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range r.chapters {
		if c.Key == name {
			return c.Key, true
		}
	}
	for _, c := range r.chapters {
		if containsAll(name, c.Keywords) {
			return c.Key, true
		}
	}
	return "", false
}

// Review checks text for every required item of the resolved entry. Missing
// items of severe points are issues, the rest are suggestions. A title that
// resolves to nothing yields StatusUnresolved.
func (r *ChapterReviewer) Review(name, text string) models.ChapterReview {
	cr := models.ChapterReview{
		ChapterName: name,
		Issues:      make([]models.Finding, 0),
		Suggestions: make([]models.Finding, 0),
	}
	key, ok := r.Resolve(name)
	if !ok {
		cr.Status = models.StatusUnresolved
		return cr
	}
	points, _ := r.lib.ByChapter(key)
	for _, p := range points {
		for _, item := range p.RequiredContent {
			if strings.Contains(text, item) {
				continue
			}
			f := models.Finding{
				Type:        p.Name,
				Item:        item,
				Severity:    p.Severity,
				Description: "缺少必含内容：" + item,
				Suggestion:  p.ReviewFocus,
			}
			if p.Severity == models.SeveritySevere {
				cr.Issues = append(cr.Issues, f)
			} else {
				cr.Suggestions = append(cr.Suggestions, f)
			}
		}
	}
	cr.Status = models.StatusPass
	if len(cr.Issues) > 0 {
		cr.Status = models.StatusFail
	}
	return cr
}
