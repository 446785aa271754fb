package review

import (
	"fmt"
	"math"
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

// Score deductions.
const (
	completenessWeight = 30
	severeDeduction    = 5
	generalDeduction   = 2
)

// Aggregate merges the three checks into one result. Issues are the
// completeness finding, then chapter issues, then rule findings. The
// completeness finding costs nothing beyond the rate term.
func Aggregate(completeness models.CompletenessResult, chapterReviews []models.ChapterReview, ruleFindings []models.Finding) models.ReviewResult {
	res := models.ReviewResult{
		Completeness:   completeness,
		ChapterReviews: chapterReviews,
		Issues:         make([]models.Finding, 0),
		Suggestions:    make([]models.Finding, 0),
	}
	if res.ChapterReviews == nil {
		res.ChapterReviews = make([]models.ChapterReview, 0)
	}

	var deducted []models.Finding
	if f, ok := CompletenessFinding(completeness); ok {
		res.Issues = append(res.Issues, f)
	}
	for _, cr := range chapterReviews {
		res.Issues = append(res.Issues, cr.Issues...)
		res.Suggestions = append(res.Suggestions, cr.Suggestions...)
		deducted = append(deducted, cr.Issues...)
	}
	res.Issues = append(res.Issues, ruleFindings...)
	deducted = append(deducted, ruleFindings...)

	res.Score = Score(completeness.CompletenessRate, deducted)
	res.Summary = Summary(res.Score, res.Issues, res.Suggestions)
	return res
}

// Score is 100 minus 30 times the missing share of required chapters, 5 per
// severe and 2 per general finding, floored at zero and truncated.
func Score(rate float64, findings []models.Finding) int {
	rate = math.Max(0, math.Min(1, rate))
	severe, general := models.CountBySeverity(findings)
	score := 100 - (1-rate)*completenessWeight - float64(severe*severeDeduction) - float64(general*generalDeduction)
	if score <= 0 {
		return 0
	}
	// Absorb float noise such as 96.99999999999999 for a 0.9 rate.
	return int(math.Floor(score + 1e-9))
}

// Summary renders the short plain-text review summary.
func Summary(score int, issues, suggestions []models.Finding) string {
	severe, general := models.CountBySeverity(issues)
	var b strings.Builder
	fmt.Fprintf(&b, "审核得分：%d分\n\n", score)
	fmt.Fprintf(&b, "发现严重问题：%d项\n", severe)
	fmt.Fprintf(&b, "发现一般问题：%d项\n", general)
	fmt.Fprintf(&b, "优化建议：%d项\n\n", len(suggestions))
	switch models.VerdictFor(score) {
	case models.VerdictPass:
		b.WriteString("总体评价：方案基本符合要求，建议根据审核意见进行优化。")
	case models.VerdictConditionalPass:
		b.WriteString("总体评价：方案存在较多问题，需要重点整改。")
	default:
		b.WriteString("总体评价：方案存在严重缺陷，必须进行重大修改。")
	}
	return b.String()
}
