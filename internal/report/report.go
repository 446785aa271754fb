// Package report turns a ReviewResult into the structured review report and
// renders it as JSON, plain text or PDF.
package report

import (
	"time"

	"github.com/hyperjump/planreview/internal/models"
)

const (
	// Title is the fixed report title.
	Title = "技术方案审核报告"
	// UnknownProject names reports built without a project name.
	UnknownProject = "未知项目"

	timeLayout = "2006-01-02 15:04:05"
)

// Issue group categories.
const (
	CategorySevere  = "严重问题"
	CategoryGeneral = "一般问题"
)

// ProjectInfo identifies the project a report belongs to.
type ProjectInfo struct {
	Name string `json:"name"`
	Type string `json:"project_type"`
}

type Info struct {
	Title        string `json:"title"`
	GenerateTime string `json:"generate_time"`
	ProjectName  string `json:"project_name"`
	ProjectType  string `json:"project_type"`
}

type Summary struct {
	Score         int `json:"score"`
	TotalIssues   int `json:"total_issues"`
	SevereIssues  int `json:"severe_issues"`
	GeneralIssues int `json:"general_issues"`
	Suggestions   int `json:"suggestions"`
}

// IssueGroup is one severity category of the issue list.
type IssueGroup struct {
	Category string           `json:"category"`
	Items    []models.Finding `json:"items"`
}

type Conclusion struct {
	Verdict     models.Verdict `json:"verdict"`
	Label       string         `json:"conclusion"`
	Description string         `json:"description"`
	NextSteps   []string       `json:"next_steps"`
}

// Report is the rendered review of one document.
type Report struct {
	Info           Info                      `json:"report_info"`
	Summary        Summary                   `json:"review_summary"`
	Completeness   models.CompletenessResult `json:"completeness_check"`
	ChapterReviews []models.ChapterReview    `json:"chapter_reviews"`
	Issues         []IssueGroup              `json:"issues_list"`
	Suggestions    []models.Finding          `json:"suggestions_list"`
	Conclusion     Conclusion                `json:"conclusion"`
}

var (
	conclusionText = map[models.Verdict]string{
		models.VerdictPass:            "方案基本符合要求，建议根据审核意见进行优化完善。",
		models.VerdictConditionalPass: "方案存在一些问题，需要根据审核意见进行整改后重新提交审核。",
		models.VerdictFail:            "方案存在严重缺陷，必须进行重大修改后重新提交审核。",
	}
	nextSteps = map[models.Verdict][]string{
		models.VerdictPass:            {"根据审核建议进行方案优化", "准备相关支撑材料", "提交最终版本"},
		models.VerdictConditionalPass: {"重点整改严重问题", "完善一般问题", "重新提交审核"},
		models.VerdictFail:            {"全面梳理方案内容", "补充缺失的关键章节", "完善安全、质量保证措施", "重新编制后提交审核"},
	}
)

// NextSteps returns the recommended next steps for a verdict.
func NextSteps(v models.Verdict) []string {
	return append([]string(nil), nextSteps[v]...)
}

// Builder builds reports. The zero value is not usable; use NewBuilder.
type Builder struct {
	now func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock replaces time.Now as the source of the generation time.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders result for project.
func (b *Builder) Build(result models.ReviewResult, project ProjectInfo) Report {
	name := project.Name
	if name == "" {
		name = UnknownProject
	}
	severe, general := models.CountBySeverity(result.Issues)
	verdict := models.VerdictFor(result.Score)

	r := Report{
		Info: Info{
			Title:        Title,
			GenerateTime: b.now().Format(timeLayout),
			ProjectName:  name,
			ProjectType:  project.Type,
		},
		Summary: Summary{
			Score:         result.Score,
			TotalIssues:   len(result.Issues),
			SevereIssues:  severe,
			GeneralIssues: general,
			Suggestions:   len(result.Suggestions),
		},
		Completeness:   result.Completeness,
		ChapterReviews: result.ChapterReviews,
		Issues:         groupIssues(result.Issues),
		Suggestions:    result.Suggestions,
		Conclusion: Conclusion{
			Verdict:     verdict,
			Label:       verdict.Label(),
			Description: conclusionText[verdict],
			NextSteps:   NextSteps(verdict),
		},
	}
	if r.ChapterReviews == nil {
		r.ChapterReviews = []models.ChapterReview{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []models.Finding{}
	}
	return r
}

func groupIssues(issues []models.Finding) []IssueGroup {
	groups := make([]IssueGroup, 0, 2)
	var severe, general []models.Finding
	for _, f := range issues {
		switch f.Severity {
		case models.SeveritySevere:
			severe = append(severe, f)
		case models.SeverityGeneral:
			general = append(general, f)
		}
	}
	if len(severe) > 0 {
		groups = append(groups, IssueGroup{Category: CategorySevere, Items: severe})
	}
	if len(general) > 0 {
		groups = append(groups, IssueGroup{Category: CategoryGeneral, Items: general})
	}
	return groups
}
