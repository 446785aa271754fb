package review

import (
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/internal/segment"
)

// RuleEvaluator is satisfied by *rules.Engine.
type RuleEvaluator interface {
	Evaluate(text string, chapters []models.Chapter) rules.Evaluation
}

// Outcome is everything one pipeline run produces. Rules is nil when rule
// review was skipped.
type Outcome struct {
	Chapters []models.Chapter    `json:"chapters"`
	Result   models.ReviewResult `json:"result"`
	Rules    *rules.Evaluation   `json:"rules,omitempty"`
}

// Pipeline runs segmentation, completeness, chapter review and rule
// evaluation over one document and aggregates the findings.
type Pipeline struct {
	completeness *CompletenessChecker
	chapters     *ChapterReviewer
	logger       *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func NewPipeline(lib *library.Library, opts ...Option) *Pipeline {
	p := &Pipeline{
		completeness: NewCompletenessChecker(lib),
		chapters:     NewChapterReviewer(lib),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Review reviews doc. Chapters are segmented from doc.Content when the
// document carries none. A nil evaluator skips rule review.
func (p *Pipeline) Review(doc models.ParsedDocument, evaluator RuleEvaluator) Outcome {
	chapters := doc.Chapters
	if chapters == nil {
		chapters = segment.Segment(doc.Content)
	}

	completeness := p.completeness.Check(chapters)

	reviews := make([]models.ChapterReview, 0, len(chapters))
	for _, ch := range chapters {
		text := ch.Content
		if text == "" {
			text = ch.Title
		}
		reviews = append(reviews, p.chapters.Review(ch.Title, text))
	}

	out := Outcome{Chapters: chapters}
	var ruleFindings []models.Finding
	if evaluator != nil {
		ev := evaluator.Evaluate(doc.Content, chapters)
		for _, r := range ev.Errors() {
			p.logger.Warn("Rule could not be evaluated",
				zap.String("rule", r.Rule.Name),
				zap.Error(r.Err))
		}
		ruleFindings = ev.Findings()
		out.Rules = &ev
	}

	out.Result = Aggregate(completeness, reviews, ruleFindings)
	p.logger.Debug("Document reviewed",
		zap.Int("chapters", len(chapters)),
		zap.Float64("completeness_rate", completeness.CompletenessRate),
		zap.Int("issues", len(out.Result.Issues)),
		zap.Int("score", out.Result.Score))
	return out
}
