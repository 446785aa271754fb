package review

import (
	"strings"
	"testing"

	"github.com/hyperjump/planreview/internal/models"
)

func findings(severe, general int) []models.Finding {
	var out []models.Finding
	for i := 0; i < severe; i++ {
		out = append(out, models.Finding{Type: "t", Severity: models.SeveritySevere})
	}
	for i := 0; i < general; i++ {
		out = append(out, models.Finding{Type: "t", Severity: models.SeverityGeneral})
	}
	return out
}

func TestAggregate_conditionalPass(t *testing.T) {
	completeness := models.CompletenessResult{
		Status:           models.StatusFail,
		Found:            []string{"a"},
		Missing:          []string{"b"},
		CompletenessRate: 0.5,
	}
	reviews := []models.ChapterReview{
		{ChapterName: "x", Status: models.StatusFail, Issues: findings(2, 0)},
		{ChapterName: "y", Status: models.StatusFail, Issues: findings(0, 3), Suggestions: findings(0, 4)},
	}
	res := Aggregate(completeness, reviews, nil)
	if res.Score != 69 {
		t.Errorf("score = %d, want 69", res.Score)
	}
	if models.VerdictFor(res.Score) != models.VerdictConditionalPass {
		t.Errorf("verdict = %s", models.VerdictFor(res.Score))
	}
	if len(res.Issues) != 6 {
		t.Errorf("expected completeness issue plus 5 chapter issues, got %d", len(res.Issues))
	}
	if res.Issues[0].Type != CompletenessFindingType {
		t.Errorf("completeness issue should come first, got %+v", res.Issues[0])
	}
	if len(res.Suggestions) != 4 {
		t.Errorf("expected 4 suggestions, got %d", len(res.Suggestions))
	}
	if !strings.Contains(res.Summary, "审核得分：69分") || !strings.Contains(res.Summary, "发现严重问题：3项") {
		t.Errorf("unexpected summary %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "优化建议：4项") || !strings.HasSuffix(res.Summary, "需要重点整改。") {
		t.Errorf("unexpected summary %q", res.Summary)
	}
}

func TestAggregate_suggestionsNeverDeduct(t *testing.T) {
	reviews := []models.ChapterReview{{Suggestions: findings(0, 50)}}
	res := Aggregate(models.CompletenessResult{CompletenessRate: 1}, reviews, nil)
	if res.Score != 100 {
		t.Errorf("score = %d", res.Score)
	}
}

func TestAggregate_emptySlicesNotNil(t *testing.T) {
	res := Aggregate(models.CompletenessResult{CompletenessRate: 1}, nil, nil)
	if res.Issues == nil || res.Suggestions == nil || res.ChapterReviews == nil {
		t.Error("slices should be empty, not nil")
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		severe  int
		general int
		want    int
	}{
		{"perfect", 1, 0, 0, 100},
		{"half complete", 0.5, 2, 3, 69},
		{"truncates", 12.0 / 13, 0, 0, 97},
		{"nine tenths", 0.9, 0, 0, 97},
		{"floored", 0, 20, 0, 0},
		{"general only", 1, 0, 5, 90},
		{"rate clamped", 1.5, 0, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.rate, findings(tt.severe, tt.general)); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_monotonic(t *testing.T) {
	for _, rate := range []float64{0, 0.3, 0.77, 1} {
		prev := Score(rate, nil)
		for n := 1; n <= 25; n++ {
			got := Score(rate, findings(n, 1))
			if got > prev || got < 0 || got > 100 {
				t.Fatalf("rate %v, %d severe: score %d after %d", rate, n, got, prev)
			}
			prev = got
		}
	}
}

func TestSummary_verdictSentences(t *testing.T) {
	tests := map[int]string{
		85: "方案基本符合要求",
		60: "需要重点整改",
		10: "必须进行重大修改",
	}
	for score, want := range tests {
		if s := Summary(score, nil, nil); !strings.Contains(s, want) {
			t.Errorf("Summary(%d) = %q", score, s)
		}
	}
}
