package review

import (
	"testing"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
)

func chapters(titles ...string) []models.Chapter {
	out := make([]models.Chapter, len(titles))
	for i, title := range titles {
		out[i] = models.Chapter{Title: title, Level: 1, LineNumber: i + 1}
	}
	return out
}

func mustLibrary(t *testing.T, required []library.RequiredChapter, entries []library.Chapter) *library.Library {
	t.Helper()
	lib, err := library.New("test", required, entries)
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

func TestCompleteness(t *testing.T) {
	lib := mustLibrary(t, []library.RequiredChapter{
		{Title: "质量保证措施", Keywords: []string{"质量", "保证"}},
		{Title: "应急预案", Keywords: []string{"应急", "预案"}},
		{Title: "3 施工部署"},
	}, nil)
	c := NewCompletenessChecker(lib)

	tests := []struct {
		name     string
		titles   []string
		found    []string
		missing  []string
		rate     float64
		wantPass bool
	}{
		{
			name:    "none",
			titles:  nil,
			found:   []string{},
			missing: []string{"质量保证措施", "应急预案", "3 施工部署"},
			rate:    0,
		},
		{
			name:     "keyword bundle and leading integer",
			titles:   []string{"项目质量保证体系", "突发事件应急处置预案", "第3部分"},
			found:    []string{"质量保证措施", "应急预案", "3 施工部署"},
			missing:  []string{},
			rate:     1,
			wantPass: true,
		},
		{
			name:    "partial bundle does not match",
			titles:  []string{"质量控制", "应急组织"},
			found:   []string{},
			missing: []string{"质量保证措施", "应急预案", "3 施工部署"},
			rate:    0,
		},
		{
			name:    "different integers",
			titles:  []string{"4 施工部署", "应急预案"},
			found:   []string{"应急预案"},
			missing: []string{"质量保证措施", "3 施工部署"},
			rate:    1.0 / 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Check(chapters(tt.titles...))
			if !equalStrings(res.Found, tt.found) || !equalStrings(res.Missing, tt.missing) {
				t.Errorf("found %v missing %v", res.Found, res.Missing)
			}
			if res.CompletenessRate != tt.rate {
				t.Errorf("rate = %v, want %v", res.CompletenessRate, tt.rate)
			}
			if res.CompletenessRate < 0 || res.CompletenessRate > 1 {
				t.Errorf("rate out of range: %v", res.CompletenessRate)
			}
			if (res.Status == models.StatusPass) != tt.wantPass {
				t.Errorf("status = %s", res.Status)
			}
		})
	}
}

func TestCompleteness_emptyRequiredSet(t *testing.T) {
	c := NewCompletenessChecker(mustLibrary(t, nil, nil))
	res := c.Check(chapters("工程概况"))
	if res.CompletenessRate != 0 {
		t.Errorf("rate should be 0 for an empty required set, got %v", res.CompletenessRate)
	}
	if res.Status != models.StatusPass {
		t.Errorf("status = %s", res.Status)
	}
}

func TestCompleteness_sectionTitlesIgnored(t *testing.T) {
	c := NewCompletenessChecker(mustLibrary(t, []library.RequiredChapter{{Title: "应急预案"}}, nil))
	chs := chapters("安全保证措施")
	chs[0].Sections = []models.Chapter{{Title: "应急预案", Level: 2, LineNumber: 2}}
	if res := c.Check(chs); len(res.Found) != 0 {
		t.Errorf("section titles must not satisfy completeness, got %v", res.Found)
	}
}

func TestChapterReviewer_resolve(t *testing.T) {
	lib, err := library.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := NewChapterReviewer(lib)
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"质量保证措施", "质量保证措施", true},
		{" 应急预案 ", "应急预案", true},
		{"项目质量保证体系", "质量保证措施", true},
		// Quality control shares only one keyword with the quality assurance
		// bundle and stays unresolved.
		{"质量控制", "", false},
		// Bundles are lenient: any title containing 施工 and 部署 resolves.
		{"安全施工部署", "施工部署", true},
		{"其他说明", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q) = %q, %v", tt.name, got, ok)
			}
		})
	}
}

func TestChapterReviewer_review(t *testing.T) {
	lib := mustLibrary(t, nil, []library.Chapter{
		{
			Key: "应急预案",
			Points: []models.ReviewPoint{
				{Name: "应急管理", RequiredContent: []string{"应急组织", "应急物资"}, ReviewFocus: "focus", Severity: models.SeveritySevere},
				{Name: "演练", RequiredContent: []string{"演练"}, ReviewFocus: "drill", Severity: models.SeverityGeneral},
				{Name: "空", Severity: models.SeveritySevere},
			},
		},
	})
	r := NewChapterReviewer(lib)

	cr := r.Review("应急预案", "成立应急组织。")
	if cr.Status != models.StatusFail {
		t.Errorf("status = %s", cr.Status)
	}
	if len(cr.Issues) != 1 || cr.Issues[0].Description != "缺少必含内容：应急物资" || cr.Issues[0].Suggestion != "focus" {
		t.Errorf("unexpected issues %+v", cr.Issues)
	}
	if cr.Issues[0].Type != "应急管理" || cr.Issues[0].Item != "应急物资" {
		t.Errorf("unexpected issue identity %+v", cr.Issues[0])
	}
	if len(cr.Suggestions) != 1 || cr.Suggestions[0].Severity != models.SeverityGeneral {
		t.Errorf("unexpected suggestions %+v", cr.Suggestions)
	}

	cr = r.Review("应急预案", "应急组织 应急物资")
	if cr.Status != models.StatusPass || len(cr.Issues) != 0 {
		t.Errorf("expected pass, got %+v", cr)
	}

	cr = r.Review("附录", "anything")
	if cr.Status != models.StatusUnresolved || len(cr.Issues)+len(cr.Suggestions) != 0 {
		t.Errorf("expected unresolved without findings, got %+v", cr)
	}
}

func TestChapterReviewer_caseSensitive(t *testing.T) {
	lib := mustLibrary(t, nil, []library.Chapter{{
		Key:    "Scope",
		Points: []models.ReviewPoint{{Name: "p", RequiredContent: []string{"Limits"}, Severity: models.SeveritySevere}},
	}})
	cr := NewChapterReviewer(lib).Review("Scope", "limits")
	if len(cr.Issues) != 1 {
		t.Errorf("content match is case-sensitive, got %+v", cr)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
