package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/planreview/internal/models"
)

func TestPayload_defaults(t *testing.T) {
	var p Payload
	if err := json.Unmarshal([]byte(`{"rule_pattern":" 临时用电 "}`), &p); err != nil {
		t.Fatal(err)
	}
	r := p.Rule()
	want := models.PatternRule{
		Name:     DefaultRuleName,
		Kind:     models.RuleKindContent,
		Pattern:  "临时用电",
		Severity: models.SeverityGeneral,
	}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestPayload_chineseLabels(t *testing.T) {
	p := Payload{RuleName: "应急", RuleType: "章节检查", Severity: "严重", RulePattern: "应急"}
	r := p.Rule()
	if r.Kind != models.RuleKindChapter || r.Severity != models.SeveritySevere {
		t.Errorf("unexpected rule %+v", r)
	}
}

func TestPayload_requiredContentShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{"array", `{"required_content":["a"," ","b"]}`, 2},
		{"string", `{"required_content":"a"}`, 1},
		{"null", `{"required_content":null}`, 0},
		{"number", `{"required_content":3}`, 0},
		{"absent", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Payload
			if err := json.Unmarshal([]byte(tt.json), &p); err != nil {
				t.Fatal(err)
			}
			pt := p.ReviewPoint("工程概况")
			if len(pt.RequiredContent) != tt.want {
				t.Errorf("got %q", pt.RequiredContent)
			}
			if pt.ChapterKey != "工程概况" || pt.Name != DefaultRuleName {
				t.Errorf("unexpected point %+v", pt)
			}
		})
	}
}

func TestPayloadFromRule(t *testing.T) {
	r := DefaultRules()[2]
	if got := PayloadFromRule(r).Rule(); got != r {
		t.Errorf("got %+v, want %+v", got, r)
	}
}

func TestRequiredContentRules(t *testing.T) {
	single := Payload{RuleName: "消防规范检查", RequiredContent: StringList{"消防"}}.RequiredContentRules()
	if len(single) != 1 || single[0].Name != "消防规范检查" || single[0].Pattern != "消防" {
		t.Fatalf("unexpected rules %+v", single)
	}

	multi := Payload{RuleName: "高处作业", RuleType: "章节检查", RequiredContent: StringList{"安全带", "1.2m"}}.RequiredContentRules()
	if len(multi) != 2 {
		t.Fatalf("expected 2 rules, got %+v", multi)
	}
	if multi[1].Name != "高处作业：1.2m" || multi[1].Pattern != `1\.2m` || multi[1].Kind != models.RuleKindChapter {
		t.Errorf("unexpected rule %+v", multi[1])
	}

	e := NewEngine(single...)
	if got := len(e.Evaluate("建筑防火设计", nil).Findings()); got != 1 {
		t.Errorf("text without required content should fail, got %d findings", got)
	}
	if got := len(e.Evaluate("消防通道畅通", nil).Findings()); got != 0 {
		t.Errorf("text with required content should pass, got %d findings", got)
	}

	withPattern := Payload{RuleName: "x", RulePattern: "a", RequiredContent: StringList{"b"}}
	if got := withPattern.RequiredContentRules(); got != nil {
		t.Errorf("payload with a pattern should derive nothing, got %+v", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
rules:
  - name: 临时用电检查
    kind: 内容检查
    pattern: 临时用电.*?方案
    severity: 严重
    description: 必须编制临时用电方案
  - pattern: 脚手架
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got))
	}
	if got[0].Kind != models.RuleKindContent || got[0].Severity != models.SeveritySevere {
		t.Errorf("unexpected first rule %+v", got[0])
	}
	if got[1].Name != DefaultRuleName || got[1].Severity != models.SeverityGeneral {
		t.Errorf("second rule should be repaired, got %+v", got[1])
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
