package rules

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

// DefaultRuleName names payloads that arrive without a name.
const DefaultRuleName = "未命名规则"

// StringList decodes from either a JSON array of strings or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Anything else is treated as absent.
		*l = nil
		return nil
	}
	if s = strings.TrimSpace(s); s != "" {
		*l = StringList{s}
	} else {
		*l = nil
	}
	return nil
}

// Payload is a rule or review point supplied from outside the process, for
// example by the rule generator or an API client. Missing fields are repaired
// by Normalize; payloads are never rejected.
type Payload struct {
	RuleName        string     `json:"rule_name" yaml:"rule_name"`
	RuleType        string     `json:"rule_type" yaml:"rule_type"`
	RulePattern     string     `json:"rule_pattern" yaml:"rule_pattern"`
	RequiredContent StringList `json:"required_content" yaml:"required_content"`
	ReviewFocus     string     `json:"review_focus" yaml:"review_focus"`
	Severity        string     `json:"severity" yaml:"severity"`
	Description     string     `json:"description" yaml:"description"`
}

// Normalize fills in defaults: name 未命名规则, kind content, severity general.
func (p Payload) Normalize() Payload {
	p.RuleName = strings.TrimSpace(p.RuleName)
	if p.RuleName == "" {
		p.RuleName = DefaultRuleName
	}
	p.RuleType = string(models.ParseRuleKind(strings.TrimSpace(p.RuleType)))
	p.Severity = string(models.ParseSeverity(p.Severity))
	p.RulePattern = strings.TrimSpace(p.RulePattern)
	p.ReviewFocus = strings.TrimSpace(p.ReviewFocus)
	p.Description = strings.TrimSpace(p.Description)
	var content StringList
	for _, c := range p.RequiredContent {
		if c = strings.TrimSpace(c); c != "" {
			content = append(content, c)
		}
	}
	p.RequiredContent = content
	return p
}

// Rule converts the payload into a pattern rule.
func (p Payload) Rule() models.PatternRule {
	p = p.Normalize()
	return models.PatternRule{
		Name:        p.RuleName,
		Kind:        models.RuleKind(p.RuleType),
		Pattern:     p.RulePattern,
		Severity:    models.Severity(p.Severity),
		Description: p.Description,
	}
}

// ReviewPoint converts the payload into a review point for chapterKey.
func (p Payload) ReviewPoint(chapterKey string) models.ReviewPoint {
	p = p.Normalize()
	return models.ReviewPoint{
		ChapterKey:      chapterKey,
		Name:            p.RuleName,
		RequiredContent: []string(p.RequiredContent),
		ReviewFocus:     p.ReviewFocus,
		Severity:        models.Severity(p.Severity),
	}
}

// RequiredContentRules converts a payload without a pattern into one literal
// rule per required item, so the item must appear in the text (content rules)
// or in a chapter title (chapter rules). A payload with a pattern or without
// required content yields nothing.
func (p Payload) RequiredContentRules() []models.PatternRule {
	p = p.Normalize()
	if p.RulePattern != "" || len(p.RequiredContent) == 0 {
		return nil
	}
	out := make([]models.PatternRule, 0, len(p.RequiredContent))
	for _, item := range p.RequiredContent {
		name := p.RuleName
		if len(p.RequiredContent) > 1 {
			name += "：" + item
		}
		out = append(out, models.PatternRule{
			Name:        name,
			Kind:        models.RuleKind(p.RuleType),
			Pattern:     regexp.QuoteMeta(item),
			Severity:    models.Severity(p.Severity),
			Description: item,
		})
	}
	return out
}

// PayloadFromRule is the inverse of Rule.
func PayloadFromRule(r models.PatternRule) Payload {
	return Payload{
		RuleName:    r.Name,
		RuleType:    string(r.Kind),
		RulePattern: r.Pattern,
		Severity:    string(r.Severity),
		Description: r.Description,
	}
}
