package rulegen

import (
	"strings"

	"github.com/hyperjump/planreview/internal/rules"
)

type template struct {
	keyword string
	payload rules.Payload
}

var templates = []template{
	{keyword: "安全", payload: rules.Payload{
		RuleName:        "安全措施检查",
		RuleType:        "内容检查",
		RequiredContent: rules.StringList{"安全措施", "安全管理制度", "安全防护"},
		ReviewFocus:     "必须包含完整的安全措施和管理制度",
		Severity:        "严重",
		RulePattern:     "安全.*?(措施|制度|防护)",
	}},
	{keyword: "质量", payload: rules.Payload{
		RuleName:        "质量保证检查",
		RuleType:        "内容检查",
		RequiredContent: rules.StringList{"质量保证", "质量管理", "质量控制"},
		ReviewFocus:     "必须包含质量保证措施和质量管理体系",
		Severity:        "严重",
		RulePattern:     "质量.*?(保证|管理|控制)",
	}},
	{keyword: "进度", payload: rules.Payload{
		RuleName:        "进度计划检查",
		RuleType:        "内容检查",
		RequiredContent: rules.StringList{"进度计划", "施工进度", "工期"},
		ReviewFocus:     "必须包含详细的进度计划和工期安排",
		Severity:        "一般",
		RulePattern:     "进度.*?(计划|安排)",
	}},
}

// FromTemplates derives rules from keywords found in a standard's content.
// Content without any known keyword yields one generic rule for category.
func FromTemplates(content, category string) []rules.Payload {
	lower := strings.ToLower(content)
	var out []rules.Payload
	for _, t := range templates {
		if strings.Contains(lower, t.keyword) {
			p := t.payload
			p.RequiredContent = append(rules.StringList(nil), t.payload.RequiredContent...)
			out = append(out, p.Normalize())
		}
	}
	if len(out) > 0 {
		return out
	}
	generic := rules.Payload{
		RuleName:    category + "规范检查",
		RuleType:    "内容检查",
		ReviewFocus: "必须符合" + category + "相关规范要求",
		Severity:    "一般",
	}
	if category != "" {
		generic.RequiredContent = rules.StringList{category}
	}
	return []rules.Payload{generic.Normalize()}
}
