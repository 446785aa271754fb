package rules

import "github.com/hyperjump/planreview/internal/models"

// DefaultRules returns the rules every engine starts with unless told otherwise.
func DefaultRules() []models.PatternRule {
	return []models.PatternRule{
		{
			Name:        "安全目标检查",
			Kind:        models.RuleKindContent,
			Pattern:     `安全目标.*?(零事故|零伤亡|无事故)`,
			Severity:    models.SeveritySevere,
			Description: "必须明确安全目标",
		},
		{
			Name:        "质量目标检查",
			Kind:        models.RuleKindContent,
			Pattern:     `质量目标.*?(合格率|优良率|100%)`,
			Severity:    models.SeveritySevere,
			Description: "必须明确质量目标",
		},
		{
			Name:        "应急预案检查",
			Kind:        models.RuleKindChapter,
			Pattern:     `应急.*?预案`,
			Severity:    models.SeveritySevere,
			Description: "必须包含应急预案",
		},
		{
			Name:        "重大危险源检查",
			Kind:        models.RuleKindContent,
			Pattern:     `重大危险源.*?(识别|清单|监控)`,
			Severity:    models.SeveritySevere,
			Description: "必须包含重大危险源管理内容",
		},
	}
}
