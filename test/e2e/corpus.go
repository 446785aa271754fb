package e2e

import (
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

const compliantProposal = `第一章 编制说明
编制依据：国家现行规范及标准。编制范围：主体结构施工。
第二章 工程概况
工程名称：某某大厦。建设地点：某市。建设单位：某公司。工程特点及重点难点分析如下。
第三章 施工部署
质量目标：分项工程合格率100%。安全目标：实现零事故。工期目标：365日历天。
项目管理机构及岗位职责见附表。
第四章 施工准备
完成图纸会审与技术交底。搭设临时设施，落实施工用电和施工用水。
第五章 主要施工方法
明确施工工艺及工艺流程，设置质量控制点。
第六章 施工进度计划
总工期365天，详见进度计划横道图及进度保证措施。
第七章 资源配置计划
劳动力、机械设备及材料计划见附表。
第八章 质量保证措施
建立质量管理体系，分解质量目标，按检验批组织验收。
第九章 安全保证措施
建立安全管理体系，落实安全生产责任制。重大危险源识别清单及安全技术措施详见附件。
第十章 文明施工环保
落实文明施工要求，控制扬尘和噪声。
第十一章 季节性施工措施
雨季和冬季施工专项措施。
第十二章 应急预案
成立应急组织，明确应急响应程序，储备应急物资。
第十三章 附图附表
施工总平面图。
`

// Proposal is a corpus entry and what its review must show.
type Proposal struct {
	Name string
	Text string
	// Score is the exact expected score; 0 only checks MaxScore.
	Score    int
	MaxScore int
	// Verdict is the expected verdict; empty skips the check.
	Verdict models.Verdict
	// Missing lists required chapter titles the completeness check must report.
	Missing []string
	// Triggered lists rule names that must produce findings.
	Triggered []string
}

// BuildCorpus returns proposals covering a clean pass, a rule failure and an
// incomplete outline.
func BuildCorpus() []Proposal {
	return []Proposal{
		{
			Name:     "compliant",
			Text:     compliantProposal,
			Score:    100,
			MaxScore: 100,
			Verdict:  models.VerdictPass,
		},
		{
			Name:      "no-safety-target",
			Text:      strings.Replace(compliantProposal, "安全目标：实现零事故。", "", 1),
			MaxScore:  95,
			Triggered: []string{"安全目标检查"},
		},
		{
			Name:      "outline-only",
			Text:      firstChapters(compliantProposal, 3),
			MaxScore:  66,
			Missing:   []string{"施工准备", "应急预案", "附图附表"},
			Triggered: []string{"应急预案检查", "重大危险源检查"},
		},
	}
}

// firstChapters keeps the text up to the (n+1)th chapter heading.
func firstChapters(text string, n int) string {
	var kept []string
	chapters := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "第") && strings.Contains(line, "章 ") {
			chapters++
			if chapters > n {
				break
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n") + "\n"
}

// ruleNames returns the rule names behind the rule findings of result.
func ruleNames(result models.ReviewResult, findingType string) map[string]bool {
	names := make(map[string]bool)
	for _, list := range [][]models.Finding{result.Issues, result.Suggestions} {
		for _, f := range list {
			if f.Type == findingType {
				names[f.Item] = true
			}
		}
	}
	return names
}
