package rulegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/planreview/internal/rules"
)

const systemMessage = "你是一个专业的审核规则生成专家。"

// ErrNoJSONArray is returned when a model response holds no JSON array.
var ErrNoJSONArray = errors.New("no JSON array in response")

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\[.*?\\])\\s*```")

func buildPrompt(content, category string) string {
	var b strings.Builder
	b.WriteString("你是一个专业的审核规则生成专家。请根据以下审核规范内容，拆解生成具体的审核规则。\n\n")
	fmt.Fprintf(&b, "规范分类：%s\n规范内容：\n%s\n\n", category, content)
	b.WriteString(`请按照以下JSON格式输出审核规则列表，每个规则包含以下字段：
- rule_name: 规则名称
- rule_type: 规则类型（内容检查/章节检查）
- required_content: 必含内容列表（数组）
- review_focus: 审核重点描述
- severity: 严重程度（严重/一般）
- rule_pattern: 规则匹配模式（正则表达式，可选）

输出格式示例：
` + "```json" + `
[
    {
        "rule_name": "安全目标检查",
        "rule_type": "内容检查",
        "required_content": ["安全目标", "零事故", "零伤亡"],
        "review_focus": "必须明确安全目标，包含零事故、零伤亡等关键指标",
        "severity": "严重",
        "rule_pattern": "安全目标.*?(零事故|零伤亡|无事故)"
    }
]
` + "```" + `

请生成至少5条规则，确保规则具体、可操作、可检测。只输出JSON数组，不要其他文字说明。`)
	return b.String()
}

// ParseResponse extracts the rule array from a model response. It accepts a
// fenced json block, a bare array, or the text between the first '[' and the
// last ']'. Every entry is normalized.
func ParseResponse(response string) ([]rules.Payload, error) {
	raw := strings.TrimSpace(response)
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	} else if !strings.HasPrefix(raw, "[") {
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, ErrNoJSONArray
		}
		raw = raw[start : end+1]
	}

	var payloads []rules.Payload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	for i := range payloads {
		payloads[i] = payloads[i].Normalize()
	}
	return payloads, nil
}
