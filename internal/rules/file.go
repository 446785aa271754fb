package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/planreview/internal/models"
)

type rulesFile struct {
	Rules []struct {
		Name        string `yaml:"name"`
		Kind        string `yaml:"kind"`
		Pattern     string `yaml:"pattern"`
		Severity    string `yaml:"severity"`
		Description string `yaml:"description"`
	} `yaml:"rules"`
}

// LoadFile reads additional rules from a YAML file of the form
//
//	rules:
//	  - name: 临时用电检查
//	    kind: content
//	    pattern: 临时用电.*?方案
//	    severity: 严重
//	    description: 必须编制临时用电方案
//
// Kind and severity accept the Chinese labels as well.
func LoadFile(path string) ([]models.PatternRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	out := make([]models.PatternRule, 0, len(f.Rules))
	for _, r := range f.Rules {
		out = append(out, Payload{
			RuleName:    r.Name,
			RuleType:    r.Kind,
			RulePattern: r.Pattern,
			Severity:    r.Severity,
			Description: r.Description,
		}.Rule())
	}
	return out, nil
}
