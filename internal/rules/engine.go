// Package rules evaluates regular-expression "must appear somewhere" rules
// against a document. Rules are independent of the review-point library and
// are evaluated in list order without short-circuiting.
package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/hyperjump/planreview/internal/models"
)

// FindingType is the Finding.Type of every rule finding.
const FindingType = "规则检查"

var (
	// ErrDuplicateRule is returned by AddRule when the name is already taken.
	ErrDuplicateRule = errors.New("rule already exists")
	// ErrUnknownKind is attached to results of rules whose kind is neither
	// content nor chapter.
	ErrUnknownKind = errors.New("unknown rule kind")
)

// Status is the outcome of evaluating one rule.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

// RuleResult is the outcome of one rule. Finding is set when Status is failed,
// Err when Status is error.
type RuleResult struct {
	Rule    models.PatternRule `json:"rule"`
	Status  Status             `json:"status"`
	Finding *models.Finding    `json:"finding,omitempty"`
	Err     error              `json:"-"`
}

// Evaluation holds one result per rule, in rule order.
type Evaluation struct {
	Results []RuleResult `json:"results"`
}

// Findings returns the findings of the failed rules.
func (e Evaluation) Findings() []models.Finding {
	var out []models.Finding
	for _, r := range e.Results {
		if r.Status == StatusFailed && r.Finding != nil {
			out = append(out, *r.Finding)
		}
	}
	return out
}

// Errors returns the results of rules that could not be evaluated.
func (e Evaluation) Errors() []RuleResult {
	var out []RuleResult
	for _, r := range e.Results {
		if r.Status == StatusError {
			out = append(out, r)
		}
	}
	return out
}

// check is the compiled form of a rule. contentCheck and chapterCheck are the
// only implementations.
type check interface {
	matches(text string, titles []string) bool
	suggestion(description string) string
}

type contentCheck struct {
	re *regexp.Regexp
}

func (c contentCheck) matches(text string, _ []string) bool {
	return c.re.MatchString(text)
}

func (contentCheck) suggestion(description string) string {
	return "请检查是否包含：" + description
}

type chapterCheck struct {
	re *regexp.Regexp
}

func (c chapterCheck) matches(_ string, titles []string) bool {
	for _, title := range titles {
		if c.re.MatchString(title) {
			return true
		}
	}
	return false
}

func (chapterCheck) suggestion(description string) string {
	return "请添加章节：" + description
}

type compiledRule struct {
	rule  models.PatternRule
	check check
	err   error
}

func compile(r models.PatternRule) compiledRule {
	r.Kind = models.ParseRuleKind(string(r.Kind))
	r.Severity = models.ParseSeverity(string(r.Severity))
	cr := compiledRule{rule: r}
	switch r.Kind {
	case models.RuleKindContent:
		re, err := regexp.Compile(`(?is)` + r.Pattern)
		if err != nil {
			cr.err = fmt.Errorf("rule %q: invalid pattern: %w", r.Name, err)
			return cr
		}
		cr.check = contentCheck{re: re}
	case models.RuleKindChapter:
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			cr.err = fmt.Errorf("rule %q: invalid pattern: %w", r.Name, err)
			return cr
		}
		cr.check = chapterCheck{re: re}
	default:
		cr.err = fmt.Errorf("rule %q: %w %q", r.Name, ErrUnknownKind, r.Kind)
	}
	return cr
}

// Validate reports why r could not be evaluated, or nil.
func Validate(r models.PatternRule) error {
	return compile(r).err
}

// Engine holds an ordered rule list. Rules are compiled once when added.
// An Engine is not safe for mutation concurrent with Evaluate; see SyncEngine.
type Engine struct {
	rules []compiledRule
}

// NewEngine returns an engine holding rules. Later rules replace earlier rules
// with the same name.
func NewEngine(rules ...models.PatternRule) *Engine {
	e := &Engine{}
	e.Replace(rules)
	return e
}

// NewDefaultEngine returns an engine seeded with DefaultRules.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultRules()...)
}

// AddRule appends a rule. Names are unique within an engine.
func (e *Engine) AddRule(r models.PatternRule) error {
	if e.index(r.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
	}
	e.rules = append(e.rules, compile(r))
	return nil
}

// RemoveRule removes the named rule and reports whether it existed.
func (e *Engine) RemoveRule(name string) bool {
	i := e.index(name)
	if i < 0 {
		return false
	}
	e.rules = append(e.rules[:i:i], e.rules[i+1:]...)
	return true
}

// Replace swaps the whole rule list. A rule whose name was already seen
// overrides the earlier one in its position.
func (e *Engine) Replace(rules []models.PatternRule) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[string]int, len(rules))
	for _, r := range rules {
		if i, ok := seen[r.Name]; ok {
			compiled[i] = compile(r)
			continue
		}
		seen[r.Name] = len(compiled)
		compiled = append(compiled, compile(r))
	}
	e.rules = compiled
}

// Rules returns the rule list in evaluation order.
func (e *Engine) Rules() []models.PatternRule {
	out := make([]models.PatternRule, len(e.rules))
	for i, cr := range e.rules {
		out[i] = cr.rule
	}
	return out
}

// Len returns the number of rules.
func (e *Engine) Len() int { return len(e.rules) }

// Clone returns an independent engine with the same rules.
func (e *Engine) Clone() *Engine {
	return &Engine{rules: append([]compiledRule(nil), e.rules...)}
}

// Evaluate runs every rule against the document text and the titles of the
// top-level chapters.
func (e *Engine) Evaluate(text string, chapters []models.Chapter) Evaluation {
	titles := models.Titles(chapters)
	ev := Evaluation{Results: make([]RuleResult, 0, len(e.rules))}
	for _, cr := range e.rules {
		ev.Results = append(ev.Results, cr.evaluate(text, titles))
	}
	return ev
}

func (cr compiledRule) evaluate(text string, titles []string) RuleResult {
	res := RuleResult{Rule: cr.rule}
	switch {
	case cr.err != nil:
		res.Status = StatusError
		res.Err = cr.err
	case cr.check.matches(text, titles):
		res.Status = StatusPassed
	default:
		desc := cr.rule.Description
		if desc == "" {
			desc = cr.rule.Name
		}
		res.Status = StatusFailed
		res.Finding = &models.Finding{
			Type:        FindingType,
			Item:        cr.rule.Name,
			Severity:    cr.rule.Severity,
			Description: desc,
			Suggestion:  cr.check.suggestion(desc),
		}
	}
	return res
}

func (e *Engine) index(name string) int {
	for i, cr := range e.rules {
		if cr.rule.Name == name {
			return i
		}
	}
	return -1
}
