// Package brex evaluates business-rules (BREX) validation over data modules.
// Rules are data, not code: a YAML mapping of rule-name to a small descriptor
// the engine interprets, so rule sets hot-swap at runtime without touching
// the binary.
package brex

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aquila-docs/aquila/internal/common"
)

// Rule kinds.
const (
	KindRequiredField  = "required-field"
	KindLengthBound    = "length-bound"
	KindPattern        = "pattern"
	KindReferenceCheck = "reference-check"
	KindScoreThreshold = "score-threshold"
)

// Fields a rule may target.
const (
	FieldTitle   = "title"
	FieldDMC     = "dmc"
	FieldContent = "content"
)

// Severities. A hard failure forces red; a warning alone caps at amber.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule is one validation descriptor.
type Rule struct {
	Kind     string `yaml:"kind" json:"kind"`
	Field    string `yaml:"field,omitempty" json:"field,omitempty"`
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`

	// length-bound
	MinLength int `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// pattern
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// score-threshold (applies to simplified variants only)
	MinScore       float64 `yaml:"min_score,omitempty" json:"min_score,omitempty"`
	WarnBelowScore float64 `yaml:"warn_below_score,omitempty" json:"warn_below_score,omitempty"`
}

// RuleSet maps rule-name to descriptor. Evaluation order is the sorted rule
// names so the error list is stable for a fixed (module, rules) pair.
type RuleSet map[string]Rule

// LoadRules reads a YAML rule set from path.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %v: %w", err, common.ErrValidationRule)
	}
	return rs, nil
}

// DefaultRules is the built-in rule set used when no rules file is configured.
func DefaultRules() RuleSet {
	return RuleSet{
		"title-required":   {Kind: KindRequiredField, Field: FieldTitle, Message: "Title is required"},
		"title-length":     {Kind: KindLengthBound, Field: FieldTitle, MaxLength: 200, Message: "Title exceeds maximum length"},
		"dmc-required":     {Kind: KindRequiredField, Field: FieldDMC, Message: "DMC is required"},
		"dmc-pattern":      {Kind: KindPattern, Field: FieldDMC, Pattern: `^DMC-[A-Z0-9]{1,4}(-[A-Z0-9]+){13}$`, Message: "DMC does not match pattern"},
		"content-required": {Kind: KindRequiredField, Field: FieldContent, Message: "Content is required"},
		"content-length":   {Kind: KindLengthBound, Field: FieldContent, MinLength: 10, Message: "Content below minimum length"},
		"references":       {Kind: KindReferenceCheck},
		"ste-score":        {Kind: KindScoreThreshold, MinScore: 0.6, WarnBelowScore: 0.8},
	}
}

// compiledRule is a Rule with its regexp prepared and defaults applied.
type compiledRule struct {
	name string
	Rule
	re *regexp.Regexp
}

// compile checks every descriptor and prepares it for evaluation. A malformed
// descriptor yields ErrValidationRule; a bad rule set is rejected whole so a
// half-applied swap can never happen.
func compile(rs RuleSet) ([]compiledRule, error) {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]compiledRule, 0, len(rs))
	for _, name := range names {
		rule := rs[name]
		cr := compiledRule{name: name, Rule: rule}
		if cr.Severity == "" {
			cr.Severity = SeverityError
		}

		switch rule.Kind {
		case KindRequiredField, KindLengthBound:
			if !validField(rule.Field) {
				return nil, fmt.Errorf("rule %q: unknown field %q: %w", name, rule.Field, common.ErrValidationRule)
			}
		case KindPattern:
			if !validField(rule.Field) {
				return nil, fmt.Errorf("rule %q: unknown field %q: %w", name, rule.Field, common.ErrValidationRule)
			}
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: bad pattern: %v: %w", name, err, common.ErrValidationRule)
			}
			cr.re = re
		case KindReferenceCheck:
			// no params
		case KindScoreThreshold:
			if rule.MinScore < 0 || rule.MinScore > 1 || rule.WarnBelowScore < 0 || rule.WarnBelowScore > 1 {
				return nil, fmt.Errorf("rule %q: score bounds must be within [0,1]: %w", name, common.ErrValidationRule)
			}
		default:
			return nil, fmt.Errorf("rule %q: unknown kind %q: %w", name, rule.Kind, common.ErrValidationRule)
		}
		out = append(out, cr)
	}
	return out, nil
}

func validField(field string) bool {
	switch field {
	case FieldTitle, FieldDMC, FieldContent:
		return true
	}
	return false
}
