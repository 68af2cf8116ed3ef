package brex

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/entity"
)

// ReferenceStore answers existence queries for the reference-check rule.
type ReferenceStore interface {
	ICNExists(ctx context.Context, icnID string) (bool, error)
	DataModuleExists(ctx context.Context, dmc string) (bool, error)
}

// icnMarkerRe matches explicit illustration markers embedded in content.
var icnMarkerRe = regexp.MustCompile(`\[ICN_REF:([A-Za-z0-9_.-]+)\]`)

// Engine evaluates the active rule set over data modules. The rule set is
// swappable at runtime behind the mutex; Validate evaluates against the set
// captured at call start.
type Engine struct {
	mu    sync.RWMutex
	rules []compiledRule

	refs ReferenceStore
	log  *slog.Logger
}

// NewEngine compiles the initial rule set. A malformed set is rejected.
func NewEngine(rs RuleSet, refs ReferenceStore, logger *slog.Logger) (*Engine, error) {
	compiled, err := compile(rs)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: compiled, refs: refs, log: logger}, nil
}

// Swap replaces the active rule set. Re-running validation after a swap
// reflects the new rules immediately; a malformed set leaves the old one
// active.
func (e *Engine) Swap(rs RuleSet) error {
	compiled, err := compile(rs)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	e.log.Info("brex.rules.swapped", "rules", len(compiled))
	return nil
}

// Validate runs every rule of the active set over dm, in rule-name order and
// without short-circuiting, so the error list is always complete. Severity
// aggregation: any hard failure → red, warnings only → amber, none → green.
// Validate never mutates dm; the caller persists the outcome.
func (e *Engine) Validate(ctx context.Context, dm *entity.DataModule) (constants.ValidationStatus, []string, error) {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	status := constants.ValidationGreen
	var errs []string

	hardFail := func(msg string) {
		errs = append(errs, msg)
		status = constants.ValidationRed
	}
	warn := func(msg string) {
		errs = append(errs, msg)
		if status == constants.ValidationGreen {
			status = constants.ValidationAmber
		}
	}
	report := func(severity, msg string) {
		if severity == SeverityWarning {
			warn(msg)
		} else {
			hardFail(msg)
		}
	}

	for _, rule := range rules {
		switch rule.Kind {
		case KindRequiredField:
			if fieldValue(dm, rule.Field) == "" {
				report(rule.Severity, message(rule, fmt.Sprintf("%s is required", rule.Field)))
			}

		case KindLengthBound:
			value := fieldValue(dm, rule.Field)
			if value == "" {
				continue
			}
			n := len([]rune(value))
			if rule.MinLength > 0 && n < rule.MinLength {
				report(rule.Severity, message(rule, fmt.Sprintf("%s below minimum length", rule.Field)))
			}
			if rule.MaxLength > 0 && n > rule.MaxLength {
				report(rule.Severity, message(rule, fmt.Sprintf("%s exceeds maximum length", rule.Field)))
			}

		case KindPattern:
			value := fieldValue(dm, rule.Field)
			if value != "" && !rule.re.MatchString(value) {
				report(rule.Severity, message(rule, fmt.Sprintf("%s does not match pattern", rule.Field)))
			}

		case KindReferenceCheck:
			for _, icnID := range referencedICNs(dm) {
				ok, err := e.refs.ICNExists(ctx, icnID)
				if err != nil {
					return constants.ValidationBlue, nil, fmt.Errorf("icn lookup %s: %w", icnID, err)
				}
				if !ok {
					report(rule.Severity, fmt.Sprintf("referenced ICN %s does not exist", icnID))
				}
			}
			for _, ref := range dm.DMRefs {
				if ref == dm.DMC {
					continue
				}
				ok, err := e.refs.DataModuleExists(ctx, ref)
				if err != nil {
					return constants.ValidationBlue, nil, fmt.Errorf("dmc lookup %s: %w", ref, err)
				}
				if !ok {
					report(rule.Severity, fmt.Sprintf("referenced DMC %s does not exist", ref))
				}
			}

		case KindScoreThreshold:
			// Simplified-English scoring only applies to the "01" variant.
			if dm.InfoVariant != constants.VariantSimplified {
				continue
			}
			switch {
			case dm.STEScore < rule.MinScore:
				hardFail(message(rule, fmt.Sprintf("ste_score %.2f below minimum %.2f", dm.STEScore, rule.MinScore)))
			case dm.STEScore < rule.WarnBelowScore:
				warn(message(rule, fmt.Sprintf("ste_score %.2f below warning threshold %.2f", dm.STEScore, rule.WarnBelowScore)))
			}
		}
	}

	e.log.Info("brex.validate", "dmc", dm.DMC, "status", status, "findings", len(errs))
	return status, errs, nil
}

// referencedICNs merges the stored ICN refs with explicit content markers,
// sorted and de-duplicated.
func referencedICNs(dm *entity.DataModule) []string {
	seen := make(map[string]struct{})
	for _, id := range dm.ICNRefs {
		seen[id] = struct{}{}
	}
	for _, m := range icnMarkerRe.FindAllStringSubmatch(dm.Content, -1) {
		seen[m[1]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func fieldValue(dm *entity.DataModule, field string) string {
	switch field {
	case FieldTitle:
		return dm.Title
	case FieldDMC:
		return dm.DMC
	case FieldContent:
		return dm.Content
	}
	return ""
}

func message(rule compiledRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}
