package brex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/internal/common"
)

func TestLoadRulesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title-required:
  kind: required-field
  field: title
ste-score:
  kind: score-threshold
  min_score: 0.5
  warn_below_score: 0.75
`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, KindRequiredField, rules["title-required"].Kind)
	assert.Equal(t, 0.5, rules["ste-score"].MinScore)

	_, err = compile(rules)
	require.NoError(t, err)
}

func TestLoadRulesMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: [unclosed"), 0o644))

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidationRule)
}

func TestDefaultRulesCompile(t *testing.T) {
	compiled, err := compile(DefaultRules())
	require.NoError(t, err)
	assert.Len(t, compiled, len(DefaultRules()))
}

func TestCompileRejectsBadScoreBounds(t *testing.T) {
	_, err := compile(RuleSet{
		"ste": {Kind: KindScoreThreshold, MinScore: 1.5},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidationRule)
}
