package brex

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

type fakeRefStore struct {
	icns    map[string]bool
	modules map[string]bool
}

func (f *fakeRefStore) ICNExists(_ context.Context, icnID string) (bool, error) {
	return f.icns[icnID], nil
}

func (f *fakeRefStore) DataModuleExists(_ context.Context, dmc string) (bool, error) {
	return f.modules[dmc], nil
}

func newTestEngine(t *testing.T, rules RuleSet, refs *fakeRefStore) *Engine {
	t.Helper()
	if refs == nil {
		refs = &fakeRefStore{icns: map[string]bool{}, modules: map[string]bool{}}
	}
	engine, err := NewEngine(rules, refs, nil)
	require.NoError(t, err)
	return engine
}

func validModule() *entity.DataModule {
	return &entity.DataModule{
		DMC:         "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00",
		Title:       "Engine Start Procedure",
		DMType:      constants.Procedural,
		InfoVariant: constants.VariantVerbatim,
		Content:     "Connect the external power unit before you start the engine.",
	}
}

func TestValidateCleanModuleIsGreen(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	status, errs, err := engine.Validate(context.Background(), validModule())
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationGreen, status)
	assert.Empty(t, errs)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	dm := &entity.DataModule{
		DMC:     "BAD-1",
		Title:   "",
		Content: "short",
	}
	status, errs, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)

	assert.Equal(t, constants.ValidationRed, status)
	assert.Contains(t, errs, "Title is required")
	assert.Contains(t, errs, "Content below minimum length")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "DMC") {
			found = true
		}
	}
	assert.True(t, found, "expected a DMC finding, got %v", errs)
}

func TestValidateIdempotent(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)
	dm := &entity.DataModule{DMC: "BAD", Title: "", Content: ""}

	status1, errs1, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	status2, errs2, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)

	assert.Equal(t, status1, status2)
	assert.Equal(t, errs1, errs2)
}

func TestScoreThresholds(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	dm := validModule()
	dm.InfoVariant = constants.VariantSimplified

	dm.STEScore = 0.5 // below minimum
	status, _, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationRed, status)

	dm.STEScore = 0.7 // between minimum and warn threshold
	status, _, err = engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationAmber, status)

	dm.STEScore = 0.92 // above both thresholds
	status, _, err = engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationGreen, status)
}

func TestScoreThresholdIgnoredForVerbatim(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	dm := validModule()
	dm.InfoVariant = constants.VariantVerbatim
	dm.STEScore = 0

	status, _, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationGreen, status)
}

func TestReferenceCheck(t *testing.T) {
	refs := &fakeRefStore{
		icns:    map[string]bool{"ICN-KNOWN": true},
		modules: map[string]bool{},
	}
	engine := newTestEngine(t, DefaultRules(), refs)

	dm := validModule()
	dm.ICNRefs = []string{"ICN-KNOWN"}
	dm.Content += "\n[ICN_REF:ICN-MISSING]"
	dm.DMRefs = []string{"DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00"}

	status, errs, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationRed, status)
	assert.Contains(t, errs, "referenced ICN ICN-MISSING does not exist")
	assert.Contains(t, errs, "referenced DMC DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00 does not exist")
}

func TestSwapReflectsNewRulesImmediately(t *testing.T) {
	engine := newTestEngine(t, RuleSet{
		"title-required": {Kind: KindRequiredField, Field: FieldTitle},
	}, nil)

	dm := validModule()
	dm.Title = strings.Repeat("x", 50)

	status, _, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationGreen, status)

	require.NoError(t, engine.Swap(RuleSet{
		"title-length": {Kind: KindLengthBound, Field: FieldTitle, MaxLength: 10},
	}))

	status, errs, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationRed, status)
	assert.Contains(t, errs, "title exceeds maximum length")
}

func TestSwapRejectsMalformedRuleSet(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	err := engine.Swap(RuleSet{"broken": {Kind: "no-such-kind"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidationRule)

	err = engine.Swap(RuleSet{"bad-re": {Kind: KindPattern, Field: FieldTitle, Pattern: "("}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidationRule)

	// old rules still active
	status, _, vErr := engine.Validate(context.Background(), validModule())
	require.NoError(t, vErr)
	assert.Equal(t, constants.ValidationGreen, status)
}

func TestWarningSeverityCapsAtAmber(t *testing.T) {
	engine := newTestEngine(t, RuleSet{
		"title-soft": {Kind: KindLengthBound, Field: FieldTitle, MaxLength: 5, Severity: SeverityWarning},
	}, nil)

	dm := validModule()
	status, errs, err := engine.Validate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationAmber, status)
	assert.Len(t, errs, 1)
}
