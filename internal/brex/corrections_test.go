package brex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/provider"
)

type rewriteOnlyProvider struct {
	rewrite provider.Rewrite
	err     error
	calls   int
}

func (p *rewriteOnlyProvider) Name() string { return "rewriter" }

func (p *rewriteOnlyProvider) Classify(context.Context, provider.TextRequest) (provider.Classification, error) {
	return provider.Classification{}, nil
}

func (p *rewriteOnlyProvider) Extract(context.Context, provider.TextRequest) (provider.Extraction, error) {
	return provider.Extraction{}, nil
}

func (p *rewriteOnlyProvider) RewriteSTE(context.Context, provider.TextRequest) (provider.Rewrite, error) {
	p.calls++
	return p.rewrite, p.err
}

func TestApplyCorrectionsManualOnly(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)
	text := &rewriteOnlyProvider{}

	dm := validModule()
	status, errs, err := engine.ApplyCorrections(context.Background(), dm, []Correction{
		{Error: "Title is required", Method: CorrectionManual, Note: "title fixed by author"},
	}, text)
	require.NoError(t, err)

	assert.Equal(t, constants.ValidationGreen, status)
	assert.Empty(t, errs)
	assert.Zero(t, text.calls, "manual corrections never call the provider")
	require.Len(t, dm.ProcessingLogs, 1)
	assert.Contains(t, dm.ProcessingLogs[0].Message, "title fixed by author")
}

func TestApplyCorrectionsAIRewrite(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)
	text := &rewriteOnlyProvider{
		rewrite: provider.Rewrite{Text: "Connect the power unit before you start the engine.", Score: 0.95},
	}

	dm := validModule()
	dm.InfoVariant = constants.VariantSimplified
	dm.STEScore = 0.4

	status, _, err := engine.ApplyCorrections(context.Background(), dm, []Correction{
		{Error: "score below threshold", Method: CorrectionAI},
		{Error: "second finding", Method: CorrectionAI},
	}, text)
	require.NoError(t, err)

	assert.Equal(t, 1, text.calls, "multiple ai corrections share one rewrite")
	assert.Equal(t, "Connect the power unit before you start the engine.", dm.Content)
	assert.InDelta(t, 0.95, dm.STEScore, 1e-9)
	assert.Equal(t, constants.ValidationGreen, status)
	assert.Equal(t, status, dm.ValidationStatus)
}

func TestApplyCorrectionsRewriteFailure(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)
	text := &rewriteOnlyProvider{err: common.ErrProviderUnavailable}

	dm := validModule()
	before := dm.Content
	_, _, err := engine.ApplyCorrections(context.Background(), dm, []Correction{
		{Error: "x", Method: CorrectionAI},
	}, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
	assert.Equal(t, before, dm.Content, "content untouched on failure")
}

func TestApplyCorrectionsUnknownMethod(t *testing.T) {
	engine := newTestEngine(t, DefaultRules(), nil)

	_, _, err := engine.ApplyCorrections(context.Background(), validModule(), []Correction{
		{Error: "x", Method: "magic"},
	}, &rewriteOnlyProvider{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
