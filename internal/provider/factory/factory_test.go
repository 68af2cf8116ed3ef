package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/internal/common"
)

func TestNewTextProvider(t *testing.T) {
	cfg := common.ProviderConfig{OpenAIKey: "sk-test", AnthropicKey: "ak-test"}

	for _, name := range Available {
		p, err := NewTextProvider(name, "", cfg, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}

	_, err := NewTextProvider("mistral", "", cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewVisionProvider(t *testing.T) {
	cfg := common.ProviderConfig{OpenAIKey: "sk-test"}

	p, err := NewVisionProvider("local", "", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())

	_, err = NewVisionProvider("", "", cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(common.ProviderConfig{
		TextProvider:   "local",
		VisionProvider: "local",
	}, nil)
	require.NoError(t, err)

	textSel, visionSel := reg.Active()
	assert.Equal(t, "local", textSel.Provider)
	assert.Equal(t, "local", visionSel.Provider)

	_, err = NewRegistry(common.ProviderConfig{TextProvider: "nope", VisionProvider: "local"}, nil)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	rep := ValidateConfig(common.ProviderConfig{
		TextProvider:   "openai",
		VisionProvider: "anthropic",
		OpenAIKey:      "sk-test",
	})

	assert.True(t, rep.OpenAIAvailable)
	assert.False(t, rep.AnthropicAvailable)
	assert.True(t, rep.LocalAvailable)
	assert.True(t, rep.TextProviderValid)
	assert.False(t, rep.VisionProviderValid)
}
