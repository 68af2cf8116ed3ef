// Package factory constructs provider backends from configuration.
// It lives apart from package provider so the backend packages can import
// the contracts without a cycle.
package factory

import (
	"fmt"
	"log/slog"

	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/provider"
	"github.com/aquila-docs/aquila/internal/provider/anthropic"
	"github.com/aquila-docs/aquila/internal/provider/local"
	"github.com/aquila-docs/aquila/internal/provider/openai"
)

// Names of the selectable backends.
var Available = []string{"openai", "anthropic", "local"}

// NewTextProvider builds a text backend by name. Model may be empty to take
// the backend default.
func NewTextProvider(name, model string, cfg common.ProviderConfig, logger *slog.Logger) (provider.TextProvider, error) {
	switch name {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			LenientJSON: true,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicKey,
			Model:       model,
			Timeout:     cfg.Timeout,
			LenientJSON: true,
		}, logger), nil
	case "local":
		return local.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown text provider %q: %w", name, common.ErrInvalidInput)
	}
}

// NewVisionProvider builds a vision backend by name.
func NewVisionProvider(name, model string, cfg common.ProviderConfig, logger *slog.Logger) (provider.VisionProvider, error) {
	switch name {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			LenientJSON: true,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicKey,
			Model:       model,
			Timeout:     cfg.Timeout,
			LenientJSON: true,
		}, logger), nil
	case "local":
		return local.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q: %w", name, common.ErrInvalidInput)
	}
}

// NewRegistry builds the runtime registry from the configured pairing.
func NewRegistry(cfg common.ProviderConfig, logger *slog.Logger) (*provider.Registry, error) {
	text, err := NewTextProvider(cfg.TextProvider, cfg.TextModel, cfg, logger)
	if err != nil {
		return nil, err
	}
	vision, err := NewVisionProvider(cfg.VisionProvider, cfg.VisionModel, cfg, logger)
	if err != nil {
		return nil, err
	}
	return provider.NewRegistry(
		text, provider.Selection{Provider: cfg.TextProvider, Model: cfg.TextModel},
		vision, provider.Selection{Provider: cfg.VisionProvider, Model: cfg.VisionModel},
		logger,
	), nil
}

// ConfigReport describes which backends are usable with the present credentials.
type ConfigReport struct {
	TextProvider       string `json:"text_provider"`
	VisionProvider     string `json:"vision_provider"`
	OpenAIAvailable    bool   `json:"openai_available"`
	AnthropicAvailable bool   `json:"anthropic_available"`
	LocalAvailable     bool   `json:"local_available"`
	TextProviderValid  bool   `json:"text_provider_valid"`
	VisionProviderValid bool  `json:"vision_provider_valid"`
}

// ValidateConfig reports backend usability given the present credentials.
func ValidateConfig(cfg common.ProviderConfig) ConfigReport {
	rep := ConfigReport{
		TextProvider:       cfg.TextProvider,
		VisionProvider:     cfg.VisionProvider,
		OpenAIAvailable:    cfg.OpenAIKey != "",
		AnthropicAvailable: cfg.AnthropicKey != "",
		LocalAvailable:     true,
	}
	usable := func(name string) bool {
		switch name {
		case "openai":
			return rep.OpenAIAvailable
		case "anthropic":
			return rep.AnthropicAvailable
		case "local":
			return true
		default:
			return false
		}
	}
	rep.TextProviderValid = usable(cfg.TextProvider)
	rep.VisionProviderValid = usable(cfg.VisionProvider)
	return rep
}
