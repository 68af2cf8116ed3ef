package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquila-docs/aquila/internal/entity"
)

type stubText struct{ name string }

func (s *stubText) Name() string { return s.name }
func (s *stubText) Classify(context.Context, TextRequest) (Classification, error) {
	return Classification{}, nil
}
func (s *stubText) Extract(context.Context, TextRequest) (Extraction, error) {
	return Extraction{}, nil
}
func (s *stubText) RewriteSTE(context.Context, TextRequest) (Rewrite, error) {
	return Rewrite{}, nil
}

type stubVision struct{ name string }

func (s *stubVision) Name() string                                        { return s.name }
func (s *stubVision) Caption(context.Context, ImageRequest) (string, error) { return "", nil }
func (s *stubVision) DetectObjects(context.Context, ImageRequest) ([]string, error) {
	return nil, nil
}
func (s *stubVision) SuggestHotspots(context.Context, ImageRequest) ([]entity.Hotspot, error) {
	return nil, nil
}

func TestSnapshotSurvivesSwap(t *testing.T) {
	oldText := &stubText{name: "old"}
	reg := NewRegistry(oldText, Selection{Provider: "old"}, &stubVision{name: "v"}, Selection{Provider: "v"}, nil)

	text, _ := reg.Snapshot()
	reg.UseText(&stubText{name: "new"}, Selection{Provider: "new"})

	assert.Equal(t, "old", text.Name(), "in-flight snapshot keeps the pre-swap provider")
	assert.Equal(t, "new", reg.Text().Name())
}

func TestActiveReportsSelections(t *testing.T) {
	reg := NewRegistry(&stubText{name: "t"}, Selection{Provider: "openai", Model: "gpt-4o"},
		&stubVision{name: "v"}, Selection{Provider: "local"}, nil)

	textSel, visionSel := reg.Active()
	assert.Equal(t, "openai", textSel.Provider)
	assert.Equal(t, "gpt-4o", textSel.Model)
	assert.Equal(t, "local", visionSel.Provider)

	reg.UseVision(&stubVision{name: "v2"}, Selection{Provider: "anthropic", Model: "claude"})
	_, visionSel = reg.Active()
	assert.Equal(t, "anthropic", visionSel.Provider)
}
