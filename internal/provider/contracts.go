package provider

import (
	"context"

	"github.com/aquila-docs/aquila/internal/entity"
)

// TextRequest carries the text payload for a text-processing operation.
type TextRequest struct {
	Text    string
	Context map[string]string
}

// ImageRequest carries raw image bytes for a vision operation.
type ImageRequest struct {
	Data     []byte
	MimeType string
}

// CodeHints are optional S1000D code segments a classifier may derive from
// the text. Empty segments fall back to the operational-structure defaults.
type CodeHints struct {
	ModelIdent         string `json:"model_ident,omitempty"`
	SystemDiff         string `json:"system_diff,omitempty"`
	SystemCode         string `json:"system_code,omitempty"`
	SubSystemCode      string `json:"sub_system_code,omitempty"`
	SubSubSystemCode   string `json:"sub_sub_system_code,omitempty"`
	AssyCode           string `json:"assy_code,omitempty"`
	DisassyCode        string `json:"disassy_code,omitempty"`
	DisassyCodeVariant string `json:"disassy_code_variant,omitempty"`
	InfoCodeVariant    string `json:"info_code_variant,omitempty"`
	ItemLocationCode   string `json:"item_location_code,omitempty"`
}

// Classification is the normalized shape we want from a classify call.
type Classification struct {
	DMType     string    `json:"dm_type"`
	Title      string    `json:"title"`
	Confidence float64   `json:"confidence"`
	Hints      CodeHints `json:"hints,omitempty"`
}

// Section is one structural unit produced by structured extraction.
type Section struct {
	Type    string `json:"type"` // paragraph, list, table, figure
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Level   int    `json:"level,omitempty"`
}

// Extraction is the normalized shape we want from an extract call.
type Extraction struct {
	Sections []Section `json:"sections"`
	Warnings []string  `json:"warnings,omitempty"`
	Cautions []string  `json:"cautions,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
}

// Rewrite is the normalized shape we want from a simplified-English rewrite.
type Rewrite struct {
	Text         string   `json:"rewritten_text"`
	Score        float64  `json:"ste_score"` // 0..1 compliance estimate
	Improvements []string `json:"improvements,omitempty"`
}

// TextProvider is the capability set for text backends.
// Implementations are stateless aside from credentials; every call may block
// on network I/O and must honor ctx cancellation.
type TextProvider interface {
	Name() string
	Classify(ctx context.Context, req TextRequest) (Classification, error)
	Extract(ctx context.Context, req TextRequest) (Extraction, error)
	RewriteSTE(ctx context.Context, req TextRequest) (Rewrite, error)
}

// VisionProvider is the capability set for vision backends.
type VisionProvider interface {
	Name() string
	Caption(ctx context.Context, req ImageRequest) (string, error)
	DetectObjects(ctx context.Context, req ImageRequest) ([]string, error)
	SuggestHotspots(ctx context.Context, req ImageRequest) ([]entity.Hotspot, error)
}
