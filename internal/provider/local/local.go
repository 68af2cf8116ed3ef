// Package local implements the text and vision provider contracts with
// deterministic on-host heuristics. It needs no credentials or network and
// is the fallback backend when no remote vendor is configured.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/provider"
)

// Provider implements provider.TextProvider and provider.VisionProvider.
type Provider struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{log: logger}
}

func (p *Provider) Name() string { return "local" }

var typeKeywords = []struct {
	dmType   constants.DMType
	keywords []string
}{
	{constants.Procedural, []string{"procedure", "step", "install", "remove", "perform", "disconnect"}},
	{constants.Wiring, []string{"wiring", "harness", "connector", "pinout"}},
	{constants.Circuit, []string{"circuit", "voltage", "schematic", "resistor"}},
	{constants.IllustratedParts, []string{"parts list", "part number", "figure", "item"}},
	{constants.Fault, []string{"fault", "failure", "troubleshoot", "symptom"}},
	{constants.Descriptive, []string{"description", "overview", "consists of", "comprises"}},
}

// Classify scores keyword hits per data module type and picks the best.
func (p *Provider) Classify(_ context.Context, req provider.TextRequest) (provider.Classification, error) {
	lower := strings.ToLower(req.Text)

	best := constants.General
	bestHits := 0
	for _, tk := range typeKeywords {
		hits := 0
		for _, kw := range tk.keywords {
			hits += strings.Count(lower, kw)
		}
		if hits > bestHits {
			best = tk.dmType
			bestHits = hits
		}
	}

	confidence := 0.5
	if bestHits > 0 {
		confidence = 0.8
	}

	return provider.Classification{
		DMType:     string(best),
		Title:      firstSentence(req.Text, 80),
		Confidence: confidence,
	}, nil
}

// Extract splits the text on blank lines into paragraph sections.
func (p *Provider) Extract(_ context.Context, req provider.TextRequest) (provider.Extraction, error) {
	var out provider.Extraction
	for i, para := range strings.Split(req.Text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lower := strings.ToLower(para)
		switch {
		case strings.HasPrefix(lower, "warning"):
			out.Warnings = append(out.Warnings, para)
		case strings.HasPrefix(lower, "caution"):
			out.Cautions = append(out.Cautions, para)
		case strings.HasPrefix(lower, "note"):
			out.Notes = append(out.Notes, para)
		default:
			out.Sections = append(out.Sections, provider.Section{
				Type:    "paragraph",
				Title:   fmt.Sprintf("Section %d", i+1),
				Content: para,
				Level:   1,
			})
		}
	}
	return out, nil
}

// RewriteSTE applies a crude simplification: sentences are split at 20 words
// and passive markers are counted against the score.
func (p *Provider) RewriteSTE(_ context.Context, req provider.TextRequest) (provider.Rewrite, error) {
	sentences := splitSentences(req.Text)
	var rewritten []string
	long := 0
	passive := 0
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) > 20 {
			long++
			for len(words) > 20 {
				rewritten = append(rewritten, strings.Join(words[:20], " ")+".")
				words = words[20:]
			}
		}
		if len(words) > 0 {
			rewritten = append(rewritten, strings.Join(words, " ")+".")
		}
		lower := strings.ToLower(s)
		if strings.Contains(lower, " is being ") || strings.Contains(lower, " was ") || strings.Contains(lower, " were ") {
			passive++
		}
	}

	score := 1.0
	if n := len(sentences); n > 0 {
		score -= 0.3 * float64(long) / float64(n)
		score -= 0.2 * float64(passive) / float64(n)
	}
	if score < 0 {
		score = 0
	}

	return provider.Rewrite{
		Text:  strings.Join(rewritten, " "),
		Score: score,
	}, nil
}

// Caption implements provider.VisionProvider with a fixed technical caption.
func (p *Provider) Caption(_ context.Context, req provider.ImageRequest) (string, error) {
	return "Technical illustration (" + req.MimeType + ")", nil
}

// DetectObjects implements provider.VisionProvider. No local object model is
// installed, so the set is empty.
func (p *Provider) DetectObjects(context.Context, provider.ImageRequest) ([]string, error) {
	return []string{}, nil
}

// SuggestHotspots implements provider.VisionProvider with a single full-frame
// region the author can refine.
func (p *Provider) SuggestHotspots(context.Context, provider.ImageRequest) ([]entity.Hotspot, error) {
	return []entity.Hotspot{
		{ID: "hs-1", X: 0, Y: 0, Width: 1, Height: 1, Description: "Full illustration"},
	}, nil
}

func firstSentence(text string, limit int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".\n"); i > 0 {
		text = text[:i]
	}
	if len(text) > limit {
		text = text[:limit]
	}
	if text == "" {
		text = "Untitled Document"
	}
	return text
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
