package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/provider"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	defaultModel     = "claude-3-5-sonnet-latest"
	anthropicVersion = "2023-06-01"
	maxTokens        = 2048
)

// Config for the Anthropic client.
type Config struct {
	APIKey      string // if empty, falls back to env ANTHROPIC_API_KEY
	BaseURL     string
	Model       string
	Timeout     time.Duration
	LenientJSON bool
}

// Client implements the text and vision provider contracts against the
// Anthropic messages API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}, log: logger}
}

func (c *Client) Name() string { return "anthropic" }

// Classify implements provider.TextProvider.
func (c *Client) Classify(ctx context.Context, req provider.TextRequest) (provider.Classification, error) {
	schema := provider.BuildClassificationSchema(constants.AsStringSlice())
	prompt := "Classify this technical text according to S1000D data module types " +
		"(PROC, DESC, IPD, CIR, SNS, WIR, GEN). Extract the title and estimate a 0..1 confidence. " +
		"Respond ONLY with JSON matching this schema:\n" + mustJSON(schema) + "\n\nText:\n" + clip(req.Text, 3000)

	var out provider.Classification
	if err := c.message(ctx, textContent(prompt), schema, &out); err != nil {
		return provider.Classification{}, err
	}
	return out, nil
}

// Extract implements provider.TextProvider.
func (c *Client) Extract(ctx context.Context, req provider.TextRequest) (provider.Extraction, error) {
	schema := provider.BuildExtractionSchema()
	prompt := "Extract structured sections (paragraph, list, table, figure) plus warnings, cautions " +
		"and notes from this technical text for S1000D data module creation. Respond ONLY with JSON " +
		"matching this schema:\n" + mustJSON(schema) + "\n\nText:\n" + req.Text

	var out provider.Extraction
	if err := c.message(ctx, textContent(prompt), schema, &out); err != nil {
		return provider.Extraction{}, err
	}
	return out, nil
}

// RewriteSTE implements provider.TextProvider.
func (c *Client) RewriteSTE(ctx context.Context, req provider.TextRequest) (provider.Rewrite, error) {
	schema := provider.BuildRewriteSchema()
	prompt := "Rewrite this technical text to comply with ASD-STE100 (Simplified Technical English): " +
		"approved vocabulary, max 20 words per sentence, active voice, simple present tense. " +
		"Respond ONLY with JSON matching this schema:\n" + mustJSON(schema) + "\n\nOriginal text:\n" + req.Text

	var out provider.Rewrite
	if err := c.message(ctx, textContent(prompt), schema, &out); err != nil {
		return provider.Rewrite{}, err
	}
	return out, nil
}

// Caption implements provider.VisionProvider.
func (c *Client) Caption(ctx context.Context, req provider.ImageRequest) (string, error) {
	content := imageContent(req,
		"Generate a technical caption for this image suitable for S1000D documentation. "+
			"Respond with the caption only.")
	text, err := c.messageText(ctx, content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// DetectObjects implements provider.VisionProvider.
func (c *Client) DetectObjects(ctx context.Context, req provider.ImageRequest) ([]string, error) {
	content := imageContent(req,
		"Identify all technical objects, components, and parts visible in this image. "+
			"Respond ONLY with a JSON array of object names.")
	text, err := c.messageText(ctx, content)
	if err != nil {
		return nil, err
	}
	var objects []string
	if err := json.Unmarshal(provider.ExtractJSONBlock(text), &objects); err != nil {
		// the reply may be a bare array rather than an object
		if err2 := json.Unmarshal([]byte(strings.TrimSpace(text)), &objects); err2 != nil {
			return nil, fmt.Errorf("decode objects: %v: %w", err, common.ErrProviderInvalidResponse)
		}
	}
	return objects, nil
}

// SuggestHotspots implements provider.VisionProvider.
func (c *Client) SuggestHotspots(ctx context.Context, req provider.ImageRequest) ([]entity.Hotspot, error) {
	schema := provider.BuildHotspotsSchema()
	content := imageContent(req,
		"Suggest clickable hotspot regions for the technical components in this image. "+
			"Respond ONLY with JSON matching this schema (pixel coordinates):\n"+mustJSON(schema))
	var out struct {
		Hotspots []entity.Hotspot `json:"hotspots"`
	}
	if err := c.message(ctx, content, schema, &out); err != nil {
		return nil, err
	}
	return out.Hotspots, nil
}

// message sends content, validates the JSON reply against schema, and
// unmarshals into out.
func (c *Client) message(ctx context.Context, content []map[string]any, schema map[string]any, out any) error {
	text, err := c.messageText(ctx, content)
	if err != nil {
		return err
	}
	payload := provider.ExtractJSONBlock(text)
	if err := provider.ValidateJSONAgainstSchema(schema, payload); err != nil {
		if c.cfg.LenientJSON {
			if cleaned, dropped, sErr := provider.StripUnknownFields(schema, payload); sErr == nil {
				if vErr := provider.ValidateJSONAgainstSchema(schema, cleaned); vErr == nil {
					if len(dropped) > 0 {
						c.log.Warn("anthropic.lenient_sanitize_applied", "dropped", dropped)
					}
					return json.Unmarshal(cleaned, out)
				}
			}
		}
		return fmt.Errorf("schema validation failed: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal response: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	return nil
}

// messageText sends a messages request and returns the concatenated text blocks.
func (c *Client) messageText(ctx context.Context, content []map[string]any) (string, error) {
	body := map[string]any{
		"model":      c.cfg.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/messages", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic http error: %v: %w", err, common.ErrProviderUnavailable)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("anthropic response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("anthropic status %d: %w", resp.StatusCode, common.ErrProviderUnavailable)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("anthropic status %d: %w", resp.StatusCode, common.ErrProviderUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("anthropic status %d: %s: %w", resp.StatusCode, raw, common.ErrProviderInvalidResponse)
	}

	var mr struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &mr); err != nil {
		return "", fmt.Errorf("decode anthropic response: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in anthropic response: %w", common.ErrProviderInvalidResponse)
	}
	return sb.String(), nil
}

func textContent(prompt string) []map[string]any {
	return []map[string]any{{"type": "text", "text": prompt}}
}

func imageContent(req provider.ImageRequest, prompt string) []map[string]any {
	mime := req.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return []map[string]any{
		{"type": "image", "source": map[string]any{
			"type":       "base64",
			"media_type": mime,
			"data":       base64.StdEncoding.EncodeToString(req.Data),
		}},
		{"type": "text", "text": prompt},
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
