package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/provider"
)

// Classify implements provider.TextProvider.
func (c *Client) Classify(ctx context.Context, req provider.TextRequest) (provider.Classification, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("openai.classify.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(req.Text))

	schema := provider.BuildClassificationSchema(constants.AsStringSlice())
	prompt := buildClassifyPrompt(req.Text)

	content, err := c.chat(ctx, prompt, schema)
	if err != nil {
		c.log.Error("openai.classify.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return provider.Classification{}, err
	}

	var out provider.Classification
	if err := c.decodeChecked(schema, content, &out); err != nil {
		c.log.Error("openai.classify.decode_failed", "req_id", rid, "error", err)
		return provider.Classification{}, err
	}

	c.log.Info("openai.classify.ok", "req_id", rid,
		"dm_type", out.DMType, "title", out.Title, "confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Extract implements provider.TextProvider.
func (c *Client) Extract(ctx context.Context, req provider.TextRequest) (provider.Extraction, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("openai.extract.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(req.Text))

	schema := provider.BuildExtractionSchema()
	content, err := c.chat(ctx, buildExtractPrompt(req.Text), schema)
	if err != nil {
		c.log.Error("openai.extract.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return provider.Extraction{}, err
	}

	var out provider.Extraction
	if err := c.decodeChecked(schema, content, &out); err != nil {
		c.log.Error("openai.extract.decode_failed", "req_id", rid, "error", err)
		return provider.Extraction{}, err
	}

	c.log.Info("openai.extract.ok", "req_id", rid, "sections", len(out.Sections),
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// RewriteSTE implements provider.TextProvider.
func (c *Client) RewriteSTE(ctx context.Context, req provider.TextRequest) (provider.Rewrite, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("openai.rewrite.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(req.Text))

	schema := provider.BuildRewriteSchema()
	content, err := c.chat(ctx, buildRewritePrompt(req.Text), schema)
	if err != nil {
		c.log.Error("openai.rewrite.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return provider.Rewrite{}, err
	}

	var out provider.Rewrite
	if err := c.decodeChecked(schema, content, &out); err != nil {
		c.log.Error("openai.rewrite.decode_failed", "req_id", rid, "error", err)
		return provider.Rewrite{}, err
	}

	c.log.Info("openai.rewrite.ok", "req_id", rid, "ste_score", out.Score,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Caption implements provider.VisionProvider.
func (c *Client) Caption(ctx context.Context, req provider.ImageRequest) (string, error) {
	content, err := c.vision(ctx, req,
		"Generate a technical caption for this image suitable for S1000D documentation. "+
			"Focus on technical accuracy and clarity. Respond with the caption only.")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// DetectObjects implements provider.VisionProvider.
func (c *Client) DetectObjects(ctx context.Context, req provider.ImageRequest) ([]string, error) {
	content, err := c.vision(ctx, req,
		"Identify and list all technical objects, components, and parts visible in this image. "+
			"Return ONLY a JSON array of object names.")
	if err != nil {
		return nil, err
	}
	var objects []string
	raw := provider.ExtractJSONBlock(content)
	if !bytes.HasPrefix(bytes.TrimSpace([]byte(content)), []byte("[")) {
		raw = []byte(strings.TrimSpace(content))
	}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("decode objects: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	return objects, nil
}

// SuggestHotspots implements provider.VisionProvider.
func (c *Client) SuggestHotspots(ctx context.Context, req provider.ImageRequest) ([]entity.Hotspot, error) {
	content, err := c.vision(ctx, req,
		"Suggest clickable hotspot regions for the technical components in this image. "+
			`Respond ONLY with JSON: {"hotspots":[{"id":"hs-1","x":0,"y":0,"width":0,"height":0,"description":""}]} `+
			"using pixel coordinates.")
	if err != nil {
		return nil, err
	}

	schema := provider.BuildHotspotsSchema()
	var out struct {
		Hotspots []entity.Hotspot `json:"hotspots"`
	}
	if err := c.decodeChecked(schema, provider.ExtractJSONBlock(content), &out); err != nil {
		return nil, err
	}
	return out.Hotspots, nil
}

// chat posts a single-user-message completion request and returns the reply
// content with any markdown fencing stripped.
func (c *Client) chat(ctx context.Context, prompt string, schema map[string]any) ([]byte, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	content, err := decodeChatContent(raw)
	if err != nil {
		return nil, err
	}
	return provider.ExtractJSONBlock(content), nil
}

// vision posts a text+image message and returns the raw reply content.
func (c *Client) vision(ctx context.Context, req provider.ImageRequest, prompt string) (string, error) {
	mime := req.MimeType
	if mime == "" {
		mime = "image/png"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Data)
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": prompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
		},
	}
	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		return "", err
	}
	return decodeChatContent(raw)
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %v: %w", err, common.ErrProviderUnavailable)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("openai status %d: %s: %w", resp.StatusCode, buf.String(), common.ErrProviderUnavailable)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("openai status %d: %w", resp.StatusCode, common.ErrProviderUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("openai status %d: %s: %w", resp.StatusCode, buf.String(), common.ErrProviderInvalidResponse)
	}
	return buf.Bytes(), nil
}

// decodeChecked validates payload against schema (leniently dropping unknown
// fields when configured) and unmarshals it into out.
func (c *Client) decodeChecked(schema map[string]any, payload []byte, out any) error {
	if err := provider.ValidateJSONAgainstSchema(schema, payload); err != nil {
		if !c.cfg.LenientJSON {
			return fmt.Errorf("schema validation failed: %v: %w", err, common.ErrProviderInvalidResponse)
		}
		cleaned, dropped, sErr := provider.StripUnknownFields(schema, payload)
		if sErr != nil {
			return fmt.Errorf("sanitize failed: %v: %w", sErr, common.ErrProviderInvalidResponse)
		}
		if vErr := provider.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return fmt.Errorf("schema validation failed: %v: %w", vErr, common.ErrProviderInvalidResponse)
		}
		if len(dropped) > 0 {
			c.log.Warn("openai.lenient_sanitize_applied", "dropped", dropped)
		}
		payload = cleaned
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal response: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	return nil
}

func decodeChatContent(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %v: %w", err, common.ErrProviderInvalidResponse)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response: %w", common.ErrProviderInvalidResponse)
	}
	return cc.Choices[0].Message.Content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
