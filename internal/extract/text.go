package extract

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// TextExtractor passes plain-text files through with normalized line endings.
type TextExtractor struct{}

func (e *TextExtractor) Extract(_ context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return Result{Text: strings.TrimSpace(text)}, nil
}

// ImageExtractor treats a standalone image upload as a document with no text
// and a single illustration candidate.
type ImageExtractor struct{}

func (e *ImageExtractor) Extract(_ context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	img := Image{
		Data:       data,
		MimeType:   imageMimeFromExt(filepath.Ext(path)),
		SourcePage: 1,
		SHA256:     hashBytes(data),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}
	return Result{Images: []Image{img}}, nil
}
