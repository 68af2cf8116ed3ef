// Package extract pulls raw text and embedded images out of uploaded source
// documents. One extractor per file format; Extract dispatches on the
// detected format.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
)

// Image is an embedded illustration candidate found inside a document.
type Image struct {
	Data       []byte
	MimeType   string
	Width      int
	Height     int
	SourcePage int
	SHA256     string
}

// Result is the format-independent output of an extraction.
type Result struct {
	Text   string
	Images []Image
}

// Extractor converts one file format into a Result.
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Service routes extraction requests to the per-format extractors.
type Service struct {
	extractors map[constants.Format]Extractor
	log        *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractors: map[constants.Format]Extractor{
			constants.PDF:   &PDFExtractor{log: logger},
			constants.DOCX:  &DocxExtractor{},
			constants.PPTX:  &PptxExtractor{},
			constants.XLSX:  &XlsxExtractor{},
			constants.TXT:   &TextExtractor{},
			constants.IMAGE: &ImageExtractor{},
		},
		log: logger,
	}
}

// Extract detects the format from the filename extension and runs the
// matching extractor.
func (s *Service) Extract(ctx context.Context, path string) (Result, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return Result{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("no extractor for extension %q", ext), common.ErrInvalidInput)
	}

	ex, ok := s.extractors[format]
	if !ok {
		return Result{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("no extractor for format %q", format), common.ErrInvalidInput)
	}

	s.log.Info("extract.start", "path", path, "format", format)
	res, err := ex.Extract(ctx, path)
	if err != nil {
		s.log.Error("extract.failed", "path", path, "format", format, "error", err)
		return Result{}, fmt.Errorf("extract %s: %v: %w",
			filepath.Base(path), err, common.ErrExtractionFailed)
	}
	s.log.Info("extract.ok", "path", path, "format", format,
		"text_len", len(res.Text), "images", len(res.Images))
	return res, nil
}

// hashBytes returns the hex SHA-256 of data, the idempotence key for
// embedded images.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// imageMimeFromExt maps a media filename extension to a MIME type.
func imageMimeFromExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "tif", "tiff":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
