package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/extract"
	"github.com/aquila-docs/aquila/internal/provider"
	"github.com/aquila-docs/aquila/internal/repository"
)

// Linker turns extracted images into persisted ICN records. Linking is
// idempotent on image bytes: an already-known checksum reuses the existing
// record instead of minting a new identifier.
type Linker struct {
	icns   repository.ICNRepository
	icnDir string
	log    *slog.Logger
}

func NewLinker(icns repository.ICNRepository, icnDir string, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{icns: icns, icnDir: icnDir, log: logger}
}

// Link persists img as an ICN annotated by vision. Vision failures degrade
// to an ICN with empty caption, objects, and hotspots: the image is never
// silently dropped. ownerDMC only informs the log trail; ICNs are shared by
// reference and owned by no single module.
func (l *Linker) Link(ctx context.Context, vision provider.VisionProvider, img extract.Image, ownerDMC string) (*entity.ICN, error) {
	if existing, err := l.icns.FindByHash(ctx, img.SHA256); err == nil {
		l.log.Info("icn.link.reused", "icn_id", existing.ICNID, "sha256", img.SHA256, "owner", ownerDMC)
		return existing, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	icn := &entity.ICN{
		ICNID:      newICNID(),
		SHA256Hash: img.SHA256,
		MimeType:   img.MimeType,
		Width:      img.Width,
		Height:     img.Height,
		SourcePage: img.SourcePage,
	}
	if icn.Width == 0 || icn.Height == 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil {
			icn.Width = cfg.Width
			icn.Height = cfg.Height
		}
	}

	icn.Filename = icn.ICNID + extForMime(img.MimeType)
	if l.icnDir != "" {
		path := filepath.Join(l.icnDir, icn.Filename)
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return nil, fmt.Errorf("store icn file: %w", err)
		}
		icn.FilePath = path
	}

	l.annotate(ctx, vision, icn, img)

	if err := l.icns.Create(ctx, icn); err != nil {
		// A concurrent link of the same bytes can win the insert; fall back
		// to the record that made it in.
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			if existing, ferr := l.icns.FindByHash(ctx, img.SHA256); ferr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	l.log.Info("icn.link.created", "icn_id", icn.ICNID, "sha256", img.SHA256,
		"page", img.SourcePage, "owner", ownerDMC)
	return icn, nil
}

// annotate fills caption, objects, and hotspots from vision. Each call fails
// independently; the ICN keeps whatever annotations succeeded.
func (l *Linker) annotate(ctx context.Context, vision provider.VisionProvider, icn *entity.ICN, img extract.Image) {
	req := provider.ImageRequest{Data: img.Data, MimeType: img.MimeType}

	if caption, err := vision.Caption(ctx, req); err == nil {
		icn.Caption = caption
	} else {
		l.log.Warn("icn.caption.failed", "icn_id", icn.ICNID, "error", err)
	}

	if objects, err := vision.DetectObjects(ctx, req); err == nil {
		icn.Objects = objects
	} else {
		l.log.Warn("icn.objects.failed", "icn_id", icn.ICNID, "error", err)
	}

	if hotspots, err := vision.SuggestHotspots(ctx, req); err == nil {
		icn.Hotspots = clampHotspots(hotspots, icn.Width, icn.Height)
	} else {
		l.log.Warn("icn.hotspots.failed", "icn_id", icn.ICNID, "error", err)
	}
}

// clampHotspots bounds every region to the image dimensions. Unknown
// dimensions leave the suggestions untouched.
func clampHotspots(hotspots []entity.Hotspot, width, height int) []entity.Hotspot {
	if width <= 0 || height <= 0 {
		return hotspots
	}
	w, h := float64(width), float64(height)
	out := make([]entity.Hotspot, 0, len(hotspots))
	for _, hs := range hotspots {
		hs.X = clamp(hs.X, 0, w)
		hs.Y = clamp(hs.Y, 0, h)
		hs.Width = clamp(hs.Width, 0, w-hs.X)
		hs.Height = clamp(hs.Height, 0, h-hs.Y)
		out = append(out, hs)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newICNID() string {
	return "ICN-" + strings.ToUpper(uuid.New().String()[:8])
}

func extForMime(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/tiff":
		return ".tif"
	default:
		return ".bin"
	}
}
