package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/extract"
	"github.com/aquila-docs/aquila/internal/repository"
)

func setupLinker(t *testing.T) (*Linker, repository.ICNRepository, string) {
	t.Helper()

	db, err := repository.Open(context.Background(), common.DatabaseConfig{
		DSN:      ":memory:",
		MaxConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	icns := repository.NewICNRepository(db, nil)
	dir := t.TempDir()
	return NewLinker(icns, dir, nil), icns, dir
}

func testImage(t *testing.T, width, height int) extract.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	data := buf.Bytes()
	sum := sha256.Sum256(data)
	return extract.Image{
		Data:       data,
		MimeType:   "image/png",
		SourcePage: 1,
		SHA256:     hex.EncodeToString(sum[:]),
	}
}

func TestLinkCreatesAnnotatedICN(t *testing.T) {
	linker, _, dir := setupLinker(t)
	img := testImage(t, 40, 30)

	icn, err := linker.Link(context.Background(), &fakeVision{}, img, "DMC-TEST")
	require.NoError(t, err)

	assert.Regexp(t, `^ICN-[0-9A-F]{8}$`, icn.ICNID)
	assert.Equal(t, "A hydraulic pump", icn.Caption)
	assert.Equal(t, []string{"pump", "hose"}, icn.Objects)
	require.Len(t, icn.Hotspots, 1)
	assert.Equal(t, 40, icn.Width)
	assert.Equal(t, 30, icn.Height)

	_, err = os.Stat(icn.FilePath)
	assert.NoError(t, err, "image bytes stored under %s", dir)
}

func TestLinkIdempotentOnChecksum(t *testing.T) {
	linker, icns, _ := setupLinker(t)
	img := testImage(t, 20, 20)

	first, err := linker.Link(context.Background(), &fakeVision{}, img, "DMC-A")
	require.NoError(t, err)
	second, err := linker.Link(context.Background(), &fakeVision{}, img, "DMC-B")
	require.NoError(t, err)

	assert.Equal(t, first.ICNID, second.ICNID)

	all, err := icns.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLinkDegradesWhenVisionFails(t *testing.T) {
	linker, _, _ := setupLinker(t)
	img := testImage(t, 20, 20)

	icn, err := linker.Link(context.Background(), &fakeVision{fail: true}, img, "DMC-A")
	require.NoError(t, err)

	assert.Empty(t, icn.Caption)
	assert.Empty(t, icn.Objects)
	assert.Empty(t, icn.Hotspots)
}

func TestClampHotspots(t *testing.T) {
	in := []entity.Hotspot{
		{ID: "a", X: -5, Y: 10, Width: 200, Height: 20},
		{ID: "b", X: 90, Y: 90, Width: 50, Height: 50},
	}
	out := clampHotspots(in, 100, 100)
	require.Len(t, out, 2)

	assert.Equal(t, 0.0, out[0].X)
	assert.Equal(t, 100.0, out[0].Width)
	assert.Equal(t, 10.0, out[1].Width)
	assert.Equal(t, 10.0, out[1].Height)

	// unknown dimensions pass through
	same := clampHotspots(in, 0, 0)
	assert.Equal(t, in, same)
}
