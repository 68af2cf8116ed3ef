package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/internal/common"
)

func TestServiceExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\r\nline two\r"), 0o644))

	svc := NewService(nil)
	res, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", res.Text)
	assert.Empty(t, res.Images)
}

func TestServiceUnsupportedExtension(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Extract(context.Background(), "/tmp/archive.tar.gz")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestServiceMissingFile(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestServiceExtractImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 8))))
	path := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	svc := NewService(nil)
	res, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, res.Text)
	require.Len(t, res.Images, 1)
	img := res.Images[0]
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, 12, img.Width)
	assert.Equal(t, 8, img.Height)
	assert.Len(t, img.SHA256, 64)
}

func writeDocx(t *testing.T, documentXML string, media map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	doc, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(documentXML))
	require.NoError(t, err)

	for name, data := range media {
		f, err := w.Create("word/media/" + name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "manual.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

const minimalDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Engine Start Procedure</w:t></w:r></w:p>
    <w:p><w:r><w:t>Connect the external power unit.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxExtractor(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	path := writeDocx(t, minimalDocumentXML, map[string][]byte{
		"image1.png": img.Bytes(),
		"clip1.mp4":  []byte("not an image"),
	})

	svc := NewService(nil)
	res, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Engine Start Procedure\n\nConnect the external power unit.", res.Text)
	require.Len(t, res.Images, 1, "video media is skipped")
	assert.Equal(t, "image/png", res.Images[0].MimeType)
}

func TestDocxMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	svc := NewService(nil)
	_, err = svc.Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestImageMimeFromExt(t *testing.T) {
	assert.Equal(t, "image/png", imageMimeFromExt(".png"))
	assert.Equal(t, "image/jpeg", imageMimeFromExt(".JPG"))
	assert.Equal(t, "image/jpeg", imageMimeFromExt("jpeg"))
	assert.Equal(t, "application/octet-stream", imageMimeFromExt(".mp4"))
}
