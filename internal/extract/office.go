package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// DocxExtractor reads word/document.xml out of the OOXML archive and walks
// its paragraph tokens. Embedded pictures under word/media become
// illustration candidates.
type DocxExtractor struct{}

func (e *DocxExtractor) Extract(ctx context.Context, filePath string) (Result, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	var out Result
	var docFile *zip.File
	for _, f := range r.File {
		switch {
		case f.Name == "word/document.xml":
			docFile = f
		case strings.HasPrefix(f.Name, "word/media/"):
			if img, ok := readArchiveImage(f, 0); ok {
				out.Images = append(out.Images, img)
			}
		}
	}
	if docFile == nil {
		return Result{}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	text, err := wordParagraphs(ctx, rc)
	if err != nil {
		return Result{}, err
	}
	out.Text = text
	return out, nil
}

// wordParagraphs joins WordprocessingML w:p elements with blank lines so the
// downstream section splitter sees paragraph boundaries.
func wordParagraphs(ctx context.Context, r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	var para strings.Builder
	inParagraph := false

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				para.Reset()
			}
		case xml.CharData:
			if inParagraph {
				para.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(para.String()); text != "" {
					if sb.Len() > 0 {
						sb.WriteString("\n\n")
					}
					sb.WriteString(text)
				}
			}
		}
	}
	return sb.String(), nil
}

// PptxExtractor walks every ppt/slides/slideN.xml in slide order and joins
// the a:t text runs. Slide media become illustration candidates tagged with
// the slide number.
type PptxExtractor struct{}

var slideNrRe = strings.NewReplacer("ppt/slides/slide", "", ".xml", "")

func (e *PptxExtractor) Extract(ctx context.Context, filePath string) (Result, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	var out Result
	var slides []*zip.File
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml"):
			slides = append(slides, f)
		case strings.HasPrefix(f.Name, "ppt/media/"):
			if img, ok := readArchiveImage(f, 0); ok {
				out.Images = append(out.Images, img)
			}
		}
	}
	if len(slides) == 0 {
		return Result{}, fmt.Errorf("no slides found in archive")
	}

	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sb strings.Builder
	for _, slide := range slides {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rc, err := slide.Open()
		if err != nil {
			continue
		}
		text, err := slideText(rc)
		_ = rc.Close()
		if err != nil || text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	out.Text = sb.String()
	return out, nil
}

func slideNumber(name string) int {
	n, _ := strconv.Atoi(slideNrRe.Replace(name))
	return n
}

// slideText collects DrawingML a:t runs, one line per run.
func slideText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// readArchiveImage reads one media member into an Image candidate. Non-image
// media (video, audio) is skipped by extension.
func readArchiveImage(f *zip.File, sourcePage int) (Image, bool) {
	mime := imageMimeFromExt(path.Ext(f.Name))
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, false
	}
	rc, err := f.Open()
	if err != nil {
		return Image{}, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || len(data) == 0 {
		return Image{}, false
	}
	return Image{
		Data:       data,
		MimeType:   mime,
		SourcePage: sourcePage,
		SHA256:     hashBytes(data),
	}, true
}
