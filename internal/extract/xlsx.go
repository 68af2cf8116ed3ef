package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxExtractor renders every sheet as tab-separated rows and collects
// embedded pictures as illustration candidates.
type XlsxExtractor struct{}

func (e *XlsxExtractor) Extract(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out Result
	var sb strings.Builder
	for sheetIdx, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(sheet)
		sb.WriteByte('\n')
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}

		cells, err := f.GetPictureCells(sheet)
		if err != nil {
			continue
		}
		for _, cell := range cells {
			pics, err := f.GetPictures(sheet, cell)
			if err != nil {
				continue
			}
			for _, pic := range pics {
				if len(pic.File) == 0 {
					continue
				}
				out.Images = append(out.Images, Image{
					Data:       pic.File,
					MimeType:   imageMimeFromExt(pic.Extension),
					SourcePage: sheetIdx + 1,
					SHA256:     hashBytes(pic.File),
				})
			}
		}
	}

	out.Text = strings.TrimSpace(sb.String())
	return out, nil
}
