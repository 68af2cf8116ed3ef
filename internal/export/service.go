// Package export produces downloadable artifacts from the module store.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aquila-docs/aquila/internal/repository"
)

// Service is a tiny façade over the module store that produces XLSX bytes.
type Service struct {
	modules repository.DataModuleRepository
	logger  *slog.Logger
}

func NewService(modules repository.DataModuleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{modules: modules, logger: logger}
}

// ExportModulesXLSX returns an XLSX workbook listing every data module.
func (s *Service) ExportModulesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	modules, err := s.modules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query data modules: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Data Modules"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"DMC",
		"Title",
		"Type",
		"Variant",
		"Validation Status",
		"STE Score",
		"Source Document",
		"Created",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, dm := range modules {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, dm.DMC)
		write(2, truncate(dm.Title, 140))
		write(3, string(dm.DMType))
		write(4, dm.InfoVariant)
		write(5, string(dm.ValidationStatus))
		if dm.InfoVariant == "01" {
			write(6, fmt.Sprintf("%.2f", dm.STEScore))
		} else {
			write(6, "")
		}
		write(7, dm.SourceDocumentID.String())
		write(8, dm.CreatedAt.Format("2006-01-02 15:04"))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 54) // dmc
	_ = f.SetColWidth(sheet, "B", "B", 40) // title
	_ = f.SetColWidth(sheet, "C", "E", 14)
	_ = f.SetColWidth(sheet, "F", "F", 10)
	_ = f.SetColWidth(sheet, "G", "G", 38) // source document id
	_ = f.SetColWidth(sheet, "H", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(modules),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
