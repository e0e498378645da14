package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cargodocs/internal"
)

// ExportRunsToXLSX flattens journaled runs into one row per file result.
func ExportRunsToXLSX(runs []internal.RunRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"run_id", "trace_id", "folder", "subject", "sender", "created_at", "duration_ms",
		"filename", "status", "pdf_pages", "messages",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	r := 2
	for _, run := range runs {
		files := run.Files
		if len(files) == 0 {
			files = []internal.FileResult{{}}
		}
		for _, file := range files {
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(sheet, cell, value)
			}

			set(1, run.ID)
			set(2, run.TraceID)
			set(3, run.Folder)
			set(4, run.Subject)
			set(5, run.Sender)
			set(6, run.CreatedAt)
			set(7, run.DurationMs)
			set(8, file.Filename)
			set(9, file.Status)
			set(10, file.PDFPages)
			set(11, strings.Join(file.Messages, "\n"))
			r++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
