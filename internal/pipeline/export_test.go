package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"cargodocs/internal"
)

func TestExportRunsToXLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "runs.xlsx")
	runs := []internal.RunRecord{
		{
			ID:      1,
			TraceID: "batch_1",
			Folder:  "/data/out_ocr/batch_1",
			Subject: "КС VX75EA25000897",
			Files: []internal.FileResult{
				{Filename: "doc1.pdf", Status: internal.FileStatusSuccess, PDFPages: 2},
				{Filename: "doc2.pdf", Status: internal.FileStatusError, Messages: []string{"Файл не найден"}},
			},
		},
		{ID: 2, TraceID: "batch_2"},
	}

	if err := ExportRunsToXLSX(runs, out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "run_id" || rows[0][7] != "filename" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][7] != "doc1.pdf" || rows[1][8] != internal.FileStatusSuccess {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][10] != "Файл не найден" {
		t.Fatalf("row 2 = %v", rows[2])
	}
	if rows[3][1] != "batch_2" {
		t.Fatalf("row 3 = %v", rows[3])
	}
}
