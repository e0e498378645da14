package util

import (
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFPageCount returns the number of pages in a PDF file, or 0 when the
// file is not a readable PDF.
func PDFPageCount(path string) int {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return 0
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return r.NumPage()
}
