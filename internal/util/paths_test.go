package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizePathname(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		isFile bool
		want   string
	}{
		{"forbidden chars become separators", `inv<>:"/\|?*.pdf`, true, "inv.pdf"},
		{"whitespace collapses to underscore", "a   b\tc.PDF", true, "a_b_c.pdf"},
		{"extension lowercased", "Report.XLSX", true, "report.xlsx"},
		{"dir dots trimmed", "..folder.", false, "folder"},
		{"reserved name prefixed", "CON", false, "_CON"},
		{"reserved device file", "aux.txt", true, "_aux.txt"},
		{"empty becomes placeholder", "   ", false, "_"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizePathname(tc.input, tc.isFile, "", 50)
			if got != tc.want {
				t.Errorf("SanitizePathname(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitizePathnameLength(t *testing.T) {
	long := strings.Repeat("x", 80) + ".pdf"
	got := SanitizePathname(long, true, "", 50)
	if len(got) != 50 {
		t.Fatalf("length = %d, want 50", len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("extension lost: %q", got)
	}
}

func TestSanitizePathnameUnique(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc_1.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := SanitizePathname("doc.pdf", true, dir, 50)
	if got != "doc_2.pdf" {
		t.Fatalf("got %q, want doc_2.pdf", got)
	}
}

func TestSanitizePathnameIdempotent(t *testing.T) {
	once := SanitizePathname("Отчет по рейсу 12.pdf", true, "", 50)
	twice := SanitizePathname(once, true, "", 50)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}
