package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTransferFilesCopy(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "nested", "dest")

	a := filepath.Join(src, "a.json")
	if err := os.WriteFile(a, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(src, "missing.json")

	if err := TransferFiles([]string{a, missing}, dst, TransferCopy); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dst, "a.json")); err != nil {
		t.Fatalf("copy target missing: %v", err)
	}
	if _, err := os.Stat(a); err != nil {
		t.Fatalf("source should remain after copy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "missing.json")); !os.IsNotExist(err) {
		t.Fatal("missing source must be skipped")
	}
}

func TestTransferFilesMove(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	a := filepath.Join(src, "a.json")
	if err := os.WriteFile(a, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := TransferFiles([]string{a}, dst, TransferMove); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	if _, err := os.Stat(filepath.Join(dst, "a.json")); err != nil {
		t.Fatalf("move target missing: %v", err)
	}
}

func TestTransferFilesBadOp(t *testing.T) {
	if err := TransferFiles(nil, t.TempDir(), "link"); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestRemoveDirIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "x"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveDirIfEmpty(empty); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatal("empty dir should be removed")
	}
	if err := RemoveDirIfEmpty(full); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(full); err != nil {
		t.Fatal("non-empty dir must survive")
	}
}
