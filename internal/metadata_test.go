package internal

import (
	"path/filepath"
	"testing"
)

func TestLoadBatchMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), MetadataFileName)
	writeFile(t, path, `{
		"subject": "Fwd: КС",
		"sender": "ops@example.com",
		"files": ["a.pdf", "b.pdf"],
		"errors": {"a.pdf": ["уже была ошибка"]}
	}`)

	meta, err := LoadBatchMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Files) != 2 {
		t.Fatalf("files = %v", meta.Files)
	}
	if len(meta.Errors["a.pdf"]) != 1 {
		t.Fatalf("pre-seeded errors lost: %v", meta.Errors)
	}
	if meta.Successes == nil || meta.PartialSuccesses == nil {
		t.Fatal("maps must be initialized")
	}
}

func TestLoadBatchMetadataStructuralFailures(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.json")
	writeFile(t, missing, `{"subject": "x"}`)
	if _, err := LoadBatchMetadata(missing); err == nil {
		t.Fatal("expected error for missing files key")
	}

	wrongType := filepath.Join(dir, "wrong.json")
	writeFile(t, wrongType, `{"files": "not a list"}`)
	if _, err := LoadBatchMetadata(wrongType); err == nil {
		t.Fatal("expected error for non-list files")
	}

	garbage := filepath.Join(dir, "garbage.json")
	writeFile(t, garbage, `not json`)
	if _, err := LoadBatchMetadata(garbage); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestReclassify(t *testing.T) {
	meta := &BatchMetadata{
		Errors:           MessageMap{},
		PartialSuccesses: MessageMap{},
		Successes:        MessageMap{},
	}
	meta.Errors.Add("both.pdf", "частичная ошибка")
	meta.Successes.Add("both.pdf", "итоговый успех")
	meta.Errors.Add("bad.pdf", "фатальная ошибка")
	meta.Successes.Add("good.pdf", "успех")

	meta.Reclassify()

	if _, ok := meta.PartialSuccesses["both.pdf"]; !ok {
		t.Fatalf("partial successes = %v", meta.PartialSuccesses)
	}
	if got := meta.PartialSuccesses["both.pdf"]; len(got) != 2 {
		t.Fatalf("messages not merged: %v", got)
	}
	if _, ok := meta.Errors["both.pdf"]; ok {
		t.Fatal("errors must be cleared for reclassified file")
	}
	if _, ok := meta.Successes["both.pdf"]; ok {
		t.Fatal("successes must be cleared for reclassified file")
	}
	if _, ok := meta.Errors["bad.pdf"]; !ok {
		t.Fatal("pure error must survive")
	}
	if _, ok := meta.Successes["good.pdf"]; !ok {
		t.Fatal("pure success must survive")
	}

	if meta.FileStatus("both.pdf") != FileStatusPartialSuccess {
		t.Fatal("status mismatch for partial")
	}
	if meta.FileStatus("bad.pdf") != FileStatusError {
		t.Fatal("status mismatch for error")
	}
	if meta.FileStatus("good.pdf") != FileStatusSuccess {
		t.Fatal("status mismatch for success")
	}
}

func TestHasErrorsHasSuccesses(t *testing.T) {
	meta := &BatchMetadata{
		Errors:           MessageMap{},
		PartialSuccesses: MessageMap{},
		Successes:        MessageMap{},
	}
	if meta.HasErrors() || meta.HasSuccesses() {
		t.Fatal("empty metadata reports activity")
	}

	meta.GlobalErrors.Add("metadata.json поврежден")
	if !meta.HasErrors() {
		t.Fatal("global errors must count as errors")
	}

	meta.PartialSuccesses.Add("a.pdf", "x")
	if !meta.HasSuccesses() {
		t.Fatal("partial success counts as success for archival")
	}
}
