package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MetadataFileName is the descriptor the upstream mail collaborator drops
// into every staging folder.
const MetadataFileName = "metadata.json"

// LoadBatchMetadata reads and structurally validates a batch descriptor.
// A descriptor without a "files" list is invalid: the caller is expected to
// route the whole folder to the error directory.
func LoadBatchMetadata(path string) (*BatchMetadata, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(blob, &probe); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	rawFiles, ok := probe["files"]
	if !ok {
		return nil, fmt.Errorf("metadata %s: missing required key \"files\"", path)
	}
	var files []string
	if err := json.Unmarshal(rawFiles, &files); err != nil {
		return nil, fmt.Errorf("metadata %s: key \"files\" is not a list of names: %w", path, err)
	}

	var meta BatchMetadata
	if err := json.Unmarshal(blob, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	meta.ensureMaps()
	return &meta, nil
}

func (m *BatchMetadata) ensureMaps() {
	if m.Errors == nil {
		m.Errors = MessageMap{}
	}
	if m.PartialSuccesses == nil {
		m.PartialSuccesses = MessageMap{}
	}
	if m.Successes == nil {
		m.Successes = MessageMap{}
	}
}

func (m *BatchMetadata) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// Reclassify moves filenames that collected both errors and successes during
// a pass into partial successes, merging the messages and clearing the
// originals. Runs once, after all files of a folder are processed.
func (m *BatchMetadata) Reclassify() {
	m.ensureMaps()
	for filename, errorMessages := range m.Errors {
		successMessages, ok := m.Successes[filename]
		if !ok {
			continue
		}
		m.PartialSuccesses.Add(filename, errorMessages...)
		m.PartialSuccesses.Add(filename, successMessages...)
		delete(m.Errors, filename)
		delete(m.Successes, filename)
	}
}

// HasErrors reports whether any per-file or batch-level error was recorded.
func (m *BatchMetadata) HasErrors() bool {
	return len(m.Errors) > 0 || len(m.PartialSuccesses) > 0 || len(m.GlobalErrors) > 0
}

func (m *BatchMetadata) HasSuccesses() bool {
	return len(m.Successes) > 0 || len(m.PartialSuccesses) > 0
}

// FileStatus classifies one filename after Reclassify.
func (m *BatchMetadata) FileStatus(filename string) string {
	if _, ok := m.PartialSuccesses[filename]; ok {
		return FileStatusPartialSuccess
	}
	if _, ok := m.Successes[filename]; ok {
		return FileStatusSuccess
	}
	return FileStatusError
}

// FileMessages collects every message recorded for a filename.
func (m *BatchMetadata) FileMessages(filename string) []string {
	var out StringSet
	out.Add(m.Errors[filename]...)
	out.Add(m.PartialSuccesses[filename]...)
	out.Add(m.Successes[filename]...)
	return out
}
