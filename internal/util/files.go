package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cargodocs/internal/logging"
)

const (
	TransferCopy = "copy"
	TransferMove = "move"
)

var log = logging.Component("util")

// TransferFiles copies or moves the given files into destDir, creating it
// if needed. Sources that do not exist or are not regular files are skipped.
// Filesystem errors are logged, not returned: a bad file must not sink the
// rest of the batch.
func TransferFiles(paths []string, destDir, op string) error {
	if op != TransferCopy && op != TransferMove {
		return fmt.Errorf("unknown transfer op: %q", op)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}
	for _, src := range paths {
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		dst := filepath.Join(destDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			log.WithError(err).Warnf("transfer %s", src)
			continue
		}
		if op == TransferMove {
			if err := os.Remove(src); err != nil {
				log.WithError(err).Warnf("remove after move %s", src)
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// IsDirEmpty reports whether dir exists and holds no entries.
func IsDirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// RemoveDirIfEmpty deletes dir when it holds no entries.
func RemoveDirIfEmpty(dir string) error {
	empty, err := IsDirEmpty(dir)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	return os.Remove(dir)
}
