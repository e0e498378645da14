package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	reservedNames  = regexp.MustCompile(`(?i)^(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`)
)

// SanitizePathname turns an arbitrary string into a safe file or directory
// name. When parentDir is non-empty the result is made unique against the
// entries already present there by appending a numeric suffix.
func SanitizePathname(name string, isFile bool, parentDir string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 50
	}

	cleaned := forbiddenChars.ReplaceAllString(name, " ")
	cleaned = whitespaceRun.ReplaceAllString(strings.TrimSpace(cleaned), "_")

	ext := ""
	if isFile {
		ext = strings.ToLower(filepath.Ext(cleaned))
		cleaned = strings.TrimSuffix(cleaned, filepath.Ext(cleaned))
	} else {
		cleaned = strings.Trim(cleaned, ".")
	}

	if reservedNames.MatchString(cleaned) {
		cleaned = "_" + cleaned
	}
	if cleaned == "" {
		cleaned = "_"
	}

	if runes := []rune(cleaned); len(runes) > maxLength-len(ext) {
		keep := maxLength - len(ext)
		if keep < 1 {
			keep = 1
		}
		cleaned = string(runes[:keep])
	}

	result := cleaned + ext
	if parentDir == "" {
		return result
	}

	candidate := result
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(parentDir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", cleaned, n, ext)
	}
}
