// Package security guards file system paths derived from stored or
// user-supplied identifiers.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

const maxFilenameLen = 128

// SanitizeFilename maps s to a safe single path element. Runs of characters
// other than ASCII letters, digits, dot, underscore and dash become one
// underscore; the result is trimmed of leading and trailing dots and
// underscores and capped at 128 bytes. An empty result is "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// canonical resolves symlinks in the longest existing prefix of an
// absolute path and re-attaches the rest.
func canonical(abs string) string {
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rel)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// ValidatePathWithinDirectory returns an error unless path, after cleaning
// and symlink resolution, lies inside dir.
func ValidatePathWithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}

	rel, err := filepath.Rel(canonical(absDir), canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// SafeJoin joins base and the sanitized form of name, and checks the
// result stays inside base.
func SafeJoin(base, name string) (string, error) {
	p := filepath.Join(base, SanitizeFilename(name))
	if err := ValidatePathWithinDirectory(p, base); err != nil {
		return "", err
	}
	return p, nil
}
