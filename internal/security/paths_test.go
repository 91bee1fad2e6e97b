package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ses_0b5e6c1a-77aa-4f7e-9c43-0d1f2b6a9e10", "ses_0b5e6c1a-77aa-4f7e-9c43-0d1f2b6a9e10"},
		{"../../etc/passwd", "etc_passwd"},
		{"P 07 / left hand", "P_07_left_hand"},
		{"..", "unknown"},
		{"", "unknown"},
		{"héllo", "h_llo"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := SanitizeFilename(strings.Repeat("a", 300)); len(got) != maxFilenameLen {
		t.Errorf("long name sanitized to %d bytes, want %d", len(got), maxFilenameLen)
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	if err := os.Symlink(unsafeDir, filepath.Join(safeDir, "evil-symlink")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"existing dir itself", safeDir, false},
		{"new nested file", filepath.Join(safeDir, "reports", "summary.json"), false},
		{"dot dot escape", filepath.Join(safeDir, "..", "unsafe", "x"), true},
		{"through symlink", filepath.Join(safeDir, "evil-symlink", "new.png"), true},
		{"sibling", filepath.Join(unsafeDir, "x"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoin(base, "../ses_1")
	if err != nil {
		t.Fatalf("SafeJoin: %v", err)
	}
	if want := filepath.Join(base, "ses_1"); got != want {
		t.Errorf("SafeJoin = %q, want %q", got, want)
	}
}
