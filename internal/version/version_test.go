package version

import "testing"

func TestString(t *testing.T) {
	Version, GitSHA, BuildTime = "v0.3.0", "abc1234", "2024-03-01T12:00:00Z"
	t.Cleanup(func() { Version, GitSHA, BuildTime = "dev", "unknown", "unknown" })

	want := "tunnelsim v0.3.0 (commit abc1234, built 2024-03-01T12:00:00Z)"
	if got := String("tunnelsim"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
