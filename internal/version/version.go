// Package version carries build metadata, set at link time with
// -ldflags "-X github.com/banshee-data/steering.lab/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the release version.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata for a -version flag.
func String(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, Version, GitSHA, BuildTime)
}
