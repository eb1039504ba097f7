package version

import "fmt"

//nolint:gochecknoglobals // Build metadata is injected via ldflags.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA of the build, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
