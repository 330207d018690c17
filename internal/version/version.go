// Package version provides build-time version information for yolobridge.
// Version, Commit, and BuildTime are populated via ldflags during the build.
// For development builds, default values are used.
package version

// Build information variables, set via ldflags at build time:
//
//	go build -ldflags "-X github.com/visionops/yolobridge/internal/version.Version=1.0.0 \
//	                   -X github.com/visionops/yolobridge/internal/version.Commit=abc123 \
//	                   -X github.com/visionops/yolobridge/internal/version.BuildTime=2026-01-10T12:00:00Z"
var (
	// Version is the semantic version of the service (e.g., "1.0.0", "dev").
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Info returns a human-readable version string for the -version flag.
func Info() string {
	return "yolobridge " + Version + " (" + Commit + ", built " + BuildTime + ")"
}
