// Package version holds build metadata injected via ldflags.
package version

var (
	// Version is the lanewatch release version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
