// Package version holds build-time version metadata, set with
//
//	go build -ldflags "-X git.home.luguber.info/inful/productbuilder/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release version.
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version with its build metadata.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
