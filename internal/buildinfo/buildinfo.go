package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version of the tool. It can be overridden via ldflags.
	Version = ""
	// Commit is the short git SHA embedded at build time.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// devVersion is reported when neither ldflags nor module info carry a version.
const devVersion = "dev"

// Short returns only the tool version.
func Short() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return devVersion
}

// Full returns a human-readable version string with commit, build time and Go runtime.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s, go: %s",
		Short(), Commit, BuildTime, runtime.Version())
}
