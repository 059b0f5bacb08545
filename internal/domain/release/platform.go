package release

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies a build platform.
type Platform string

const (
	// PlatformBrowser is the web build, the only one pushed to the remote host.
	PlatformBrowser Platform = "browser"
	// PlatformDesktop is the desktop (Electron) build.
	PlatformDesktop Platform = "desktop"
)

// PlatformSelector is the user-facing choice of platforms to build.
type PlatformSelector string

const (
	// SelectAll builds every known platform.
	SelectAll PlatformSelector = "all"
	// SelectBrowser builds the browser platform only.
	SelectBrowser PlatformSelector = "browser"
	// SelectDesktop builds the desktop platform only.
	SelectDesktop PlatformSelector = "desktop"
)

// ParsePlatformSelector converts user input into a PlatformSelector.
// An empty value selects all platforms.
func ParsePlatformSelector(s string) (PlatformSelector, error) {
	switch selector := PlatformSelector(strings.ToLower(strings.TrimSpace(s))); selector {
	case "":
		return SelectAll, nil
	case SelectAll, SelectBrowser, SelectDesktop:
		return selector, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

// Platforms expands the selector into concrete platforms in a stable order.
func (s PlatformSelector) Platforms() []Platform {
	switch s {
	case SelectBrowser:
		return []Platform{PlatformBrowser}
	case SelectDesktop:
		return []Platform{PlatformDesktop}
	default:
		return []Platform{PlatformBrowser, PlatformDesktop}
	}
}

// Includes reports whether the selector expands to the given platform.
func (s PlatformSelector) Includes(p Platform) bool {
	for _, platform := range s.Platforms() {
		if platform == p {
			return true
		}
	}

	return false
}

// BuildTarget is a single platform build request.
type BuildTarget struct {
	// Platform is the platform being built.
	Platform Platform
	// OutputDirectory is where the build process leaves its output tree.
	OutputDirectory string
}

// BuildResult is the outcome of one finished build process.
type BuildResult struct {
	// Target is the build request this result belongs to.
	Target BuildTarget
	// ExitCode is the process exit code, -1 if the process never ran to completion.
	ExitCode int
	// Succeeded is true only for exit code 0.
	Succeeded bool
	// Duration is the wall time between start and exit.
	Duration time.Duration
}
