package release

import (
	"fmt"
	"strings"
)

// BumpKind is the category of semantic-version increment.
type BumpKind string

// Supported bump kinds.
const (
	BumpMajor      BumpKind = "major"
	BumpPremajor   BumpKind = "premajor"
	BumpMinor      BumpKind = "minor"
	BumpPreminor   BumpKind = "preminor"
	BumpPatch      BumpKind = "patch"
	BumpPrepatch   BumpKind = "prepatch"
	BumpPrerelease BumpKind = "prerelease"
)

const (
	// DefaultBumpKind is used when no bump kind is requested.
	DefaultBumpKind = BumpPrepatch
	// DefaultIdentifier is the default prerelease label.
	DefaultIdentifier = "alpha"
)

// ParseBumpKind converts user input into a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	kind := BumpKind(strings.ToLower(strings.TrimSpace(s)))
	if kind == "" {
		return DefaultBumpKind, nil
	}

	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBumpKind, s)
	}

	return kind, nil
}

// Valid reports whether the kind is one of the supported bump kinds.
func (k BumpKind) Valid() bool {
	switch k {
	case BumpMajor, BumpPremajor, BumpMinor, BumpPreminor, BumpPatch, BumpPrepatch, BumpPrerelease:
		return true
	default:
		return false
	}
}

// IsPrerelease reports whether the kind produces a prerelease version.
func (k BumpKind) IsPrerelease() bool {
	switch k {
	case BumpPremajor, BumpPreminor, BumpPrepatch, BumpPrerelease:
		return true
	default:
		return false
	}
}

// ManifestType is the fixed type tag of an engine bundle.
const ManifestType = "engine"

// Manifest describes a packaged bundle for downstream consumers.
type Manifest struct {
	// Type is always ManifestType.
	Type string `json:"type"`
	// Name is the human-readable bundle name.
	Name string `json:"name"`
	// Version is the released semantic version.
	Version string `json:"version"`
}

// NewManifest builds the manifest for a product release.
func NewManifest(product, version string) *Manifest {
	return &Manifest{
		Type:    ManifestType,
		Name:    fmt.Sprintf("%s Engine Core (%s)", product, version),
		Version: version,
	}
}

// ArchiveName returns the archive file name for a product release.
func ArchiveName(product, version string) string {
	return fmt.Sprintf("%s-v%s.zip", product, version)
}
