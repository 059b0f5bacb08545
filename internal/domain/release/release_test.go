package release

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPlatformSelector verifies selector parsing and expansion.
func TestPlatformSelector(t *testing.T) {
	t.Parallel()

	s, err := ParsePlatformSelector("")
	require.NoError(t, err)
	require.Equal(t, []Platform{PlatformBrowser, PlatformDesktop}, s.Platforms())

	s, err = ParsePlatformSelector(" Browser ")
	require.NoError(t, err)
	require.Equal(t, []Platform{PlatformBrowser}, s.Platforms())
	require.True(t, s.Includes(PlatformBrowser))
	require.False(t, s.Includes(PlatformDesktop))

	_, err = ParsePlatformSelector("android")
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

// TestParseBumpKind checks defaults and rejection of unknown kinds.
func TestParseBumpKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseBumpKind("")
	require.NoError(t, err)
	require.Equal(t, BumpPrepatch, kind)

	kind, err = ParseBumpKind("MAJOR")
	require.NoError(t, err)
	require.Equal(t, BumpMajor, kind)
	require.False(t, kind.IsPrerelease())
	require.True(t, BumpPrerelease.IsPrerelease())

	_, err = ParseBumpKind("hotfix")
	require.ErrorIs(t, err, ErrInvalidBumpKind)
}

// TestManifestAndArchiveName checks naming conventions of release artifacts.
func TestManifestAndArchiveName(t *testing.T) {
	t.Parallel()

	m := NewManifest("AVGPlus", "1.2.4")
	require.Equal(t, "engine", m.Type)
	require.Equal(t, "AVGPlus Engine Core (1.2.4)", m.Name)
	require.Equal(t, "1.2.4", m.Version)
	require.Equal(t, "AVGPlus-v1.2.4.zip", ArchiveName("AVGPlus", "1.2.4"))
}

// TestErrorsMatchSentinels ensures typed errors match their sentinels through wrapping.
func TestErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	err := fmt.Errorf("run: %w", &BuildFailedError{Platform: PlatformDesktop, ExitCode: 1})
	require.ErrorIs(t, err, ErrBuildFailed)

	var buildErr *BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, 1, buildErr.ExitCode)

	require.ErrorIs(t, &ConfigNotFoundError{Platform: PlatformBrowser}, ErrConfigNotFound)
	require.ErrorIs(t, &CopyFailedError{Platform: PlatformBrowser, Err: cause}, ErrCopyFailed)
	require.ErrorIs(t, &CopyFailedError{Platform: PlatformBrowser, Err: cause}, cause)
	require.ErrorIs(t, &RemoteOperationError{Op: "upload", Err: cause}, ErrRemoteOperationFailed)
	require.ErrorIs(t, &RemoteOperationError{Op: "upload", Err: cause}, cause)
}
