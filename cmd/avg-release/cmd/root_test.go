package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/service/releaser"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 1, ExitCode(errors.New("boom")))
	require.Equal(t, 1, ExitCode(release.ErrArchiveWriteFailed))

	buildErr := &release.BuildFailedError{Platform: release.PlatformDesktop, ExitCode: 3}
	require.Equal(t, 3, ExitCode(fmt.Errorf("run: %w", buildErr)))

	// Start failures and killed builds have no usable exit code.
	require.Equal(t, 1, ExitCode(&release.BuildFailedError{Platform: release.PlatformBrowser, ExitCode: -1}))
}

func TestReleaseOptions(t *testing.T) {
	t.Parallel()

	got, err := releaseOptions(&flags{
		platform:    "Browser",
		versionBump: "prerelease",
		identifier:  "beta",
		projectDir:  "/work/avg",
		configPath:  "avg-release.yaml",
		upload:      true,
	})
	require.NoError(t, err)
	require.Equal(t, &releaser.Options{
		ProjectDir: "/work/avg",
		ConfigPath: "avg-release.yaml",
		Platform:   release.SelectBrowser,
		BumpKind:   release.BumpPrerelease,
		Identifier: "beta",
		OutputDir:  filepath.Join("/work/avg", releaser.DefaultOutputDirName),
		Upload:     true,
	}, got)
}

// TestReleaseOptions_RelativePaths resolves -C and -o once, so the directory the CLI
// creates is the one the archive is written to.
func TestReleaseOptions_RelativePaths(t *testing.T) {
	t.Parallel()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := releaseOptions(&flags{platform: "browser", versionBump: "patch", projectDir: "proj"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "proj"), got.ProjectDir)
	require.Equal(t, filepath.Join(cwd, "proj", releaser.DefaultOutputDirName), got.OutputDir)

	got, err = releaseOptions(&flags{
		platform:        "browser",
		versionBump:     "patch",
		projectDir:      "other",
		outputDirectory: "out",
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "other"), got.ProjectDir)
	require.Equal(t, filepath.Join(cwd, "out"), got.OutputDir)
}

func TestReleaseOptions_Invalid(t *testing.T) {
	t.Parallel()

	_, err := releaseOptions(&flags{platform: "android", versionBump: "patch"})
	require.ErrorIs(t, err, release.ErrUnknownPlatform)

	_, err = releaseOptions(&flags{platform: "all", versionBump: "micro"})
	require.ErrorIs(t, err, release.ErrInvalidBumpKind)
}

func TestSettingsPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("proj", "avg-release.yaml"), settingsPath("proj", ""))
	require.Equal(t, "/etc/avg-release.yaml", settingsPath("proj", "/etc/avg-release.yaml"))
}

// TestRelease_RelativeProject runs a release with a relative project directory and
// checks the archive lands in the directory created before the run.
//
//nolint:paralleltest // Changes the working directory.
func TestRelease_RelativeProject(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("build command requires a POSIX shell")
	}

	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll("proj", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("proj", "package.json"), []byte(`{"version": "1.2.3"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("proj", "avg-release.yaml"), []byte(
		`build_command: mkdir -p dist/{platform} && echo '{"URL":""}' > dist/{platform}/engine.json`+"\n"), 0o644))

	options, err := releaseOptions(&flags{
		platform:    "browser",
		versionBump: "patch",
		projectDir:  "proj",
		configPath:  "avg-release.yaml",
	})
	require.NoError(t, err)
	require.NoError(t, releaser.EnsureOutputDir(options.OutputDir))

	report, err := releaser.Run(context.Background(), options)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "proj", releaser.DefaultOutputDirName, "AVGPlus-v1.2.4.zip"), report.Archive.Path)
	require.FileExists(t, report.Archive.Path)
	require.NoDirExists(t, filepath.Join(cwd, "proj", "proj"))
}
