package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/service/common"
	"github.com/avgplus/avg-release/internal/service/releaser"
)

// TestRelease_FullPipeline bumps, builds both platforms, deploys and archives.
func TestRelease_FullPipeline(t *testing.T) {
	project := newProject(t)
	output := filepath.Join(project, "out")
	require.NoError(t, releaser.EnsureOutputDir(output))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := releaser.Run(ctx, &releaser.Options{
		ProjectDir: project,
		OutputDir:  output,
		Upload:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "1.2.4-alpha.0", report.Version)
	require.True(t, report.Persisted)
	require.Len(t, report.Builds, 2)

	// Only the version field changed.
	require.Equal(t,
		strings.Replace(packageJSON, `"version": "1.2.3"`, `"version": "1.2.4-alpha.0"`, 1),
		readFile(t, filepath.Join(project, "package.json")))

	engine := readFile(t, filepath.Join(project, "dist", "browser", "engine.json"))
	require.Equal(t, "https://live-player.avg-engine.com/engine/1.2.4-alpha.0", gjson.Get(engine, "URL").String())
	require.Equal(t, "1.2.4-alpha.0", gjson.Get(engine, "version").String())
	require.Equal(t, int64(1280), gjson.Get(engine, "screen.width").Int())

	staged := filepath.Join(project, "package-release", ".temp")
	require.JSONEq(t,
		`{"type":"engine","name":"AVGPlus Engine Core (1.2.4-alpha.0)","version":"1.2.4-alpha.0"}`,
		readFile(t, filepath.Join(staged, "bundle-info.json")))
	require.Equal(t, engine, readFile(t, filepath.Join(staged, "bundle", "desktop", "engine.json")))

	remote := filepath.Join(project, "remote", "engine", "1.2.4-alpha.0")
	require.Equal(t, remote, report.Destination)
	require.FileExists(t, filepath.Join(remote, "static", "app.js"))
	require.NoDirExists(t, filepath.Join(remote, "desktop"))

	require.Equal(t, filepath.Join(output, "AVGPlus-v1.2.4-alpha.0.zip"), report.Archive.Path)
	require.Subset(t, archiveEntries(t, report.Archive.Path), []string{
		"bundle-info.json",
		"bundle/",
		"bundle/browser/engine.json",
		"bundle/browser/static/app.js",
		"bundle/desktop/index.html",
	})

	require.NoFileExists(t, filepath.Join(project, "package-release", common.MarkerFilename))
	require.Contains(t, readFile(t, filepath.Join(project, "package-release", "avg_release.prom")),
		`avg_release_run_outcomes_total{outcome="success"} 1`)
	require.Contains(t, readFile(t, filepath.Join(project, "package-release", "avg-release.log")), report.RunID)
}

// TestRelease_BuildFailure aborts on the first failed build and keeps the bumped version.
func TestRelease_BuildFailure(t *testing.T) {
	project := newProject(t)
	output := filepath.Join(project, "out")
	require.NoError(t, releaser.EnsureOutputDir(output))

	t.Setenv("FAIL_DESKTOP", "3")
	t.Setenv("SLOW_BROWSER", "30")

	started := time.Now()

	_, err := releaser.Run(context.Background(), &releaser.Options{
		ProjectDir: project,
		OutputDir:  output,
	})

	var buildErr *release.BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, release.PlatformDesktop, buildErr.Platform)
	require.Equal(t, 3, buildErr.ExitCode)
	require.Less(t, time.Since(started), 20*time.Second)

	require.Contains(t, readFile(t, filepath.Join(project, "package.json")), `"version": "1.2.4-alpha.0"`)
	require.NoDirExists(t, filepath.Join(project, "package-release", ".temp"))
	require.NoFileExists(t, filepath.Join(output, "AVGPlus-v1.2.4-alpha.0.zip"))
	require.NoFileExists(t, filepath.Join(project, "package-release", common.MarkerFilename))
	require.Contains(t, readFile(t, filepath.Join(project, "package-release", "avg_release.prom")),
		`avg_release_run_outcomes_total{outcome="failed"} 1`)
}

// TestRelease_DevPackage releases the current version without touching the record.
func TestRelease_DevPackage(t *testing.T) {
	project := newProject(t)

	report, err := releaser.Run(context.Background(), &releaser.Options{
		ProjectDir: project,
		Platform:   release.SelectBrowser,
		IsDev:      true,
	})
	require.NoError(t, err)
	require.Equal(t, "1.2.3", report.Version)
	require.False(t, report.Persisted)
	require.Equal(t, packageJSON, readFile(t, filepath.Join(project, "package.json")))
	require.Equal(t, filepath.Join(project, "package-release", "AVGPlus-v1.2.3.zip"), report.Archive.Path)
	require.NotContains(t, archiveEntries(t, report.Archive.Path), "bundle/desktop/")
}

// TestRelease_UploadWithoutBrowser is rejected before the version is bumped.
func TestRelease_UploadWithoutBrowser(t *testing.T) {
	project := newProject(t)

	_, err := releaser.Run(context.Background(), &releaser.Options{
		ProjectDir: project,
		Platform:   release.SelectDesktop,
		Upload:     true,
	})
	require.Error(t, err)
	require.Equal(t, packageJSON, readFile(t, filepath.Join(project, "package.json")))
	require.NoDirExists(t, filepath.Join(project, "dist"))
}

// TestRelease_ConcurrentRunRejected refuses to start while another run holds the marker.
func TestRelease_ConcurrentRunRejected(t *testing.T) {
	project := newProject(t)

	marker, err := common.AcquireMarker(context.Background(), common.MarkerOptions{
		Dir: filepath.Join(project, "package-release"),
	})
	require.NoError(t, err)

	defer func() { _ = marker.Release() }()

	_, err = releaser.Run(context.Background(), &releaser.Options{ProjectDir: project})
	require.ErrorIs(t, err, common.ErrRunInProgress)
	require.Equal(t, packageJSON, readFile(t, filepath.Join(project, "package.json")))
	require.FileExists(t, marker.Path())
}
