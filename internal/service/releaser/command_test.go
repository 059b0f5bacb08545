package releaser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/domain/release"
)

// TestNewRunner_Defaults resolves every path against the project directory.
func TestNewRunner_Defaults(t *testing.T) {
	t.Parallel()

	project := t.TempDir()

	r, err := newRunner(&Options{ProjectDir: project})
	require.NoError(t, err)
	require.Equal(t, release.SelectAll, r.opts.Platform)
	require.Equal(t, release.BumpPrepatch, r.opts.BumpKind)
	require.Equal(t, release.DefaultIdentifier, r.opts.Identifier)
	require.Equal(t, filepath.Join(project, "package-release"), r.opts.OutputDir)
	require.Equal(t, filepath.Join(project, "package.json"), r.cfg.PackageFile)
	require.Nil(t, r.transport)
	require.Nil(t, r.recorder)
	require.NotEmpty(t, r.report.RunID)
}

// TestNewRunner_Upload validates remote settings before the run starts.
func TestNewRunner_Upload(t *testing.T) {
	t.Parallel()

	project := t.TempDir()

	// The default remote has no host.
	_, err := newRunner(&Options{ProjectDir: project, Upload: true})
	require.Error(t, err)

	_, err = newRunner(&Options{ProjectDir: project, Platform: release.SelectDesktop, Upload: true})
	require.ErrorIs(t, err, errUploadWithoutBrowser)

	cfg := config.Default()
	cfg.Remote.Kind = config.RemoteLocal
	cfg.Remote.Root = "remote"
	cfg.MetricsFile = "avg_release.prom"
	require.NoError(t, config.Save(filepath.Join(project, config.DefaultConfigFilename), cfg))

	r, err := newRunner(&Options{ProjectDir: project, Upload: true, OutputDir: "out"})
	require.NoError(t, err)
	require.NotNil(t, r.transport)
	require.NotNil(t, r.recorder)
	require.Equal(t, filepath.Join(project, "remote"), r.cfg.Remote.Root)
	require.Equal(t, filepath.Join(project, "out"), r.opts.OutputDir)
}

func TestNewRunner_NilOptions(t *testing.T) {
	t.Parallel()

	_, err := newRunner(nil)
	require.ErrorIs(t, err, errOptionsRequired)
}

func TestEnsureOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureOutputDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
