package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const packageJSON = `{
  "name": "avg-plus",
  "version": "1.2.3",
  "private": true,
  "scripts": {
    "build:browser": "webpack --env platform=browser"
  }
}
`

// buildScript emulates a platform build: it writes an output tree with an
// engine config, or fails according to FAIL_<platform>.
const buildScript = `#!/bin/sh
platform="$1"
out="dist/$platform"
echo "building $platform"
if [ "$platform" = "desktop" ] && [ -n "$FAIL_DESKTOP" ]; then
  echo "desktop toolchain missing" >&2
  exit "$FAIL_DESKTOP"
fi
if [ "$platform" = "browser" ] && [ -n "$SLOW_BROWSER" ]; then
  exec sleep "$SLOW_BROWSER"
fi
mkdir -p "$out/static"
printf '{\n  "name": "player",\n  "URL": "http://localhost:8080",\n  "screen": {"width": 1280}\n}\n' > "$out/engine.json"
printf '<html></html>' > "$out/index.html"
printf 'run()' > "$out/static/app.js"
`

const settings = `product: AVGPlus
build_command: sh build.sh {platform}
log_file: package-release/avg-release.log
metrics_file: package-release/avg_release.prom
remote:
  kind: local
  root: remote
`

// newProject creates a project directory with package metadata, settings and a build script.
func newProject(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("build script requires a POSIX shell")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(packageJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build.sh"), []byte(buildScript), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "avg-release.yaml"), []byte(settings), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "remote"), 0o755))

	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(body)
}

// archiveEntries lists the names stored in a zip archive.
func archiveEntries(t *testing.T, path string) []string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}

	return names
}
