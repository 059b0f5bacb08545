package pkgmeta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePackage = `{
  "name": "avg-plus",
  "version": "1.2.3",
  "private": true,
  "scripts": {
    "build:browser": "webpack"
  }
}
`

func writeSample(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

// TestFileRepository_NotFound verifies LoadVersion returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	v, err := repo.LoadVersion(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, v)
}

// TestFileRepository_NoVersion rejects documents without a string version.
func TestFileRepository_NoVersion(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(writeSample(t, `{"name": "x", "version": 3}`))
	_, err := repo.LoadVersion(context.Background())
	require.ErrorIs(t, err, ErrNoVersion)

	repo = NewFileRepository(writeSample(t, `{"name": `))
	_, err = repo.LoadVersion(context.Background())
	require.ErrorIs(t, err, errInvalidJSON)
}

// TestFileRepository_SaveKeepsLayout ensures only the version bytes change.
func TestFileRepository_SaveKeepsLayout(t *testing.T) {
	t.Parallel()

	path := writeSample(t, samplePackage)
	repo := NewFileRepository(path)

	v, err := repo.LoadVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)

	require.NoError(t, repo.SaveVersion(context.Background(), "1.2.4-alpha.0"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{
  "name": "avg-plus",
  "version": "1.2.4-alpha.0",
  "private": true,
  "scripts": {
    "build:browser": "webpack"
  }
}
`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// No leftovers of the replacement next to the target.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
