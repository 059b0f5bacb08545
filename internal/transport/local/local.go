// Package local stores released bundles in a directory on this machine.
// It serves mounted network shares and test setups.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
)

var errRootNotDirectory = errors.New("remote root is not a directory")

// Store is a directory-backed transport.
type Store struct {
	root string
}

// New creates a store rooted at the directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Connect checks the root exists.
func (s *Store) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errRootNotDirectory, s.root)
	}

	return nil
}

// Exists reports whether the path is present.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.FromSlash(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// RemoveAll deletes the path recursively.
func (s *Store) RemoveAll(_ context.Context, path string) error {
	return os.RemoveAll(filepath.FromSlash(path))
}

// UploadDir copies the tree, creating parent directories.
func (s *Store) UploadDir(ctx context.Context, src, dst string) error {
	return copy.Copy(src, filepath.FromSlash(dst), copy.Options{
		Skip: func(os.FileInfo, string, string) (bool, error) {
			return false, ctx.Err()
		},
	})
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
