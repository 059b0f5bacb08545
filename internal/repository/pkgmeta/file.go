package pkgmeta

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	// Ensure SHA512 available for write verification.
	_ "crypto/sha512"
)

// Repository defines persistence operations for the version record.
type Repository interface {
	LoadVersion(ctx context.Context) (string, error)
	SaveVersion(ctx context.Context, version string) error
}

// FileRepository stores the version in the "version" field of a JSON document on disk.
type FileRepository struct {
	// path is the filesystem location of the metadata file.
	path string
	// mu serializes access to the file within the process.
	mu sync.Mutex
}

const (
	versionField = "version"

	// checksumFunction verifies the bytes that replace the record.
	checksumFunction = crypto.SHA512
)

var (
	// ErrNotFound is returned when the metadata file does not exist.
	ErrNotFound = errors.New("package metadata not found")
	// ErrNoVersion is returned when the document has no string version field.
	ErrNoVersion = errors.New("package metadata has no version")
	// errInvalidJSON is returned when the document is not valid JSON.
	errInvalidJSON = errors.New("package metadata is not valid JSON")
)

// NewFileRepository creates a repository that reads/writes the file at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the metadata file location.
func (r *FileRepository) Path() string {
	return r.path
}

// LoadVersion reads the version string from disk.
func (r *FileRepository) LoadVersion(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := r.read()
	if err != nil {
		return "", err
	}

	value := gjson.GetBytes(contents, versionField)
	if value.Type != gjson.String {
		return "", fmt.Errorf("%s: %w", r.path, ErrNoVersion)
	}

	return value.String(), nil
}

// SaveVersion rewrites the version field and atomically replaces the file.
// The new contents are written next to the target, verified against their
// SHA-512 checksum and renamed over the original.
func (r *FileRepository) SaveVersion(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := r.read()
	if err != nil {
		return err
	}

	updated, err := sjson.SetBytes(contents, versionField, version)
	if err != nil {
		return fmt.Errorf("set version: %w", err)
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("stat package metadata: %w", err)
	}

	hasher := checksumFunction.New()
	_, _ = hasher.Write(updated)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: info.Mode().Perm(),
		Checksum:   hasher.Sum(nil),
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(updated), options); err != nil {
		return fmt.Errorf("replace package metadata: %w", err)
	}

	return nil
}

// read loads and sanity-checks the document.
func (r *FileRepository) read() ([]byte, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, ErrNotFound)
		}

		return nil, fmt.Errorf("read package metadata: %w", err)
	}

	if !gjson.ValidBytes(contents) {
		return nil, fmt.Errorf("%s: %w", r.path, errInvalidJSON)
	}

	return contents, nil
}
