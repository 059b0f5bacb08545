package release

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersionFormat is returned when a stored version is not a semantic version.
	ErrInvalidVersionFormat = errors.New("invalid version format")
	// ErrInvalidBumpKind is returned for an unknown bump kind.
	ErrInvalidBumpKind = errors.New("invalid bump kind")
	// ErrUnknownPlatform is returned for an unknown platform selector.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrBuildFailed matches every BuildFailedError.
	ErrBuildFailed = errors.New("build failed")
	// ErrConfigNotFound matches every ConfigNotFoundError.
	ErrConfigNotFound = errors.New("engine config not found")
	// ErrCopyFailed matches every CopyFailedError.
	ErrCopyFailed = errors.New("copy failed")
	// ErrRemoteConnectFailed is returned when the remote host cannot be reached.
	ErrRemoteConnectFailed = errors.New("remote connect failed")
	// ErrRemoteOperationFailed matches every RemoteOperationError.
	ErrRemoteOperationFailed = errors.New("remote operation failed")
	// ErrArchiveWriteFailed is returned when the release archive cannot be written.
	ErrArchiveWriteFailed = errors.New("archive write failed")
)

// BuildFailedError reports a build process that exited with a non-zero code.
type BuildFailedError struct {
	Platform Platform
	ExitCode int
	// Err is the underlying process error, if any.
	Err error
}

func (e *BuildFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build %s failed with exit code %d: %v", e.Platform, e.ExitCode, e.Err)
	}

	return fmt.Sprintf("build %s failed with exit code %d", e.Platform, e.ExitCode)
}

// Is matches ErrBuildFailed.
func (e *BuildFailedError) Is(target error) bool {
	return target == ErrBuildFailed
}

// Unwrap returns the underlying process error.
func (e *BuildFailedError) Unwrap() error {
	return e.Err
}

// ConfigNotFoundError reports a platform output without an engine config file.
type ConfigNotFoundError struct {
	Platform Platform
	Path     string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfigNotFound, e.Platform, e.Path)
}

// Is matches ErrConfigNotFound.
func (e *ConfigNotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// CopyFailedError reports a failed copy or rewrite inside a platform tree.
type CopyFailedError struct {
	Platform Platform
	Path     string
	Err      error
}

func (e *CopyFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", ErrCopyFailed, e.Platform, e.Path, e.Err)
}

// Is matches ErrCopyFailed.
func (e *CopyFailedError) Is(target error) bool {
	return target == ErrCopyFailed
}

// Unwrap returns the underlying I/O error.
func (e *CopyFailedError) Unwrap() error {
	return e.Err
}

// RemoteOperationError reports a failed operation on the remote host.
type RemoteOperationError struct {
	// Op names the failed operation (exists, remove, upload, close).
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRemoteOperationFailed, e.Op, e.Err)
}

// Is matches ErrRemoteOperationFailed.
func (e *RemoteOperationError) Is(target error) bool {
	return target == ErrRemoteOperationFailed
}

// Unwrap returns the transport error.
func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}
