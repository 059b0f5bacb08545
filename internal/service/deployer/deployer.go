package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
	"github.com/avgplus/avg-release/internal/service/assembler"
)

// Transport is a remote file store holding released engine bundles.
// Paths are slash-separated remote paths.
type Transport interface {
	// Connect opens the single connection used by a deployment.
	Connect(ctx context.Context) error
	// Exists reports whether something is stored at the path.
	Exists(ctx context.Context, path string) (bool, error)
	// RemoveAll removes the path and everything below it.
	RemoveAll(ctx context.Context, path string) error
	// UploadDir copies a local directory tree to the path.
	UploadDir(ctx context.Context, src, dst string) error
	// Close releases the connection. It must be safe to call after a failed Connect.
	Close() error
}

// Remote operation names reported in release.RemoteOperationError.
const (
	OpExists = "exists"
	OpRemove = "remove"
	OpUpload = "upload"
	OpClose  = "close"
)

// DeployedPlatform is the only platform published through a Transport.
const DeployedPlatform = release.PlatformBrowser

var errNothingToDeploy = errors.New("no staged browser bundle to deploy")

// Deployer uploads staged bundles through a Transport.
type Deployer struct {
	// transport is the remote store.
	transport Transport
	// root is the remote directory holding engine/<version>.
	root string
}

// New creates a deployer publishing under the given remote root.
func New(transport Transport, root string) *Deployer {
	return &Deployer{
		transport: transport,
		root:      root,
	}
}

// Destination returns the remote directory of a version.
func Destination(root, version string) string {
	return path.Join(root, "engine", version)
}

// Deploy replaces the remote engine/<version> directory with the staged
// browser bundle and returns the destination path.
// The connection is closed on every path, including failures.
func (d *Deployer) Deploy(ctx context.Context, stagingPath, version string) (dest string, err error) {
	ctx = logger.WithName(ctx, "deploy")

	src := assembler.PlatformDir(stagingPath, DeployedPlatform)
	if info, statErr := os.Stat(src); statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", errNothingToDeploy, src)
	}

	dest = Destination(d.root, version)

	logger.Info(ctx, "Connecting to the remote host")

	// Close even when Connect fails half-way through.
	defer func() {
		if closeErr := d.transport.Close(); closeErr != nil && err == nil {
			err = &release.RemoteOperationError{Op: OpClose, Err: closeErr}
		}
	}()

	if err = d.transport.Connect(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", release.ErrRemoteConnectFailed, err)
	}

	exists, err := d.transport.Exists(ctx, dest)
	if err != nil {
		return "", &release.RemoteOperationError{Op: OpExists, Err: err}
	}

	if exists {
		logger.InfoKV(ctx, "Removing previous upload", "path", dest)

		if err = d.transport.RemoveAll(ctx, dest); err != nil {
			return "", &release.RemoteOperationError{Op: OpRemove, Err: err}
		}
	}

	logger.InfoKV(ctx, "Uploading files", "from", src, "to", dest)

	if err = d.transport.UploadDir(ctx, src, dest); err != nil {
		return "", &release.RemoteOperationError{Op: OpUpload, Err: err}
	}

	logger.InfoKV(ctx, "Upload completed", "path", dest)

	return dest, nil
}
