package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
)

const (
	// BundleDirName is the directory inside the staging tree holding per-platform outputs.
	BundleDirName = "bundle"
	// ManifestFilename is the bundle manifest written at the staging root.
	ManifestFilename = "bundle-info.json"

	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// Options configures an Assembler.
type Options struct {
	// StagingDir is purged and rebuilt on every run.
	StagingDir string
	// EngineConfig is the runtime config file name inside each platform output.
	EngineConfig string
	// EngineBaseURL is joined with the version to form the engine URL.
	EngineBaseURL string
	// AssetsBaseURL is written as the game assets root.
	AssetsBaseURL string
	// Product names the bundle in the manifest.
	Product string
}

// Assembler stages build outputs for packaging.
type Assembler struct {
	opts Options
}

// StagingTree describes an assembled staging directory.
type StagingTree struct {
	// Root is the staging directory.
	Root string
	// BundleDir holds one subdirectory per platform.
	BundleDir string
	// ManifestPath is the bundle manifest file.
	ManifestPath string
	// Manifest is the written manifest.
	Manifest *release.Manifest
}

// PlatformDir returns the staged location of a platform's output.
func (s *StagingTree) PlatformDir(p release.Platform) string {
	return PlatformDir(s.Root, p)
}

// PlatformDir returns where a platform is staged under the given staging root.
func PlatformDir(stagingRoot string, p release.Platform) string {
	return filepath.Join(stagingRoot, BundleDirName, string(p))
}

// New creates an assembler.
func New(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// Assemble purges the staging tree, rewrites and copies every platform
// output into it and writes the manifest last. Platforms are processed
// concurrently; the first failure aborts the whole assembly.
func (a *Assembler) Assemble(ctx context.Context, results []release.BuildResult, version string) (*StagingTree, error) {
	ctx = logger.WithName(ctx, "assemble")

	tree := &StagingTree{
		Root:         a.opts.StagingDir,
		BundleDir:    filepath.Join(a.opts.StagingDir, BundleDirName),
		ManifestPath: filepath.Join(a.opts.StagingDir, ManifestFilename),
	}

	logger.InfoKV(ctx, "Preparing staging directory", "path", tree.Root)

	if err := a.Prepare(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, result := range results {
		g.Go(func() error {
			return a.stagePlatform(gctx, result.Target, version)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree.Manifest = release.NewManifest(a.opts.Product, version)
	if err := writeManifest(tree.ManifestPath, tree.Manifest); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Bundle manifest written", "path", tree.ManifestPath, "name", tree.Manifest.Name)

	return tree, nil
}

// stagePlatform rewrites the engine config in the build output, then copies the output.
func (a *Assembler) stagePlatform(ctx context.Context, target release.BuildTarget, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "platform", string(target.Platform))

	configPath := filepath.Join(target.OutputDirectory, a.opts.EngineConfig)
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &release.ConfigNotFoundError{Platform: target.Platform, Path: configPath}
		}

		return &release.CopyFailedError{Platform: target.Platform, Path: configPath, Err: err}
	}

	logger.InfoKV(ctx, "Updating engine config", "path", configPath)

	values := EngineValues{
		URL:            a.opts.EngineBaseURL + "/" + version,
		GameAssetsRoot: a.opts.AssetsBaseURL,
		Version:        version,
	}

	if err := RewriteEngineConfig(configPath, values); err != nil {
		return &release.CopyFailedError{Platform: target.Platform, Path: configPath, Err: err}
	}

	staged := PlatformDir(a.opts.StagingDir, target.Platform)

	logger.InfoKV(ctx, "Copying build output", "from", target.OutputDirectory, "to", staged)

	if err := os.RemoveAll(staged); err != nil {
		return &release.CopyFailedError{Platform: target.Platform, Path: staged, Err: err}
	}

	if err := copy.Copy(target.OutputDirectory, staged); err != nil {
		return &release.CopyFailedError{Platform: target.Platform, Path: target.OutputDirectory, Err: err}
	}

	return nil
}

// Prepare removes any previous staging contents and recreates the bundle directory.
func (a *Assembler) Prepare() error {
	root := a.opts.StagingDir

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("purge staging directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, BundleDirName), dirMode); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	return nil
}

// writeManifest stores the manifest as JSON.
func writeManifest(path string, m *release.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
