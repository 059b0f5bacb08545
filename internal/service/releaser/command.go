package releaser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
	"github.com/avgplus/avg-release/internal/metrics"
	"github.com/avgplus/avg-release/internal/repository/pkgmeta"
	"github.com/avgplus/avg-release/internal/service/assembler"
	"github.com/avgplus/avg-release/internal/service/builder"
	"github.com/avgplus/avg-release/internal/service/common"
	"github.com/avgplus/avg-release/internal/service/deployer"
	"github.com/avgplus/avg-release/internal/service/packager"
	"github.com/avgplus/avg-release/internal/service/versioning"
	"github.com/avgplus/avg-release/internal/transport"
)

const (
	// DefaultOutputDirName is the archive destination relative to the project.
	DefaultOutputDirName = "package-release"

	logFileMaxSizeMB  = 10
	logFileMaxBackups = 5
)

// Options contains inputs for the release entry point.
type Options struct {
	// ProjectDir is the project root; relative settings paths resolve against it.
	ProjectDir string
	// ConfigPath is the settings file, relative to ProjectDir unless absolute.
	ConfigPath string
	// Platform selects the platforms to build.
	Platform release.PlatformSelector
	// BumpKind is the version increment.
	BumpKind release.BumpKind
	// Identifier is the prerelease label.
	Identifier string
	// OutputDir receives the archive; it must exist. Defaults to the release directory.
	OutputDir string
	// IsDev releases the current version without persisting a new one.
	IsDev bool
	// Upload deploys the browser bundle to the configured remote.
	Upload bool
}

// Report summarizes a successful run.
type Report struct {
	// RunID correlates log records of the run.
	RunID string
	// Version is the released version.
	Version string
	// Persisted is true when the version record was rewritten.
	Persisted bool
	// Builds holds one result per built platform.
	Builds []release.BuildResult
	// Staging is the assembled staging tree.
	Staging *assembler.StagingTree
	// Destination is the remote directory, empty without upload.
	Destination string
	// Archive is the written release archive.
	Archive *packager.Archive
}

// runner carries the state of one release run.
type runner struct {
	// opts are the caller inputs with defaults applied.
	opts Options
	// cfg is the resolved project configuration.
	cfg *config.Config
	// transport is the deploy target, nil without upload.
	transport deployer.Transport
	// recorder collects run metrics, nil when metrics are disabled.
	recorder *metrics.Recorder
	// report is filled stage by stage.
	report *Report
}

var (
	// errUploadWithoutBrowser is returned when deployment is requested for a run that does not build the browser.
	errUploadWithoutBrowser = errors.New("upload requires the browser platform")
	// errOptionsRequired is returned for nil options.
	errOptionsRequired = errors.New("options must be provided")
)

// Run executes the release pipeline.
// Stages run strictly in order; the first failing stage ends the run.
// The version record is not restored when a later stage fails.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}

	if r.cfg.LogFile != "" {
		ctx = logger.ToContext(ctx, logger.NewWithFile(logger.AtomicLevel(), logger.FileOptions{
			Filename:   r.cfg.LogFile,
			MaxSizeMB:  logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
		}))
	}

	ctx = logger.WithKV(logger.WithName(ctx, "avg-release"), "run_id", r.report.RunID)

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Starting release",
		"project", r.opts.ProjectDir,
		"platform", string(r.opts.Platform),
		"bump", string(r.opts.BumpKind),
		"identifier", r.opts.Identifier,
		"dev", r.opts.IsDev,
		"upload", r.opts.Upload,
		"actor", actor.String())

	marker, err := common.AcquireMarker(ctx, common.MarkerOptions{
		Dir:   r.cfg.ReleaseDir,
		RunID: r.report.RunID,
	})
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := marker.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Failed to remove run marker", "error", releaseErr)
		}
	}()

	err = r.run(ctx)
	r.finish(ctx, err)

	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Release completed", "version", r.report.Version, "archive", r.report.Archive.Path)

	return r.report, nil
}

// newRunner resolves settings and validates the request before anything is modified.
func newRunner(opts *Options) (*runner, error) {
	if opts == nil {
		return nil, errOptionsRequired
	}

	r := &runner{
		opts:   *opts,
		report: &Report{RunID: uuid.NewString()},
	}

	if r.opts.ProjectDir == "" {
		r.opts.ProjectDir = "."
	}

	projectDir, err := filepath.Abs(r.opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}

	r.opts.ProjectDir = projectDir

	if r.opts.Platform == "" {
		r.opts.Platform = release.SelectAll
	}

	if r.opts.BumpKind == "" {
		r.opts.BumpKind = release.DefaultBumpKind
	}

	if r.opts.Identifier == "" {
		r.opts.Identifier = release.DefaultIdentifier
	}

	if r.opts.Upload && !r.opts.Platform.Includes(deployer.DeployedPlatform) {
		return nil, fmt.Errorf("%w: platform %s", errUploadWithoutBrowser, r.opts.Platform)
	}

	configPath := r.opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(projectDir, configPath)
	}

	if r.cfg, err = config.LoadOrDefault(configPath); err != nil {
		return nil, err
	}

	if err = r.cfg.Resolve(projectDir); err != nil {
		return nil, err
	}

	if r.opts.OutputDir == "" {
		r.opts.OutputDir = r.cfg.ReleaseDir
	} else if !filepath.IsAbs(r.opts.OutputDir) {
		r.opts.OutputDir = filepath.Join(projectDir, r.opts.OutputDir)
	}

	if r.opts.Upload {
		if r.transport, err = transport.New(&r.cfg.Remote); err != nil {
			return nil, fmt.Errorf("remote settings: %w", err)
		}
	}

	if r.cfg.MetricsFile != "" {
		r.recorder = metrics.NewRecorder()
	}

	return r, nil
}

// run executes every stage in order.
func (r *runner) run(ctx context.Context) error {
	stages := []struct {
		name string
		skip bool
		fn   func(context.Context) error
	}{
		{metrics.StageVersion, false, r.bumpVersion},
		{metrics.StageBuild, false, r.build},
		{metrics.StageAssemble, false, r.assemble},
		{metrics.StageDeploy, !r.opts.Upload, r.deploy},
		{metrics.StagePackage, false, r.pack},
	}

	for _, stage := range stages {
		if stage.skip {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		started := time.Now()
		err := stage.fn(ctx)
		r.recorder.ObserveStage(stage.name, time.Since(started))

		if err != nil {
			return err
		}
	}

	return nil
}

func (r *runner) bumpVersion(ctx context.Context) error {
	manager := versioning.NewManager(pkgmeta.NewFileRepository(r.cfg.PackageFile))

	bump, err := manager.Bump(logger.WithName(ctx, "version"), r.opts.BumpKind, r.opts.Identifier, r.opts.IsDev)
	if err != nil {
		return err
	}

	r.report.Version = bump.Next
	r.report.Persisted = bump.Persisted

	return nil
}

// build dispatches every platform and joins them at the completion barrier.
// On the first failure the remaining builds are cancelled and drained.
func (r *runner) build(ctx context.Context) error {
	platforms := r.opts.Platform.Platforms()
	targets := make([]release.BuildTarget, 0, len(platforms))

	for _, p := range platforms {
		targets = append(targets, release.BuildTarget{
			Platform:        p,
			OutputDirectory: r.cfg.PlatformOutputDir(string(p)),
		})
	}

	dispatcher := builder.NewDispatcher(builder.Options{
		Command: r.cfg.BuildCommand,
		WorkDir: r.opts.ProjectDir,
		Timeout: r.cfg.BuildTimeout,
	})

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := dispatcher.Dispatch(buildCtx, targets)

	results, err := builder.AwaitAll(ctx, tasks)
	if err != nil {
		cancel()
		builder.Drain(tasks)
	}

	for _, task := range tasks {
		result := task.Result()
		r.recorder.ObserveBuild(string(result.Target.Platform), result.Duration, result.Succeeded)
	}

	if err != nil {
		return err
	}

	r.report.Builds = results

	return nil
}

func (r *runner) assemble(ctx context.Context) error {
	tree, err := assembler.New(assembler.Options{
		StagingDir:    r.cfg.StagingDir(),
		EngineConfig:  r.cfg.EngineConfig,
		EngineBaseURL: r.cfg.EngineBaseURL,
		AssetsBaseURL: r.cfg.AssetsBaseURL,
		Product:       r.cfg.Product,
	}).Assemble(ctx, r.report.Builds, r.report.Version)
	if err != nil {
		return err
	}

	r.report.Staging = tree

	return nil
}

func (r *runner) deploy(ctx context.Context) error {
	dest, err := deployer.New(r.transport, r.cfg.Remote.Root).Deploy(ctx, r.report.Staging.Root, r.report.Version)
	if err != nil {
		return err
	}

	r.report.Destination = dest

	return nil
}

func (r *runner) pack(ctx context.Context) error {
	output := filepath.Join(r.opts.OutputDir, release.ArchiveName(r.cfg.Product, r.report.Version))

	archive, err := packager.Package(ctx, r.report.Staging.Root, output)
	if err != nil {
		return err
	}

	r.report.Archive = archive
	r.recorder.SetArchiveSize(archive.Size)

	return nil
}

// finish records the outcome and flushes the metrics textfile.
func (r *runner) finish(ctx context.Context, err error) {
	outcome := metrics.OutcomeSuccess

	switch {
	case errors.Is(err, context.Canceled):
		outcome = metrics.OutcomeCancel
	case err != nil:
		outcome = metrics.OutcomeFailed
	}

	r.recorder.Finish(outcome)

	if writeErr := r.recorder.WriteTextfile(r.cfg.MetricsFile); writeErr != nil {
		logger.WarnKV(ctx, "Failed to write metrics", "path", r.cfg.MetricsFile, "error", writeErr)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Release failed", "outcome", string(outcome), "error", err)
	}
}

// EnsureOutputDir creates the archive destination if needed.
func EnsureOutputDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	return nil
}
