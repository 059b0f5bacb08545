package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avgplus/avg-release/internal/buildinfo"
	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
	"github.com/avgplus/avg-release/internal/service/releaser"
)

// flags holds the raw command line values of the release command.
type flags struct {
	// platform is the platform selector: all, browser or desktop.
	platform string
	// versionBump is the semantic-version increment kind.
	versionBump string
	// identifier is the prerelease label.
	identifier string
	// outputDirectory receives the release archive.
	outputDirectory string
	// isDevPackage skips persisting the version.
	isDevPackage bool
	// upload deploys the browser bundle.
	upload bool
	// projectDir is the project root.
	projectDir string
	// configPath is the settings file, relative to the project.
	configPath string
	// logLevel is the console log level.
	logLevel string
}

var (
	opts flags

	errInvalidLogLevel = errors.New("invalid log level")

	// rootCmd builds, assembles, optionally deploys and archives a release.
	rootCmd = &cobra.Command{
		Use:           "avg-release",
		Short:         "Build, bundle and publish an AVGPlus engine release",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(opts.logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errInvalidLogLevel, opts.logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options, err := releaseOptions(&opts)
			if err != nil {
				return err
			}

			if err = releaser.EnsureOutputDir(options.OutputDir); err != nil {
				return err
			}

			_, err = releaser.Run(ctx, options)

			return err
		},
	}
)

// releaseOptions validates flags and converts them to releaser options.
func releaseOptions(f *flags) (*releaser.Options, error) {
	selector, err := release.ParsePlatformSelector(f.platform)
	if err != nil {
		return nil, err
	}

	kind, err := release.ParseBumpKind(f.versionBump)
	if err != nil {
		return nil, err
	}

	projectDir, err := filepath.Abs(f.projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}

	// An explicit output directory is relative to the working directory, not the project.
	outputDir := filepath.Join(projectDir, releaser.DefaultOutputDirName)
	if f.outputDirectory != "" {
		if outputDir, err = filepath.Abs(f.outputDirectory); err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
	}

	return &releaser.Options{
		ProjectDir: projectDir,
		ConfigPath: f.configPath,
		Platform:   selector,
		BumpKind:   kind,
		Identifier: f.identifier,
		OutputDir:  outputDir,
		IsDev:      f.isDevPackage,
		Upload:     f.upload,
	}, nil
}

// ExitCode maps a run error to the process exit status.
// A failed build propagates its own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var buildErr *release.BuildFailedError
	if errors.As(err, &buildErr) && buildErr.ExitCode > 0 {
		return buildErr.ExitCode
	}

	return 1
}

// Execute runs the avg-release CLI and exits with a non-zero status on error.
func Execute() {
	buildinfo.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()
	if err != nil {
		logger.Error(context.Background(), err)
	}

	logger.Sync()

	if code := ExitCode(err); code != 0 {
		os.Exit(code)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flagSet := rootCmd.Flags()
	flagSet.StringVarP(&opts.platform, "platform", "p", string(release.SelectAll), "platforms to build: all, browser or desktop")
	flagSet.StringVarP(&opts.versionBump, "version-bump", "v", string(release.DefaultBumpKind),
		"version increment: major, premajor, minor, preminor, patch, prepatch or prerelease")
	flagSet.StringVarP(&opts.identifier, "identifier", "i", release.DefaultIdentifier, "prerelease identifier")
	flagSet.StringVarP(&opts.outputDirectory, "output-directory", "o", "",
		"archive destination (default <project>/"+releaser.DefaultOutputDirName+")")
	flagSet.BoolVarP(&opts.isDevPackage, "is-dev-package", "D", false, "release the current version without incrementing it")
	flagSet.BoolVarP(&opts.upload, "upload", "U", false, "deploy the browser bundle to the configured remote")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&opts.projectDir, "project", "C", ".", "project root directory")
	persistent.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFilename, "settings file, relative to the project")
	persistent.StringVar(&opts.logLevel, "log-level", "info", "console log level: debug, info, warn or error")

	rootCmd.AddCommand(initCmd)
}
