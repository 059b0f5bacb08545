package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/logger"
)

var (
	// force overwrites an existing settings file.
	force bool

	errSettingsExist = errors.New("settings file already exists, use --force to overwrite")

	// initCmd writes default settings into the project.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write default settings into the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := settingsPath(opts.projectDir, opts.configPath)

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%w: %s", errSettingsExist, path)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Settings written", "path", path)

			return nil
		},
	}
)

// settingsPath resolves the settings file against the project directory.
func settingsPath(projectDir, configPath string) string {
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	if filepath.IsAbs(configPath) {
		return configPath
	}

	return filepath.Join(projectDir, configPath)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
}
