package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds release settings of a project.
type Config struct {
	// Product is the product name used in the bundle manifest and archive name.
	Product string `yaml:"product"`
	// PackageFile is the project metadata file holding the version record.
	PackageFile string `yaml:"package_file"`
	// DistDir is the root of per-platform build outputs (<dist>/<platform>).
	DistDir string `yaml:"dist_dir"`
	// ReleaseDir holds the staging tree and the run marker.
	ReleaseDir string `yaml:"release_dir"`
	// EngineConfig is the runtime config file name inside each platform output.
	EngineConfig string `yaml:"engine_config"`
	// BuildCommand is the shell command starting one platform build.
	// Placeholders: {platform} and {output}.
	BuildCommand string `yaml:"build_command"`
	// BuildTimeout bounds a single build process; zero disables the limit.
	BuildTimeout time.Duration `yaml:"build_timeout"`
	// EngineBaseURL is the distribution root; the version is appended to it.
	EngineBaseURL string `yaml:"engine_base_url"`
	// AssetsBaseURL is written as the game assets root.
	AssetsBaseURL string `yaml:"assets_base_url"`
	// LogFile enables a rotated JSON log file when set.
	LogFile string `yaml:"log_file,omitempty"`
	// MetricsFile enables a Prometheus textfile with run metrics when set.
	MetricsFile string `yaml:"metrics_file,omitempty"`
	// Remote describes the deployment host.
	Remote Remote `yaml:"remote"`
}

// Remote holds deployment transport settings.
type Remote struct {
	// Kind selects the transport: sftp, s3 or local.
	Kind string `yaml:"kind"`
	// Root is the remote directory (or key prefix) under which engine/<version> lives.
	Root string `yaml:"root"`
	// Timeout bounds connection establishment.
	Timeout time.Duration `yaml:"timeout"`

	// Host is the SFTP host name.
	Host string `yaml:"host,omitempty"`
	// Port is the SFTP port.
	Port int `yaml:"port,omitempty"`
	// Username is the SFTP login.
	Username string `yaml:"username,omitempty"`
	// PrivateKeyPath is the SSH private key used for SFTP.
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`
	// KnownHostsPath enables host key verification when set.
	KnownHostsPath string `yaml:"known_hosts_path,omitempty"`
	// Password is read from AVG_RELEASE_SFTP_PASSWORD.
	Password string `yaml:"-"`

	// Endpoint is the S3-compatible endpoint (host:port).
	Endpoint string `yaml:"endpoint,omitempty"`
	// Bucket is the S3 bucket holding the live players.
	Bucket string `yaml:"bucket,omitempty"`
	// Region is the S3 region.
	Region string `yaml:"region,omitempty"`
	// UseSSL enables TLS for the S3 endpoint.
	UseSSL bool `yaml:"use_ssl,omitempty"`
	// AccessKey is read from AVG_RELEASE_S3_ACCESS_KEY.
	AccessKey string `yaml:"-"`
	// SecretKey is read from AVG_RELEASE_S3_SECRET_KEY.
	SecretKey string `yaml:"-"`
}

// Remote transport kinds.
const (
	RemoteSFTP  = "sftp"
	RemoteS3    = "s3"
	RemoteLocal = "local"
)

const (
	// DefaultConfigFilename is the default settings file name, relative to the project.
	DefaultConfigFilename = "avg-release.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// DefaultRemoteTimeout bounds remote connection establishment.
	DefaultRemoteTimeout = 30 * time.Second

	defaultSFTPPort = 22
)

// Environment variables carrying transport secrets.
const (
	EnvSFTPPassword = "AVG_RELEASE_SFTP_PASSWORD"
	EnvS3AccessKey  = "AVG_RELEASE_S3_ACCESS_KEY"
	EnvS3SecretKey  = "AVG_RELEASE_S3_SECRET_KEY"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRequiredField is returned when a mandatory setting is empty.
	errRequiredField = errors.New("required setting is empty")
	// errUnknownRemoteKind is returned for an unsupported transport kind.
	errUnknownRemoteKind = errors.New("unknown remote kind")
	// errBuildCommandPlaceholder is returned when the build command cannot tell platforms apart.
	errBuildCommandPlaceholder = errors.New("build command must contain {platform}")
)

// Default returns settings matching the AVGPlus project layout.
func Default() *Config {
	return &Config{
		Product:       "AVGPlus",
		PackageFile:   "package.json",
		DistDir:       "dist",
		ReleaseDir:    "package-release",
		EngineConfig:  "engine.json",
		BuildCommand:  "yarn build:{platform}",
		EngineBaseURL: "https://live-player.avg-engine.com/engine",
		AssetsBaseURL: "https://game-project.avg-engine.com/docs-project",
		Remote: Remote{
			Kind:    RemoteSFTP,
			Root:    "/data/avg-plus/live-players",
			Port:    defaultSFTPPort,
			Timeout: DefaultRemoteTimeout,
		},
	}
}

// Load reads settings from the provided path on top of Default and validates them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	required := map[string]string{
		"product":         cfg.Product,
		"package_file":    cfg.PackageFile,
		"dist_dir":        cfg.DistDir,
		"release_dir":     cfg.ReleaseDir,
		"engine_config":   cfg.EngineConfig,
		"build_command":   cfg.BuildCommand,
		"engine_base_url": cfg.EngineBaseURL,
		"assets_base_url": cfg.AssetsBaseURL,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: %w", name, errRequiredField)
		}
	}

	if !strings.Contains(cfg.BuildCommand, "{platform}") {
		return errBuildCommandPlaceholder
	}

	for name, value := range map[string]string{
		"engine_base_url": cfg.EngineBaseURL,
		"assets_base_url": cfg.AssetsBaseURL,
	} {
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	cfg.EngineBaseURL = strings.TrimRight(cfg.EngineBaseURL, "/")

	if cfg.Remote.Kind == "" {
		cfg.Remote.Kind = RemoteSFTP
	}

	switch cfg.Remote.Kind {
	case RemoteSFTP, RemoteS3, RemoteLocal:
	default:
		return fmt.Errorf("%w: %s", errUnknownRemoteKind, cfg.Remote.Kind)
	}

	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}

	if cfg.Remote.Port <= 0 {
		cfg.Remote.Port = defaultSFTPPort
	}

	return nil
}

// ValidateRemote checks settings needed to deploy with the configured transport.
func ValidateRemote(r *Remote) error {
	fields := map[string]string{"remote.root": r.Root}

	switch r.Kind {
	case RemoteSFTP:
		fields["remote.host"] = r.Host
		fields["remote.username"] = r.Username
	case RemoteS3:
		fields["remote.endpoint"] = r.Endpoint
		fields["remote.bucket"] = r.Bucket
	case RemoteLocal:
	default:
		return fmt.Errorf("%w: %s", errUnknownRemoteKind, r.Kind)
	}

	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: %w", name, errRequiredField)
		}
	}

	return nil
}

// Resolve makes every relative path absolute against the project directory
// and loads transport secrets from the environment.
// A .env file in the project directory seeds variables that are not set yet.
func (c *Config) Resolve(projectDir string) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}

	if err = godotenv.Load(filepath.Join(abs, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	for _, p := range []*string{
		&c.PackageFile,
		&c.DistDir,
		&c.ReleaseDir,
		&c.LogFile,
		&c.MetricsFile,
		&c.Remote.PrivateKeyPath,
		&c.Remote.KnownHostsPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(abs, *p)
		}
	}

	if c.Remote.Kind == RemoteLocal && c.Remote.Root != "" && !filepath.IsAbs(c.Remote.Root) {
		c.Remote.Root = filepath.Join(abs, c.Remote.Root)
	}

	c.Remote.Password = envOr(EnvSFTPPassword, c.Remote.Password)
	c.Remote.AccessKey = envOr(EnvS3AccessKey, c.Remote.AccessKey)
	c.Remote.SecretKey = envOr(EnvS3SecretKey, c.Remote.SecretKey)

	return nil
}

// StagingDir is the ephemeral directory assembled before packaging.
func (c *Config) StagingDir() string {
	return filepath.Join(c.ReleaseDir, ".temp")
}

// PlatformOutputDir is where the build of a platform leaves its output.
func (c *Config) PlatformOutputDir(platform string) string {
	return filepath.Join(c.DistDir, platform)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
