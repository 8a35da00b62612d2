package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/paths"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Paths      PathsConfig      `mapstructure:"paths"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	PackageKit PackageKitConfig `mapstructure:"packagekit"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// PackageKitConfig controls how transactions are issued
type PackageKitConfig struct {
	Filters  []string      `mapstructure:"filters"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Progress bool          `mapstructure:"progress"`
	Arch     string        `mapstructure:"arch"`
}

// ParsedFilters returns the configured filters as core.Filter values
func (c PackageKitConfig) ParsedFilters() ([]core.Filter, error) {
	return core.ParseFilters(c.Filters)
}

// Load loads configuration from the OS filesystem and environment
func Load() (*Config, error) {
	return LoadFrom(afero.NewOsFs())
}

// LoadFrom loads configuration from fs and the environment
func LoadFrom(fs afero.Fs) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	resolver := paths.NewResolver()
	v.AddConfigPath(resolver.ConfigDir())
	v.AddConfigPath(".")

	setDefaults(v, resolver)

	// Environment variable overrides
	v.SetEnvPrefix("PKGKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env values arrive as a single string
	if len(cfg.PackageKit.Filters) == 1 && strings.ContainsAny(cfg.PackageKit.Filters[0], ",; ") {
		cfg.PackageKit.Filters = strings.FieldsFunc(cfg.PackageKit.Filters[0], func(r rune) bool {
			return r == ',' || r == ';' || r == ' '
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)

	return &cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if _, err := c.PackageKit.ParsedFilters(); err != nil {
		return fmt.Errorf("packagekit.filters: %w", err)
	}
	if c.PackageKit.Timeout < 0 {
		return fmt.Errorf("packagekit.timeout: must not be negative, got %s", c.PackageKit.Timeout)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color: expected auto, always or never, got %q", c.Logging.Color)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper, resolver *paths.Resolver) {
	v.SetDefault("paths.data_dir", resolver.DataDir())
	v.SetDefault("paths.db_file", resolver.DBFile())
	v.SetDefault("paths.log_file", resolver.LogFile())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")

	v.SetDefault("packagekit.filters", []string{"not-installed"})
	v.SetDefault("packagekit.timeout", time.Duration(0))
	v.SetDefault("packagekit.progress", true)
	v.SetDefault("packagekit.arch", runtime.GOARCH)
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
