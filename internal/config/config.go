package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "CURTAIN"

	defaultEnv         = "development"
	defaultDBPath      = "./dev.db"
	defaultPort        = "8080"
	defaultLogLevel    = "info"
	defaultWindowCount = 1
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Config holds application configuration sourced from .env, config.yaml and
// CURTAIN_* environment variables, in increasing order of precedence.
type Config struct {
	Env                string
	Port               string
	DBPath             string
	TablesPath         string
	SeedPath           string
	DefaultWindowCount int
	Log                LogConfig

	// Warnings lists missing optional settings. The caller decides how to log them.
	Warnings []string
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Load reads configuration from the working directory.
func Load() (Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads an optional .env and config.yaml from dir, then applies
// environment overrides.
func LoadFrom(dir string) (Config, error) {
	// Best-effort: a missing .env is normal outside local development.
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("env", defaultEnv)
	v.SetDefault("port", defaultPort)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("tables_path", "")
	v.SetDefault("seed_path", "")
	v.SetDefault("default_window_count", defaultWindowCount)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Env:                strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		Port:               v.GetString("port"),
		DBPath:             v.GetString("db_path"),
		TablesPath:         v.GetString("tables_path"),
		SeedPath:           v.GetString("seed_path"),
		DefaultWindowCount: v.GetInt("default_window_count"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if cfg.Log.Format == "" {
		if cfg.IsDev() {
			cfg.Log.Format = "console"
		} else {
			cfg.Log.Format = "json"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.TablesPath == "" {
		cfg.Warnings = append(cfg.Warnings, "CURTAIN_TABLES_PATH is not set, using built-in tables")
	}
	if cfg.SeedPath == "" {
		cfg.Warnings = append(cfg.Warnings, "CURTAIN_SEED_PATH is not set, catalog will not be seeded")
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is empty", ErrInvalidConfig)
	}
	if c.DefaultWindowCount < 1 {
		return fmt.Errorf("%w: default_window_count must be at least 1", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
