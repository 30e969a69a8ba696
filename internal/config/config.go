package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Storage StorageConfig
	Store   StoreConfig
	Backup  BackupConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type CatalogConfig struct {
	Source           string
	ImagesDir        string
	CheckConcurrency int
}

type StorageConfig struct {
	DataDir string
}

// StoreConfig selects the key-value backend behind comments and reviews.
type StoreConfig struct {
	Backend     string
	RedisAddr   string
	RedisPrefix string
}

type BackupConfig struct {
	Schedule string
	Dir      string
}

type LogConfig struct {
	Level string
}

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Catalog: CatalogConfig{
			Source:           "catalog.json",
			CheckConcurrency: 4,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Store: StoreConfig{
			Backend:     BackendSQLite,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "atelier:",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, and environment variables.
//
// On macOS the backend is UserDefaults (domain: com.atelier.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/atelier/config.json.
//
// Environment variables (ATELIER_*) override backend values on all
// platforms. Variables from .env never replace ones already set.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), ".env")
}

func loadWith(b ConfigBackend, envFiles ...string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	errs := validation.Errors{}
	errs["server.port"] = validation.Validate(c.Server.Port,
		validation.Required, validation.Min(1), validation.Max(65535))
	errs["catalog.source"] = validation.Validate(c.Catalog.Source, validation.Required)
	errs["catalog.check_concurrency"] = validation.Validate(c.Catalog.CheckConcurrency, validation.Min(0))
	errs["storage.data_dir"] = validation.Validate(c.Storage.DataDir, validation.Required)
	errs["store.backend"] = validation.Validate(c.Store.Backend,
		validation.Required, validation.In(BackendSQLite, BackendMemory, BackendRedis))
	errs["store.redis_addr"] = validation.Validate(c.Store.RedisAddr,
		validation.When(c.Store.Backend == BackendRedis, validation.Required))
	errs["log.level"] = validation.Validate(strings.ToLower(c.Log.Level),
		validation.In("debug", "info", "warn", "error"))
	return errs.Filter()
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ImagesRoot returns the directory relative image references resolve
// against: catalog.images_dir when set, else the local catalog's directory.
// It is empty for a remote catalog without images_dir.
func (c CatalogConfig) ImagesRoot() string {
	if c.ImagesDir != "" {
		return c.ImagesDir
	}
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		return ""
	}
	return filepath.Dir(c.Source)
}

// BackupDir returns backup.dir, defaulting to <data_dir>/backups.
func (c Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Storage.DataDir, "backups")
}
