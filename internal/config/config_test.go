package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	data map[string]any
}

func newMapBackend(kv map[string]any) *mapBackend {
	if kv == nil {
		kv = map[string]any{}
	}
	return &mapBackend{data: kv}
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	i, _ := v.(int)
	return i, true, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error { b.data[key] = val; return nil }
func (b *mapBackend) Delete(key string) error { delete(b.data, key); return nil }

// clearEnv unsets every ATELIER_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
		os.Unsetenv(s.env)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Catalog.Source != "catalog.json" {
		t.Errorf("Catalog.Source = %q, want catalog.json", cfg.Catalog.Source)
	}
	if cfg.Catalog.CheckConcurrency != 4 {
		t.Errorf("Catalog.CheckConcurrency = %d, want 4", cfg.Catalog.CheckConcurrency)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendSQLite)
	}
	if cfg.Backup.Schedule != "" {
		t.Errorf("Backup.Schedule = %q, want disabled", cfg.Backup.Schedule)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestBackendOverridesDefaults(t *testing.T) {
	clearEnv(t)

	b := newMapBackend(map[string]any{
		"server.port":     5000,
		"catalog.source":  "https://example.com/catalog.json",
		"backup.schedule": "@daily",
	})
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Catalog.Source != "https://example.com/catalog.json" {
		t.Errorf("Catalog.Source = %q", cfg.Catalog.Source)
	}
	if cfg.Backup.Schedule != "@daily" {
		t.Errorf("Backup.Schedule = %q", cfg.Backup.Schedule)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATELIER_SERVER_PORT", "6000")
	t.Setenv("ATELIER_STORE_BACKEND", "memory")

	b := newMapBackend(map[string]any{"server.port": 5000})
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000 from env", cfg.Server.Port)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestEnvOverride_BadInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATELIER_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newMapBackend(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default 4100", cfg.Server.Port)
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATELIER_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	content := "ATELIER_CATALOG_SOURCE=/srv/art/catalog.yaml\nATELIER_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(newMapBackend(nil), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Catalog.Source != "/srv/art/catalog.yaml" {
		t.Errorf("Catalog.Source = %q, want value from .env", cfg.Catalog.Source)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want process env to win over .env", cfg.Log.Level)
	}
}

func TestDotEnvMissingIsIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := loadWith(newMapBackend(nil), filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no source", func(c *Config) { c.Catalog.Source = "" }, "catalog.source"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }, "store.backend"},
		{"redis without addr", func(c *Config) { c.Store.Backend = BackendRedis; c.Store.RedisAddr = "" }, "store.redis_addr"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not mention %s", err, tt.wantKey)
			}
		})
	}

	if err := defaults().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend(nil)

	if err := setKeyIn(b, "server.port", "4200"); err != nil {
		t.Fatalf("setting int key: %v", err)
	}
	if b.data["server.port"] != 4200 {
		t.Errorf("server.port = %v, want 4200", b.data["server.port"])
	}
	if err := setKeyIn(b, "store.backend", "redis"); err != nil {
		t.Fatalf("setting string key: %v", err)
	}
	if err := setKeyIn(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyIn(b, "server.host", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAll(t *testing.T) {
	infos := ShowAll(defaults())
	if len(infos) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(infos), len(ValidKeys()))
	}
	for _, info := range infos {
		if !strings.HasPrefix(info.EnvVar, "ATELIER_") {
			t.Errorf("%s has env var %q", info.Key, info.EnvVar)
		}
		if info.Key == "server.port" && info.Value != "4100" {
			t.Errorf("server.port value = %q", info.Value)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestImagesRootAndBackupDir(t *testing.T) {
	c := CatalogConfig{Source: "/srv/art/catalog.json"}
	if got := c.ImagesRoot(); got != "/srv/art" {
		t.Errorf("ImagesRoot = %q, want /srv/art", got)
	}
	c = CatalogConfig{Source: "https://example.com/catalog.json"}
	if got := c.ImagesRoot(); got != "" {
		t.Errorf("ImagesRoot for remote = %q, want empty", got)
	}
	c.ImagesDir = "/var/images"
	if got := c.ImagesRoot(); got != "/var/images" {
		t.Errorf("ImagesRoot with images_dir = %q", got)
	}

	cfg := defaults()
	cfg.Storage.DataDir = "/data"
	if got := cfg.BackupDir(); got != filepath.Join("/data", "backups") {
		t.Errorf("BackupDir = %q", got)
	}
}

func TestYAMLBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	b := openYAMLBackend(path)
	if _, ok, _ := b.GetString("catalog.source"); ok {
		t.Fatal("fresh backend should be empty")
	}
	if err := setKeyIn(b, "server.port", "4300"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if err := setKeyIn(b, "catalog.source", "/srv/art/catalog.yaml"); err != nil {
		t.Fatalf("set string: %v", err)
	}

	reopened := openYAMLBackend(path)
	if port, ok, err := reopened.GetInt("server.port"); err != nil || !ok || port != 4300 {
		t.Errorf("server.port = %d, %v, %v", port, ok, err)
	}
	cfg, err := loadWith(reopened)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Catalog.Source != "/srv/art/catalog.yaml" {
		t.Errorf("Catalog.Source = %q", cfg.Catalog.Source)
	}

	if err := reopened.Delete("server.port"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := openYAMLBackend(path).GetInt("server.port"); ok {
		t.Error("server.port still present after Delete")
	}
}

func TestYAMLBackend_HandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server.port: \"4500\"\nstore.backend: redis\nlog.level: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	b := openYAMLBackend(path)
	if port, _, err := b.GetInt("server.port"); err != nil || port != 4500 {
		t.Errorf("quoted port = %d, %v", port, err)
	}
	if v, _, _ := b.GetString("log.level"); v != "3" {
		t.Errorf("non-string value = %q, want formatted", v)
	}
	if _, _, err := b.GetInt("store.backend"); err == nil {
		t.Error("expected error reading a word as an integer")
	}
}

func TestYAMLBackend_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server.port: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	b := openYAMLBackend(path)
	if err := b.SetString("log.level", "debug"); err != nil {
		t.Fatalf("writing over a corrupt file: %v", err)
	}
}

func TestConfigFilePath_EnvOverride(t *testing.T) {
	t.Setenv(configFileEnv, "/etc/atelier.yaml")
	if got := configFilePath(); got != "/etc/atelier.yaml" {
		t.Errorf("configFilePath = %q", got)
	}
	t.Setenv(configFileEnv, "")
	if got := configFilePath(); filepath.Base(got) != "config.yaml" {
		t.Errorf("default configFilePath = %q", got)
	}
}
