package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "ATELIER_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "catalog.source", typ: kString, env: "ATELIER_CATALOG_SOURCE",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Source = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Source },
	},
	{
		key: "catalog.images_dir", typ: kString, env: "ATELIER_CATALOG_IMAGES_DIR",
		apply:   func(cfg *Config, v any) { cfg.Catalog.ImagesDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.ImagesDir },
	},
	{
		key: "catalog.check_concurrency", typ: kInt, env: "ATELIER_CATALOG_CHECK_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Catalog.CheckConcurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Catalog.CheckConcurrency },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ATELIER_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "store.backend", typ: kString, env: "ATELIER_STORE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Store.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.Backend },
	},
	{
		key: "store.redis_addr", typ: kString, env: "ATELIER_STORE_REDIS_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Store.RedisAddr = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.RedisAddr },
	},
	{
		key: "store.redis_prefix", typ: kString, env: "ATELIER_STORE_REDIS_PREFIX",
		apply:   func(cfg *Config, v any) { cfg.Store.RedisPrefix = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.RedisPrefix },
	},
	{
		key: "backup.schedule", typ: kString, env: "ATELIER_BACKUP_SCHEDULE",
		apply:   func(cfg *Config, v any) { cfg.Backup.Schedule = v.(string) },
		extract: func(cfg Config) any { return cfg.Backup.Schedule },
	},
	{
		key: "backup.dir", typ: kString, env: "ATELIER_BACKUP_DIR",
		apply:   func(cfg *Config, v any) { cfg.Backup.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Backup.Dir },
	},
	{
		key: "log.level", typ: kString, env: "ATELIER_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
