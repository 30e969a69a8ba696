package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// configFileEnv points the CLI and server at an explicit config file.
const configFileEnv = "ATELIER_CONFIG"

// yamlBackend keeps flat "section.key: value" pairs in a YAML file. Writes go
// through a temp file and rename so a crashed `config set` never truncates it.
type yamlBackend struct {
	path string
	data map[string]any
}

func newPlatformBackend() ConfigBackend {
	return openYAMLBackend(configFilePath())
}

func configFilePath() string {
	if p := os.Getenv(configFileEnv); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.yaml")
}

func openYAMLBackend(path string) *yamlBackend {
	b := &yamlBackend{path: path, data: make(map[string]any)}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[WARN] could not read config file %s: %v. Using default values.\n", path, err)
		}
		return b
	}
	if err := yaml.Unmarshal(data, &b.data); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] could not parse config file %s: %v. Using default values.\n", path, err)
		b.data = make(map[string]any)
	}
	if b.data == nil {
		b.data = make(map[string]any)
	}
	return b
}

func (b *yamlBackend) save() error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(b.data)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

func (b *yamlBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok || v == nil {
		return "", false, nil
	}
	if s, ok := v.(string); ok {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

func (b *yamlBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch val := v.(type) {
	case int:
		return val, true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("value %v for %s is not an integer", v, key)
	}
}

func (b *yamlBackend) SetString(key, val string) error {
	b.data[key] = val
	return b.save()
}

func (b *yamlBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return b.save()
}

func (b *yamlBackend) Delete(key string) error {
	delete(b.data, key)
	return b.save()
}
