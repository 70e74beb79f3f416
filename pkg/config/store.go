package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store is the persisted configuration file. Every read goes to disk and
// every write goes straight back, so no in-memory copy can go stale.
type Store struct {
	path string
}

// Open returns a store backed by the file at path. The file does not need to
// exist; it is created on the first Set.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the configuration file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration file. A missing file yields an empty config.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", s.path, err)
	}
	return &cfg, nil
}

// Get returns the value stored under key, or an empty string when unset.
func (s *Store) Get(key string) (string, error) {
	if !IsKnownKey(key) {
		return "", &ValidationError{Key: key, Reason: "unknown configuration key"}
	}
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	v, _ := cfg.Value(key)
	return v, nil
}

// Validate checks key and value without touching the file.
func (s *Store) Validate(key, value string) error {
	return Validate(key, value)
}

// Set validates and persists a single value. On a validation failure the
// file is left untouched.
func (s *Store) Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	raw[key] = value

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return s.write(data)
}

// readRaw keeps any keys in the file that this version does not model.
func (s *Store) readRaw() (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", s.path, err)
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	return raw, nil
}

// write replaces the file via a rename so a reader never sees a partial file.
func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
