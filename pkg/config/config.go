// Package config implements the persisted lmbench configuration: a small YAML
// key/value file that survives across invocations, validated against a JSON
// Schema reflected from the Config struct.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Configuration keys understood by lmbench.
const (
	KeyCacheDir      = "cache_dir"
	KeyMatlabBinPath = "matlab_bin_path"
	KeyCDNURL        = "cdn_url"
)

// Config is the persisted lmbench configuration.
type Config struct {
	CacheDir      string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty" jsonschema:"minLength=1,description=Directory where datasets and cached results are stored"`
	MatlabBinPath string `yaml:"matlab_bin_path,omitempty" json:"matlab_bin_path,omitempty" jsonschema:"minLength=1,description=Path to the Matlab executable used by Matlab based methods"`
	CDNURL        string `yaml:"cdn_url,omitempty" json:"cdn_url,omitempty" jsonschema:"pattern=^https?://.+,description=Base URL results are uploaded to"`
}

// Keys returns the known configuration keys in sorted order.
func Keys() []string {
	keys := []string{KeyCacheDir, KeyMatlabBinPath, KeyCDNURL}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a configuration key lmbench understands.
func IsKnownKey(key string) bool {
	switch key {
	case KeyCacheDir, KeyMatlabBinPath, KeyCDNURL:
		return true
	}
	return false
}

// Value returns the value stored under key and whether it is set.
func (c *Config) Value(key string) (string, bool) {
	var v string
	switch key {
	case KeyCacheDir:
		v = c.CacheDir
	case KeyMatlabBinPath:
		v = c.MatlabBinPath
	case KeyCDNURL:
		v = c.CDNURL
	}
	return v, v != ""
}

// DefaultPath returns the default location of the configuration file,
// $HOME/.lmbench/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".lmbench", "config.yml"), nil
}
