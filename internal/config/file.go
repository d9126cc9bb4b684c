package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// DefaultPath returns ~/.config/t3agent/config.yaml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get config directory")
	}
	return filepath.Join(dir, AppName, configFileName), nil
}

// LoadFile reads a YAML file over cfg. Keys absent from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}

	cfg.Relay.BaseURL = strings.TrimRight(cfg.Relay.BaseURL, "/")
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file,
// then environment overrides. An empty path uses DefaultPath and tolerates
// the file being absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := LoadFile(cfg, path); err != nil {
				return nil, err
			}
		} else if explicit {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// YAML renders the configuration in the file format Load accepts.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}
