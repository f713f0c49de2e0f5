package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

// Load reads a YAML configuration file, fills defaults for unset fields and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to read config file"),
			errors.Fields{"path": path})
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes, fills defaults and validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse config YAML")
	}

	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
