package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"storygraph-backend/pkg/errors"
)

// applyOverlay merges a YAML configuration file over the environment-derived
// values. The file wins over the environment for any key it sets; this is
// the reverse of the usual precedence on purpose, because an explicit
// CONFIG_FILE is the most specific statement the operator can make.
func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfigError("CONFIG_FILE", fmt.Sprintf("cannot read %s: %v", path, err))
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.NewConfigError("CONFIG_FILE", fmt.Sprintf("cannot parse %s: %v", path, err))
		}
	default:
		return errors.NewConfigError("CONFIG_FILE", fmt.Sprintf("unsupported config format %q", filepath.Ext(path)))
	}

	return nil
}
