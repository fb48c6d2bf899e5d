// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromFile overlays values from a YAML file onto cfg. Secrets are never read
// from the file; they come from the environment only.
func FromFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
