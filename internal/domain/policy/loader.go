package policy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a Rules set from a YAML file. A missing file is not an
// error; the built-in defaults apply, matching the config loading pattern.
func LoadFromFile(path string) (Rules, error) {
	rules := Defaults()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rules, nil
		}
		return rules, fmt.Errorf("read policy file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	return rules, nil
}
