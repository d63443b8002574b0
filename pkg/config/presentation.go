package config

import (
	"fmt"
	"os"

	"github.com/anonto42/faith-connect/functions/internal/push"
	"gopkg.in/yaml.v3"
)

// LoadPresentation reads push presentation hints from a YAML file.
// An empty path yields the defaults; fields missing from the file keep their defaults.
func LoadPresentation(path string) (push.Presentation, error) {
	if path == "" {
		return push.DefaultPresentation(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return push.Presentation{}, fmt.Errorf("read presentation file: %w", err)
	}
	var p push.Presentation
	if err := yaml.Unmarshal(data, &p); err != nil {
		return push.Presentation{}, fmt.Errorf("parse presentation file: %w", err)
	}
	return p.Normalize()
}
