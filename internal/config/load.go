package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal
// warnings, adapted from the teacher's config.Loaded.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, overlays, applies environment overrides, and
// validates the runtime configuration. A missing overlay file is not an
// error: defaults are used and a warning recorded.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	var warnings []Warning
	exists := false

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		exists = true
		cfg, err = ApplyOverlay(string(content), cfg)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		warnings = append(warnings, Warning{Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath)})
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg = ApplyEnv(cfg)

	validateWarnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, err
	}
	warnings = append(warnings, validateWarnings...)

	return Loaded{Path: resolvedPath, Config: cfg, Warnings: warnings, Exists: exists}, nil
}
