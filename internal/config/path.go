package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies XDG/home fallback rules for the config overlay
// location, adapted from the teacher's config.ResolvePath.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "voicecore", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "voicecore", "config.jsonc"), nil
}
