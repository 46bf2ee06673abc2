// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/planloop/planloop/internal/domain"
)

// Loader loads TOML configuration, merging the global file under the
// root-local one. Defaults apply first; later sources take precedence.
type Loader struct {
	root          string // Plans root directory
	globalConfDir string // e.g. ~/.config/planloop
}

// NewLoader creates a Loader for the given plans root.
func NewLoader(root string) *Loader {
	return &Loader{
		root:          root,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a Loader with a custom global config
// directory. This is useful for testing.
func NewLoaderWithGlobalDir(root, globalConfDir string) *Loader {
	return &Loader{
		root:          root,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "planloop")
}

// Load returns the merged configuration (root-local over global over
// defaults). Missing files are not errors.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		if err := mergeFile(cfg, filepath.Join(l.globalConfDir, domain.ConfigFileName)); err != nil {
			return nil, err
		}
	}
	if err := mergeFile(cfg, filepath.Join(l.root, domain.RootConfigFileName)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg in place. A missing file is a no-op.
func mergeFile(cfg *domain.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
