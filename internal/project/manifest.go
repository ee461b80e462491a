// Package project locates and parses dol.toml project manifests.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the parsed dol.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Input   InputConfig   `toml:"input"`
	Memory  MemoryConfig  `toml:"memory"`
}

// PackageConfig is the [package] section.
type PackageConfig struct {
	Name string `toml:"name"`
}

// InputConfig is the [input] section. Main is the typed-program file the
// backend compiles, relative to the project root.
type InputConfig struct {
	Main string `toml:"main"`
}

// MemoryConfig is the optional [memory] section sizing the produced
// module's linear memory. Zero fields fall back to the defaults.
type MemoryConfig struct {
	Pages    uint32 `toml:"pages"`
	MaxPages uint32 `toml:"max_pages"`
	DataBase uint32 `toml:"data_base"`
}

// Manifest is a located and parsed dol.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// MainPath resolves the input file against the project root.
func (m *Manifest) MainPath() string {
	if filepath.IsAbs(m.Config.Input.Main) {
		return m.Config.Input.Main
	}
	return filepath.Join(m.Root, m.Config.Input.Main)
}

// FindDolToml walks up from startDir to locate dol.toml.
func FindDolToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "dol.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses the nearest dol.toml above startDir.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindDolToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// LoadConfig parses and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("input") || strings.TrimSpace(cfg.Input.Main) == "" {
		return Config{}, fmt.Errorf("%s: missing [input].main", path)
	}
	if cfg.Memory.MaxPages != 0 && cfg.Memory.MaxPages < cfg.Memory.Pages {
		return Config{}, fmt.Errorf("%s: [memory].max_pages below [memory].pages", path)
	}
	return cfg, nil
}
