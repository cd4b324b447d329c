package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// PreciseLightingEnv is the environment toggle for QuadMesh precise lighting.
// A numeric value > 0 enables it when the config file leaves it unset.
const PreciseLightingEnv = "SHAPEKIT_QUADMESH_PRECISE_LIGHTING"

// Load loads configuration with priority: defaults < file < environment < flags.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns ./config.yaml, else the file in ConfigDir, else "".
func findConfigFile() string {
	for _, path := range []string{"config.yaml", filepath.Join(ConfigDir(), "config.yaml")} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the shapekit directory under the user config dir
// ($XDG_CONFIG_HOME, ~/Library/Application Support or %AppData%).
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "shapekit")
}

// loadFromFile merges the YAML file at path into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv reads the precise lighting toggle. Non-numeric values are ignored.
func applyEnv(cfg *Config) {
	if cfg.Render.QuadMeshPreciseLighting > 0 {
		return
	}
	v, ok := os.LookupEnv(PreciseLightingEnv)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		cfg.Render.QuadMeshPreciseLighting = n
	}
}

// Validate rejects settings the renderer cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d is negative", c.Window.Width, c.Window.Height))
	}
	r := c.Render
	if r.BBoxCalibration < 0 {
		errs = append(errs, fmt.Errorf("bbox_calibration %v is negative", r.BBoxCalibration))
	}
	if r.BigTextureMinTile <= 0 || r.BigTextureMaxTile < r.BigTextureMinTile {
		errs = append(errs, fmt.Errorf("bigtexture tile range [%d, %d] is empty", r.BigTextureMinTile, r.BigTextureMaxTile))
	}
	if r.BigTextureMaxTiles <= 0 {
		errs = append(errs, fmt.Errorf("bigtexture_max_tiles must be positive, got %d", r.BigTextureMaxTiles))
	}
	if r.NurbsSamples <= 0 {
		errs = append(errs, fmt.Errorf("nurbs_samples must be positive, got %d", r.NurbsSamples))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
