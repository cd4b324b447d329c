// Package config handles renderer configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings for the viewer.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// RenderConfig holds shape rendering settings.
type RenderConfig struct {
	// QuadMeshPreciseLighting enables the centroid-fan quad split when > 0.
	QuadMeshPreciseLighting int `yaml:"quadmesh_precise_lighting"`

	// BBoxCalibration is the bounding box cost above which a shape keeps a
	// bounding box cache. Zero means measure it when the service starts.
	BBoxCalibration time.Duration `yaml:"bbox_calibration"`

	BigTextureMaxTiles    int `yaml:"bigtexture_max_tiles"`
	BigTextureMinTile     int `yaml:"bigtexture_min_tile"`
	BigTextureMaxTile     int `yaml:"bigtexture_max_tile"`
	BigTextureChangeLimit int `yaml:"bigtexture_change_limit"`

	NurbsSamples   int `yaml:"nurbs_samples"`
	VBOMinVertices int `yaml:"vbo_min_vertices"`

	// Style lists shape style flags applied by the viewer, e.g. "vertexarray".
	Style []string `yaml:"style"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Render: RenderConfig{
			QuadMeshPreciseLighting: 0,
			BigTextureMaxTiles:      256,
			BigTextureMinTile:       256,
			BigTextureMaxTile:       1024,
			BigTextureChangeLimit:   4,
			NurbsSamples:            16,
			VBOMinVertices:          64,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// PreciseLighting reports whether the QuadMesh precise lighting mode is on.
func (r RenderConfig) PreciseLighting() bool {
	return r.QuadMeshPreciseLighting > 0
}
