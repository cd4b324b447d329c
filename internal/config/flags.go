package config

import (
	"flag"
	"strings"
)

var (
	flagConfig          = flag.String("config", "", "Path to config file")
	flagDebug           = flag.Bool("debug", false, "Enable debug logging")
	flagWidth           = flag.Int("width", 0, "Window width")
	flagHeight          = flag.Int("height", 0, "Window height")
	flagPreciseLighting = flag.Bool("precise-lighting", false, "Split QuadMesh quads into centroid fans")
	flagStyle           = flag.String("style", "", "Comma separated shape style flags (e.g. vertexarray,bboxcmplx)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagPreciseLighting {
		cfg.Render.QuadMeshPreciseLighting = 1
	}
	if *flagStyle != "" {
		cfg.Render.Style = nil
		for _, s := range strings.Split(*flagStyle, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Render.Style = append(cfg.Render.Style, s)
			}
		}
	}
}
