package window

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/shapekit/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Window
	cfg.Fullscreen = true
	got := FromConfig("shapes", cfg)
	assert.Equal(t, Config{
		Title:      "shapes",
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: true,
		VSync:      cfg.VSync,
	}, got)
}

func TestOffscreenCloseBeforeUse(t *testing.T) {
	o := NewOffscreen()
	assert.NotPanics(t, o.Close)
}
