// Package main is the interactive shape viewer. It builds a scene holding
// one item of every shape kind and renders it with selectable style flags.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/xlab/closer"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/assets"
	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/debug"
	"github.com/Faultbox/shapekit/internal/engine/input"
	"github.com/Faultbox/shapekit/internal/engine/renderer"
	"github.com/Faultbox/shapekit/internal/engine/window"
	"github.com/Faultbox/shapekit/internal/logger"
)

const windowTitle = "shapekit viewer"

var (
	flagAssets     = flag.String("assets", "", "Directory searched for -texture and -bumpmap images")
	flagTexture    = flag.String("texture", "", "Image for the quad mesh (procedural checker when empty)")
	flagBumpMap    = flag.String("bumpmap", "", "Height or normal map for the quad mesh (procedural when empty)")
	flagScreenshot = flag.String("screenshots", "screenshots", "Directory for F12 captures")
	flagSave       = flag.Bool("save-config", false, "Remember the style flags toggled in the viewer")
)

func init() {
	runtime.LockOSThread()
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	// Interrupts exit through closer; GL teardown stays on the main thread.
	closer.Bind(logger.Sync)

	if err := run(cfg); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config) error {
	logger.Info("=== shapekit viewer ===")

	win, err := window.New(window.FromConfig(windowTitle, cfg.Window))
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Close()

	gl, err := backend.NewGL()
	if err != nil {
		return err
	}

	svc := cache.NewService(cfg.Render)
	rend := renderer.New(gl, svc, renderer.NewGLSurface())
	defer rend.Close()

	mgr := assets.NewManager()
	if *flagAssets != "" {
		if err := mgr.AddDir(*flagAssets); err != nil {
			return err
		}
	}
	defer mgr.Close()

	imgs, err := loadImages(mgr, *flagTexture, *flagBumpMap)
	if err != nil {
		return err
	}

	v := newViewer(svc, imgs, cfg.Render.Style)
	shots := debug.NewScreenshots(*flagScreenshot, "shapeview")

	in := input.New()
	var (
		frames  int
		lastFPS = time.Now()
	)

	running := true
	for running {
		if in.Update() {
			running = false
		}
		for _, c := range in.Commands() {
			switch c.Type {
			case input.CommandOrbit:
				v.cam.HandleDrag(c.DX, c.DY)
			case input.CommandZoom:
				v.cam.HandleZoom(c.DY)
			case input.CommandPick:
				ww, wh := win.Size()
				dw, dh := win.DrawableSize()
				v.pick(c.X*float32(dw)/float32(max(ww, 1)), c.Y*float32(dh)/float32(max(wh, 1)), dw, dh)
			case input.CommandToggleStyle:
				v.toggleStyle(c.Style)
			case input.CommandFit:
				v.fit()
			case input.CommandScreenshot:
				screenshot(win, shots)
			}
		}

		dw, dh := win.DrawableSize()
		st := rend.Frame(v.scene, v.cam, dw, dh)
		win.SwapBuffers()

		frames++
		if elapsed := time.Since(lastFPS); elapsed >= time.Second {
			fps := float64(frames) / elapsed.Seconds()
			win.SetTitle(fmt.Sprintf("%s - %.0f fps - style %s", windowTitle, fps, v.scene.Style()))
			frames, lastFPS = 0, time.Now()
		}
		if !st.Redraw && !cfg.Window.VSync {
			sdl.Delay(1)
		}
	}

	if *flagSave {
		cfg.Render.Style = v.scene.Style().Names()
		if err := cfg.Save(); err != nil {
			logger.Warn("saving config failed", zap.Error(err))
		} else {
			logger.Info("config saved", zap.Strings("style", cfg.Render.Style))
		}
	}

	logger.Info("viewer closed")
	return nil
}

func screenshot(win *window.Window, shots *debug.Screenshots) {
	dw, dh := win.DrawableSize()
	img, err := renderer.Capture(dw, dh)
	if err != nil {
		logger.Warn("capture failed", zap.Error(err))
		return
	}
	name, err := shots.Save(img)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}
