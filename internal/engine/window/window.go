// Package window creates SDL2 windows and OpenGL compatibility contexts:
// the viewer window and a hidden offscreen context for actions that run
// without one.
package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// ErrNoOffscreen is returned when no offscreen context can be created.
var ErrNoOffscreen = errors.New("window: offscreen context unavailable")

// offscreenSize is the edge of the hidden offscreen window.
const offscreenSize = 32

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// FromConfig returns the window settings of cfg under title.
func FromConfig(title string, cfg config.WindowConfig) Config {
	return Config{
		Title:      title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
	}
}

// Window wraps an SDL2 window and its OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

// setAttributes requests a 2.1 compatibility context: the shape renderer
// uses client arrays, texture environments and bitmaps.
func setAttributes(doubleBuffer bool) {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 2)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_COMPATIBILITY)
	db := 0
	if doubleBuffer {
		db = 1
	}
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, db)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
}

// New creates a visible window with a current OpenGL context.
func New(cfg Config) (*Window, error) {
	w := &Window{config: cfg}

	logger.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}
	setAttributes(true)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// Close destroys the window and shuts SDL2 down.
func (w *Window) Close() {
	logger.Info("closing window")
	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() { w.sdlWindow.GLSwap() }

// Size returns the window size in points.
func (w *Window) Size() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the framebuffer size in pixels, which differs from
// Size on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) { w.sdlWindow.SetTitle(title) }

// Offscreen is a hidden window whose GL context is made current while an
// action that has no context of its own needs one. The window is created
// on first use.
type Offscreen struct {
	once sync.Once
	err  error

	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

// NewOffscreen returns an offscreen context that is created lazily.
func NewOffscreen() *Offscreen { return &Offscreen{} }

func (o *Offscreen) create() error {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("%w: %v", ErrNoOffscreen, err)
	}
	setAttributes(false)
	win, err := sdl.CreateWindow("offscreen", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		offscreenSize, offscreenSize, sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("%w: %v", ErrNoOffscreen, err)
	}
	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("%w: %v", ErrNoOffscreen, err)
	}
	o.sdlWindow, o.glContext = win, ctx
	logger.Debug("offscreen context created", zap.Int("size", offscreenSize))
	return nil
}

// MakeCurrent makes the offscreen context current and returns a function
// restoring the previously current context, if any. Its signature matches
// the offscreen hook of shape actions.
func (o *Offscreen) MakeCurrent() (restore func(), err error) {
	o.once.Do(func() { o.err = o.create() })
	if o.err != nil {
		return nil, o.err
	}
	prevWin, _ := sdl.GLGetCurrentWindow()
	prevCtx, _ := sdl.GLGetCurrentContext()
	if err := o.sdlWindow.GLMakeCurrent(o.glContext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOffscreen, err)
	}
	return func() {
		if prevWin != nil && prevCtx != nil {
			if err := prevWin.GLMakeCurrent(prevCtx); err != nil {
				logger.Warn("failed to restore GL context", zap.Error(err))
			}
		}
	}, nil
}

// Close releases the offscreen window if it was created.
func (o *Offscreen) Close() {
	if o.sdlWindow == nil {
		return
	}
	sdl.GLDeleteContext(o.glContext)
	o.sdlWindow.Destroy()
	o.sdlWindow, o.glContext = nil, nil
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
}
