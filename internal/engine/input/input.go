// Package input turns SDL2 events into viewer commands.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// CommandType is the kind of a viewer command.
type CommandType int

const (
	CommandNone CommandType = iota
	CommandQuit
	CommandOrbit
	CommandZoom
	CommandPick
	CommandToggleStyle
	CommandFit
	CommandScreenshot
)

// NumStyleKeys is the number of style flags bound to the digit keys 1..8.
const NumStyleKeys = 8

// Command is one translated event. DX/DY carry the orbit drag or the
// wheel delta, X/Y the pick position in window points, Style the style
// flag index.
type Command struct {
	Type   CommandType
	DX, DY float32
	X, Y   float32
	Style  int
}

// Input tracks the mouse buttons between events.
type Input struct {
	commands []Command
	dragging bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		commands: make([]Command, 0, 16),
	}
}

// Update polls SDL events and translates them. Returns true if the viewer
// should quit.
func (i *Input) Update() bool {
	i.commands = i.commands[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if c := i.Translate(event); c.Type != CommandNone {
			i.commands = append(i.commands, c)
			quit = quit || c.Type == CommandQuit
		}
	}
	return quit
}

// Commands returns the commands from the last Update.
func (i *Input) Commands() []Command {
	return i.commands
}

// Translate converts one event. Events the viewer ignores yield
// CommandNone.
func (i *Input) Translate(event sdl.Event) Command {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Command{Type: CommandQuit}

	case *sdl.MouseMotionEvent:
		if i.dragging {
			return Command{Type: CommandOrbit, DX: float32(e.XRel), DY: float32(e.YRel)}
		}

	case *sdl.MouseButtonEvent:
		pressed := e.State == sdl.PRESSED
		switch e.Button {
		case sdl.BUTTON_LEFT:
			i.dragging = pressed
		case sdl.BUTTON_RIGHT:
			if pressed {
				return Command{Type: CommandPick, X: float32(e.X), Y: float32(e.Y)}
			}
		}

	case *sdl.MouseWheelEvent:
		if e.Y != 0 {
			return Command{Type: CommandZoom, DY: float32(e.Y)}
		}

	case *sdl.KeyboardEvent:
		if e.State != sdl.PRESSED || e.Repeat != 0 {
			return Command{}
		}
		switch sym := e.Keysym.Sym; {
		case sym == sdl.K_ESCAPE:
			return Command{Type: CommandQuit}
		case sym == sdl.K_r:
			return Command{Type: CommandFit}
		case sym == sdl.K_F12:
			return Command{Type: CommandScreenshot}
		case sym >= sdl.K_1 && sym < sdl.K_1+NumStyleKeys:
			return Command{Type: CommandToggleStyle, Style: int(sym - sdl.K_1)}
		}
	}
	return Command{}
}

// Dragging reports whether the orbit button is held.
func (i *Input) Dragging() bool {
	return i.dragging
}
