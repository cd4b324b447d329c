package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func key(sym sdl.Keycode, state uint8, repeat uint8) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{State: state, Repeat: repeat, Keysym: sdl.Keysym{Sym: sym}}
}

func TestTranslateKeys(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Command
	}{
		{"quit event", &sdl.QuitEvent{}, Command{Type: CommandQuit}},
		{"escape", key(sdl.K_ESCAPE, sdl.PRESSED, 0), Command{Type: CommandQuit}},
		{"fit", key(sdl.K_r, sdl.PRESSED, 0), Command{Type: CommandFit}},
		{"screenshot", key(sdl.K_F12, sdl.PRESSED, 0), Command{Type: CommandScreenshot}},
		{"first style", key(sdl.K_1, sdl.PRESSED, 0), Command{Type: CommandToggleStyle, Style: 0}},
		{"last style", key(sdl.K_8, sdl.PRESSED, 0), Command{Type: CommandToggleStyle, Style: 7}},
		{"out of range digit", key(sdl.K_9, sdl.PRESSED, 0), Command{}},
		{"release", key(sdl.K_r, sdl.RELEASED, 0), Command{}},
		{"repeat", key(sdl.K_r, sdl.PRESSED, 1), Command{}},
		{"wheel", &sdl.MouseWheelEvent{Y: -2}, Command{Type: CommandZoom, DY: -2}},
		{"horizontal wheel", &sdl.MouseWheelEvent{X: 1}, Command{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New().Translate(tt.event))
		})
	}
}

func TestTranslateDrag(t *testing.T) {
	in := New()
	move := &sdl.MouseMotionEvent{XRel: 3, YRel: -1}

	assert.Equal(t, CommandNone, in.Translate(move).Type, "no drag without a button")

	in.Translate(&sdl.MouseButtonEvent{Button: sdl.BUTTON_LEFT, State: sdl.PRESSED})
	assert.True(t, in.Dragging())
	assert.Equal(t, Command{Type: CommandOrbit, DX: 3, DY: -1}, in.Translate(move))

	in.Translate(&sdl.MouseButtonEvent{Button: sdl.BUTTON_LEFT, State: sdl.RELEASED})
	assert.False(t, in.Dragging())
	assert.Equal(t, CommandNone, in.Translate(move).Type)
}

func TestTranslatePick(t *testing.T) {
	in := New()
	got := in.Translate(&sdl.MouseButtonEvent{Button: sdl.BUTTON_RIGHT, State: sdl.PRESSED, X: 10, Y: 20})
	assert.Equal(t, Command{Type: CommandPick, X: 10, Y: 20}, got)
	assert.Equal(t, CommandNone, in.Translate(&sdl.MouseButtonEvent{Button: sdl.BUTTON_RIGHT, State: sdl.RELEASED}).Type)
}
