package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/townsend/engine/internal/event"
)

// Translate maps an SDL event onto an event value, or nil when the event is
// not one the engine routes.
func Translate(e sdl.Event) event.Event {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		return event.WindowClose{}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return event.WindowClose{}
		case sdl.WINDOWEVENT_RESIZED:
			return event.WindowResize{Width: int(e.Data1), Height: int(e.Data2)}
		case sdl.WINDOWEVENT_MINIMIZED:
			return event.WindowMinimize{}
		case sdl.WINDOWEVENT_RESTORED:
			return event.WindowRestore{}
		case sdl.WINDOWEVENT_FOCUS_GAINED:
			return event.WindowFocusGained{}
		case sdl.WINDOWEVENT_FOCUS_LOST:
			return event.WindowFocusLost{}
		}
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			return event.KeyPressed{Key: int(e.Keysym.Sym), Repeat: e.Repeat != 0}
		}
		return event.KeyReleased{Key: int(e.Keysym.Sym)}
	case *sdl.MouseMotionEvent:
		return event.MouseMoved{X: float32(e.X), Y: float32(e.Y)}
	case *sdl.MouseButtonEvent:
		if e.Type == sdl.MOUSEBUTTONDOWN {
			return event.MouseButtonPressed{Button: int(e.Button)}
		}
		return event.MouseButtonReleased{Button: int(e.Button)}
	case *sdl.MouseWheelEvent:
		return event.MouseScrolled{XOffset: float32(e.X), YOffset: float32(e.Y)}
	}
	return nil
}
