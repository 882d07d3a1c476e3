// Package window owns the SDL window the renderer presents to and turns SDL
// events into event values.
package window

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/townsend/engine/internal/config"
	"github.com/townsend/engine/internal/event"
)

type Window struct {
	win        *sdl.Window
	dispatcher *event.Dispatcher
	logger     *slog.Logger

	resized     bool
	shouldClose bool
}

// New initializes SDL video and opens a resizable Vulkan window. Events are
// offered to d; the window itself listens for close and resize.
func New(cfg config.Window, d *event.Dispatcher, logger *slog.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}
	win, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	w := &Window{win: win, dispatcher: d, logger: logger}
	event.On(d, func(e event.WindowResize) {
		w.logger.Debug("window resized", slog.Int("width", e.Width), slog.Int("height", e.Height))
		w.resized = true
	})
	event.On(d, func(event.WindowRestore) { w.resized = true })
	event.On(d, func(event.WindowClose) { w.shouldClose = true })
	return w, nil
}

// SDL returns the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.win
}

// PollEvents drains the SDL queue without blocking.
func (w *Window) PollEvents() {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		w.offer(e)
	}
}

// WaitEvents blocks for one event, then drains whatever else is queued.
func (w *Window) WaitEvents() {
	if e := sdl.WaitEvent(); e != nil {
		w.offer(e)
	}
	w.PollEvents()
}

func (w *Window) offer(e sdl.Event) {
	if translated := Translate(e); translated != nil {
		w.dispatcher.Offer(translated)
	}
}

func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

func (w *Window) Close() {
	w.shouldClose = true
}

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) FramebufferSize() (int, int) {
	width, height := w.win.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Resized() bool {
	return w.resized
}

func (w *Window) ResetResized() {
	w.resized = false
}

func (w *Window) Destroy() {
	if err := w.win.Destroy(); err != nil {
		w.logger.Warn("destroy window", slog.String("error", err.Error()))
	}
	sdl.Quit()
}
