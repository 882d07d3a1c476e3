// Package event routes window and input events to registered handlers.
package event

import "fmt"

type Kind int

const (
	KindWindowClose Kind = iota
	KindWindowResize
	KindWindowMinimize
	KindWindowRestore
	KindWindowFocusGained
	KindWindowFocusLost
	KindKeyPressed
	KindKeyReleased
	KindMouseMoved
	KindMouseButtonPressed
	KindMouseButtonReleased
	KindMouseScrolled
)

var kindNames = [...]string{
	KindWindowClose:         "WindowClose",
	KindWindowResize:        "WindowResize",
	KindWindowMinimize:      "WindowMinimize",
	KindWindowRestore:       "WindowRestore",
	KindWindowFocusGained:   "WindowFocusGained",
	KindWindowFocusLost:     "WindowFocusLost",
	KindKeyPressed:          "KeyPressed",
	KindKeyReleased:         "KeyReleased",
	KindMouseMoved:          "MouseMoved",
	KindMouseButtonPressed:  "MouseButtonPressed",
	KindMouseButtonReleased: "MouseButtonReleased",
	KindMouseScrolled:       "MouseScrolled",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Event interface {
	Kind() Kind
}

type WindowClose struct{}

type WindowResize struct {
	Width, Height int
}

type WindowMinimize struct{}

type WindowRestore struct{}

type WindowFocusGained struct{}

type WindowFocusLost struct{}

// KeyPressed carries an SDL keycode.
type KeyPressed struct {
	Key    int
	Repeat bool
}

type KeyReleased struct {
	Key int
}

type MouseMoved struct {
	X, Y float32
}

type MouseButtonPressed struct {
	Button int
}

type MouseButtonReleased struct {
	Button int
}

type MouseScrolled struct {
	XOffset, YOffset float32
}

func (WindowClose) Kind() Kind         { return KindWindowClose }
func (WindowResize) Kind() Kind        { return KindWindowResize }
func (WindowMinimize) Kind() Kind      { return KindWindowMinimize }
func (WindowRestore) Kind() Kind       { return KindWindowRestore }
func (WindowFocusGained) Kind() Kind   { return KindWindowFocusGained }
func (WindowFocusLost) Kind() Kind     { return KindWindowFocusLost }
func (KeyPressed) Kind() Kind          { return KindKeyPressed }
func (KeyReleased) Kind() Kind         { return KindKeyReleased }
func (MouseMoved) Kind() Kind          { return KindMouseMoved }
func (MouseButtonPressed) Kind() Kind  { return KindMouseButtonPressed }
func (MouseButtonReleased) Kind() Kind { return KindMouseButtonReleased }
func (MouseScrolled) Kind() Kind       { return KindMouseScrolled }
