package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRoutesByKind(t *testing.T) {
	d := NewDispatcher()
	var resized []WindowResize
	closed := 0
	On(d, func(e WindowResize) { resized = append(resized, e) })
	On(d, func(WindowClose) { closed++ })

	d.Offer(WindowResize{Width: 640, Height: 480})
	d.Offer(KeyPressed{Key: 27})
	d.Offer(WindowClose{})

	require.Len(t, resized, 1)
	assert.Equal(t, WindowResize{Width: 640, Height: 480}, resized[0])
	assert.Equal(t, 1, closed)
}

func TestOfferStopsAtConsumingHandler(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.Listen(KindKeyPressed, func(Event) bool {
		calls = append(calls, "first")
		return true
	})
	d.Listen(KindKeyPressed, func(Event) bool {
		calls = append(calls, "second")
		return false
	})

	assert.True(t, d.Offer(KeyPressed{Key: 1}))
	assert.Equal(t, []string{"first"}, calls)
}

func TestOfferWithoutHandlers(t *testing.T) {
	d := NewDispatcher()
	assert.False(t, d.Offer(MouseMoved{X: 1, Y: 2}))
	assert.False(t, d.Offer(nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "WindowResize", KindWindowResize.String())
	assert.Equal(t, "MouseScrolled", MouseScrolled{}.Kind().String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
