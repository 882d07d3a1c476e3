package render

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/asset"
	"github.com/townsend/engine/internal/gpu"
	"github.com/townsend/engine/internal/gpu/gputest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testRequirements = DeviceRequirements{
	Extensions:        []string{"VK_KHR_swapchain"},
	SamplerAnisotropy: true,
}

func newTestContext(t *testing.T, physical ...gpu.PhysicalDevice) (*Context, *gputest.Device) {
	t.Helper()
	if len(physical) == 0 {
		physical = []gpu.PhysicalDevice{gputest.PhysicalDevice("test gpu")}
	}
	instance := gputest.NewInstance(physical...)
	ctx, err := NewContext(instance, testRequirements, quietLogger())
	require.NoError(t, err)
	return ctx, instance.Device
}

func testModel() asset.Model {
	return asset.Model{
		Vertices: []asset.Vertex{
			{Pos: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{0, 1}},
			{Pos: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 1}},
			{Pos: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func testPixels() asset.Pixels {
	return asset.Pixels{Width: 2, Height: 2, Data: make([]byte, 2*2*4)}
}

// harness is a fully built frame loop on the recording device.
type harness struct {
	ctx      *Context
	device   *gputest.Device
	window   *gputest.Window
	exec     *CommandExecutor
	texture  *Texture
	mesh     *Mesh
	manager  *SwapchainManager
	renderer *Renderer
}

func newHarness(t *testing.T, framesInFlight int) *harness {
	t.Helper()
	ctx, device := newTestContext(t)
	h := &harness{ctx: ctx, device: device, window: gputest.NewWindow(800, 600)}

	var err error
	h.exec, err = NewCommandExecutor(ctx, framesInFlight)
	require.NoError(t, err)
	h.texture, err = NewTexture(ctx, h.exec, testPixels())
	require.NoError(t, err)
	h.mesh, err = NewMesh(ctx, h.exec, testModel())
	require.NoError(t, err)

	h.manager, err = NewSwapchainManager(ctx, h.exec, h.window, ManagerConfig{
		Shaders:        Shaders{Vertex: []byte{3, 2, 35, 7}, Fragment: []byte{3, 2, 35, 7}},
		Texture:        h.texture,
		FramesInFlight: framesInFlight,
		Clock:          func() time.Duration { return 0 },
	})
	require.NoError(t, err)
	h.renderer = NewRenderer(ctx, h.manager, h.exec, h.window, h.mesh)
	return h
}

func (h *harness) destroy() {
	h.manager.Destroy()
	h.mesh.Destroy(h.ctx.Device)
	h.texture.Destroy(h.ctx.Device)
	h.exec.Destroy()
	h.ctx.Destroy()
}
