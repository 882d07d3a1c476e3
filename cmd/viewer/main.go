// Command viewer renders a textured, spinning model with Vulkan and keeps
// presenting through window resizes and minimization.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/townsend/engine/internal/asset"
	"github.com/townsend/engine/internal/config"
	"github.com/townsend/engine/internal/event"
	"github.com/townsend/engine/internal/render"
	"github.com/townsend/engine/internal/vkng"
	"github.com/townsend/engine/internal/window"
)

func main() {
	runtime.LockOSThread()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, logger); err != nil {
		logger.Error("viewer failed", slog.String("error", fmt.Sprintf("%+v", err)))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	assets, err := asset.Load(context.Background(), os.DirFS(cfg.Assets.Dir), asset.Paths{
		Model:          cfg.Assets.Model,
		Material:       cfg.Assets.Material,
		Texture:        cfg.Assets.Texture,
		VertexShader:   cfg.Assets.VertexShader,
		FragmentShader: cfg.Assets.FragmentShader,
	})
	if err != nil {
		return errors.Wrap(err, "load assets")
	}
	logger.Info("assets loaded",
		slog.Int("vertices", len(assets.Model.Vertices)),
		slog.Int("indices", len(assets.Model.Indices)),
		slog.Int("texture_width", assets.Texture.Width),
		slog.Int("texture_height", assets.Texture.Height))

	dispatcher := event.NewDispatcher()
	win, err := window.New(cfg.Window, dispatcher, logger)
	if err != nil {
		return err
	}
	defer win.Destroy()
	event.On(dispatcher, func(e event.KeyPressed) {
		if e.Key == int(sdl.K_ESCAPE) {
			win.Close()
		}
	})

	instance, err := vkng.NewInstance(win.SDL(), vkng.InstanceConfig{
		AppName:    cfg.Window.Title,
		Validation: cfg.Validation,
	}, logger)
	if err != nil {
		return err
	}

	ctx, err := render.NewContext(instance, render.DeviceRequirements{
		Extensions:        vkng.DeviceExtensions,
		SamplerAnisotropy: true,
	}, logger)
	if err != nil {
		instance.Destroy()
		return err
	}
	defer ctx.Destroy()

	exec, err := render.NewCommandExecutor(ctx, cfg.Render.FramesInFlight)
	if err != nil {
		return err
	}
	defer exec.Destroy()

	texture, err := render.NewTexture(ctx, exec, assets.Texture)
	if err != nil {
		return err
	}
	defer texture.Destroy(ctx.Device)

	mesh, err := render.NewMesh(ctx, exec, assets.Model)
	if err != nil {
		return err
	}
	defer mesh.Destroy(ctx.Device)

	cache, err := render.OpenPipelineCache(ctx, cfg.Render.PipelineCache)
	if err != nil {
		return err
	}
	defer cache.Destroy()

	manager, err := render.NewSwapchainManager(ctx, exec, win, render.ManagerConfig{
		Shaders:        render.Shaders{Vertex: assets.VertexShader, Fragment: assets.FragmentShader},
		Texture:        texture,
		Cache:          cache.Handle,
		FramesInFlight: cfg.Render.FramesInFlight,
	})
	if err != nil {
		return err
	}
	defer manager.Destroy()

	renderer := render.NewRenderer(ctx, manager, exec, win, mesh)
	loopErr := mainLoop(win, renderer)

	// Deferred destroys require an idle device.
	if err := ctx.Device.WaitIdle(); err != nil {
		return errors.CombineErrors(loopErr, errors.Wrap(err, "wait for device idle"))
	}
	if err := cache.Save(); err != nil {
		logger.Warn("save pipeline cache", slog.String("error", err.Error()))
	}
	return loopErr
}

func mainLoop(win *window.Window, renderer *render.Renderer) error {
	for !win.ShouldClose() {
		win.PollEvents()
		if win.ShouldClose() {
			break
		}
		if err := renderer.DrawFrame(); err != nil {
			return err
		}
	}
	return nil
}
