// Package config loads viewer settings from defaults, an optional TOML file
// and command-line flags, in increasing order of precedence.
package config

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

const MaxFramesInFlight = 4

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Assets struct {
	Dir            string `toml:"dir"`
	Model          string `toml:"model"`
	Material       string `toml:"material"`
	Texture        string `toml:"texture"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
}

type Render struct {
	FramesInFlight int    `toml:"frames_in_flight"`
	PipelineCache  string `toml:"pipeline_cache"`
}

type Config struct {
	Window     Window `toml:"window"`
	Assets     Assets `toml:"assets"`
	Render     Render `toml:"render"`
	Validation bool   `toml:"validation"`
	LogLevel   string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Window: Window{Title: "Vulkan", Width: 800, Height: 600},
		Assets: Assets{
			Dir:            "assets",
			Model:          "meshes/viking_room.obj",
			Material:       "meshes/viking_room.mtl",
			Texture:        "textures/viking_room.png",
			VertexShader:   "shaders/vert.spv",
			FragmentShader: "shaders/frag.spv",
		},
		Render:   Render{FramesInFlight: 2, PipelineCache: "pipeline_cache_data.bin"},
		LogLevel: "info",
	}
}

// Parse builds a Config from args (without the program name). Flags only
// override the file when given explicitly.
func Parse(args []string) (Config, error) {
	cfg := Default()
	fs := pflag.NewFlagSet("viewer", pflag.ContinueOnError)
	path := fs.String("config", "", "TOML configuration file")
	title := fs.String("title", cfg.Window.Title, "window title")
	width := fs.Int("width", cfg.Window.Width, "initial window width")
	height := fs.Int("height", cfg.Window.Height, "initial window height")
	assets := fs.String("assets", cfg.Assets.Dir, "asset directory")
	frames := fs.Int("frames-in-flight", cfg.Render.FramesInFlight, "frames recorded ahead of the GPU")
	cache := fs.String("pipeline-cache", cfg.Render.PipelineCache, "pipeline cache file, empty to disable")
	validation := fs.Bool("validation", cfg.Validation, "enable the Khronos validation layer")
	level := fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(err, "parse flags")
	}

	if *path != "" {
		data, err := os.ReadFile(*path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config file")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", *path)
		}
	}

	if fs.Changed("title") {
		cfg.Window.Title = *title
	}
	if fs.Changed("width") {
		cfg.Window.Width = *width
	}
	if fs.Changed("height") {
		cfg.Window.Height = *height
	}
	if fs.Changed("assets") {
		cfg.Assets.Dir = *assets
	}
	if fs.Changed("frames-in-flight") {
		cfg.Render.FramesInFlight = *frames
	}
	if fs.Changed("pipeline-cache") {
		cfg.Render.PipelineCache = *cache
	}
	if fs.Changed("validation") {
		cfg.Validation = *validation
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *level
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Render.FramesInFlight < 1 || c.Render.FramesInFlight > MaxFramesInFlight {
		return errors.Newf("frames in flight must be between 1 and %d, got %d", MaxFramesInFlight, c.Render.FramesInFlight)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return level, nil
}
