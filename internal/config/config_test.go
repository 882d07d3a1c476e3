package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2, cfg.Render.FramesInFlight)
}

func TestParseFileThenFlags(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[window]
title = "room"
width = 1280
height = 720

[render]
frames_in_flight = 3
`)

	cfg, err := Parse([]string{"--config", path, "--height", "800"})
	require.NoError(t, err)
	assert.Equal(t, "room", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 800, cfg.Window.Height)
	assert.Equal(t, 3, cfg.Render.FramesInFlight)
	assert.Equal(t, "assets", cfg.Assets.Dir)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseUnsetFlagsKeepFileValues(t *testing.T) {
	path := writeConfig(t, "validation = true\n")
	cfg, err := Parse([]string{"--config", path})
	require.NoError(t, err)
	assert.True(t, cfg.Validation)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero frames", []string{"--frames-in-flight", "0"}},
		{"too many frames", []string{"--frames-in-flight", "5"}},
		{"zero width", []string{"--width", "0"}},
		{"negative height", []string{"--height", "-1"}},
		{"bad level", []string{"--log-level", "loud"}},
		{"unknown flag", []string{"--nope"}},
		{"missing file", []string{"--config", filepath.Join(t.TempDir(), "missing.toml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "[window\n")
	_, err := Parse([]string{"--config", path})
	assert.Error(t, err)
}
