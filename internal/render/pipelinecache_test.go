package render

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/gpu/gputest"
)

func cacheBlob(t *testing.T, header PipelineCacheHeader, payload ...byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, header))
	buf.Write(payload)
	return buf.Bytes()
}

func validHeader() PipelineCacheHeader {
	physical := gputest.PhysicalDevice("test gpu")
	return PipelineCacheHeader{
		Length:   32,
		Version:  1,
		VendorID: physical.VendorID,
		DeviceID: physical.DeviceID,
		UUID:     physical.PipelineCacheUUID,
	}
}

func TestParsePipelineCacheHeader(t *testing.T) {
	data := []byte{
		0x20, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0xde, 0x10, 0x00, 0x00,
		0x04, 0x22, 0x00, 0x00,
		0x6f, 0x1c, 0x2d, 0x3e, 0x4a, 0x5b, 0x4c, 0x6d,
		0x8e, 0x7f, 0x90, 0xa1, 0xb2, 0xc3, 0xd4, 0xe5,
		0xff,
	}
	header, err := ParsePipelineCacheHeader(data)
	require.NoError(t, err)
	assert.Equal(t, validHeader(), header)

	_, err = ParsePipelineCacheHeader(data[:20])
	assert.Error(t, err)
}

func TestPipelineCacheHeaderValidate(t *testing.T) {
	physical := gputest.PhysicalDevice("test gpu")
	tests := []struct {
		name   string
		mutate func(*PipelineCacheHeader)
		want   string
	}{
		{"valid", func(*PipelineCacheHeader) {}, ""},
		{"zero length", func(h *PipelineCacheHeader) { h.Length = 0 }, "bad header length"},
		{"version", func(h *PipelineCacheHeader) { h.Version = 2 }, "unsupported cache header version"},
		{"vendor", func(h *PipelineCacheHeader) { h.VendorID = 0x1002 }, "vendor id mismatch"},
		{"device", func(h *PipelineCacheHeader) { h.DeviceID = 1 }, "device id mismatch"},
		{"uuid", func(h *PipelineCacheHeader) { h.UUID = uuid.Nil }, "uuid mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := validHeader()
			tt.mutate(&header)
			err := header.Validate(physical)
			if tt.want == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.want)
			}
		})
	}
}

func TestOpenPipelineCache(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		ctx, device := newTestContext(t)
		cache, err := OpenPipelineCache(ctx, filepath.Join(t.TempDir(), "cache.bin"))
		require.NoError(t, err)
		require.Len(t, device.CacheInitial, 1)
		assert.Nil(t, device.CacheInitial[0])
		assert.Equal(t, 1, device.Live("pipeline cache"))

		cache.Destroy()
		assert.Zero(t, device.Live("pipeline cache"))
	})

	t.Run("valid blob seeds the cache", func(t *testing.T) {
		ctx, device := newTestContext(t)
		path := filepath.Join(t.TempDir(), "cache.bin")
		blob := cacheBlob(t, validHeader(), 1, 2, 3)
		require.NoError(t, os.WriteFile(path, blob, 0o666))

		_, err := OpenPipelineCache(ctx, path)
		require.NoError(t, err)
		require.Len(t, device.CacheInitial, 1)
		assert.Equal(t, blob, device.CacheInitial[0])
		assert.FileExists(t, path)
	})

	t.Run("foreign blob is deleted", func(t *testing.T) {
		ctx, device := newTestContext(t)
		path := filepath.Join(t.TempDir(), "cache.bin")
		header := validHeader()
		header.VendorID = 0x1002
		require.NoError(t, os.WriteFile(path, cacheBlob(t, header), 0o666))

		_, err := OpenPipelineCache(ctx, path)
		require.NoError(t, err)
		require.Len(t, device.CacheInitial, 1)
		assert.Nil(t, device.CacheInitial[0])
		assert.NoFileExists(t, path)
	})

	t.Run("truncated blob is deleted", func(t *testing.T) {
		ctx, device := newTestContext(t)
		path := filepath.Join(t.TempDir(), "cache.bin")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o666))

		_, err := OpenPipelineCache(ctx, path)
		require.NoError(t, err)
		assert.Nil(t, device.CacheInitial[0])
		assert.NoFileExists(t, path)
	})

	t.Run("disabled", func(t *testing.T) {
		ctx, device := newTestContext(t)
		cache, err := OpenPipelineCache(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, device.CacheInitial[0])
		assert.NoError(t, cache.Save())
		assert.Zero(t, device.Count("PipelineCacheData"))
	})
}

func TestPipelineCacheSave(t *testing.T) {
	ctx, device := newTestContext(t)
	path := filepath.Join(t.TempDir(), "cache.bin")
	cache, err := OpenPipelineCache(ctx, path)
	require.NoError(t, err)

	device.CacheData = cacheBlob(t, validHeader(), 9, 9)
	require.NoError(t, cache.Save())

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, device.CacheData, written)

	// The saved blob is accepted on the next launch.
	_, err = OpenPipelineCache(ctx, path)
	require.NoError(t, err)
	require.Len(t, device.CacheInitial, 2)
	assert.Equal(t, written, device.CacheInitial[1])
}
