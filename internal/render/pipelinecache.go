package render

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/townsend/engine/internal/gpu"
)

const pipelineCacheHeaderVersionOne = 1

// PipelineCacheHeader is the fixed prefix of every pipeline cache blob. All
// fields are stored least significant byte first.
type PipelineCacheHeader struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

func ParsePipelineCacheHeader(data []byte) (PipelineCacheHeader, error) {
	var header PipelineCacheHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return header, errors.Wrap(err, "read pipeline cache header")
	}
	return header, nil
}

// Validate reports why the blob cannot seed a cache on physical, or nil.
func (h PipelineCacheHeader) Validate(physical gpu.PhysicalDevice) error {
	switch {
	case h.Length == 0:
		return errors.Newf("bad header length %#x", h.Length)
	case h.Version != pipelineCacheHeaderVersionOne:
		return errors.Newf("unsupported cache header version %#x", h.Version)
	case h.VendorID != physical.VendorID:
		return errors.Newf("vendor id mismatch: cache %#x, driver %#x", h.VendorID, physical.VendorID)
	case h.DeviceID != physical.DeviceID:
		return errors.Newf("device id mismatch: cache %#x, driver %#x", h.DeviceID, physical.DeviceID)
	case h.UUID != physical.PipelineCacheUUID:
		return errors.Newf("uuid mismatch: cache %s, driver %s", h.UUID, physical.PipelineCacheUUID)
	}
	return nil
}

// PipelineCache persists driver pipeline state between runs so rebuilding
// the pipeline on resize and on the next launch is cheaper.
type PipelineCache struct {
	Handle gpu.PipelineCache
	path   string
	device gpu.Device
	logger *slog.Logger
}

// OpenPipelineCache seeds a cache from path. A missing file starts empty; a
// blob built for another device is deleted and the cache starts empty.
func OpenPipelineCache(ctx *Context, path string) (*PipelineCache, error) {
	logger := ctx.Logger().With(slog.String("path", path))
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Info("pipeline cache miss")
		case err != nil:
			return nil, errors.Wrap(err, "read pipeline cache")
		}
	}

	if data != nil {
		header, err := ParsePipelineCacheHeader(data)
		if err == nil {
			err = header.Validate(ctx.Physical)
		}
		if err != nil {
			logger.Warn("discarding pipeline cache", slog.String("reason", err.Error()))
			data = nil
			if err := os.Remove(path); err != nil {
				logger.Debug("remove pipeline cache", slog.String("error", err.Error()))
			}
		}
	}

	handle, err := ctx.Device.CreatePipelineCache(data)
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}
	return &PipelineCache{Handle: handle, path: path, device: ctx.Device, logger: logger}, nil
}

// Save writes the current cache contents back to disk.
func (c *PipelineCache) Save() error {
	if c.path == "" {
		return nil
	}
	data, err := c.device.PipelineCacheData(c.Handle)
	if err != nil {
		return errors.Wrap(err, "get pipeline cache data")
	}
	if err := os.WriteFile(c.path, data, 0o666); err != nil {
		return errors.Wrap(err, "write pipeline cache")
	}
	c.logger.Info("pipeline cache written", slog.Int("bytes", len(data)))
	return nil
}

func (c *PipelineCache) Destroy() {
	c.device.DestroyPipelineCache(c.Handle)
}
