package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/asset"
	"github.com/townsend/engine/internal/gpu"
)

// VertexLayout describes asset.Vertex to the pipeline: position at location
// 0, color at 1, texture coordinate at 2.
func VertexLayout() (int, []gpu.VertexAttribute) {
	var v asset.Vertex
	return int(unsafe.Sizeof(v)), []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32SFloat, Offset: int(unsafe.Offsetof(v.Pos))},
		{Location: 1, Format: gpu.FormatR32G32B32SFloat, Offset: int(unsafe.Offsetof(v.Color))},
		{Location: 2, Format: gpu.FormatR32G32SFloat, Offset: int(unsafe.Offsetof(v.TexCoord))},
	}
}

// Mesh is an indexed model resident in device-local memory.
type Mesh struct {
	Vertices   *Buffer
	Indices    *Buffer
	IndexCount int
}

func NewMesh(ctx *Context, exec *CommandExecutor, model asset.Model) (*Mesh, error) {
	if len(model.Vertices) == 0 || len(model.Indices) == 0 {
		return nil, errors.New("model has no geometry")
	}
	vertexData, err := encode(model.Vertices)
	if err != nil {
		return nil, errors.Wrap(err, "encode vertices")
	}
	indexData, err := encode(model.Indices)
	if err != nil {
		return nil, errors.Wrap(err, "encode indices")
	}

	vertices, err := UploadBuffer(ctx, exec, vertexData, gpu.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertex buffer")
	}
	indices, err := UploadBuffer(ctx, exec, indexData, gpu.BufferUsageIndexBuffer)
	if err != nil {
		vertices.Destroy(ctx.Device)
		return nil, errors.Wrap(err, "upload index buffer")
	}
	return &Mesh{Vertices: vertices, Indices: indices, IndexCount: len(model.Indices)}, nil
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, binary.NativeEndian, data)
	return buf.Bytes(), err
}

func (m *Mesh) Destroy(device gpu.Device) {
	m.Indices.Destroy(device)
	m.Vertices.Destroy(device)
}
