package render

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/townsend/engine/internal/gpu"
)

// UniformBufferSize is three 4x4 float matrices.
const UniformBufferSize = 3 * 16 * 4

// clipCorrection flips Y and maps depth from [-1, 1] to [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// NewUniformBufferObject spins the model a quarter turn per second around Z
// and projects onto extent.
func NewUniformBufferObject(elapsed time.Duration, extent gpu.Extent2D) UniformBufferObject {
	seconds := math.Mod(elapsed.Seconds(), 4)
	aspect := float32(extent.Width) / float32(extent.Height)
	return UniformBufferObject{
		Model: mgl32.HomogRotate3D(float32(seconds)*mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		View:  mgl32.LookAtV(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		Proj:  clipCorrection.Mul4(mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10)),
	}
}

// Bytes lays out the three matrices back to back in column-major order.
func (u UniformBufferObject) Bytes() []byte {
	out := make([]byte, 0, UniformBufferSize)
	for _, m := range []mgl32.Mat4{u.Model, u.View, u.Proj} {
		for _, f := range m {
			out = binary.NativeEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}
