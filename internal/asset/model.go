// Package asset decodes the model, texture and shaders the viewer renders.
package asset

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the layout uploaded to the vertex buffer.
type Vertex struct {
	Pos      mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Model is an indexed triangle list.
type Model struct {
	Vertices []Vertex
	Indices  []uint32
}

// LoadModel decodes a Wavefront OBJ stream. Polygons are split into fans,
// corners sharing both position and texture coordinate indices are merged,
// and the V texture axis is flipped to match image row order. mtl may be nil.
func LoadModel(objReader, mtl io.Reader) (Model, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(objReader, mtl)
	if err != nil {
		return Model{}, errors.Wrap(err, "decode obj")
	}

	b := modelBuilder{decoder: decoder, unique: map[cornerKey]uint32{}}
	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				if err := b.add(face, 0); err != nil {
					return Model{}, err
				}
				if err := b.add(face, i-1); err != nil {
					return Model{}, err
				}
				if err := b.add(face, i); err != nil {
					return Model{}, err
				}
			}
		}
	}
	if len(b.model.Indices) == 0 {
		return Model{}, errors.New("obj contains no faces")
	}
	return b.model, nil
}

// cornerKey identifies a face corner by its position and texture coordinate
// indices. uv is -1 when the corner has none.
type cornerKey struct {
	pos, uv int
}

type modelBuilder struct {
	decoder *obj.Decoder
	unique  map[cornerKey]uint32
	model   Model
}

func (b *modelBuilder) add(face obj.Face, corner int) error {
	vertInd := face.Vertices[corner]
	uvInd := -1
	if corner < len(face.Uvs) {
		uvInd = face.Uvs[corner]
	}
	key := cornerKey{pos: vertInd, uv: uvInd}
	index, ok := b.unique[key]
	if !ok {
		positions := b.decoder.Vertices
		if vertInd < 0 || vertInd*3+2 >= len(positions) {
			return errors.Newf("face references vertex %d of %d", vertInd, len(positions)/3)
		}
		vert := Vertex{
			Pos:   mgl32.Vec3{positions[vertInd*3], positions[vertInd*3+1], positions[vertInd*3+2]},
			Color: mgl32.Vec3{1, 1, 1},
		}
		if uvs := b.decoder.Uvs; uvInd >= 0 && uvInd*2+1 < len(uvs) {
			vert.TexCoord = mgl32.Vec2{uvs[uvInd*2], 1 - uvs[uvInd*2+1]}
		}
		index = uint32(len(b.model.Vertices))
		b.model.Vertices = append(b.model.Vertices, vert)
		b.unique[key] = index
	}
	b.model.Indices = append(b.model.Indices, index)
	return nil
}
