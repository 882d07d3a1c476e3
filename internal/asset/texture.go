package asset

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"
)

// Pixels is a tightly packed RGBA8 image.
type Pixels struct {
	Width  int
	Height int
	Data   []byte
}

func DecodeTexture(r io.Reader) (Pixels, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Pixels{}, errors.Wrap(err, "decode texture")
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return Pixels{}, errors.Newf("%s texture has no pixels", format)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return Pixels{Width: bounds.Dx(), Height: bounds.Dy(), Data: rgba.Pix}, nil
}
