package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestDecodeTextureExpandsToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(1, 0, color.Gray{Y: 200})

	pixels, err := DecodeTexture(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)
	assert.Equal(t, 3, pixels.Width)
	assert.Equal(t, 2, pixels.Height)
	require.Len(t, pixels.Data, 3*2*4)
	assert.Equal(t, []byte{0, 0, 0, 255}, pixels.Data[0:4])
	assert.Equal(t, []byte{200, 200, 200, 255}, pixels.Data[4:8])
}

func TestDecodeTextureRejectsUnknownFormat(t *testing.T) {
	_, err := DecodeTexture(strings.NewReader("not an image"))
	assert.Error(t, err)
}
