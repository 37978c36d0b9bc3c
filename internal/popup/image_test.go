package popup

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/model"
)

func TestToNRGBA_Nil(t *testing.T) {
	img, err := ToNRGBA(nil)
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestToNRGBA_RGBA(t *testing.T) {
	src := &model.ImageData{
		Width: 2, Height: 1, Rowstride: 8, HasAlpha: true, BitsPerSample: 8, Channels: 4,
		Data: []byte{255, 0, 0, 128, 0, 255, 0, 255},
	}

	img, err := ToNRGBA(src)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 128}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, img.NRGBAAt(1, 0))
}

func TestToNRGBA_RGBWithPadding(t *testing.T) {
	// Two rows of one RGB pixel, each row padded to four bytes.
	src := &model.ImageData{
		Width: 1, Height: 2, Rowstride: 4, HasAlpha: false, BitsPerSample: 8, Channels: 3,
		Data: []byte{10, 20, 30, 0, 40, 50, 60, 0},
	}

	img, err := ToNRGBA(src)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 255}, img.NRGBAAt(0, 1))
}

func TestToNRGBA_Invalid(t *testing.T) {
	src := &model.ImageData{Width: 1, Height: 1, Rowstride: 4, HasAlpha: true, BitsPerSample: 8, Channels: 4, Data: []byte{1}}

	_, err := ToNRGBA(src)
	assert.ErrorIs(t, err, model.ErrImageTruncated)
}
