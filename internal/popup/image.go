package popup

import (
	"fmt"
	"image"

	"github.com/jmylchreest/notistack/internal/model"
)

// ToNRGBA copies an image-data hint into a tightly packed NRGBA image.
// RGB sources are given an opaque alpha channel.
func ToNRGBA(src *model.ImageData) (*image.NRGBA, error) {
	if src == nil {
		return nil, nil
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}

	w, h := int(src.Width), int(src.Height)
	stride := int(src.Rowstride)
	channels := int(src.Channels)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Data[y*stride : y*stride+w*channels]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		if channels == 4 {
			copy(out, row)
			continue
		}
		for x := 0; x < w; x++ {
			out[x*4+0] = row[x*3+0]
			out[x*4+1] = row[x*3+1]
			out[x*4+2] = row[x*3+2]
			out[x*4+3] = 0xff
		}
	}
	return dst, nil
}
