package preprocess

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/skinmetric/go-lesion/mask"
)

// AlignColor resamples a color image to the depth buffer resolution with
// bilinear interpolation.  An image already at that size is copied.
func AlignColor(img image.Image, width, height int) *image.RGBA {

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	if img == nil {
		return dst
	}

	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}

	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	return dst
}

// AlignMask resamples a feature mask to another resolution with nearest
// neighbour sampling so mask edges stay hard
func AlignMask(m *mask.Mask, width, height int) *mask.Mask {

	if !m.Valid() {
		return mask.New(width, height)
	}

	if m.Width == width && m.Height == height {
		return m.Clone()
	}

	src := image.NewGray(image.Rect(0, 0, m.Width, m.Height))

	for i, b := range m.Bits {
		if b {
			src.Pix[i] = 0xff
		}
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := mask.New(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Bits[y*width+x] = dst.Pix[y*dst.Stride+x] >= 0x80
		}
	}

	return out
}
