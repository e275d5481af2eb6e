package metrics

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/skinmetric/go-lesion/mask"
)

// Lab is a CIE L*a*b* color under a D65 reference white.  L is in [0,100],
// a and b are roughly in [-128,128].
type Lab struct {
	L, A, B float64
}

// RGBToLab converts an 8 bit sRGB color to CIE L*a*b*
func RGBToLab(r, g, b uint8) Lab {

	c := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}

	l, a, bb := c.Lab()

	return Lab{L: l * 100, A: a * 100, B: bb * 100}
}

// ColorToLab converts any color.Color to CIE L*a*b*, ignoring alpha
func ColorToLab(c color.Color) Lab {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return RGBToLab(rgba.R, rgba.G, rgba.B)
}

// regionLab returns the mean Lab color of the image over the mask pixels.
// ok is false if no mask pixel falls inside the image.
func regionLab(img image.Image, m *mask.Mask) (Lab, bool) {

	b := img.Bounds()

	var sum Lab
	n := 0

	m.ForEach(func(x, y int) {
		px, py := b.Min.X+x, b.Min.Y+y

		if px >= b.Max.X || py >= b.Max.Y {
			return
		}

		lab := ColorToLab(img.At(px, py))
		sum.L += lab.L
		sum.A += lab.A
		sum.B += lab.B
		n++
	})

	if n == 0 {
		return Lab{}, false
	}

	fn := float64(n)

	return Lab{L: sum.L / fn, A: sum.A / fn, B: sum.B / fn}, true
}
