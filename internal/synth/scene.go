// Package synth renders synthetic captures of skin with raised features and
// an optional reference marker, used by tests and the demo.
package synth

import (
	"image"
	"image/color"
	"math"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/mask"
)

// Lesion is a dome shaped feature on the skin
type Lesion struct {
	// X, Y and R are the center and radius in pixels
	X, Y, R float64
	// HeightMM is the dome height toward the camera
	HeightMM float64
	// Color of the feature
	Color color.RGBA
	// Class reported for the feature
	Class feature.Class
}

// Marker is a flat dark disk on the skin
type Marker struct {
	X, Y, R float64
}

// Scene describes a flat patch of skin facing the camera
type Scene struct {
	Width, Height int
	// DepthMM is the distance of the skin plane
	DepthMM float64
	// TiltX adds depth per pixel along x to tilt the skin plane
	TiltX float64
	// Skin color of the background
	Skin color.RGBA
	// Marker is drawn when non nil
	Marker *Marker
	// Lesions to draw
	Lesions []Lesion
}

// SkinTone is a plain light skin color
var SkinTone = color.RGBA{R: 224, G: 182, B: 160, A: 255}

// Render returns raw depth in meters, the color image and one candidate per
// lesion.  Candidate ids are 1-based lesion indices.
func (s Scene) Render() (*depth.Raw, *image.RGBA, []feature.Candidate) {

	raw := depth.NewRaw(s.Width, s.Height)
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))

	skin := s.Skin

	if skin.A == 0 {
		skin = SkinTone
	}

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			d := s.DepthMM + s.TiltX*float64(x)
			c := skin

			if mk := s.Marker; mk != nil && inDisk(x, y, mk.X, mk.Y, mk.R) {
				c = color.RGBA{A: 255}
			}

			for _, l := range s.Lesions {
				dx := float64(x) - l.X
				dy := float64(y) - l.Y
				rr := (dx*dx + dy*dy) / (l.R * l.R)

				if rr > 1 {
					continue
				}

				d -= l.HeightMM * (1 - rr)
				c = l.Color
			}

			raw.Meters[y*s.Width+x] = float32(d / 1000)
			img.SetRGBA(x, y, c)
		}
	}

	cands := make([]feature.Candidate, len(s.Lesions))

	for i, l := range s.Lesions {
		m := mask.Disk(s.Width, s.Height, l.X, l.Y, l.R)
		c := feature.NewCandidate(int64(i+1), m, l.Class, 0.9)
		cands[i] = c.WithSurface(l.X/float64(s.Width), l.Y/float64(s.Height), nil)
	}

	return raw, img, cands
}

// Intrinsics returns a pinhole model for the scene with focal length f and
// the principal point at the image center
func (s Scene) Intrinsics(f float64) *depth.Intrinsics {
	return &depth.Intrinsics{
		Width:  s.Width,
		Height: s.Height,
		Fx:     f,
		Fy:     f,
		Cx:     float64(s.Width) / 2,
		Cy:     float64(s.Height) / 2,
	}
}

func inDisk(x, y int, cx, cy, r float64) bool {
	return math.Hypot(float64(x)-cx, float64(y)-cy) <= r
}
