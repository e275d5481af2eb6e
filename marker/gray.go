package marker

import (
	"image"
	"math"
)

// grayImage is a flat luminance buffer with values in [0,1]
type grayImage struct {
	w, h int
	pix  []float64
}

// edgeMap holds thresholded gradient pixels
type edgeMap struct {
	w, h   int
	set    []bool
	points []image.Point
}

// toGray converts any image to luminance using Rec. 601 weights
func toGray(img image.Image) *grayImage {

	b := img.Bounds()
	g := &grayImage{
		w:   b.Dx(),
		h:   b.Dy(),
		pix: make([]float64, b.Dx()*b.Dy()),
	}

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			r, gg, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			g.pix[y*g.w+x] = (0.299*float64(r) + 0.587*float64(gg) + 0.114*float64(bb)) / 0xffff
		}
	}

	return g
}

// at returns the luminance at (x,y), clamping coordinates to the image
func (g *grayImage) at(x, y int) float64 {

	if x < 0 {
		x = 0
	} else if x >= g.w {
		x = g.w - 1
	}

	if y < 0 {
		y = 0
	} else if y >= g.h {
		y = g.h - 1
	}

	return g.pix[y*g.w+x]
}

// sobelEdges computes the Sobel gradient magnitude and keeps pixels at or
// above thresh times the strongest response
func (g *grayImage) sobelEdges(thresh float64) *edgeMap {

	mag := make([]float64, len(g.pix))
	maxMag := 0.0

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			gx := g.at(x+1, y-1) + 2*g.at(x+1, y) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x-1, y) - g.at(x-1, y+1)
			gy := g.at(x-1, y+1) + 2*g.at(x, y+1) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x, y-1) - g.at(x+1, y-1)

			m := math.Hypot(gx, gy)
			mag[y*g.w+x] = m

			if m > maxMag {
				maxMag = m
			}
		}
	}

	e := &edgeMap{
		w:   g.w,
		h:   g.h,
		set: make([]bool, len(g.pix)),
	}

	// flat images have no edges
	if maxMag < 1e-6 {
		return e
	}

	cut := thresh * maxMag

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			if mag[y*g.w+x] >= cut {
				e.set[y*g.w+x] = true
				e.points = append(e.points, image.Pt(x, y))
			}
		}
	}

	return e
}

// at reports whether (x,y) is an edge pixel
func (e *edgeMap) at(x, y int) bool {

	if x < 0 || y < 0 || x >= e.w || y >= e.h {
		return false
	}

	return e.set[y*e.w+x]
}

// contrast returns the absolute difference in mean luminance between a disk
// of half the radius at the center and an annulus just outside the circle
func (g *grayImage) contrast(cx, cy, r float64) float64 {

	inner := r * 0.5
	outMin := r * 1.3
	outMax := r * 1.8

	var inSum, outSum float64
	var inN, outN int

	x0 := int(math.Floor(cx - outMax))
	x1 := int(math.Ceil(cx + outMax))
	y0 := int(math.Floor(cy - outMax))
	y1 := int(math.Ceil(cy + outMax))

	for y := y0; y <= y1; y++ {
		if y < 0 || y >= g.h {
			continue
		}

		for x := x0; x <= x1; x++ {
			if x < 0 || x >= g.w {
				continue
			}

			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			v := g.pix[y*g.w+x]

			switch {
			case d <= inner:
				inSum += v
				inN++
			case d >= outMin && d <= outMax:
				outSum += v
				outN++
			}
		}
	}

	if inN == 0 || outN == 0 {
		return 0
	}

	return math.Abs(inSum/float64(inN) - outSum/float64(outN))
}
