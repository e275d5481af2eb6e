package render

import (
	"fmt"
	"image"

	clipper "github.com/ctessum/go.clipper"
	"gocv.io/x/gocv"

	"github.com/skinmetric/go-lesion/mask"
)

// maskToMat converts a feature mask into a single channel binary Mat
func maskToMat(m *mask.Mask) (gocv.Mat, error) {

	buf := make([]byte, len(m.Bits))

	for i, b := range m.Bits {
		if b {
			buf[i] = 255
		}
	}

	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, buf)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating mask Mat: %w", err)
	}

	return mat, nil
}

// Contour returns the outer contour of the largest connected region of the
// mask, simplified with tolerance epsilon pixels.  A mask with no region
// returns nil.
func Contour(m *mask.Mask, epsilon float64) ([]image.Point, error) {

	if !m.Valid() || m.Empty() {
		return nil, nil
	}

	mat, err := maskToMat(m)

	if err != nil {
		return nil, err
	}

	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := -1.0

	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > bestArea {
			best = i
			bestArea = area
		}
	}

	if best < 0 {
		return nil, nil
	}

	if epsilon <= 0 {
		return contours.At(best).ToPoints(), nil
	}

	approx := gocv.ApproxPolyDP(contours.At(best), epsilon, true)
	defer approx.Close()

	return approx.ToPoints(), nil
}

// RingOutline offsets a closed contour outward by width pixels, giving the
// outer edge of the boundary ring the reference plane is fitted to
func RingOutline(contour []image.Point, width float64) [][]image.Point {

	if len(contour) < 3 || width <= 0 {
		return nil
	}

	// convert the contour points to Clipper Path
	var path clipper.Path

	for _, pt := range contour {
		path = append(path, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(width)

	var out [][]image.Point

	for _, sol := range solution {
		var points []image.Point

		for _, pt := range sol {
			points = append(points, image.Point{X: int(pt.X), Y: int(pt.Y)})
		}

		if len(points) > 2 {
			out = append(out, points)
		}
	}

	return out
}
