package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/marker"
	"github.com/skinmetric/go-lesion/metrics"
)

// Measurement is a measured feature to annotate
type Measurement struct {
	Candidate feature.Candidate
	Metrics   metrics.Metrics
	// Name is shown ahead of the class when set, typically a tracked id
	Name string
}

// FeatureMask renders the feature masks as a transparent overlay in their
// class color on top of a BGR image
func FeatureMask(img *gocv.Mat, cands []feature.Candidate, alpha float32) {

	// get dimensions
	width := img.Cols()
	height := img.Rows()

	// it is too slow to manipulate pixel by pixel using GoCV due to slowness
	// over CGO.  So we copy the bytes from the source image and manipulate
	// the bytes directly before copying back to a Mat
	imgData := img.ToBytes()

	for _, c := range cands {
		m := c.Mask

		if !m.Valid() || m.Width != width || m.Height != height {
			continue
		}

		clr := ClassColor(c.Class)

		m.ForEach(func(x, y int) {
			pixelPos := (y*width + x) * 3

			b, g, r := imgData[pixelPos+0], imgData[pixelPos+1], imgData[pixelPos+2]

			// calculate blended colors based on alpha transparency
			imgData[pixelPos+0] = uint8(float32(b)*(1-alpha) + float32(clr.B)*alpha)
			imgData[pixelPos+1] = uint8(float32(g)*(1-alpha) + float32(clr.G)*alpha)
			imgData[pixelPos+2] = uint8(float32(r)*(1-alpha) + float32(clr.R)*alpha)
		})
	}

	// copy back to the original mat
	tmpImg, _ := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, imgData)
	defer tmpImg.Close()
	tmpImg.CopyTo(img)
}

// measurementText formats the label of a measured feature
func measurementText(m Measurement) string {

	name := m.Candidate.Class.String()

	if m.Name != "" {
		name = m.Name + " " + name
	}

	if m.Metrics.DiameterMM <= 0 {
		return name
	}

	// height is only shown for classes that stand above the skin
	if m.Candidate.Class.Raised() && m.Metrics.MaxElevationMM > 0 {
		return fmt.Sprintf("%s %.1fmm h%.1f", name, m.Metrics.DiameterMM, m.Metrics.MaxElevationMM)
	}

	return fmt.Sprintf("%s %.1fmm", name, m.Metrics.DiameterMM)
}

// FeatureOutlines draws the outline of every feature and a label with its
// diameter above it.  ringWidth greater than zero also draws the outer edge
// of the plane fitting ring.
func FeatureOutlines(img *gocv.Mat, ms []Measurement, ringWidth float64,
	font Font, lineThickness int) error {

	labels := make([]label, 0, len(ms))

	for _, m := range ms {

		contour, err := Contour(m.Candidate.Mask, 1)

		if err != nil {
			return err
		}

		if len(contour) < 3 {
			continue
		}

		clr := ClassColor(m.Candidate.Class)

		polylines(img, [][]image.Point{contour}, clr, lineThickness)

		if ringWidth > 0 {
			polylines(img, RingOutline(contour, ringWidth), Yellow, 1)
		}

		labels = append(labels, newLabel(measurementText(m),
			boundingBox(contour), clr, font, lineThickness))
	}

	drawLabels(img, labels, font)

	return nil
}

// Marker draws the detected reference marker and its known diameter
func Marker(img *gocv.Mat, mk marker.Marker, font Font, lineThickness int) {

	center := mk.Center()
	r := int(math.Round(mk.RadiusPx))

	gocv.Circle(img, center, r, Green, lineThickness)
	gocv.Circle(img, center, 2, Green, -1)

	text := fmt.Sprintf("ref %.0fmm %.2f", mk.DiameterMM, mk.Confidence)
	box := image.Rect(center.X-r, center.Y-r, center.X+r, center.Y+r)

	drawLabels(img, []label{newLabel(text, box, Green, font, lineThickness)}, font)
}

// polylines draws closed polygons on the image
func polylines(img *gocv.Mat, polys [][]image.Point, clr color.RGBA, thickness int) {

	if len(polys) == 0 {
		return
	}

	ptsVec := gocv.NewPointsVectorFromPoints(polys)
	defer ptsVec.Close()

	gocv.Polylines(img, ptsVec, true, clr, thickness)
}

// boundingBox returns the bounds of a set of points
func boundingBox(pts []image.Point) image.Rectangle {

	box := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}

	for _, p := range pts[1:] {
		box = box.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}

	return box
}

// OverlayToFile writes the annotated image to file
func OverlayToFile(filename string, img gocv.Mat) error {

	if gocv.IMWrite(filename, img) {
		return nil
	}

	return fmt.Errorf("failed to write overlay to file %s", filename)
}
