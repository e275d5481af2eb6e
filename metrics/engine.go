// Package metrics derives calibrated dimensional, volumetric, colorimetric
// and shape measurements for a single skin feature, and estimates healing
// trends across captures.
package metrics

import (
	"image"
	"math"

	"github.com/golang/geo/r3"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/mask"
	"github.com/skinmetric/go-lesion/plane"
)

// Metrics is the identity-less measurement bundle for one feature in one
// capture
type Metrics struct {
	// DiameterMM is the maximum Feret diameter
	DiameterMM float64
	// EquivalentDiameterMM is the diameter of a circle with the same area
	EquivalentDiameterMM float64
	// AreaMM2 is the projected area
	AreaMM2 float64
	// ElevationMM is the mean height above the reference plane of raised pixels
	ElevationMM float64
	// MaxElevationMM is the largest height above the reference plane
	MaxElevationMM float64
	// VolumeMM3 is the discrete volume above the reference plane
	VolumeMM3 float64
	// RednessDelta is the mean a* of the feature minus the surrounding skin
	RednessDelta float64
	// Lightness is the mean L* of the feature
	Lightness float64
	// PerimeterPx is the number of boundary pixels
	PerimeterPx int
	// PerimeterMM is the boundary pixel count converted at centroid depth
	PerimeterMM float64
	// Circularity is 4*pi*area/perimeter^2 in [0,1]
	Circularity float64
	// AspectRatio is bounding box width over height
	AspectRatio float64
	// CentroidDepthMM is the depth sampled at the feature centroid
	CentroidDepthMM float64
	// PlaneFitted reports whether a reference plane could be fitted
	PlaneFitted bool
	// PlaneRMSE is the inlier residual of the reference plane
	PlaneRMSE float64
	// Confidence is the combined measurement confidence in [0,1]
	Confidence float64
	// Quality summarises depth quality under the feature
	Quality depth.Quality
	// Method is the depth calibration method used
	Method depth.Method
}

// Params defines the metrics engine configuration
type Params struct {
	// Plane configures the reference plane fit
	Plane plane.Params
	// SkinRingPx is how far past the equivalent radius the skin reference
	// annulus extends for color comparison
	SkinRingPx float64
	// Confidence weights for detection, depth confidence, valid ratio and
	// uniformity
	WeightDetection  float64
	WeightDepthConf  float64
	WeightValidRatio float64
	WeightUniformity float64
}

// DefaultParams returns the default metrics configuration
func DefaultParams() Params {
	return Params{
		Plane:            plane.DefaultParams(),
		SkinRingPx:       10,
		WeightDetection:  0.3,
		WeightDepthConf:  0.3,
		WeightValidRatio: 0.2,
		WeightUniformity: 0.2,
	}
}

// Engine computes feature metrics.  An Engine holds no per call state and is
// safe for concurrent use.
type Engine struct {
	// Params are the engine configuration parameters
	Params Params
	fitter *plane.Fitter
}

// NewEngine returns a metrics engine
func NewEngine(p Params) *Engine {
	return &Engine{
		Params: p,
		fitter: plane.NewFitter(p.Plane),
	}
}

// Compute measures the candidate feature.  Intrinsics may be nil for marker
// calibrated fields.  Degenerate inputs produce zero valued measurements for
// the affected groups rather than an error so a single unmeasurable feature
// never aborts a capture.
func (e *Engine) Compute(c feature.Candidate, f *depth.Field, img image.Image,
	in *depth.Intrinsics) Metrics {

	out := Metrics{}

	if f != nil {
		out.Method = f.Method
	}

	m := c.Mask

	// masks whose storage disagrees with their size are unmeasurable
	if !m.Valid() || m.Empty() {
		return out
	}

	count := m.Count()
	boundary := m.Boundary()
	bounds := m.Bounds()
	cx, cy, _ := m.Centroid()

	// shape in pixel units needs no depth
	out.PerimeterPx = len(boundary)
	out.Circularity = circularity(count, out.PerimeterPx)
	out.AspectRatio = aspectRatio(bounds)

	if img != nil {
		e.color(&out, img, m, cx, cy, count)
	}

	if f == nil {
		out.Confidence = e.confidence(c.Confidence, out.Quality)
		return out
	}

	out.Quality = depth.EvaluateQuality(f, m)
	out.Confidence = e.confidence(c.Confidence, out.Quality)

	cam, ok := f.Intrinsics(in)

	if !ok {
		return out
	}

	centroidDepth := f.DepthAt(int(math.Round(cx)), int(math.Round(cy)))

	if centroidDepth <= 0 {
		return out
	}

	out.CentroidDepthMM = centroidDepth

	pxArea := cam.PixelAreaMM2(centroidDepth)

	out.DiameterMM = cam.PixelToMM(maxFeretPx(boundary), centroidDepth)
	out.AreaMM2 = float64(count) * pxArea
	out.EquivalentDiameterMM = 2 * math.Sqrt(out.AreaMM2/math.Pi)
	out.PerimeterMM = cam.PixelToMM(float64(out.PerimeterPx), centroidDepth)

	e.elevation(&out, f, m, pxArea)

	return out
}

// elevation fits the boundary plane and aggregates height above it.  Negative
// heights are clamped to zero before both the mean/max and the volume.
func (e *Engine) elevation(out *Metrics, f *depth.Field, m *mask.Mask, pxArea float64) {

	pl, ok := e.fitter.FitBoundary(f, m, e.Params.Plane.RingWidth)

	if !ok {
		return
	}

	out.PlaneFitted = true
	out.PlaneRMSE = pl.RMSE

	var sum, maxEl, vol float64
	raised := 0

	m.ForEach(func(x, y int) {
		d := f.DepthAt(x, y)

		if d <= 0 {
			return
		}

		el := pl.Elevation(r3.Vector{X: float64(x), Y: float64(y), Z: d})

		if el <= 0 {
			return
		}

		sum += el
		raised++
		vol += el * pxArea

		if el > maxEl {
			maxEl = el
		}
	})

	if raised > 0 {
		out.ElevationMM = sum / float64(raised)
	}

	out.MaxElevationMM = maxEl
	out.VolumeMM3 = vol
}

// color compares the feature's mean Lab color against a skin annulus
// extending SkinRingPx beyond the feature's equivalent radius
func (e *Engine) color(out *Metrics, img image.Image, m *mask.Mask, cx, cy float64, count int) {

	featLab, ok := regionLab(img, m)

	if !ok {
		return
	}

	out.Lightness = featLab.L

	eqRadius := math.Sqrt(float64(count) / math.Pi)
	ring := m.Annulus(cx, cy, eqRadius, eqRadius+e.Params.SkinRingPx)

	skinLab, ok := regionLab(img, ring)

	if !ok {
		return
	}

	out.RednessDelta = featLab.A - skinLab.A
}

// confidence combines detection and depth quality into a single score
func (e *Engine) confidence(detection float64, q depth.Quality) float64 {

	c := e.Params.WeightDetection*detection +
		e.Params.WeightDepthConf*q.MeanConfidence +
		e.Params.WeightValidRatio*q.ValidRatio +
		e.Params.WeightUniformity*q.Uniformity

	return math.Max(0, math.Min(1, c))
}
