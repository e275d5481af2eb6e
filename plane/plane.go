// Package plane fits a local reference surface to the skin surrounding a
// feature so feature height can be measured relative to it.
package plane

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/mask"
)

// Plane is a fitted reference surface in (pixel x, pixel y, depth mm) space
type Plane struct {
	// Normal is the unit normal of the plane
	Normal r3.Vector
	// Point lies on the plane
	Point r3.Vector
	// Inliers is the number of ring points within tolerance of the plane
	Inliers int
	// RMSE is the root mean square distance of the inliers in millimeters
	RMSE float64
}

// SignedDistance returns the distance from p to the plane along its normal
func (pl Plane) SignedDistance(p r3.Vector) float64 {
	return p.Sub(pl.Point).Dot(pl.Normal)
}

// Elevation returns the height of p above the plane.  The sign is oriented so
// that points closer to the camera than the plane, raised off the skin, are
// positive.
func (pl Plane) Elevation(p r3.Vector) float64 {

	d := pl.SignedDistance(p)

	// depth grows away from the camera so a raised point has smaller z
	if pl.Normal.Z > 0 {
		d = -d
	}

	return d
}

// Params defines the sample consensus configuration
type Params struct {
	// Iterations is the number of random 3 point samples drawn
	Iterations int
	// Tolerance is the inlier distance in millimeters
	Tolerance float64
	// RingWidth is the default width in pixels of the boundary ring
	RingWidth int
	// Seed makes fitting deterministic
	Seed int64
}

// DefaultParams returns the default plane fitting configuration
func DefaultParams() Params {
	return Params{
		Iterations: 100,
		Tolerance:  2.0,
		RingWidth:  5,
		Seed:       1,
	}
}

// Fitter fits planes to boundary rings
type Fitter struct {
	// Params are the fitting configuration parameters
	Params Params
}

// NewFitter returns a plane fitter
func NewFitter(p Params) *Fitter {

	if p.Iterations <= 0 {
		p.Iterations = 100
	}

	return &Fitter{
		Params: p,
	}
}

// RingPoints returns the valid depth points in the ring of width pixels
// around the mask
func RingPoints(f *depth.Field, m *mask.Mask, width int) []r3.Vector {

	ring := m.Ring(width)
	var pts []r3.Vector

	ring.ForEach(func(x, y int) {
		if d := f.DepthAt(x, y); d > 0 {
			pts = append(pts, r3.Vector{X: float64(x), Y: float64(y), Z: d})
		}
	})

	return pts
}

// FitBoundary fits a plane to the valid depth in the ring of ringWidth pixels
// surrounding the mask.  ok is false with fewer than 3 valid ring points or
// when every sample was degenerate.  A non-positive ringWidth uses the
// configured default.
func (ft *Fitter) FitBoundary(f *depth.Field, m *mask.Mask, ringWidth int) (Plane, bool) {

	if f == nil || !m.Valid() {
		return Plane{}, false
	}

	if ringWidth <= 0 {
		ringWidth = ft.Params.RingWidth
	}

	return ft.Fit(RingPoints(f, m, ringWidth))
}

// Fit runs random sample consensus over pts and returns the plane with the
// most inliers
func (ft *Fitter) Fit(pts []r3.Vector) (Plane, bool) {

	n := len(pts)

	if n < 3 {
		return Plane{}, false
	}

	rnd := rand.New(rand.NewSource(ft.Params.Seed))

	best := Plane{}
	found := false

	for i := 0; i < ft.Params.Iterations; i++ {

		p1 := pts[rnd.Intn(n)]
		p2 := pts[rnd.Intn(n)]
		p3 := pts[rnd.Intn(n)]

		// get 2 vectors that define the plane and the normal from their cross
		cross := p2.Sub(p1).Cross(p3.Sub(p1))
		norm := cross.Norm()

		// collinear or repeated samples
		if norm < 1e-9 {
			continue
		}

		cand := Plane{
			Normal: cross.Mul(1 / norm),
			Point:  p1,
		}

		inliers, sumSq := ft.score(cand, pts)

		if inliers > best.Inliers || !found {
			cand.Inliers = inliers
			cand.RMSE = math.Sqrt(sumSq / math.Max(1, float64(inliers)))
			best = cand
			found = true
		}
	}

	if !found {
		return best, false
	}

	if refined, ok := ft.refine(best, pts); ok {
		best = refined
	}

	return best, true
}

// refine replaces a consensus plane by the least squares fit of z over x and
// y through its inliers.  The refined plane is kept only when it holds at
// least as many inliers.
func (ft *Fitter) refine(pl Plane, pts []r3.Vector) (Plane, bool) {

	var in []r3.Vector
	var mx, my float64

	for _, p := range pts {
		if math.Abs(pl.SignedDistance(p)) <= ft.Params.Tolerance {
			in = append(in, p)
			mx += p.X
			my += p.Y
		}
	}

	if len(in) < 3 {
		return Plane{}, false
	}

	mx /= float64(len(in))
	my /= float64(len(in))

	a := mat.NewDense(len(in), 3, nil)
	b := mat.NewVecDense(len(in), nil)

	for i, p := range in {
		a.Set(i, 0, p.X-mx)
		a.Set(i, 1, p.Y-my)
		a.Set(i, 2, 1)
		b.SetVec(i, p.Z)
	}

	var coef mat.VecDense

	if err := coef.SolveVec(a, b); err != nil {
		return Plane{}, false
	}

	n := r3.Vector{X: coef.AtVec(0), Y: coef.AtVec(1), Z: -1}

	out := Plane{
		Normal: n.Normalize(),
		Point:  r3.Vector{X: mx, Y: my, Z: coef.AtVec(2)},
	}

	inliers, sumSq := ft.score(out, pts)

	if inliers < pl.Inliers {
		return Plane{}, false
	}

	out.Inliers = inliers
	out.RMSE = math.Sqrt(sumSq / math.Max(1, float64(inliers)))

	return out, true
}

// score counts points within tolerance of the plane and sums their squared
// residuals
func (ft *Fitter) score(pl Plane, pts []r3.Vector) (int, float64) {

	inliers := 0
	sumSq := 0.0

	for _, p := range pts {
		d := math.Abs(pl.SignedDistance(p))

		if d <= ft.Params.Tolerance {
			inliers++
			sumSq += d * d
		}
	}

	return inliers, sumSq
}
