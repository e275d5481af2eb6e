package plane

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/mask"
)

// tilted returns points on z = 280 + 0.05x + 0.02y over a grid with small
// uniform noise
func tilted(noise float64, seed int64) []r3.Vector {

	rng := rand.New(rand.NewSource(seed))
	var pts []r3.Vector

	for y := 0; y < 40; y += 2 {
		for x := 0; x < 40; x += 2 {
			z := 280 + 0.05*float64(x) + 0.02*float64(y)
			z += (rng.Float64()*2 - 1) * noise
			pts = append(pts, r3.Vector{X: float64(x), Y: float64(y), Z: z})
		}
	}

	return pts
}

func angleDeg(a, b r3.Vector) float64 {
	c := math.Abs(a.Normalize().Dot(b.Normalize()))
	return math.Acos(math.Min(1, c)) * 180 / math.Pi
}

func TestFitTiltedPlane(t *testing.T) {

	ft := NewFitter(DefaultParams())
	pts := tilted(0.1, 3)

	pl, ok := ft.Fit(pts)

	if !ok {
		t.Fatal("expected a plane")
	}

	want := r3.Vector{X: 0.05, Y: 0.02, Z: -1}

	if a := angleDeg(pl.Normal, want); a > 1 {
		t.Errorf("normal off by %v degrees", a)
	}

	if pl.RMSE > 0.2 {
		t.Errorf("expected rmse below 0.2, got %v", pl.RMSE)
	}

	if pl.Inliers != len(pts) {
		t.Errorf("expected all %d points inliers, got %d", len(pts), pl.Inliers)
	}
}

func TestFitIgnoresOutliers(t *testing.T) {

	ft := NewFitter(DefaultParams())
	pts := tilted(0.05, 5)
	clean := len(pts)

	// a fifth of the points sit well off the plane
	for i := 0; i < clean/5; i++ {
		p := pts[i*5]
		pts = append(pts, r3.Vector{X: p.X + 1, Y: p.Y, Z: p.Z - 15})
	}

	pl, ok := ft.Fit(pts)

	if !ok {
		t.Fatal("expected a plane")
	}

	if a := angleDeg(pl.Normal, r3.Vector{X: 0.05, Y: 0.02, Z: -1}); a > 1 {
		t.Errorf("normal off by %v degrees", a)
	}

	if pl.Inliers != clean {
		t.Errorf("expected %d inliers, got %d", clean, pl.Inliers)
	}
}

func TestFitDegenerate(t *testing.T) {

	ft := NewFitter(DefaultParams())

	if _, ok := ft.Fit([]r3.Vector{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}}); ok {
		t.Error("expected no plane from 2 points")
	}

	var line []r3.Vector

	for i := 0; i < 20; i++ {
		line = append(line, r3.Vector{X: float64(i), Y: float64(i), Z: 280})
	}

	if _, ok := ft.Fit(line); ok {
		t.Error("expected no plane from collinear points")
	}
}

func TestFitIsDeterministic(t *testing.T) {

	pts := tilted(0.5, 11)

	a, _ := NewFitter(DefaultParams()).Fit(pts)
	b, _ := NewFitter(DefaultParams()).Fit(pts)

	if a != b {
		t.Errorf("expected identical fits, got %+v and %+v", a, b)
	}
}

func TestFitBoundaryAndElevation(t *testing.T) {

	const w, h = 60, 60

	f := depth.NewField(w, h)

	for i := range f.DepthMM {
		f.DepthMM[i] = 300
		f.Confidence[i] = 1
	}

	m := mask.Disk(w, h, 30, 30, 8)

	// raise the feature 2mm towards the camera
	m.ForEach(func(x, y int) {
		f.DepthMM[y*w+x] = 298
	})

	ft := NewFitter(DefaultParams())

	pl, ok := ft.FitBoundary(f, m, 0)

	if !ok {
		t.Fatal("expected a boundary plane")
	}

	if pl.RMSE > 1e-6 {
		t.Errorf("expected exact fit on flat ring, got rmse %v", pl.RMSE)
	}

	if el := pl.Elevation(r3.Vector{X: 30, Y: 30, Z: 298}); math.Abs(el-2) > 1e-6 {
		t.Errorf("expected elevation 2, got %v", el)
	}

	if el := pl.Elevation(r3.Vector{X: 30, Y: 30, Z: 301}); math.Abs(el+1) > 1e-6 {
		t.Errorf("expected elevation -1, got %v", el)
	}

	if _, ok := ft.FitBoundary(depth.NewField(w, h), m, 3); ok {
		t.Error("expected no plane without depth")
	}

	short := &mask.Mask{Width: w, Height: h, Bits: make([]bool, w)}

	if _, ok := ft.FitBoundary(f, short, 3); ok {
		t.Error("expected no plane for a malformed mask")
	}
}
