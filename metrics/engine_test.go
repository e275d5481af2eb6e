package metrics

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/mask"
)

// flatField returns a fully confident field at depthMM
func flatField(w, h int, depthMM float32) *depth.Field {

	f := depth.NewField(w, h)
	f.Method = depth.MethodIntrinsics

	for i := range f.DepthMM {
		f.DepthMM[i] = depthMM
		f.Confidence[i] = 1
	}

	return f
}

func pinhole(w, h int, focal float64) *depth.Intrinsics {
	return &depth.Intrinsics{
		Width: w, Height: h,
		Fx: focal, Fy: focal,
		Cx: float64(w) / 2, Cy: float64(h) / 2,
	}
}

func TestComputeDiameter(t *testing.T) {

	const w, h = 80, 80

	tests := []struct {
		name    string
		r       float64
		depthMM float32
		focal   float64
	}{
		{name: "near", r: 10, depthMM: 250, focal: 900},
		{name: "far", r: 15, depthMM: 400, focal: 1200},
		{name: "small", r: 4, depthMM: 300, focal: 600},
	}

	e := NewEngine(DefaultParams())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			m := mask.Disk(w, h, 40, 40, tt.r)
			c := feature.NewCandidate(1, m, feature.ClassMacule, 0.8)

			got := e.Compute(c, flatField(w, h, tt.depthMM), nil, pinhole(w, h, tt.focal))

			want := 2 * tt.r * float64(tt.depthMM) / tt.focal

			if math.Abs(got.DiameterMM-want)/want > 0.005 {
				t.Errorf("expected diameter %v, got %v", want, got.DiameterMM)
			}

			// pixel area scales with the square of depth over focal
			scale := float64(tt.depthMM) / tt.focal
			wantArea := float64(m.Count()) * scale * scale

			if math.Abs(got.AreaMM2-wantArea) > 1e-6 {
				t.Errorf("expected area %v, got %v", wantArea, got.AreaMM2)
			}

			if math.Abs(got.EquivalentDiameterMM-2*math.Sqrt(wantArea/math.Pi)) > 1e-9 {
				t.Errorf("unexpected equivalent diameter %v", got.EquivalentDiameterMM)
			}

			if !got.PlaneFitted || got.ElevationMM > 1e-9 || got.VolumeMM3 > 1e-6 {
				t.Errorf("expected flat feature, got fitted %v elevation %v volume %v",
					got.PlaneFitted, got.ElevationMM, got.VolumeMM3)
			}

			if got.Method != depth.MethodIntrinsics {
				t.Errorf("expected intrinsics method, got %v", got.Method)
			}
		})
	}
}

func TestComputeRaisedDome(t *testing.T) {

	const w, h = 60, 60
	const radius, height = 12.0, 3.0

	f := flatField(w, h, 300)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x-30), float64(y-30)

			if rr := (dx*dx + dy*dy) / (radius * radius); rr <= 1 {
				f.DepthMM[y*w+x] = float32(300 - height*(1-rr))
			}
		}
	}

	m := mask.Disk(w, h, 30, 30, radius)
	e := NewEngine(DefaultParams())

	got := e.Compute(feature.NewCandidate(1, m, feature.ClassNodule, 0.9), f, nil, pinhole(w, h, 500))

	if !got.PlaneFitted {
		t.Fatal("expected a reference plane")
	}

	if math.Abs(got.MaxElevationMM-height) > 1e-3 {
		t.Errorf("expected max elevation %v, got %v", height, got.MaxElevationMM)
	}

	if got.ElevationMM < 1.4 || got.ElevationMM > 1.7 {
		t.Errorf("expected mean elevation near 1.55, got %v", got.ElevationMM)
	}

	// half the cylinder volume of the dome, scaled at the centroid depth
	scale := 297.0 / 500
	want := math.Pi * radius * radius * height / 2 * scale * scale

	if math.Abs(got.VolumeMM3-want)/want > 0.01 {
		t.Errorf("expected volume near %v, got %v", want, got.VolumeMM3)
	}

	if got.CentroidDepthMM != 297 {
		t.Errorf("expected centroid depth 297, got %v", got.CentroidDepthMM)
	}
}

func TestComputeWithoutDepth(t *testing.T) {

	const w, h = 50, 50

	m := mask.Disk(w, h, 25, 25, 8)
	c := feature.NewCandidate(1, m, feature.ClassScar, 0.7)
	e := NewEngine(DefaultParams())

	got := e.Compute(c, depth.NewField(w, h), nil, pinhole(w, h, 500))

	if got.DiameterMM != 0 || got.AreaMM2 != 0 || got.VolumeMM3 != 0 {
		t.Errorf("expected zero dimensional metrics, got %+v", got)
	}

	if got.PerimeterPx == 0 || got.Circularity == 0 || got.AspectRatio != 1 {
		t.Errorf("expected shape metrics, got perimeter %v circularity %v aspect %v",
			got.PerimeterPx, got.Circularity, got.AspectRatio)
	}

	if got.Quality.ValidRatio != 0 {
		t.Errorf("expected no valid depth, got ratio %v", got.Quality.ValidRatio)
	}

	empty := e.Compute(feature.Candidate{}, depth.NewField(w, h), nil, nil)

	if empty != (Metrics{}) {
		t.Errorf("expected zero metrics for an empty candidate, got %+v", empty)
	}
}

func TestComputeRedness(t *testing.T) {

	const w, h = 80, 80

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 220, G: 180, B: 160, A: 255}},
		image.Point{}, draw.Src)

	m := mask.Disk(w, h, 40, 40, 10)

	m.ForEach(func(x, y int) {
		img.SetRGBA(x, y, color.RGBA{R: 200, G: 60, B: 60, A: 255})
	})

	e := NewEngine(DefaultParams())
	got := e.Compute(feature.NewCandidate(1, m, feature.ClassPapule, 0.9), nil, img, nil)

	skin := RGBToLab(220, 180, 160)
	lesion := RGBToLab(200, 60, 60)

	if math.Abs(got.RednessDelta-(lesion.A-skin.A)) > 1e-6 {
		t.Errorf("expected redness %v, got %v", lesion.A-skin.A, got.RednessDelta)
	}

	if math.Abs(got.Lightness-lesion.L) > 1e-6 {
		t.Errorf("expected lightness %v, got %v", lesion.L, got.Lightness)
	}

	// detection confidence alone without depth
	if math.Abs(got.Confidence-0.3*0.9) > 1e-9 {
		t.Errorf("expected confidence %v, got %v", 0.3*0.9, got.Confidence)
	}
}

func TestComputeMalformedMask(t *testing.T) {

	const w, h = 10, 10

	// storage holds half the pixels the size declares
	m := &mask.Mask{Width: w, Height: h, Bits: make([]bool, 50)}

	for i := range m.Bits {
		m.Bits[i] = true
	}

	c := feature.Candidate{ID: 7, Mask: m, Class: feature.ClassPapule, Confidence: 0.9}
	e := NewEngine(DefaultParams())

	got := e.Compute(c, flatField(w, h, 300), nil, pinhole(w, h, 500))

	if got != (Metrics{Method: depth.MethodIntrinsics}) {
		t.Errorf("expected zero metrics for a malformed mask, got %+v", got)
	}
}
