package lesion

import (
	"context"
	"errors"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/internal/synth"
	"github.com/skinmetric/go-lesion/mask"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()

	p := DefaultParams()
	p.Workers = 2

	proc := NewProcessor(p)
	t.Cleanup(proc.Close)

	return proc
}

func TestProcessCaptureFlatIntrinsics(t *testing.T) {

	scene := synth.Scene{
		Width:   100,
		Height:  100,
		DepthMM: 280,
		Lesions: []synth.Lesion{
			{X: 50, Y: 50, R: 10, Color: synth.SkinTone, Class: feature.ClassMacule},
		},
	}

	raw, img, cands := scene.Render()

	proc := newTestProcessor(t)

	res, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        raw,
		Color:      img,
		Intrinsics: scene.Intrinsics(1000),
		Timestamp:  time.Now(),
		Candidates: cands,
	})

	if err != nil {
		t.Fatalf("ProcessCapture returned an error: %v", err)
	}

	if res.Method != depth.MethodIntrinsics {
		t.Errorf("expected intrinsics calibration, got %v", res.Method)
	}

	if len(res.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(res.Features))
	}

	m := res.Features[0].Metrics

	if math.Abs(m.DiameterMM-5.6) > 0.05 {
		t.Errorf("expected diameter 5.6mm, got %v", m.DiameterMM)
	}

	if math.Abs(m.ElevationMM) > 0.01 {
		t.Errorf("expected flat elevation, got %v", m.ElevationMM)
	}

	if math.Abs(m.RednessDelta) > 1e-6 {
		t.Errorf("expected no redness delta, got %v", m.RednessDelta)
	}

	if m.Confidence <= 0 || m.Confidence > 1 {
		t.Errorf("expected confidence in (0,1], got %v", m.Confidence)
	}
}

func TestProcessCaptureKeepsOrder(t *testing.T) {

	scene := synth.Scene{
		Width:   160,
		Height:  120,
		DepthMM: 300,
	}

	red := color.RGBA{R: 200, G: 60, B: 60, A: 255}

	for i := 0; i < 6; i++ {
		scene.Lesions = append(scene.Lesions, synth.Lesion{
			X:        float64(20 + 24*i),
			Y:        60,
			R:        float64(4 + i),
			HeightMM: 0.5,
			Color:    red,
			Class:    feature.ClassPapule,
		})
	}

	raw, img, cands := scene.Render()

	proc := newTestProcessor(t)

	res, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        raw,
		Color:      img,
		Intrinsics: scene.Intrinsics(900),
		Candidates: cands,
	})

	if err != nil {
		t.Fatalf("ProcessCapture returned an error: %v", err)
	}

	for i, fr := range res.Features {
		if fr.Candidate.ID != int64(i+1) {
			t.Errorf("result %d has candidate %d", i, fr.Candidate.ID)
		}

		// larger lesions measure larger
		if i > 0 && fr.Metrics.AreaMM2 <= res.Features[i-1].Metrics.AreaMM2 {
			t.Errorf("area of feature %d not above feature %d", i, i-1)
		}

		if fr.Metrics.RednessDelta <= 0 {
			t.Errorf("feature %d expected positive redness, got %v", i, fr.Metrics.RednessDelta)
		}
	}

	if got := len(res.Metrics()); got != len(cands) {
		t.Errorf("expected %d metrics, got %d", len(cands), got)
	}
}

func TestProcessCaptureMarkerFallback(t *testing.T) {

	scene := synth.Scene{
		Width:   200,
		Height:  160,
		DepthMM: 280,
		Marker:  &synth.Marker{X: 50, Y: 60, R: 25},
		Lesions: []synth.Lesion{
			{X: 140, Y: 90, R: 10, Color: synth.SkinTone, Class: feature.ClassScar},
		},
	}

	raw, img, cands := scene.Render()

	proc := newTestProcessor(t)

	res, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        raw,
		Color:      img,
		Candidates: cands,
	})

	if err != nil {
		t.Fatalf("ProcessCapture returned an error: %v", err)
	}

	if res.Method != depth.MethodMarker || res.Marker == nil {
		t.Fatalf("expected marker calibration, got %v", res.Method)
	}

	// a 10mm marker 50px across at 280mm implies f = 1400px so the 20px
	// feature is 4mm
	if d := res.Features[0].Metrics.DiameterMM; math.Abs(d-4) > 0.4 {
		t.Errorf("expected diameter near 4mm, got %v", d)
	}
}

func TestProcessCaptureNoCalibration(t *testing.T) {

	scene := synth.Scene{
		Width:   80,
		Height:  80,
		DepthMM: 280,
		Lesions: []synth.Lesion{
			{X: 40, Y: 40, R: 8, Color: synth.SkinTone},
		},
	}

	raw, img, cands := scene.Render()

	proc := newTestProcessor(t)

	res, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        raw,
		Color:      img,
		Candidates: cands,
	})

	if err != nil {
		t.Fatalf("ProcessCapture returned an error: %v", err)
	}

	if res.Method != depth.MethodNone {
		t.Errorf("expected no calibration, got %v", res.Method)
	}

	m := res.Features[0].Metrics

	if m.DiameterMM != 0 || m.AreaMM2 != 0 {
		t.Errorf("expected zero dimensional metrics, got %v %v", m.DiameterMM, m.AreaMM2)
	}

	if m.PerimeterPx == 0 {
		t.Error("expected shape metrics without depth")
	}
}

func TestProcessCaptureErrors(t *testing.T) {

	proc := newTestProcessor(t)

	if _, err := proc.ProcessCapture(context.Background(), Capture{}); !errors.Is(err, ErrNoDepthSource) {
		t.Errorf("expected ErrNoDepthSource, got %v", err)
	}

	bad := &depth.Intrinsics{Width: 10, Height: 10, Fx: 0, Fy: 100, Cx: 5, Cy: 5}

	_, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        depth.NewRaw(10, 10),
		Intrinsics: bad,
	})

	if !errors.Is(err, depth.ErrInvalidIntrinsics) {
		t.Errorf("expected ErrInvalidIntrinsics, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scene := synth.Scene{Width: 40, Height: 40, DepthMM: 250,
		Lesions: []synth.Lesion{{X: 20, Y: 20, R: 5}}}
	raw, img, cands := scene.Render()

	_, err = proc.ProcessCapture(ctx, Capture{Raw: raw, Color: img,
		Intrinsics: scene.Intrinsics(600), Candidates: cands})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcessCaptureMalformedCandidate(t *testing.T) {

	scene := synth.Scene{
		Width:   60,
		Height:  60,
		DepthMM: 280,
		Lesions: []synth.Lesion{{X: 30, Y: 30, R: 6, Color: synth.SkinTone, Class: feature.ClassMacule}},
	}

	raw, img, cands := scene.Render()

	// a candidate whose mask storage disagrees with its size
	bad := feature.Candidate{ID: 9, Class: feature.ClassPapule, Confidence: 0.5,
		Mask: &mask.Mask{Width: 60, Height: 60, Bits: make([]bool, 100)}}

	proc := newTestProcessor(t)

	res, err := proc.ProcessCapture(context.Background(), Capture{
		Raw:        raw,
		Color:      img,
		Intrinsics: scene.Intrinsics(1000),
		Candidates: append([]feature.Candidate{bad}, cands...),
	})

	if err != nil {
		t.Fatalf("ProcessCapture returned an error: %v", err)
	}

	if len(res.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(res.Features))
	}

	if m := res.Features[0].Metrics; m.DiameterMM != 0 || m.PerimeterPx != 0 {
		t.Errorf("expected zero metrics for the malformed candidate, got %+v", m)
	}

	if d := res.Features[1].Metrics.DiameterMM; d <= 0 {
		t.Errorf("expected the valid candidate to be measured, got diameter %v", d)
	}
}
