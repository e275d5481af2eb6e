package feature

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseClass(t *testing.T) {

	tests := []struct {
		label string
		want  Class
		err   bool
	}{
		{label: "papule", want: ClassPapule},
		{label: "  Pustule ", want: ClassPustule},
		{label: "NODULE", want: ClassNodule},
		{label: "blackhead", want: ClassComedone},
		{label: "whitehead", want: ClassComedone},
		{label: "dark_spot", want: ClassMacule},
		{label: "scar", want: ClassScar},
		{label: "freckle", want: ClassUnknown, err: true},
		{label: "", want: ClassUnknown, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseClass(tt.label)

			if (err != nil) != tt.err {
				t.Fatalf("unexpected error state: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClassStrings(t *testing.T) {

	for _, c := range Classes() {
		back, err := ParseClass(c.String())

		if err != nil || back != c {
			t.Errorf("class %d did not round trip through %q", c, c.String())
		}
	}

	if Class(99).String() != "unknown" {
		t.Errorf("expected out of range class to be unknown, got %q", Class(99).String())
	}

	if !ClassCyst.Raised() || ClassScar.Raised() || ClassUnknown.Raised() {
		t.Error("unexpected raised classification")
	}
}

func TestLoadClassMap(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")
	data := "papule\n\nblackhead\nmole\n  cyst  \n"

	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("error writing labels: %v", err)
	}

	cm, err := LoadClassMap(file)

	if err != nil {
		t.Fatalf("LoadClassMap returned an error: %v", err)
	}

	// the blank line keeps its index so later classes do not shift
	want := ClassMap{ClassPapule, ClassUnknown, ClassComedone, ClassUnknown, ClassCyst}

	if diff := cmp.Diff(want, cm); diff != "" {
		t.Errorf("class map mismatch (-want +got):\n%s", diff)
	}

	if cm.Class(4) != ClassCyst {
		t.Errorf("expected index 4 to be cyst, got %v", cm.Class(4))
	}

	if cm.Class(-1) != ClassUnknown || cm.Class(10) != ClassUnknown {
		t.Error("expected out of range indices to be unknown")
	}

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing label file")
	}
}

func TestCandidatesFromSegments(t *testing.T) {

	const w, h = 10, 8

	seg := make([]uint8, w*h)

	// object 1 is a 4x2 block, object 3 a single pixel, object 2 is absent
	for y := 2; y < 4; y++ {
		for x := 2; x < 6; x++ {
			seg[y*w+x] = 1
		}
	}

	seg[7*w+9] = 3

	dets := []Detection{
		{ID: 11, Class: 0, Probability: 0.9},
		{ID: 12, Class: 1, Probability: 0.8},
		{ID: 13, Class: 1, Probability: 0.7},
	}

	cands := CandidatesFromSegments(dets, seg, w, h, ClassMap{ClassPapule, ClassMacule})

	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	type summary struct {
		ID         int64
		Class      Class
		Bounds     image.Rectangle
		PixelCount int
		CentroidX  float64
		CentroidY  float64
		Confidence float64
	}

	got := make([]summary, len(cands))

	for i, c := range cands {
		got[i] = summary{c.ID, c.Class, c.Bounds, c.PixelCount, c.CentroidX, c.CentroidY, c.Confidence}
	}

	want := []summary{
		{11, ClassPapule, image.Rect(2, 2, 6, 4), 8, 3.5, 2.5, 0.9},
		{13, ClassMacule, image.Rect(9, 7, 10, 8), 1, 9, 7, 0.7},
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	placed := cands[0].WithSurface(0.25, 0.75, []float32{1, 2})

	if placed.SurfaceX != 0.25 || placed.SurfaceY != 0.75 || len(placed.Descriptor) != 2 {
		t.Errorf("unexpected surface placement %+v", placed)
	}

	if cands[0].Descriptor != nil {
		t.Error("expected original candidate unchanged")
	}
}
