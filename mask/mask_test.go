package mask

import (
	"image"
	"math"
	"testing"
)

func TestDiskGeometry(t *testing.T) {

	m := Disk(50, 50, 25, 25, 10)

	// pixel count approaches the disk area
	if n := float64(m.Count()); math.Abs(n-math.Pi*100)/(math.Pi*100) > 0.05 {
		t.Errorf("expected area near %v, got %v", math.Pi*100, n)
	}

	cx, cy, ok := m.Centroid()

	if !ok || cx != 25 || cy != 25 {
		t.Errorf("expected centroid (25,25), got (%v,%v,%v)", cx, cy, ok)
	}

	if b := m.Bounds(); b != image.Rect(15, 15, 36, 36) {
		t.Errorf("unexpected bounds %v", b)
	}

	if _, _, ok := New(5, 5).Centroid(); ok {
		t.Error("expected no centroid for an empty mask")
	}

	if b := New(5, 5).Bounds(); !b.Empty() {
		t.Errorf("expected empty bounds, got %v", b)
	}
}

func TestBoundary(t *testing.T) {

	m := New(5, 5)

	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			m.Set(x, y, true)
		}
	}

	pts := m.Boundary()

	// every pixel of the 3x3 square except its center
	if len(pts) != 8 {
		t.Fatalf("expected 8 boundary pixels, got %d", len(pts))
	}

	for _, p := range pts {
		if p == image.Pt(2, 2) {
			t.Error("interior pixel reported as boundary")
		}
	}

	// pixels on the image edge are boundary
	full := New(3, 3)

	for i := range full.Bits {
		full.Bits[i] = true
	}

	if n := len(full.Boundary()); n != 8 {
		t.Errorf("expected 8 edge boundary pixels, got %d", n)
	}
}

func TestDilateAndRing(t *testing.T) {

	m := New(11, 11)
	m.Set(5, 5, true)

	d := m.Dilate(2)

	// square structuring element
	if d.Count() != 25 {
		t.Errorf("expected 25 pixels after dilation, got %d", d.Count())
	}

	if !d.At(3, 3) || !d.At(7, 7) || d.At(8, 5) {
		t.Error("unexpected dilation extent")
	}

	ring := m.Ring(2)

	if ring.Count() != 24 || ring.At(5, 5) {
		t.Errorf("expected 24 ring pixels excluding the mask, got %d", ring.Count())
	}

	// dilation near the edge stays in bounds
	e := New(4, 4)
	e.Set(0, 0, true)

	if c := e.Dilate(3).Count(); c != 16 {
		t.Errorf("expected whole 4x4 grid, got %d", c)
	}

	if c := m.Dilate(0).Count(); c != 1 {
		t.Errorf("expected zero radius to copy the mask, got %d", c)
	}
}

func TestAnnulus(t *testing.T) {

	m := Disk(60, 60, 30, 30, 5)
	a := m.Annulus(30, 30, 5, 10)

	for i, b := range a.Bits {
		if b && m.Bits[i] {
			t.Fatal("annulus overlaps the mask")
		}
	}

	a.ForEach(func(x, y int) {
		d := math.Hypot(float64(x)-30, float64(y)-30)

		if d <= 5 || d > 10 {
			t.Errorf("pixel (%d,%d) at distance %v outside (5,10]", x, y, d)
		}
	})

	if a.Empty() {
		t.Error("expected a non empty annulus")
	}

	if !m.Annulus(30, 30, 10, 10).Empty() {
		t.Error("expected empty annulus when outer <= inner")
	}

	// clipped at the image border, the center pixel itself is excluded
	if m.Annulus(0, 0, 0, 100).Count() != 60*60-m.Count()-1 {
		t.Error("expected annulus clipped to the grid")
	}
}

func TestFromSegment(t *testing.T) {

	seg := []uint8{
		0, 1, 1,
		2, 2, 0,
		0, 1, 0,
	}

	one := FromSegment(seg, 3, 3, 1)
	two := FromSegment(seg, 3, 3, 2)

	if one.Count() != 3 || two.Count() != 2 {
		t.Errorf("expected 3 and 2 pixels, got %d and %d", one.Count(), two.Count())
	}

	if !one.At(1, 2) || one.At(0, 1) {
		t.Error("unexpected object 1 pixels")
	}

	if FromBytes(seg, 3, 3).Count() != 5 {
		t.Error("expected 5 non zero bytes")
	}

	// short buffers leave the remainder unset
	if FromSegment(seg[:4], 3, 3, 2).Count() != 1 {
		t.Error("expected short buffer to be handled")
	}
}

func TestCloneIndependent(t *testing.T) {

	m := Disk(10, 10, 5, 5, 2)
	c := m.Clone()
	c.Set(0, 0, true)

	if m.At(0, 0) {
		t.Error("clone shares storage with the original")
	}

	if m.At(-1, 0) || m.In(10, 0) {
		t.Error("out of range pixels must read as unset")
	}
}

func TestInvalidMaskVisitsNothing(t *testing.T) {

	m := &Mask{Width: 10, Height: 10, Bits: make([]bool, 50)}

	for i := range m.Bits {
		m.Bits[i] = true
	}

	if m.Valid() {
		t.Fatal("expected mask to be invalid")
	}

	n := 0
	m.ForEach(func(x, y int) { n++ })

	if n != 0 {
		t.Errorf("expected no pixels visited, got %d", n)
	}

	if _, _, ok := m.Centroid(); ok {
		t.Error("expected no centroid for an invalid mask")
	}

	if len(m.Boundary()) != 0 {
		t.Error("expected no boundary for an invalid mask")
	}
}
