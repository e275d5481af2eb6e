// Package mask provides flat row-major boolean pixel grids used to describe
// a single skin feature and the regions derived from it (boundary, reference
// ring, skin annulus).
package mask

import (
	"image"
	"math"
)

// Mask is a 2-D boolean grid stored row-major, Bits[y*Width+x]
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// New returns an empty mask of the given size
func New(width, height int) *Mask {

	if width < 0 || height < 0 {
		width, height = 0, 0
	}

	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// FromSegment isolates the pixels labelled objID in an instance segmentation
// mask where each pixel holds the 1-based index of the object covering it
// and 0 for background.
func FromSegment(segMask []uint8, width, height int, objID uint8) *Mask {

	m := New(width, height)

	n := len(m.Bits)

	if len(segMask) < n {
		n = len(segMask)
	}

	for i := 0; i < n; i++ {
		m.Bits[i] = segMask[i] == objID
	}

	return m
}

// FromBytes creates a mask where every non-zero byte is set
func FromBytes(buf []uint8, width, height int) *Mask {

	m := New(width, height)

	n := len(m.Bits)

	if len(buf) < n {
		n = len(buf)
	}

	for i := 0; i < n; i++ {
		m.Bits[i] = buf[i] != 0
	}

	return m
}

// Disk returns a mask with a filled disk of radius r centered at (cx,cy)
func Disk(width, height int, cx, cy, r float64) *Mask {

	m := New(width, height)
	r2 := r * r

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy

			if dx*dx+dy*dy <= r2 {
				m.Bits[y*width+x] = true
			}
		}
	}

	return m
}

// Valid reports whether the grid size agrees with its storage
func (m *Mask) Valid() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Bits) == m.Width*m.Height
}

// In reports whether (x,y) lies inside the grid
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the mask value at (x,y), out of range pixels are unset
func (m *Mask) At(x, y int) bool {

	if !m.In(x, y) {
		return false
	}

	return m.Bits[y*m.Width+x]
}

// Set sets the mask value at (x,y), out of range writes are ignored
func (m *Mask) Set(x, y int, v bool) {

	if !m.In(x, y) {
		return
	}

	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels
func (m *Mask) Count() int {

	n := 0

	for _, b := range m.Bits {
		if b {
			n++
		}
	}

	return n
}

// Empty reports whether no pixel is set
func (m *Mask) Empty() bool {

	for _, b := range m.Bits {
		if b {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the mask
func (m *Mask) Clone() *Mask {

	c := &Mask{
		Width:  m.Width,
		Height: m.Height,
		Bits:   make([]bool, len(m.Bits)),
	}

	copy(c.Bits, m.Bits)

	return c
}

// ForEach calls fn for every set pixel in row-major order.  An invalid mask
// visits nothing.
func (m *Mask) ForEach(fn func(x, y int)) {

	if !m.Valid() {
		return
	}

	for y := 0; y < m.Height; y++ {
		row := y * m.Width

		for x := 0; x < m.Width; x++ {
			if m.Bits[row+x] {
				fn(x, y)
			}
		}
	}
}

// Centroid returns the mean pixel coordinate of the set pixels.  ok is false
// for an empty mask.
func (m *Mask) Centroid() (cx, cy float64, ok bool) {

	var sx, sy float64
	n := 0

	m.ForEach(func(x, y int) {
		sx += float64(x)
		sy += float64(y)
		n++
	})

	if n == 0 {
		return 0, 0, false
	}

	return sx / float64(n), sy / float64(n), true
}

// Bounds returns the smallest rectangle containing every set pixel.  Max is
// exclusive, following image.Rectangle conventions.
func (m *Mask) Bounds() image.Rectangle {

	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1

	m.ForEach(func(x, y int) {
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	})

	if maxX < 0 {
		return image.Rectangle{}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Boundary returns the set pixels that have at least one 4-neighbour outside
// the mask.  Pixels on the image edge count as boundary pixels.
func (m *Mask) Boundary() []image.Point {

	var pts []image.Point

	m.ForEach(func(x, y int) {
		if !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
			pts = append(pts, image.Pt(x, y))
		}
	})

	return pts
}

// Dilate grows the mask by r pixels using a square structuring element of
// size 2r+1.  The dilation is computed as two separable 1-D passes.
func (m *Mask) Dilate(r int) *Mask {

	if r <= 0 {
		return m.Clone()
	}

	w, h := m.Width, m.Height
	out := New(w, h)

	tmp := scratch.get(w * h)
	defer scratch.put(tmp)

	// horizontal pass, distance to the nearest set pixel either side
	for y := 0; y < h; y++ {
		row := y * w
		last := -1 << 30

		for x := 0; x < w; x++ {
			if m.Bits[row+x] {
				last = x
			}
			tmp[row+x] = x-last <= r
		}

		last = 1 << 30

		for x := w - 1; x >= 0; x-- {
			if m.Bits[row+x] {
				last = x
			}
			if last-x <= r {
				tmp[row+x] = true
			}
		}
	}

	// vertical pass over the horizontally dilated rows
	for x := 0; x < w; x++ {
		last := -1 << 30

		for y := 0; y < h; y++ {
			if tmp[y*w+x] {
				last = y
			}
			out.Bits[y*w+x] = y-last <= r
		}

		last = 1 << 30

		for y := h - 1; y >= 0; y-- {
			if tmp[y*w+x] {
				last = y
			}
			if last-y <= r {
				out.Bits[y*w+x] = true
			}
		}
	}

	return out
}

// Ring returns the pixels within width pixels of the mask but not in it
func (m *Mask) Ring(width int) *Mask {

	ring := m.Dilate(width)

	for i, b := range m.Bits {
		if b {
			ring.Bits[i] = false
		}
	}

	return ring
}

// Annulus returns the pixels whose distance from (cx,cy) lies in
// (inner, outer] excluding any pixel set in m.
func (m *Mask) Annulus(cx, cy, inner, outer float64) *Mask {

	out := New(m.Width, m.Height)

	if outer <= inner {
		return out
	}

	in2 := inner * inner
	out2 := outer * outer

	x0 := clamp(int(math.Floor(cx-outer)), 0, m.Width)
	x1 := clamp(int(math.Ceil(cx+outer))+1, 0, m.Width)
	y0 := clamp(int(math.Floor(cy-outer)), 0, m.Height)
	y1 := clamp(int(math.Ceil(cy+outer))+1, 0, m.Height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			idx := y*m.Width + x

			if m.Bits[idx] {
				continue
			}

			dx := float64(x) - cx
			dy := float64(y) - cy
			d2 := dx*dx + dy*dy

			if d2 > in2 && d2 <= out2 {
				out.Bits[idx] = true
			}
		}
	}

	return out
}

// clamp restricts the value x to be within the range min and max
func clamp(val, min, max int) int {

	if val > min {
		if val < max {
			return val
		}
		return max
	}

	return min
}
