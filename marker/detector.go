// Package marker locates a circular high contrast calibration sticker of known
// physical diameter in a color image.  It is the fallback scale reference
// used when sensor intrinsics are not available.
package marker

import (
	"image"
	"math"
	"sort"
)

// DefaultDiameterMM is the physical diameter of the reference sticker
const DefaultDiameterMM = 10.0

// Marker is a detected reference circle in image pixel coordinates
type Marker struct {
	// CenterX and CenterY are the circle center in pixels
	CenterX float64
	CenterY float64
	// RadiusPx is the detected radius in pixels
	RadiusPx float64
	// DiameterMM is the known physical diameter of the marker
	DiameterMM float64
	// Confidence of the detection in [0,1]
	Confidence float64
	// Circularity is the fraction of predicted boundary pixels found as edges
	Circularity float64
	// Contrast is the luminance difference between the marker center and its
	// surroundings
	Contrast float64
}

// Center returns the marker center rounded to the nearest pixel
func (m Marker) Center() image.Point {
	return image.Pt(int(math.Round(m.CenterX)), int(math.Round(m.CenterY)))
}

// MMPerPixel returns the physical scale at the marker's depth
func (m Marker) MMPerPixel() float64 {

	if m.RadiusPx <= 0 {
		return 0
	}

	return m.DiameterMM / (2 * m.RadiusPx)
}

// Params defines the circle search configuration
type Params struct {
	// DiameterMM is the known physical diameter of the marker
	DiameterMM float64
	// MinRadius and MaxRadius bound the searched radii in pixels
	MinRadius int
	MaxRadius int
	// RadiusStep is the increment between searched radii
	RadiusStep int
	// Angles is the number of angular offsets each edge pixel votes along
	Angles int
	// VoteFraction is the fraction of Angles a center must collect to become
	// a candidate circle
	VoteFraction float64
	// EdgeThreshold is the fraction of the strongest gradient a pixel needs
	// to be treated as an edge
	EdgeThreshold float64
	// BoundaryTolerance is the radial distance in pixels within which a
	// predicted boundary pixel counts as present
	BoundaryTolerance int
	// MinCircularity is the minimum fraction of boundary found as edges
	MinCircularity float64
	// MinContrast is the minimum luminance difference between the central
	// disk and surrounding annulus
	MinContrast float64
	// MaxCandidates limits how many vote peaks are scored
	MaxCandidates int
}

// DefaultParams returns a configuration for a 10mm sticker imaged at typical
// close range capture distances
func DefaultParams() Params {
	return Params{
		DiameterMM:        DefaultDiameterMM,
		MinRadius:         8,
		MaxRadius:         60,
		RadiusStep:        1,
		Angles:            36,
		VoteFraction:      0.35,
		EdgeThreshold:     0.25,
		BoundaryTolerance: 3,
		MinCircularity:    0.85,
		MinContrast:       0.30,
		MaxCandidates:     32,
	}
}

// Detector performs the voting based circle search
type Detector struct {
	// Params are the search configuration parameters
	Params Params
	// cos and sin hold the precomputed voting directions
	cos []float64
	sin []float64
}

// NewDetector returns a marker detector
func NewDetector(p Params) *Detector {

	if p.Angles <= 0 {
		p.Angles = 36
	}

	if p.RadiusStep <= 0 {
		p.RadiusStep = 1
	}

	d := &Detector{
		Params: p,
		cos:    make([]float64, p.Angles),
		sin:    make([]float64, p.Angles),
	}

	for k := 0; k < p.Angles; k++ {
		theta := 2 * math.Pi * float64(k) / float64(p.Angles)
		d.cos[k] = math.Cos(theta)
		d.sin[k] = math.Sin(theta)
	}

	return d
}

// candidate is a vote peak awaiting scoring
type candidate struct {
	x, y, r int
	votes   int
}

// Detect searches img for the reference marker.  ok is false when no circle
// passes the radius, circularity and contrast thresholds.
func (d *Detector) Detect(img image.Image) (Marker, bool) {

	if img == nil {
		return Marker{}, false
	}

	gray := toGray(img)

	if gray.w < 3 || gray.h < 3 {
		return Marker{}, false
	}

	edges := gray.sobelEdges(d.Params.EdgeThreshold)

	if len(edges.points) == 0 {
		return Marker{}, false
	}

	cands := d.vote(gray.w, gray.h, edges.points)

	best := Marker{}
	bestVotes := -1
	found := false

	for _, c := range cands {

		if c.r < d.Params.MinRadius {
			continue
		}

		circ := d.circularity(edges, c)

		if circ < d.Params.MinCircularity {
			continue
		}

		contrast := gray.contrast(float64(c.x), float64(c.y), float64(c.r))

		if contrast < d.Params.MinContrast {
			continue
		}

		conf := (circ + math.Min(contrast, 1)) / 2

		if !found || conf > best.Confidence ||
			(conf == best.Confidence && c.votes > bestVotes) {

			best = Marker{
				CenterX:     float64(c.x),
				CenterY:     float64(c.y),
				RadiusPx:    float64(c.r),
				DiameterMM:  d.Params.DiameterMM,
				Confidence:  conf,
				Circularity: circ,
				Contrast:    contrast,
			}
			bestVotes = c.votes
			found = true
		}
	}

	return best, found
}

// vote runs the accumulator for every radius and returns the strongest local
// vote peaks across all radii
func (d *Detector) vote(w, h int, edgePts []image.Point) []candidate {

	acc := make([]int, w*h)
	thresh := int(math.Ceil(d.Params.VoteFraction * float64(d.Params.Angles)))

	var cands []candidate

	for r := d.Params.MinRadius; r <= d.Params.MaxRadius; r += d.Params.RadiusStep {

		// a circle of this radius cannot fit in the image
		if 2*r+1 > w || 2*r+1 > h {
			break
		}

		for i := range acc {
			acc[i] = 0
		}

		rf := float64(r)

		for _, p := range edgePts {
			for k := range d.cos {
				cx := int(math.Round(float64(p.X) - rf*d.cos[k]))
				cy := int(math.Round(float64(p.Y) - rf*d.sin[k]))

				if cx < 0 || cy < 0 || cx >= w || cy >= h {
					continue
				}

				acc[cy*w+cx]++
			}
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := acc[y*w+x]

				if v < thresh || !isLocalMax(acc, w, h, x, y) {
					continue
				}

				cands = append(cands, candidate{x: x, y: y, r: r, votes: v})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].votes > cands[j].votes
	})

	if d.Params.MaxCandidates > 0 && len(cands) > d.Params.MaxCandidates {
		cands = cands[:d.Params.MaxCandidates]
	}

	return cands
}

// isLocalMax reports whether acc at (x,y) is not exceeded by its 8-neighbours
func isLocalMax(acc []int, w, h, x, y int) bool {

	v := acc[y*w+x]

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy

			if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}

			if acc[ny*w+nx] > v {
				return false
			}
		}
	}

	return true
}

// circularity samples the predicted boundary of the candidate circle and
// returns the fraction of samples with an edge pixel within tolerance along
// the radial direction
func (d *Detector) circularity(edges *edgeMap, c candidate) float64 {

	samples := int(math.Ceil(2 * math.Pi * float64(c.r)))

	if samples < d.Params.Angles {
		samples = d.Params.Angles
	}

	tol := d.Params.BoundaryTolerance
	hits := 0

	for s := 0; s < samples; s++ {
		theta := 2 * math.Pi * float64(s) / float64(samples)
		ct, st := math.Cos(theta), math.Sin(theta)

		for dr := -tol; dr <= tol; dr++ {
			rr := float64(c.r + dr)
			x := int(math.Round(float64(c.x) + rr*ct))
			y := int(math.Round(float64(c.y) + rr*st))

			if edges.at(x, y) {
				hits++
				break
			}
		}
	}

	return float64(hits) / float64(samples)
}
