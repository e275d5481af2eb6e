package metrics

import (
	"image"
	"math"
	"sort"
)

// maxFeretPx returns the largest Euclidean distance between any two points,
// the maximum Feret diameter in pixels.  Only the convex hull vertices can
// be extremal so the pairwise search runs over the hull.
func maxFeretPx(pts []image.Point) float64 {

	hull := convexHull(pts)
	best := 0.0

	for i := 0; i < len(hull); i++ {
		for j := i + 1; j < len(hull); j++ {
			dx := float64(hull[i].X - hull[j].X)
			dy := float64(hull[i].Y - hull[j].Y)

			if d := dx*dx + dy*dy; d > best {
				best = d
			}
		}
	}

	return math.Sqrt(best)
}

// convexHull returns the convex hull of pts using the monotone chain method
func convexHull(pts []image.Point) []image.Point {

	if len(pts) < 3 {
		out := make([]image.Point, len(pts))
		copy(out, pts)
		return out
	}

	sorted := make([]image.Point, len(pts))
	copy(sorted, pts)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X == sorted[j].X {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(sorted))

	// lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// upper hull
	lower := len(hull) + 1

	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull[:len(hull)-1]
}

// circularity returns 4*pi*area/perimeter^2 clamped to [0,1].  Area and
// perimeter are both pixel counts.
func circularity(areaPx, perimeterPx int) float64 {

	if perimeterPx <= 0 {
		return 0
	}

	c := 4 * math.Pi * float64(areaPx) / float64(perimeterPx*perimeterPx)

	return math.Max(0, math.Min(1, c))
}

// aspectRatio returns bounding box width over height
func aspectRatio(r image.Rectangle) float64 {

	if r.Dy() <= 0 {
		return 0
	}

	return float64(r.Dx()) / float64(r.Dy())
}
