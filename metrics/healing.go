package metrics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MinHealingPoints is the fewest samples a trend is reported from
const MinHealingPoints = 3

// Sample is one measurement of a tracked feature at a point in time
type Sample struct {
	Time  time.Time
	Value float64
}

// HealingRate is a linear trend of a metric over time
type HealingRate struct {
	// PercentPerDay is the slope relative to the fitted starting value
	PercentPerDay float64
	// SlopePerDay is the change of the metric per day in its own units
	SlopePerDay float64
	// Intercept is the fitted value at the first sample in the window
	Intercept float64
	// Confidence is the coefficient of determination of the fit
	Confidence float64
	// Points is the number of samples in the window
	Points int
	// Start and End are the first and last sample times in the window
	Start time.Time
	End   time.Time
}

// EstimateHealingRate fits an ordinary least squares trend of value against
// elapsed days over the samples within window of the most recent sample.  A
// non-positive window uses every sample.  ok is false with fewer than
// MinHealingPoints samples, when all samples share one timestamp, or when
// the fitted starting value is zero.
func EstimateHealingRate(series []Sample, window time.Duration) (HealingRate, bool) {

	pts := windowed(series, window)

	if len(pts) < MinHealingPoints {
		return HealingRate{}, false
	}

	start := pts[0].Time
	end := pts[len(pts)-1].Time

	if !end.After(start) {
		return HealingRate{}, false
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))

	for i, p := range pts {
		xs[i] = p.Time.Sub(start).Hours() / 24
		ys[i] = p.Value
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	if alpha == 0 || math.IsNaN(alpha) || math.IsNaN(beta) {
		return HealingRate{}, false
	}

	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	// a constant series is fitted exactly by a flat line
	if math.IsNaN(r2) {
		r2 = 1
	}

	return HealingRate{
		PercentPerDay: beta / alpha * 100,
		SlopePerDay:   beta,
		Intercept:     alpha,
		Confidence:    math.Max(0, math.Min(1, r2)),
		Points:        len(pts),
		Start:         start,
		End:           end,
	}, true
}

// windowed returns the samples sorted by time and restricted to window
// before the latest sample
func windowed(series []Sample, window time.Duration) []Sample {

	pts := make([]Sample, 0, len(series))

	for _, s := range series {
		if !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0) {
			pts = append(pts, s)
		}
	}

	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Time.Before(pts[j].Time)
	})

	if window <= 0 || len(pts) == 0 {
		return pts
	}

	cutoff := pts[len(pts)-1].Time.Add(-window)
	first := sort.Search(len(pts), func(i int) bool {
		return !pts[i].Time.Before(cutoff)
	})

	return pts[first:]
}
