package depth

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/skinmetric/go-lesion/mask"
)

// Quality summarises the depth samples covering a feature
type Quality struct {
	// MeanConfidence is the mean confidence of valid masked samples
	MeanConfidence float64
	// ValidRatio is the fraction of masked pixels with valid depth
	ValidRatio float64
	// Uniformity is 1 minus the coefficient of variation of depth, in [0,1]
	Uniformity float64
	// NoiseMM is the median 3x3 neighbourhood standard deviation of depth
	NoiseMM float64
	// ValidCount and TotalCount are the valid and total masked pixel counts
	ValidCount int
	TotalCount int
}

// Thresholds a region must beat to be considered high quality
const (
	highMinConfidence = 0.7
	highMinValidRatio = 0.9
	highMinUniformity = 0.8
	highMaxNoiseMM    = 2.0
)

// IsHigh reports whether the region is good enough to trust measurements
// without attenuation
func (q Quality) IsHigh() bool {
	return q.MeanConfidence > highMinConfidence &&
		q.ValidRatio > highMinValidRatio &&
		q.Uniformity > highMinUniformity &&
		q.NoiseMM < highMaxNoiseMM
}

// EvaluateQuality scores the depth samples under the feature mask.  An empty
// mask or a mask with no valid depth returns a zero Quality.
func EvaluateQuality(f *Field, m *mask.Mask) Quality {

	q := Quality{}

	if f == nil || !m.Valid() {
		return q
	}

	var depths []float64
	var confSum float64

	m.ForEach(func(x, y int) {
		q.TotalCount++

		d, c := f.At(x, y)

		if d <= 0 {
			return
		}

		depths = append(depths, d)
		confSum += c
	})

	q.ValidCount = len(depths)

	if q.TotalCount == 0 || q.ValidCount == 0 {
		return q
	}

	q.MeanConfidence = confSum / float64(q.ValidCount)
	q.ValidRatio = float64(q.ValidCount) / float64(q.TotalCount)

	mean, _ := stats.Mean(depths)
	sd, _ := stats.StandardDeviationPopulation(depths)

	if mean > 0 {
		q.Uniformity = clamp01(1 - sd/mean)
	}

	q.NoiseMM = localNoise(f, m)

	return q
}

// localNoise returns the median of the 3x3 neighbourhood standard deviations
// of valid depth around every valid masked pixel
func localNoise(f *Field, m *mask.Mask) float64 {

	var sds []float64
	window := make([]float64, 0, 9)

	m.ForEach(func(x, y int) {
		if !f.Valid(x, y) {
			return
		}

		window = window[:0]

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if d := f.DepthAt(x+dx, y+dy); d > 0 {
					window = append(window, d)
				}
			}
		}

		if len(window) < 2 {
			return
		}

		sd, err := stats.StandardDeviationPopulation(window)

		if err == nil {
			sds = append(sds, sd)
		}
	})

	if len(sds) == 0 {
		return 0
	}

	med, err := stats.Median(sds)

	if err != nil {
		return 0
	}

	return med
}

// clamp01 restricts v to [0,1]
func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
