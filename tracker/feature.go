package tracker

import (
	"math"
	"time"

	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/metrics"
)

// Observation is a feature detected in the current capture as seen by the
// matcher
type Observation struct {
	// CandidateID is the detection id of the feature candidate
	CandidateID int64
	// Class is the feature class
	Class feature.Class
	// SurfaceX and SurfaceY are the canonical surface coordinate
	SurfaceX float64
	SurfaceY float64
	// Descriptor is the appearance embedding
	Descriptor []float32
}

// ObservationFromCandidate builds the matcher view of a candidate
func ObservationFromCandidate(c feature.Candidate) Observation {
	return Observation{
		CandidateID: c.ID,
		Class:       c.Class,
		SurfaceX:    c.SurfaceX,
		SurfaceY:    c.SurfaceY,
		Descriptor:  c.Descriptor,
	}
}

// Record is one capture's measurement of a tracked feature
type Record struct {
	Time    time.Time
	Metrics metrics.Metrics
}

// TrackedFeature is a feature identity persisted across captures
type TrackedFeature struct {
	// ID is the stable identity of the feature
	ID string
	// Class is the feature class at first sighting
	Class feature.Class
	// Name is an optional user assigned name
	Name string
	// SurfaceX and SurfaceY are the canonical coordinate at last sighting
	SurfaceX float64
	SurfaceY float64
	// Descriptor is the smoothed appearance embedding
	Descriptor []float32
	// FirstSeen and LastSeen are the first and latest capture times
	FirstSeen time.Time
	LastSeen  time.Time
	// ConsecutiveCount is the number of consecutive captures the feature has
	// been matched in
	ConsecutiveCount int
	// History holds the measurements in capture order
	History []Record
}

// clone returns a deep copy safe to hand to callers
func (t *TrackedFeature) clone() *TrackedFeature {

	c := *t
	c.Descriptor = append([]float32(nil), t.Descriptor...)
	c.History = append([]Record(nil), t.History...)

	return &c
}

// Series extracts one metric across the feature's history, for example
//
//	tf.Series(func(m metrics.Metrics) float64 { return m.AreaMM2 })
//
// Captures where the metric is not a finite number are skipped.
func (t *TrackedFeature) Series(value func(metrics.Metrics) float64) []metrics.Sample {

	out := make([]metrics.Sample, 0, len(t.History))

	for _, r := range t.History {
		v := value(r.Metrics)

		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		out = append(out, metrics.Sample{Time: r.Time, Value: v})
	}

	return out
}

// HealingRate estimates the trend of a metric over the window before the
// latest capture
func (t *TrackedFeature) HealingRate(value func(metrics.Metrics) float64,
	window time.Duration) (metrics.HealingRate, bool) {

	return metrics.EstimateHealingRate(t.Series(value), window)
}

// Area selects the projected area, the usual metric for healing trends
func Area(m metrics.Metrics) float64 {
	return m.AreaMM2
}

// Redness selects the redness delta
func Redness(m metrics.Metrics) float64 {
	return m.RednessDelta
}

// Elevation selects the mean elevation
func Elevation(m metrics.Metrics) float64 {
	return m.ElevationMM
}
