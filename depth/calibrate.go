// Package depth converts raw sensor depth samples into a calibrated
// millimeter depth field with per sample confidence, and evaluates the
// quality of depth within a feature region.
package depth

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/skinmetric/go-lesion/marker"
)

// Params defines the valid and optimal sensing ranges of the depth sensor
type Params struct {
	// MinDepth and MaxDepth bound the valid raw range in meters, exclusive
	MinDepth float64
	MaxDepth float64
	// OptimalMin and OptimalMax bound the band in meters where confidence is 1
	OptimalMin float64
	OptimalMax float64
}

// DefaultParams returns the ranges of a short range front facing depth camera
func DefaultParams() Params {
	return Params{
		MinDepth:   0,
		MaxDepth:   5.0,
		OptimalMin: 0.20,
		OptimalMax: 0.35,
	}
}

// Calibrator converts raw depth buffers into calibrated fields
type Calibrator struct {
	// Params are the depth range configuration parameters
	Params Params
}

// NewCalibrator returns a depth calibrator
func NewCalibrator(p Params) *Calibrator {
	return &Calibrator{
		Params: p,
	}
}

// Confidence returns the confidence of a raw sample of depthM meters.  It is 1
// inside the optimal band, falls linearly to 0 towards both ends of the valid
// range and is 0 outside it.
func (c *Calibrator) Confidence(depthM float64) float64 {

	p := c.Params

	if math.IsNaN(depthM) || depthM <= p.MinDepth || depthM >= p.MaxDepth {
		return 0
	}

	switch {
	case depthM < p.OptimalMin:
		return (depthM - p.MinDepth) / (p.OptimalMin - p.MinDepth)
	case depthM > p.OptimalMax:
		return (p.MaxDepth - depthM) / (p.MaxDepth - p.OptimalMax)
	default:
		return 1
	}
}

// inRange reports whether a raw sample lies in the valid range
func (c *Calibrator) inRange(depthM float64) bool {
	return depthM > c.Params.MinDepth && depthM < c.Params.MaxDepth
}

// Calibrate converts raw depth in meters to millimeters using the sensor
// intrinsics.  Malformed intrinsics are a caller error and are returned.  An
// unreadable raw buffer is treated as depth loss and yields an all zero field.
func (c *Calibrator) Calibrate(raw *Raw, in *Intrinsics) (*Field, error) {

	if err := in.CheckValid(); err != nil {
		return nil, err
	}

	if !raw.Readable() {
		return NewField(in.Width, in.Height), nil
	}

	f := NewField(raw.Width, raw.Height)
	f.Method = MethodIntrinsics

	for i, v := range raw.Meters {
		d := float64(v)

		if !c.inRange(d) {
			continue
		}

		f.DepthMM[i] = float32(d * 1000)
		f.Confidence[i] = float32(c.Confidence(d))
	}

	return f, nil
}

// CalibrateWithMarker scales raw depth relative to the depth sampled at a
// detected reference marker.  Every valid sample receives the marker
// detection confidence.  The field also records the focal length implied by
// the marker's apparent size so pixel distances can be converted without
// intrinsics.  If the buffer is unreadable or no reference depth can be
// sampled at the marker an all zero field is returned.
func (c *Calibrator) CalibrateWithMarker(raw *Raw, m marker.Marker) *Field {

	if !raw.Readable() {
		if raw == nil {
			return NewField(0, 0)
		}
		return NewField(raw.Width, raw.Height)
	}

	f := NewField(raw.Width, raw.Height)

	refM := c.markerDepth(raw, m)

	if refM <= 0 || m.RadiusPx <= 0 || m.DiameterMM <= 0 {
		return f
	}

	refMM := refM * 1000
	conf := float32(math.Max(0, math.Min(1, m.Confidence)))

	for i, v := range raw.Meters {
		d := float64(v)

		if !c.inRange(d) {
			continue
		}

		f.DepthMM[i] = float32(d / refM * refMM)
		f.Confidence[i] = conf
	}

	f.Method = MethodMarker
	f.MarkerFocalPx = 2 * m.RadiusPx * refMM / m.DiameterMM

	return f
}

// markerDepth returns the raw depth at the marker center.  When the center
// sample has no data the median of valid samples inside the marker disk is
// used instead.
func (c *Calibrator) markerDepth(raw *Raw, m marker.Marker) float64 {

	ctr := m.Center()

	if d := float64(raw.At(ctr.X, ctr.Y)); c.inRange(d) {
		return d
	}

	r := int(math.Ceil(m.RadiusPx))
	var samples []float64

	for y := ctr.Y - r; y <= ctr.Y+r; y++ {
		for x := ctr.X - r; x <= ctr.X+r; x++ {
			dx := float64(x) - m.CenterX
			dy := float64(y) - m.CenterY

			if dx*dx+dy*dy > m.RadiusPx*m.RadiusPx {
				continue
			}

			if d := float64(raw.At(x, y)); c.inRange(d) {
				samples = append(samples, d)
			}
		}
	}

	if len(samples) == 0 {
		return 0
	}

	med, err := stats.Median(samples)

	if err != nil {
		return 0
	}

	return med
}
