package lesion

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/marker"
	"github.com/skinmetric/go-lesion/metrics"
)

// ErrNoDepthSource is returned for a capture that carries no depth buffer
var ErrNoDepthSource = errors.New("capture has no depth source")

// Params defines the capture processor configuration
type Params struct {
	// Depth configures calibration ranges
	Depth depth.Params
	// Marker configures the reference marker fallback
	Marker marker.Params
	// Metrics configures the per feature measurements
	Metrics metrics.Params
	// Workers is the number of features measured concurrently, zero uses
	// the number of CPUs
	Workers int
	// Logger receives capture summaries, nil disables logging
	Logger *zap.Logger
}

// DefaultParams returns the default processor configuration
func DefaultParams() Params {
	return Params{
		Depth:   depth.DefaultParams(),
		Marker:  marker.DefaultParams(),
		Metrics: metrics.DefaultParams(),
		Workers: runtime.NumCPU(),
		Logger:  zap.NewNop(),
	}
}

// Capture is one frame handed to the processor
type Capture struct {
	// Raw is the sensor depth in meters
	Raw *depth.Raw
	// Color is the color image aligned to the depth buffer
	Color image.Image
	// Intrinsics of the depth sensor, nil selects the marker fallback
	Intrinsics *depth.Intrinsics
	// Timestamp of the capture
	Timestamp time.Time
	// Candidates are the segmented features to measure
	Candidates []feature.Candidate
}

// FeatureResult is the measurement of one candidate
type FeatureResult struct {
	Candidate feature.Candidate
	Metrics   metrics.Metrics
}

// CaptureResult holds the calibration and per feature measurements of a
// capture
type CaptureResult struct {
	Timestamp time.Time
	// Field is the calibrated depth
	Field *depth.Field
	// Method is the calibration method that produced Field
	Method depth.Method
	// Marker is the detected reference marker when the fallback was used
	Marker *marker.Marker
	// Features holds one result per candidate in input order
	Features []FeatureResult
	// Elapsed is the processing duration
	Elapsed time.Duration
}

// Metrics returns the per feature metrics in candidate order
func (r *CaptureResult) Metrics() []metrics.Metrics {

	out := make([]metrics.Metrics, len(r.Features))

	for i, f := range r.Features {
		out[i] = f.Metrics
	}

	return out
}

// Processor turns captures into calibrated feature measurements
type Processor struct {
	params     Params
	log        *zap.Logger
	calibrator *depth.Calibrator
	detector   *marker.Detector
	pool       *Pool
}

// NewProcessor returns a processor.  Close releases its worker pool.
func NewProcessor(p Params) *Processor {

	if p.Workers < 1 {
		p.Workers = runtime.NumCPU()
	}

	log := p.Logger

	if log == nil {
		log = zap.NewNop()
	}

	return &Processor{
		params:     p,
		log:        log,
		calibrator: depth.NewCalibrator(p.Depth),
		detector:   marker.NewDetector(p.Marker),
		pool:       NewPool(p.Workers, p.Metrics),
	}
}

// Close the processor
func (p *Processor) Close() {
	p.pool.Close()
}

// ProcessCapture calibrates the capture's depth then measures every
// candidate.  Intrinsics are preferred, without them a reference marker is
// searched for in the color image, and without either the features are
// measured on an empty field so only shape and color are reported.
// Malformed intrinsics and a missing depth buffer are returned as errors.
func (p *Processor) ProcessCapture(ctx context.Context, c Capture) (*CaptureResult, error) {

	start := time.Now()

	if c.Raw == nil {
		return nil, ErrNoDepthSource
	}

	res := &CaptureResult{
		Timestamp: c.Timestamp,
	}

	field, err := p.calibrate(c, res)

	if err != nil {
		return nil, err
	}

	res.Field = field
	res.Method = field.Method

	features, err := p.measure(ctx, c, field)

	if err != nil {
		return nil, err
	}

	res.Features = features
	res.Elapsed = time.Since(start)

	p.log.Info("capture processed",
		zap.Time("timestamp", c.Timestamp),
		zap.Int("features", len(features)),
		zap.Stringer("method", res.Method),
		zap.Float64("depthConfidence", field.MeanConfidence()),
		zap.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// calibrate selects the calibration path for the capture
func (p *Processor) calibrate(c Capture, res *CaptureResult) (*depth.Field, error) {

	if c.Intrinsics != nil {
		field, err := p.calibrator.Calibrate(c.Raw, c.Intrinsics)

		if err != nil {
			return nil, fmt.Errorf("error calibrating depth: %w", err)
		}

		return field, nil
	}

	if c.Color != nil {
		if mk, ok := p.detector.Detect(c.Color); ok {
			res.Marker = &mk
			field := p.calibrator.CalibrateWithMarker(c.Raw, mk)

			if field.Method == depth.MethodMarker {
				return field, nil
			}

			p.log.Warn("no depth at reference marker",
				zap.Float64("x", mk.CenterX),
				zap.Float64("y", mk.CenterY),
				zap.Float64("radius", mk.RadiusPx),
			)

			return field, nil
		}
	}

	p.log.Warn("no intrinsics and no reference marker found, dimensional metrics unavailable")

	return depth.NewField(c.Raw.Width, c.Raw.Height), nil
}

// measure computes the metrics of every candidate on the pool's workers and
// waits for all of them
func (p *Processor) measure(ctx context.Context, c Capture,
	field *depth.Field) ([]FeatureResult, error) {

	out := make([]FeatureResult, len(c.Candidates))

	var wg sync.WaitGroup

	for i := range c.Candidates {

		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		engine, ok := p.pool.Get()

		if !ok {
			wg.Wait()
			return nil, errors.New("processor is closed")
		}

		wg.Add(1)

		go func(i int, engine *metrics.Engine) {
			defer wg.Done()
			defer p.pool.Return(engine)

			cand := c.Candidates[i]
			m := engine.Compute(cand, field, c.Color, c.Intrinsics)

			if m.DiameterMM == 0 {
				p.log.Debug("feature has no dimensional metrics",
					zap.Int64("id", cand.ID),
					zap.Stringer("class", cand.Class),
					zap.Int("pixels", cand.PixelCount),
				)
			} else if !m.PlaneFitted {
				p.log.Debug("no reference plane for feature",
					zap.Int64("id", cand.ID),
				)
			}

			out[i] = FeatureResult{Candidate: cand, Metrics: m}
		}(i, engine)
	}

	wg.Wait()

	return out, nil
}
