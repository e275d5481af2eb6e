package depth

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Raw is an uncalibrated depth buffer as delivered by the sensor.  Samples
// are in meters, row-major, out[y*Width+x].  A zero sample means no data.
type Raw struct {
	Width  int
	Height int
	Meters []float32
}

// NewRaw returns a zero filled raw buffer of the given size
func NewRaw(width, height int) *Raw {

	if width < 0 || height < 0 {
		width, height = 0, 0
	}

	return &Raw{
		Width:  width,
		Height: height,
		Meters: make([]float32, width*height),
	}
}

// Readable reports whether the buffer dimensions agree with its sample count
func (r *Raw) Readable() bool {
	return r != nil && r.Width > 0 && r.Height > 0 &&
		len(r.Meters) == r.Width*r.Height
}

// At returns the raw sample at (x,y) or 0 when out of range
func (r *Raw) At(x, y int) float32 {

	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}

	idx := y*r.Width + x

	if idx >= len(r.Meters) {
		return 0
	}

	return r.Meters[idx]
}

var f16LookupTable [65536]float32

func init() {
	// precompute half float lookup table for faster decoding of depth maps
	for i := range f16LookupTable {
		f16LookupTable[i] = float16.Frombits(uint16(i)).Float32()
	}
}

// RawFromFloat16Bytes decodes a little endian half float depth map in meters,
// the format used by mobile depth APIs.
func RawFromFloat16Bytes(buf []byte, width, height int) (*Raw, error) {

	if err := checkBufSize(len(buf), width, height, 2); err != nil {
		return nil, err
	}

	r := NewRaw(width, height)

	for i := range r.Meters {
		r.Meters[i] = finiteOrZero(f16LookupTable[binary.LittleEndian.Uint16(buf[i*2:])])
	}

	return r, nil
}

// RawFromFloat32Bytes decodes a little endian float32 depth map in meters
func RawFromFloat32Bytes(buf []byte, width, height int) (*Raw, error) {

	if err := checkBufSize(len(buf), width, height, 4); err != nil {
		return nil, err
	}

	r := NewRaw(width, height)

	for i := range r.Meters {
		bits := binary.LittleEndian.Uint32(buf[i*4:])
		r.Meters[i] = finiteOrZero(math.Float32frombits(bits))
	}

	return r, nil
}

// RawFromMillimeters converts a uint16 millimeter depth map, as produced by
// structured light and ToF sensors, into meters.
func RawFromMillimeters(mm []uint16, width, height int) (*Raw, error) {

	if err := checkBufSize(len(mm), width, height, 1); err != nil {
		return nil, err
	}

	r := NewRaw(width, height)

	for i, v := range mm {
		r.Meters[i] = float32(v) / 1000
	}

	return r, nil
}

// checkBufSize validates a buffer holds exactly width*height samples
func checkBufSize(n, width, height, sampleSize int) error {

	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid depth dimensions %dx%d", width, height)
	}

	if n != width*height*sampleSize {
		return fmt.Errorf("depth buffer size %d does not match %dx%d", n, width, height)
	}

	return nil
}

// finiteOrZero maps NaN and Inf samples to zero (no data)
func finiteOrZero(v float32) float32 {

	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}

	return v
}
