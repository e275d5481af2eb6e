package depth

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
)

// ErrInvalidIntrinsics is returned when a camera model cannot be used for
// measurement.  It marks a caller contract violation rather than sensor noise.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsic parameters")

// newIntrinsicsError wraps ErrInvalidIntrinsics with detail
func newIntrinsicsError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidIntrinsics, format, args...)
}

// Intrinsics is the pinhole model of the capture sensor.  Focal lengths and
// principal point are in pixels.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"ppx"`
	Cy     float64 `json:"ppy"`
}

// CheckValid returns an error wrapping ErrInvalidIntrinsics if the model
// has non-positive dimensions or focal lengths.
func (in *Intrinsics) CheckValid() error {

	if in == nil {
		return newIntrinsicsError("intrinsics not supplied")
	}

	if in.Width <= 0 || in.Height <= 0 {
		return newIntrinsicsError("invalid size (%d, %d)", in.Width, in.Height)
	}

	if !(in.Fx > 0) || math.IsInf(in.Fx, 0) {
		return newIntrinsicsError("invalid focal length Fx = %v", in.Fx)
	}

	if !(in.Fy > 0) || math.IsInf(in.Fy, 0) {
		return newIntrinsicsError("invalid focal length Fy = %v", in.Fy)
	}

	if in.Cx < 0 || in.Cy < 0 {
		return newIntrinsicsError("invalid principal point (%v, %v)", in.Cx, in.Cy)
	}

	return nil
}

// MeanFocal returns the average of the horizontal and vertical focal lengths
func (in *Intrinsics) MeanFocal() float64 {
	return (in.Fx + in.Fy) / 2
}

// PixelToMM converts a pixel distance observed at depthMM into a real world
// distance in millimeters.
func (in *Intrinsics) PixelToMM(px, depthMM float64) float64 {

	f := in.MeanFocal()

	if f <= 0 {
		return 0
	}

	return px * depthMM / f
}

// MMToPixel is the inverse of PixelToMM
func (in *Intrinsics) MMToPixel(mm, depthMM float64) float64 {

	if depthMM <= 0 {
		return 0
	}

	return mm * in.MeanFocal() / depthMM
}

// PixelAreaMM2 returns the surface area in square millimeters covered by a
// single pixel at the given depth.
func (in *Intrinsics) PixelAreaMM2(depthMM float64) float64 {
	s := in.PixelToMM(1, depthMM)
	return s * s
}

// PixelToPoint back projects pixel (x,y) at depth z into camera coordinates
// using the same units as z.
func (in *Intrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	return (x - in.Cx) / in.Fx * z, (y - in.Cy) / in.Fy * z, z
}

// PointToPixel projects a camera space point onto the image plane.  Points
// with zero depth project to (-1,-1) so callers bounds checking drop them.
func (in *Intrinsics) PointToPixel(x, y, z float64) (float64, float64) {

	if z == 0 {
		return -1, -1
	}

	return x/z*in.Fx + in.Cx, y/z*in.Fy + in.Cy
}

// LoadIntrinsicsJSON reads a camera model from a JSON file and validates it
func LoadIntrinsicsJSON(path string) (*Intrinsics, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading intrinsics file: %w", err)
	}

	in := &Intrinsics{}

	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("error parsing intrinsics JSON: %w", err)
	}

	if err := in.CheckValid(); err != nil {
		return nil, err
	}

	return in, nil
}
