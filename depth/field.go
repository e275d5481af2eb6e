package depth

// Method records how a depth field was scaled to millimeters
type Method int

const (
	// MethodNone means no calibration could be performed and the field is empty
	MethodNone Method = 0
	// MethodIntrinsics scales samples using the sensor intrinsics
	MethodIntrinsics Method = 1
	// MethodMarker scales samples relative to a detected reference marker
	MethodMarker Method = 2
)

// String returns the method name
func (m Method) String() string {
	switch m {
	case MethodIntrinsics:
		return "intrinsics"
	case MethodMarker:
		return "marker"
	default:
		return "none"
	}
}

// Field is a calibrated depth grid for one capture.  DepthMM > 0 marks a
// physically valid sample and DepthMM == 0 means no data.  A Field is never
// modified after the calibrator returns it.
type Field struct {
	Width  int
	Height int
	// DepthMM is the row-major depth in millimeters
	DepthMM []float32
	// Confidence is the row-major per sample confidence in [0,1]
	Confidence []float32
	// Method is the calibration path used to produce the field
	Method Method
	// MarkerFocalPx is the effective focal length in pixels implied by the
	// reference marker, set only for MethodMarker fields
	MarkerFocalPx float64
}

// NewField returns an all zero field of the given size
func NewField(width, height int) *Field {

	if width < 0 || height < 0 {
		width, height = 0, 0
	}

	return &Field{
		Width:      width,
		Height:     height,
		DepthMM:    make([]float32, width*height),
		Confidence: make([]float32, width*height),
	}
}

// In reports whether (x,y) lies inside the field
func (f *Field) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the depth and confidence at (x,y), or zeros if out of range
func (f *Field) At(x, y int) (float64, float64) {

	if !f.In(x, y) {
		return 0, 0
	}

	idx := y*f.Width + x

	return float64(f.DepthMM[idx]), float64(f.Confidence[idx])
}

// DepthAt returns the depth in millimeters at (x,y)
func (f *Field) DepthAt(x, y int) float64 {
	d, _ := f.At(x, y)
	return d
}

// Valid reports whether (x,y) holds a physically valid sample
func (f *Field) Valid(x, y int) bool {
	return f.DepthAt(x, y) > 0
}

// MeanConfidence returns the mean confidence over valid samples, zero for a
// field with no valid samples
func (f *Field) MeanConfidence() float64 {

	var sum float64
	n := 0

	for i, d := range f.DepthMM {
		if d > 0 {
			sum += float64(f.Confidence[i])
			n++
		}
	}

	if n == 0 {
		return 0
	}

	return sum / float64(n)
}

// ValidCount returns the number of samples holding data
func (f *Field) ValidCount() int {

	n := 0

	for _, d := range f.DepthMM {
		if d > 0 {
			n++
		}
	}

	return n
}

// Intrinsics returns a camera model able to convert pixels to millimeters
// for this field.  Intrinsics supplied by the caller take precedence, a
// marker calibrated field falls back to its marker derived focal length.
// ok is false when neither is available.
func (f *Field) Intrinsics(in *Intrinsics) (*Intrinsics, bool) {

	if in != nil && in.CheckValid() == nil {
		return in, true
	}

	if f.Method == MethodMarker && f.MarkerFocalPx > 0 {
		return &Intrinsics{
			Width:  f.Width,
			Height: f.Height,
			Fx:     f.MarkerFocalPx,
			Fy:     f.MarkerFocalPx,
			Cx:     float64(f.Width) / 2,
			Cy:     float64(f.Height) / 2,
		}, true
	}

	return nil, false
}
