package feature

import (
	"image"

	"github.com/skinmetric/go-lesion/mask"
)

// Candidate is a single feature found by the segmentation collaborator.  It
// is read-only to the measurement core.
type Candidate struct {
	// ID is the detection id assigned by the segmentation step
	ID int64
	// Mask is the per pixel feature mask at depth/color resolution
	Mask *mask.Mask
	// Bounds is the bounding region of the mask
	Bounds image.Rectangle
	// CentroidX and CentroidY are the mean mask pixel coordinates
	CentroidX float64
	CentroidY float64
	// PixelCount is the number of mask pixels
	PixelCount int
	// Class is the feature class
	Class Class
	// Confidence is the detection confidence in [0,1]
	Confidence float64
	// SurfaceX and SurfaceY are the feature position in the canonical
	// unwrapped body surface coordinate system, normalised to [0,1]
	SurfaceX float64
	SurfaceY float64
	// Descriptor is the fixed length appearance embedding of the feature
	Descriptor []float32
}

// NewCandidate derives bounds, centroid and pixel count from a mask
func NewCandidate(id int64, m *mask.Mask, class Class, confidence float64) Candidate {

	c := Candidate{
		ID:         id,
		Mask:       m,
		Class:      class,
		Confidence: confidence,
	}

	if m == nil {
		return c
	}

	c.Bounds = m.Bounds()
	c.PixelCount = m.Count()
	c.CentroidX, c.CentroidY, _ = m.Centroid()

	return c
}

// WithSurface returns a copy of the candidate placed at canonical surface
// coordinate (x,y) with the given appearance descriptor
func (c Candidate) WithSurface(x, y float64, descriptor []float32) Candidate {
	c.SurfaceX = x
	c.SurfaceY = y
	c.Descriptor = descriptor
	return c
}

// Detection is an instance segmentation result as emitted by YOLO style
// segmentation post processing
type Detection struct {
	// Box is the detection bounding box in pixels
	Box image.Rectangle
	// Class is the model class index
	Class int
	// Probability is the detection confidence
	Probability float32
	// ID is the unique detection id
	ID int64
}

// CandidatesFromSegments converts detections and the combined instance mask
// into candidates.  The instance mask holds the 1-based index of the
// detection covering each pixel.  Detections whose mask is empty are
// skipped.
func CandidatesFromSegments(dets []Detection, segMask []uint8, width, height int,
	classes ClassMap) []Candidate {

	var cands []Candidate

	for i, det := range dets {

		// instance masks only address 255 objects
		if i >= 255 {
			break
		}

		m := mask.FromSegment(segMask, width, height, uint8(i+1))

		if m.Empty() {
			continue
		}

		cands = append(cands, NewCandidate(det.ID, m, classes.Class(det.Class),
			float64(det.Probability)))
	}

	return cands
}
