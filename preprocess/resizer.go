package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Resizer letterboxes color images to the input size of the external
// segmentation model and keeps the geometry needed to map its masks back
type Resizer struct {
	Letterbox
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for the segmentation model input
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		Letterbox: NewLetterbox(srcWidth, srcHeight, destWidth, destHeight),
		tempMat:   gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the model input dimensions
// whilst maintaining image aspect.  Color is that used for letter box
// padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.ResizeW, r.ResizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.YPad, r.DestHeight-r.ResizeH-r.YPad,
		r.XPad, r.DestWidth-r.ResizeW-r.XPad, gocv.BorderConstant, color)
}
