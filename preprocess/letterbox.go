package preprocess

import (
	"image"
	"math"

	"github.com/skinmetric/go-lesion/mask"
)

// Letterbox is the geometry of an aspect preserving resize of a source image
// into a destination of fixed size, padded equally on both sides
type Letterbox struct {
	SrcWidth   int
	SrcHeight  int
	DestWidth  int
	DestHeight int
	// Scale is the factor applied to the source
	Scale float64
	// XPad and YPad are the left and top padding in destination pixels
	XPad int
	YPad int
	// ResizeW and ResizeH are the scaled source dimensions
	ResizeW int
	ResizeH int
}

// NewLetterbox calculates the scaling factors and padding for source and
// destination sizes
func NewLetterbox(srcWidth, srcHeight, destWidth, destHeight int) Letterbox {

	l := Letterbox{
		SrcWidth:   srcWidth,
		SrcHeight:  srcHeight,
		DestWidth:  destWidth,
		DestHeight: destHeight,
		ResizeW:    destWidth,
		ResizeH:    destHeight,
	}

	if srcWidth <= 0 || srcHeight <= 0 {
		return l
	}

	scaleW := float64(destWidth) / float64(srcWidth)
	scaleH := float64(destHeight) / float64(srcHeight)
	l.Scale = scaleH

	if scaleW < scaleH {
		l.Scale = scaleW
		l.ResizeH = int(float64(srcHeight) * l.Scale)
	} else {
		l.ResizeW = int(float64(srcWidth) * l.Scale)
	}

	l.YPad = (destHeight - l.ResizeH) / 2 // padding height / 2
	l.XPad = (destWidth - l.ResizeW) / 2  // padding width / 2

	return l
}

// ToSource maps a destination coordinate to the source image
func (l Letterbox) ToSource(x, y float64) (float64, float64) {

	if l.Scale == 0 {
		return 0, 0
	}

	return (x - float64(l.XPad)) / l.Scale, (y - float64(l.YPad)) / l.Scale
}

// ToDest maps a source coordinate into the destination image
func (l Letterbox) ToDest(x, y float64) (float64, float64) {
	return x*l.Scale + float64(l.XPad), y*l.Scale + float64(l.YPad)
}

// BoxToSource maps a destination rectangle to the source image, clipped to
// the source bounds
func (l Letterbox) BoxToSource(r image.Rectangle) image.Rectangle {

	x0, y0 := l.ToSource(float64(r.Min.X), float64(r.Min.Y))
	x1, y1 := l.ToSource(float64(r.Max.X), float64(r.Max.Y))

	box := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)))

	return box.Intersect(image.Rect(0, 0, l.SrcWidth, l.SrcHeight))
}

// SegmentToSource maps an instance segment mask of destination size back to
// source size with nearest neighbour sampling, dropping the padding
func (l Letterbox) SegmentToSource(seg []uint8) []uint8 {

	out := make([]uint8, l.SrcWidth*l.SrcHeight)

	if len(seg) != l.DestWidth*l.DestHeight || l.Scale == 0 {
		return out
	}

	for y := 0; y < l.SrcHeight; y++ {
		dy := l.destIndex(y, l.YPad, l.DestHeight)

		for x := 0; x < l.SrcWidth; x++ {
			dx := l.destIndex(x, l.XPad, l.DestWidth)
			out[y*l.SrcWidth+x] = seg[dy*l.DestWidth+dx]
		}
	}

	return out
}

// MaskToSource maps a destination sized mask back to source size
func (l Letterbox) MaskToSource(m *mask.Mask) *mask.Mask {

	out := mask.New(l.SrcWidth, l.SrcHeight)

	if !m.Valid() || m.Width != l.DestWidth || m.Height != l.DestHeight || l.Scale == 0 {
		return out
	}

	for y := 0; y < l.SrcHeight; y++ {
		dy := l.destIndex(y, l.YPad, l.DestHeight)

		for x := 0; x < l.SrcWidth; x++ {
			dx := l.destIndex(x, l.XPad, l.DestWidth)
			out.Bits[y*l.SrcWidth+x] = m.Bits[dy*l.DestWidth+dx]
		}
	}

	return out
}

// destIndex returns the destination pixel sampled for source pixel s along
// one axis
func (l Letterbox) destIndex(s, pad, size int) int {

	d := int(math.Floor((float64(s)+0.5)*l.Scale)) + pad

	if d < 0 {
		return 0
	}

	if d >= size {
		return size - 1
	}

	return d
}
