package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/skinmetric/go-lesion/depth"
)

// MatToImage converts a BGR Mat to an RGBA image
func MatToImage(mat gocv.Mat) (*image.RGBA, error) {

	img, err := mat.ToImage()

	if err != nil {
		return nil, fmt.Errorf("error converting mat to image: %w", err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	return AlignColor(img, img.Bounds().Dx(), img.Bounds().Dy()), nil
}

// DepthFromMat converts a single channel depth Mat to raw depth.  CV32F Mats
// hold meters and CV16U Mats hold millimeters, as written by most depth
// camera SDKs.
func DepthFromMat(mat gocv.Mat) (*depth.Raw, error) {

	if mat.Empty() {
		return nil, fmt.Errorf("depth mat is empty")
	}

	w, h := mat.Cols(), mat.Rows()

	if !mat.IsContinuous() {
		cont := mat.Clone()
		defer cont.Close()
		mat = cont
	}

	switch mat.Type() {
	case gocv.MatTypeCV32FC1:
		data, err := mat.DataPtrFloat32()

		if err != nil {
			return nil, fmt.Errorf("error reading depth mat: %w", err)
		}

		raw := depth.NewRaw(w, h)
		copy(raw.Meters, data)

		return raw, nil

	case gocv.MatTypeCV16UC1:
		data, err := mat.DataPtrUint16()

		if err != nil {
			return nil, fmt.Errorf("error reading depth mat: %w", err)
		}

		return depth.RawFromMillimeters(data, w, h)

	default:
		return nil, fmt.Errorf("unsupported depth mat type %v", mat.Type())
	}
}

// ReadDepth loads a 16 bit millimeter depth PNG or a float EXR/TIFF depth
// image from file
func ReadDepth(file string) (*depth.Raw, error) {

	mat := gocv.IMRead(file, gocv.IMReadUnchanged)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("error reading depth image %s", file)
	}

	return DepthFromMat(mat)
}
