package render

import (
	"image/color"

	"github.com/skinmetric/go-lesion/feature"
)

var (
	// classColors is the color used to paint each feature class
	classColors = map[feature.Class]color.RGBA{
		feature.ClassUnknown:  {R: 192, G: 192, B: 192, A: 255}, // #C0C0C0
		feature.ClassComedone: {R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		feature.ClassPapule:   {R: 255, G: 56, B: 56, A: 255},   // #FF3838
		feature.ClassPustule:  {R: 207, G: 210, B: 49, A: 255},  // #CFD231
		feature.ClassNodule:   {R: 132, G: 56, B: 255, A: 255},  // #8438FF
		feature.ClassCyst:     {R: 255, G: 55, B: 199, A: 255},  // #FF37C7
		feature.ClassMacule:   {R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		feature.ClassScar:     {R: 26, G: 147, B: 52, A: 255},   // #1A9334
	}

	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green  = color.RGBA{R: 72, G: 249, B: 10, A: 255}
)

// ClassColor returns the overlay color of a feature class
func ClassColor(c feature.Class) color.RGBA {

	if clr, ok := classColors[c]; ok {
		return clr
	}

	return classColors[feature.ClassUnknown]
}
