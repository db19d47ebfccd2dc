// Package geometry converts signature boxes between the zoomed,
// top-left-origin display canvas and unscaled PDF user space
// (bottom-left origin, points).
package geometry

import (
	"errors"
	"math"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Box is an axis-aligned rectangle. Origin convention depends on the
// space it lives in: bottom-left for both display (after FlipY) and
// PDF user space.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FlipY converts a top-left-origin canvas Y into a bottom-left-origin
// one for a box of the given height. Callers flip at capture time,
// before any scaling.
func FlipY(topY, boxHeight, canvasHeight float64) float64 {
	return canvasHeight - topY - boxHeight
}

// ToPageSpace maps a display-space box onto the PDF page. The ratio is
// derived from the actual rendered canvas height against the true page
// height, never from a nominal zoom factor, so device pixel rounding
// cannot introduce drift. The caller must pass Y already flipped via
// FlipY. X and Y are clamped at zero; a box may extend past the page
// edge on the far side.
func ToPageSpace(b Box, canvasHeight, pageHeight float64) (Box, error) {
	ratio, err := scaleRatio(pageHeight, canvasHeight)
	if err != nil {
		return Box{}, err
	}
	out := Box{
		X:      math.Max(0, b.X*ratio),
		Y:      math.Max(0, b.Y*ratio),
		Width:  b.Width * ratio,
		Height: b.Height * ratio,
	}
	return out, nil
}

// ToCanvasSpace is the exact inverse of ToPageSpace, used when a stored
// placement has to be re-rendered onto a canvas. No clamping.
func ToCanvasSpace(b Box, canvasHeight, pageHeight float64) (Box, error) {
	ratio, err := scaleRatio(canvasHeight, pageHeight)
	if err != nil {
		return Box{}, err
	}
	return Box{
		X:      b.X * ratio,
		Y:      b.Y * ratio,
		Width:  b.Width * ratio,
		Height: b.Height * ratio,
	}, nil
}

func scaleRatio(num, den float64) (float64, error) {
	if den <= 0 || num <= 0 {
		return 0, ErrInvalidGeometry
	}
	ratio := num / den
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, ErrInvalidGeometry
	}
	return ratio, nil
}
