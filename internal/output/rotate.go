package output

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// NormalizeRotation folds any multiple of 90 degrees into [0,360).
func NormalizeRotation(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, fmt.Errorf("rotation must be a multiple of 90 degrees: %d", degrees)
	}
	return ((degrees % 360) + 360) % 360, nil
}

// Rotate turns img clockwise by degrees, growing the canvas so nothing is
// cropped: a quarter turn swaps width and height. Requested camera rotation
// is undone this way, which is the same as a counter-clockwise rotation by
// the negated angle.
func Rotate(img *image.RGBA, degrees int) (*image.RGBA, error) {
	deg, err := NormalizeRotation(degrees)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	ox, oy := float64(b.Min.X), float64(b.Min.Y)

	// Each matrix maps source coordinates (relative to b.Min) onto the
	// destination canvas. Pixel centres land on pixel centres, so nearest
	// neighbour sampling reproduces the source exactly.
	var dst *image.RGBA
	var m f64.Aff3
	switch deg {
	case 0:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst, nil
	case 90:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		m = f64.Aff3{
			0, -1, h + oy,
			1, 0, -ox,
		}
	case 180:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		m = f64.Aff3{
			-1, 0, w + ox,
			0, -1, h + oy,
		}
	case 270:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		m = f64.Aff3{
			0, 1, -oy,
			-1, 0, w + ox,
		}
	}

	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst, nil
}
