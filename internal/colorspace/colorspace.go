// Package colorspace converts camera YUV samples to RGB and classifies them
// against a reference chrominance point.
package colorspace

import (
	"image/color"
	"math"

	"github.com/linuxmatters/meterdump/internal/config"
)

// YUV is one canonical luma/chroma sample.
type YUV struct {
	Y, U, V uint8
}

// 16.16 fixed-point coefficients for full-range YUV to RGB.
const (
	rv  = 91881    // 1.402 * 65536
	gu  = 22553    // 0.344136 * 65536
	gv  = 46802    // 0.714136 * 65536
	bu  = 116130   // 1.772 * 65536
	rOf = 11760828 // 1.402 * 128 * 65536
	gOf = 8877429  // (0.344136 + 0.714136) * 128 * 65536
	bOf = 14864613 // 1.772 * 128 * 65536
)

// ToRGB converts a sample to an opaque RGB colour using integer arithmetic
// only. Sums are shifted before clamping; the shift is arithmetic so
// negative intermediates clamp to 0.
func ToRGB(s YUV) color.RGBA {
	y1 := int32(s.Y) << 16
	u := int32(s.U)
	v := int32(s.V)

	r := (y1 + rv*v - rOf) >> 16
	g := (y1 - gu*u - gv*v + gOf) >> 16
	b := (y1 + bu*u - bOf) >> 16

	return color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: 255}
}

func clamp(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Classifier decides whether a sample belongs to the reference colour
// cluster.
type Classifier struct {
	blue      int
	red       int
	luma      int
	distSqMax int
}

// NewClassifier builds a classifier from thresholds already scaled to the
// pixel range.
func NewClassifier(s config.Scaled) Classifier {
	return Classifier{
		blue:      s.BlueProjection,
		red:       s.RedProjection,
		luma:      s.Luma,
		distSqMax: s.DistanceSquared,
	}
}

// DistanceSquared returns the squared chrominance distance of a sample from
// the reference point.
func (c Classifier) DistanceSquared(s YUV) int {
	diffU := c.blue - int(s.U)
	diffV := c.red - int(s.V)
	return diffU*diffU + diffV*diffV
}

// Match reports whether a sample is bright enough and close enough to the
// reference point. A distance equal to the threshold matches.
func (c Classifier) Match(s YUV) bool {
	return int(s.Y) >= c.luma && c.DistanceSquared(s) <= c.distSqMax
}

// Classify returns the cluster decision and the chrominance distance as an
// 8-bit gray level (rounded half away from zero, saturating at 255).
func (c Classifier) Classify(s YUV) (bool, uint8) {
	d := c.DistanceSquared(s)
	in := int(s.Y) >= c.luma && d <= c.distSqMax
	return in, Magnitude(d)
}

// Magnitude converts a squared distance to a saturated gray level.
func Magnitude(distanceSquared int) uint8 {
	m := math.Round(math.Sqrt(float64(distanceSquared)))
	if m > 255 {
		return 255
	}
	return uint8(m)
}
