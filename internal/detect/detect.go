// Package detect measures how much of a detection window is lit by the
// reference colour and turns a series of measurements into trigger events.
package detect

import (
	"image"
	"math"
	"time"

	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/config"
	"github.com/linuxmatters/meterdump/internal/source"
)

// PreferredResolution is the pixel count the sampling grid is tuned for.
// Larger frames are sampled sparsely so the cost stays roughly constant.
const PreferredResolution = 320 * 240 * 4

// WindowFor locates the detection band within a w x h frame. The band runs
// across the displayed image, so it is horizontal in sensor coordinates for
// rotations 0 and 180 and vertical for 90 and 270. Rotations 180 and 270
// measure the offset from the opposite edge.
func WindowFor(w, h, rotation int, win config.Window) image.Rectangle {
	var r image.Rectangle
	if rotation%180 == 0 {
		r.Min.X, r.Max.X = 0, w
		if rotation == 0 {
			r.Min.Y = h * win.Offset / 100
			r.Max.Y = r.Min.Y + h*win.Height/100
		} else {
			r.Max.Y = h * (100 - win.Offset) / 100
			r.Min.Y = r.Max.Y - h*win.Height/100
		}
	} else {
		r.Min.Y, r.Max.Y = 0, h
		if rotation == 90 {
			r.Min.X = w * win.Offset / 100
			r.Max.X = r.Min.X + w*win.Height/100
		} else {
			r.Max.X = w * (100 - win.Offset) / 100
			r.Min.X = r.Max.X - w*win.Height/100
		}
	}
	return r.Intersect(image.Rect(0, 0, w, h))
}

// Feed is the sampling step for a w x h frame. It is always even so every
// sample hits a fresh chroma cell.
func Feed(w, h int) int {
	feed := int(math.Sqrt(float64(w*h) / float64(PreferredResolution)))
	return 2 * max(1, feed)
}

// Fill returns the percentage (0-100) of the window lit by the reference
// colour. Samples are taken every Feed pixels and each match stands for a
// Feed x Feed block.
func Fill(src source.Source, cls colorspace.Classifier, window image.Rectangle) int {
	area := window.Dx() * window.Dy()
	if area <= 0 {
		return 0
	}

	w, h := src.Size()
	feed := Feed(w, h)

	count := 0
	for y := window.Min.Y; y < window.Max.Y; y += feed {
		for x := window.Min.X; x < window.Max.X; x += feed {
			if cls.Match(src.Sample(x, y)) {
				count += feed * feed
			}
		}
	}
	return 100 * count / area
}

// Trigger fires once per lit period. After firing it stays disarmed until
// the fill has stayed below min(Fill, ResetFill) for longer than ResetTime.
type Trigger struct {
	cfg        config.Trigger
	armed      bool
	resetSince time.Duration
}

// NewTrigger starts disarmed with the reset timer running from zero.
func NewTrigger(cfg config.Trigger) *Trigger {
	return &Trigger{cfg: cfg}
}

// Armed reports whether the next high fill will fire.
func (t *Trigger) Armed() bool {
	return t.armed
}

// Update feeds one measurement taken at monotonic time now and reports
// whether it fired.
func (t *Trigger) Update(fill int, now time.Duration) bool {
	if fill >= min(t.cfg.Fill, t.cfg.ResetFill) {
		t.resetSince = now
	} else if now-t.resetSince > t.cfg.ResetTime {
		t.armed = true
	}

	if t.armed && fill >= t.cfg.Fill {
		t.armed = false
		return true
	}
	return false
}
