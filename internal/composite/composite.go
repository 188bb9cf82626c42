// Package composite runs the per-pixel pass that fills the four diagnostic
// rasters from a frame source.
package composite

import (
	"image"
	"runtime"
	"sync"

	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/source"
)

// Raster names, in output order after the source raster.
const (
	NameColor = "color"
	NameDist  = "dist"
	NameMask  = "mask"
)

// Rasters holds the four outputs of one pass. Every raster has the frame's
// dimensions. Pixels outside the colour cluster stay opaque black in Mask.
type Rasters struct {
	SourceName string
	Source     *image.RGBA // raw channels as false colour: R=V, G=Y, B=U
	Color      *image.RGBA
	Dist       *image.RGBA // chrominance distance as gray
	Mask       *image.RGBA
}

// Named pairs a raster with its output name.
type Named struct {
	Name  string
	Image *image.RGBA
}

// Named returns the rasters in their fixed output order.
func (r *Rasters) Named() []Named {
	return []Named{
		{r.SourceName, r.Source},
		{NameColor, r.Color},
		{NameDist, r.Dist},
		{NameMask, r.Mask},
	}
}

// Stats summarises a pass.
type Stats struct {
	Pixels    int
	InCluster int
}

// Options tunes the pass.
type Options struct {
	// Workers is the number of row bands processed in parallel.
	// Zero uses one per CPU.
	Workers int
}

// newBlack allocates an opaque black raster.
func newBlack(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// Run converts and classifies every pixel of src. Rows are split into
// disjoint bands, one goroutine each; no pixel reads another pixel's
// result so the bands need no synchronisation beyond the final join.
func Run(src source.Source, cls colorspace.Classifier, opts Options) (*Rasters, Stats) {
	width, height := src.Size()

	r := &Rasters{
		SourceName: src.Name(),
		Source:     newBlack(width, height),
		Color:      newBlack(width, height),
		Dist:       newBlack(width, height),
		Mask:       newBlack(width, height),
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}
	if workers < 1 {
		return r, Stats{}
	}
	rowsPerWorker := height / workers

	counts := make([]int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	for worker := 0; worker < workers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if worker == workers-1 {
			endY = height
		}

		go func(worker, startY, endY int) {
			defer wg.Done()
			counts[worker] = r.fillRows(src, cls, width, startY, endY)
		}(worker, startY, endY)
	}

	wg.Wait()

	stats := Stats{Pixels: width * height}
	for _, c := range counts {
		stats.InCluster += c
	}
	return r, stats
}

// fillRows processes rows [startY, endY) and returns how many pixels
// matched the cluster.
func (r *Rasters) fillRows(src source.Source, cls colorspace.Classifier, width, startY, endY int) int {
	matched := 0
	for y := startY; y < endY; y++ {
		i := r.Source.PixOffset(0, y)
		for x := 0; x < width; x++ {
			s := src.Sample(x, y)

			r.Source.Pix[i] = s.V
			r.Source.Pix[i+1] = s.Y
			r.Source.Pix[i+2] = s.U

			rgb := colorspace.ToRGB(s)
			r.Color.Pix[i] = rgb.R
			r.Color.Pix[i+1] = rgb.G
			r.Color.Pix[i+2] = rgb.B

			in, dist := cls.Classify(s)
			r.Dist.Pix[i] = dist
			r.Dist.Pix[i+1] = dist
			r.Dist.Pix[i+2] = dist

			if in {
				r.Mask.Pix[i] = rgb.R
				r.Mask.Pix[i+1] = rgb.G
				r.Mask.Pix[i+2] = rgb.B
				matched++
			}

			i += 4
		}
	}
	return matched
}
