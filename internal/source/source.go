// Package source adapts decoded camera frames to a single per-pixel sample
// capability so the pixel pipeline is written once for every input format.
package source

import (
	"fmt"
	"image"
	"io"
	"os"

	// Packed frames may arrive in any of these containers.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/dump"
)

// Source supplies canonical YUV samples for every coordinate in
// [0,width)x[0,height). Sample must be O(1) and free of side effects; it is
// called concurrently from several goroutines.
type Source interface {
	Size() (width, height int)
	Sample(x, y int) colorspace.YUV
	// Name is the raster name used for the false-colour rendering of the
	// raw channels.
	Name() string
}

// Planar reads samples from a YUV_420_888 dump. Chroma is subsampled 2x2.
type Planar struct {
	d *dump.Dump
}

// NewPlanar wraps a validated dump.
func NewPlanar(d *dump.Dump) *Planar {
	return &Planar{d: d}
}

func (p *Planar) Size() (int, int) {
	return p.d.Width, p.d.Height
}

func (p *Planar) Sample(x, y int) colorspace.YUV {
	return colorspace.YUV{
		Y: p.d.Y.At(x, y),
		U: p.d.U.At(x/2, y/2),
		V: p.d.V.At(x/2, y/2),
	}
}

func (p *Planar) Name() string {
	return "yuv"
}

// Packed reads samples from an RGB image whose stored channels are really
// (V, Y, U).
type Packed struct {
	img    image.Image
	rgba   *image.RGBA
	nrgba  *image.NRGBA
	bounds image.Rectangle
}

// NewPacked wraps an image. RGBA and NRGBA images are read directly from
// their pixel buffers; anything else goes through At.
func NewPacked(img image.Image) *Packed {
	p := &Packed{img: img, bounds: img.Bounds()}
	switch im := img.(type) {
	case *image.RGBA:
		p.rgba = im
	case *image.NRGBA:
		p.nrgba = im
	}
	return p
}

func (p *Packed) Size() (int, int) {
	return p.bounds.Dx(), p.bounds.Dy()
}

func (p *Packed) Sample(x, y int) colorspace.YUV {
	px, py := p.bounds.Min.X+x, p.bounds.Min.Y+y

	var v, luma, u uint8
	switch {
	case p.rgba != nil:
		i := p.rgba.PixOffset(px, py)
		v, luma, u = p.rgba.Pix[i], p.rgba.Pix[i+1], p.rgba.Pix[i+2]
	case p.nrgba != nil:
		i := p.nrgba.PixOffset(px, py)
		v, luma, u = p.nrgba.Pix[i], p.nrgba.Pix[i+1], p.nrgba.Pix[i+2]
	default:
		r, g, b, _ := p.img.At(px, py).RGBA()
		v, luma, u = uint8(r>>8), uint8(g>>8), uint8(b>>8)
	}
	return colorspace.YUV{Y: luma, U: u, V: v}
}

func (p *Packed) Name() string {
	return "vyu"
}

// DecodePacked decodes any registered image container as a packed VYU frame.
func DecodePacked(r io.Reader) (*Packed, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty %s image", format)
	}
	return NewPacked(img), nil
}

// OpenPacked decodes a packed VYU frame from a file.
func OpenPacked(path string) (*Packed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := DecodePacked(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// OpenPlanar reads a dump file and wraps it as a planar source.
func OpenPlanar(path string) (*Planar, error) {
	d, err := dump.Open(path)
	if err != nil {
		return nil, err
	}
	return NewPlanar(d), nil
}

// Open loads path as a packed image when packed is set, otherwise as a
// planar dump.
func Open(path string, packed bool) (Source, error) {
	if packed {
		p, err := OpenPacked(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := OpenPlanar(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ToDump samples src into a tightly packed planar dump. Each chroma sample
// is taken from the top-left pixel of its 2x2 block.
func ToDump(src Source) *dump.Dump {
	w, h := src.Size()
	d := dump.NewI420(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := src.Sample(x, y)
			d.Y.Set(x, y, s.Y)
			if x%2 == 0 && y%2 == 0 {
				d.U.Set(x/2, y/2, s.U)
				d.V.Set(x/2, y/2, s.V)
			}
		}
	}
	return d
}
