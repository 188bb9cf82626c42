package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/dump"
)

func TestPlanarSubsampling(t *testing.T) {
	d := dump.NewI420(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			d.Y.Set(x, y, byte(y*4+x))
		}
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			d.U.Set(x, y, byte(100+y*2+x))
			d.V.Set(x, y, byte(200+y*2+x))
		}
	}
	src := NewPlanar(d)

	if w, h := src.Size(); w != 4 || h != 4 {
		t.Fatalf("Size() = %dx%d, want 4x4", w, h)
	}
	if src.Name() != "yuv" {
		t.Errorf("Name() = %q, want %q", src.Name(), "yuv")
	}

	testCases := []struct {
		x, y int
		want colorspace.YUV
	}{
		{0, 0, colorspace.YUV{Y: 0, U: 100, V: 200}},
		{1, 1, colorspace.YUV{Y: 5, U: 100, V: 200}},
		{2, 0, colorspace.YUV{Y: 2, U: 101, V: 201}},
		{3, 3, colorspace.YUV{Y: 15, U: 103, V: 203}},
		{0, 2, colorspace.YUV{Y: 8, U: 102, V: 202}},
	}
	for _, tc := range testCases {
		if got := src.Sample(tc.x, tc.y); got != tc.want {
			t.Errorf("Sample(%d,%d) = %+v, want %+v", tc.x, tc.y, got, tc.want)
		}
	}
}

// TestPackedChannelOrder checks stored (R,G,B) is read as (V,Y,U) for each
// image representation.
func TestPackedChannelOrder(t *testing.T) {
	want := colorspace.YUV{Y: 20, U: 30, V: 10}
	stored := color.NRGBA{R: 10, G: 20, B: 30, A: 255}

	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(1, 0, stored)
	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	nrgba.Set(1, 0, stored)
	paletted := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, stored})
	paletted.SetColorIndex(1, 0, 1)

	for name, img := range map[string]image.Image{
		"rgba":     rgba,
		"nrgba":    nrgba,
		"paletted": paletted,
	} {
		t.Run(name, func(t *testing.T) {
			src := NewPacked(img)
			if got := src.Sample(1, 0); got != want {
				t.Errorf("Sample(1,0) = %+v, want %+v", got, want)
			}
			if src.Name() != "vyu" {
				t.Errorf("Name() = %q, want %q", src.Name(), "vyu")
			}
		})
	}
}

// TestPackedOffsetBounds checks coordinates are relative to the image origin.
func TestPackedOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 12, 22))
	img.Set(10, 20, color.RGBA{1, 2, 3, 255})

	src := NewPacked(img)
	if w, h := src.Size(); w != 2 || h != 2 {
		t.Fatalf("Size() = %dx%d, want 2x2", w, h)
	}
	if got := src.Sample(0, 0); got != (colorspace.YUV{Y: 2, U: 3, V: 1}) {
		t.Errorf("Sample(0,0) = %+v, want {Y:2 U:3 V:1}", got)
	}
}

func TestDecodePackedPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.NRGBA{R: 211, G: 100, B: 102, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	src, err := DecodePacked(&buf)
	if err != nil {
		t.Fatalf("DecodePacked failed: %v", err)
	}
	if got := src.Sample(2, 1); got != (colorspace.YUV{Y: 100, U: 102, V: 211}) {
		t.Errorf("Sample(2,1) = %+v, want {Y:100 U:102 V:211}", got)
	}
}

func TestDecodePackedRejectsGarbage(t *testing.T) {
	if _, err := DecodePacked(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	dumpPath := filepath.Join(dir, "frame.dump")
	f, err := os.Create(dumpPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := dump.Encode(f, dump.NewI420(2, 2)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := Open(dumpPath, false)
	if err != nil {
		t.Fatalf("Open(planar) failed: %v", err)
	}
	if _, ok := src.(*Planar); !ok {
		t.Errorf("Open(planar) returned %T, want *Planar", src)
	}

	src, err = Open(dumpPath, true)
	if err == nil {
		t.Fatal("Open(packed) of a dump should fail to decode")
	}
	if src != nil {
		t.Errorf("Open returned non-nil source %v alongside error", src)
	}
}

func TestToDump(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(200 + x), G: uint8(10*y + x), B: uint8(50 + y), A: 255})
		}
	}
	packed := NewPacked(img)

	d := ToDump(packed)
	if err := d.Validate(); err != nil {
		t.Fatalf("converted dump invalid: %v", err)
	}
	planar := NewPlanar(d)
	if w, h := planar.Size(); w != 5 || h != 3 {
		t.Fatalf("size = %dx%d, want 5x3", w, h)
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			got := planar.Sample(x, y)
			want := packed.Sample(x, y)
			block := packed.Sample(x&^1, y&^1)
			if got.Y != want.Y || got.U != block.U || got.V != block.V {
				t.Errorf("(%d,%d) = %+v, want Y %d from pixel and U,V %d,%d from block origin",
					x, y, got, want.Y, block.U, block.V)
			}
		}
	}
}
