// Package dump reads and writes the planar YUV_420_888 camera dump format:
// a key:value text header followed by the raw y, u and v plane buffers.
package dump

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// FormatYUV420888 is the only format tag the camera writes.
const FormatYUV420888 = "YUV_420_888"

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Plane is one image plane with its addressing strides.
type Plane struct {
	RowStride   int
	PixelStride int
	Data        []byte
}

// At returns the byte at plane coordinates (x, y).
func (p *Plane) At(x, y int) byte {
	return p.Data[y*p.RowStride+x*p.PixelStride]
}

// Set stores v at plane coordinates (x, y).
func (p *Plane) Set(x, y int, v byte) {
	p.Data[y*p.RowStride+x*p.PixelStride] = v
}

// lastIndex is the largest buffer index a w*h lookup can touch. ok is
// false when the index does not fit in an int.
func (p *Plane) lastIndex(w, h int) (last int, ok bool) {
	rows, ok := mulNonNeg(h-1, p.RowStride)
	if !ok {
		return 0, false
	}
	cols, ok := mulNonNeg(w-1, p.PixelStride)
	if !ok || rows > math.MaxInt-cols {
		return 0, false
	}
	return rows + cols, true
}

// mulNonNeg multiplies two non-negative ints, reporting overflow.
func mulNonNeg(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// Dump is a decoded camera frame. U and V are subsampled 2x2.
type Dump struct {
	Format string
	Width  int
	Height int
	Y      Plane
	U      Plane
	V      Plane
}

// NewI420 allocates a tightly packed dump of the given size with all
// planes zeroed.
func NewI420(width, height int) *Dump {
	cw, ch := (width+1)/2, (height+1)/2
	return &Dump{
		Format: FormatYUV420888,
		Width:  width,
		Height: height,
		Y:      Plane{RowStride: width, PixelStride: 1, Data: make([]byte, width*height)},
		U:      Plane{RowStride: cw, PixelStride: 1, Data: make([]byte, cw*ch)},
		V:      Plane{RowStride: cw, PixelStride: 1, Data: make([]byte, cw*ch)},
	}
}

// FormatError reports a malformed dump. No raster is produced from a dump
// that fails to parse.
type FormatError struct {
	Key    string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Key == "" {
		return "dump: " + e.Reason
	}
	return fmt.Sprintf("dump: %s: %s", e.Key, e.Reason)
}

// headerKeys returns the header keys in the exact order they must appear.
func headerKeys() []string {
	keys := []string{"format", "width", "height"}
	for _, ch := range []string{"y", "u", "v"} {
		keys = append(keys, ch+"_row_stride", ch+"_pixel_stride", ch+"_length")
	}
	return keys
}

// Open reads a dump from a file, decompressing zstd input transparently.
func Open(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Read parses a dump from r. A stream starting with the zstd magic is
// decompressed first.
func Read(r io.Reader) (*Dump, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(len(zstdMagic))
	if err == nil && bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		return parse(bufio.NewReader(zr))
	}

	return parse(br)
}

func parse(br *bufio.Reader) (*Dump, error) {
	values := make(map[string]int, 12)
	d := &Dump{}

	for _, key := range headerKeys() {
		line, err := br.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, &FormatError{Key: key, Reason: "truncated header"}
			}
			return nil, fmt.Errorf("failed to read header: %w", err)
		}

		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &FormatError{Key: key, Reason: fmt.Sprintf("malformed header line %q", line)}
		}
		v = strings.TrimSuffix(v, "\n")
		if k != key {
			return nil, &FormatError{Key: key, Reason: fmt.Sprintf("unexpected key: %q", k)}
		}

		if key == "format" {
			if v != FormatYUV420888 {
				return nil, &FormatError{Key: key, Reason: fmt.Sprintf("unsupported format: %q", v)}
			}
			d.Format = v
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &FormatError{Key: key, Reason: fmt.Sprintf("invalid integer: %q", v)}
		}
		values[key] = n
	}

	d.Width = values["width"]
	d.Height = values["height"]
	if d.Width <= 0 || d.Height <= 0 {
		return nil, &FormatError{Reason: fmt.Sprintf("invalid dimensions %dx%d", d.Width, d.Height)}
	}

	planes := []struct {
		name  string
		plane *Plane
	}{
		{"y", &d.Y},
		{"u", &d.U},
		{"v", &d.V},
	}
	for _, p := range planes {
		length := values[p.name+"_length"]
		if length < 0 {
			return nil, &FormatError{Key: p.name + "_length", Reason: fmt.Sprintf("negative length %d", length)}
		}
		p.plane.RowStride = values[p.name+"_row_stride"]
		p.plane.PixelStride = values[p.name+"_pixel_stride"]

		// Grows only with the bytes actually present
		var buf bytes.Buffer
		n, err := io.CopyN(&buf, br, int64(length))
		if err != nil {
			if err == io.EOF {
				return nil, &FormatError{Key: p.name + "_buffer", Reason: fmt.Sprintf("truncated buffer, want %d bytes, got %d", length, n)}
			}
			return nil, fmt.Errorf("failed to read %s buffer: %w", p.name, err)
		}
		p.plane.Data = buf.Bytes()
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks every lookup a full pixel pass performs stays inside its
// plane buffer.
func (d *Dump) Validate() error {
	cw, ch := (d.Width+1)/2, (d.Height+1)/2
	planes := []struct {
		name string
		p    *Plane
		w, h int
	}{
		{"y", &d.Y, d.Width, d.Height},
		{"u", &d.U, cw, ch},
		{"v", &d.V, cw, ch},
	}
	for _, pl := range planes {
		if pl.p.RowStride < 0 || pl.p.PixelStride < 0 {
			return &FormatError{Key: pl.name, Reason: "negative stride"}
		}
		last, ok := pl.p.lastIndex(pl.w, pl.h)
		if !ok {
			return &FormatError{Key: pl.name, Reason: "stride out of range"}
		}
		if last >= len(pl.p.Data) {
			return &FormatError{
				Key:    pl.name + "_length",
				Reason: fmt.Sprintf("plane too short for %dx%d: need %d bytes, have %d", pl.w, pl.h, last+1, len(pl.p.Data)),
			}
		}
	}
	return nil
}

// Encode writes d in dump format: the ordered header, then the y, u and v
// buffers back to back.
func Encode(w io.Writer, d *Dump) error {
	bw := bufio.NewWriter(w)

	format := d.Format
	if format == "" {
		format = FormatYUV420888
	}
	fmt.Fprintf(bw, "format:%s\n", format)
	fmt.Fprintf(bw, "width:%d\n", d.Width)
	fmt.Fprintf(bw, "height:%d\n", d.Height)
	for _, p := range []struct {
		name  string
		plane *Plane
	}{{"y", &d.Y}, {"u", &d.U}, {"v", &d.V}} {
		fmt.Fprintf(bw, "%s_row_stride:%d\n", p.name, p.plane.RowStride)
		fmt.Fprintf(bw, "%s_pixel_stride:%d\n", p.name, p.plane.PixelStride)
		fmt.Fprintf(bw, "%s_length:%d\n", p.name, len(p.plane.Data))
	}
	for _, data := range [][]byte{d.Y.Data, d.U.Data, d.V.Data} {
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeZstd writes d in dump format wrapped in a zstd stream.
func EncodeZstd(w io.Writer, d *Dump) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := Encode(zw, d); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
