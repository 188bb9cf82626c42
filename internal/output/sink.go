// Package output rotates the diagnostic rasters and persists them next to
// the input file.
package output

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/meterdump/internal/composite"
)

// LegendLines describes how the raw channels map onto the false-colour
// source raster.
var LegendLines = []string{
	"R: Red Projection (V)",
	"G: Luma (Y)",
	"B: Blue Projection (U)",
}

// Legend returns the channel mapping as file content.
func Legend() string {
	return strings.Join(LegendLines, "\n") + "\n"
}

// SheetName is the raster name of the optional contact sheet.
const SheetName = "sheet"

// Basename strips the extension from an input path. Output artifacts are
// named <basename>.<raster>.png.
func Basename(input string) string {
	ext := filepath.Ext(input)
	if ext == filepath.Base(input) {
		// Dotfile with no extension
		return input
	}
	return strings.TrimSuffix(input, ext)
}

// Artifact is one file the sink wrote.
type Artifact struct {
	Path   string
	Raster string
	Legend bool
}

// Sink writes a complete raster set.
type Sink struct {
	Base     string // Output path prefix, see Basename
	Rotation int    // Clockwise degrees, multiple of 90
	Sheet    bool   // Also write a labelled 2x2 contact sheet
}

type pending struct {
	Artifact
	data []byte
}

// Write rotates and encodes every raster, then persists them. Nothing is
// left on disk unless every artifact was written: each file is first
// written to a temporary name in the destination directory and only renamed
// into place once all of them succeeded.
func (s Sink) Write(r *composite.Rasters) ([]Artifact, error) {
	var files []pending
	var rotated []composite.Named

	for _, n := range r.Named() {
		img, err := Rotate(n.Image, s.Rotation)
		if err != nil {
			return nil, err
		}
		rotated = append(rotated, composite.Named{Name: n.Name, Image: img})

		data, err := encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s raster: %w", n.Name, err)
		}
		files = append(files, pending{
			Artifact: Artifact{Path: s.path(n.Name, "png"), Raster: n.Name},
			data:     data,
		})

		if n.Name == r.SourceName {
			files = append(files, pending{
				Artifact: Artifact{Path: s.path(n.Name, "txt"), Raster: n.Name, Legend: true},
				data:     []byte(Legend()),
			})
		}
	}

	if s.Sheet {
		sheet, err := ContactSheet(rotated)
		if err != nil {
			return nil, fmt.Errorf("failed to render contact sheet: %w", err)
		}
		data, err := encodePNG(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to encode contact sheet: %w", err)
		}
		files = append(files, pending{
			Artifact: Artifact{Path: s.path(SheetName, "png"), Raster: SheetName},
			data:     data,
		})
	}

	return commit(files)
}

func (s Sink) path(raster, ext string) string {
	return fmt.Sprintf("%s.%s.%s", s.Base, raster, ext)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// commit stages every file under a temporary name, then renames them all.
func commit(files []pending) ([]Artifact, error) {
	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*")
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create %s: %w", f.Path, err)
		}
		temps = append(temps, tmp.Name())

		if err := tmp.Chmod(0o644); err != nil {
			tmp.Close()
			cleanup()
			return nil, fmt.Errorf("failed to create %s: %w", f.Path, err)
		}
		if _, err := tmp.Write(f.data); err != nil {
			tmp.Close()
			cleanup()
			return nil, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}

	artifacts := make([]Artifact, 0, len(files))
	for i, f := range files {
		if err := os.Rename(temps[i], f.Path); err != nil {
			// Roll back what was already renamed into place.
			for _, done := range artifacts {
				os.Remove(done.Path)
			}
			temps = temps[i:]
			cleanup()
			return nil, fmt.Errorf("failed to save %s: %w", f.Path, err)
		}
		artifacts = append(artifacts, f.Artifact)
	}
	return artifacts, nil
}
