package output

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/meterdump/internal/composite"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Contact sheet layout
const (
	sheetColumns  = 2
	sheetGap      = 8  // Pixels between cells and around the edge
	sheetLabelPad = 4  // Padding around label text
	sheetFontSize = 14 // Label size in points at 72 DPI
)

var (
	sheetBackground = color.RGBA{R: 32, G: 32, B: 32, A: 255}
	sheetLabelColor = color.RGBA{R: 248, G: 179, B: 29, A: 255} // #F8B31D
)

var (
	labelFontOnce sync.Once
	labelFont     *truetype.Font
	labelFontErr  error
)

func loadLabelFont() (*truetype.Font, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(goregular.TTF)
	})
	return labelFont, labelFontErr
}

// ContactSheet lays the rasters out on a grid, each captioned with its name.
// Cells are sized to the largest raster so rotated rasters of mixed
// orientation still fit.
func ContactSheet(rasters []composite.Named) (*image.RGBA, error) {
	if len(rasters) == 0 {
		return nil, fmt.Errorf("no rasters")
	}

	parsed, err := loadLabelFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    sheetFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	metrics := face.Metrics()
	labelHeight := (metrics.Ascent + metrics.Descent).Ceil() + 2*sheetLabelPad

	cellW, cellH := 0, 0
	for _, r := range rasters {
		b := r.Image.Bounds()
		cellW = max(cellW, b.Dx())
		cellH = max(cellH, b.Dy())
	}
	cellH += labelHeight

	rows := (len(rasters) + sheetColumns - 1) / sheetColumns
	cols := min(len(rasters), sheetColumns)
	sheet := image.NewRGBA(image.Rect(0, 0,
		cols*cellW+(cols+1)*sheetGap,
		rows*cellH+(rows+1)*sheetGap,
	))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(sheetBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  sheet,
		Src:  image.NewUniform(sheetLabelColor),
		Face: face,
	}

	for i, r := range rasters {
		x := sheetGap + (i%sheetColumns)*(cellW+sheetGap)
		y := sheetGap + (i/sheetColumns)*(cellH+sheetGap)

		d.Dot = freetype.Pt(x+sheetLabelPad, y+sheetLabelPad+metrics.Ascent.Ceil())
		d.DrawString(r.Name)

		b := r.Image.Bounds()
		dst := image.Rect(x, y+labelHeight, x+b.Dx(), y+labelHeight+b.Dy())
		draw.Draw(sheet, dst, r.Image, b.Min, draw.Src)
	}

	return sheet, nil
}
