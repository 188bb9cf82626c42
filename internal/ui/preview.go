package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds configuration for the raster preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a sensible default preview size
// 64x24 cells; terminal cells are roughly twice as tall as wide, which suits
// the 4:3 camera frames
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  64,
		Height: 24,
	}
}

// DownsampleFrame takes a full-resolution raster and downsamples it to preview size
// Each terminal cell represents a rectangular region of the source image
// Averages all pixels in each region; rasters smaller than the preview
// repeat pixels instead
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	preview := make([][]color.RGBA, config.Height)
	for row := 0; row < config.Height; row++ {
		preview[row] = make([]color.RGBA, config.Width)

		// Region of the source image this row of cells represents
		y0 := row * srcHeight / config.Height
		y1 := max(y0+1, (row+1)*srcHeight/config.Height)

		for col := 0; col < config.Width; col++ {
			x0 := col * srcWidth / config.Width
			x1 := max(x0+1, (col+1)*srcWidth/config.Width)

			// Average all pixels in this cell region for better quality
			var sumR, sumG, sumB uint32
			pixelCount := uint32(0)

			for y := y0; y < y1 && y < srcHeight; y++ {
				for x := x0; x < x1 && x < srcWidth; x++ {
					c := frame.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
					sumR += uint32(c.R)
					sumG += uint32(c.G)
					sumB += uint32(c.B)
					pixelCount++
				}
			}

			if pixelCount > 0 {
				preview[row][col] = color.RGBA{
					R: uint8(sumR / pixelCount),
					G: uint8(sumG / pixelCount),
					B: uint8(sumB / pixelCount),
					A: 255,
				}
			}
		}
	}

	return preview
}

// RenderPreview converts an RGB preview grid to a string representation
// using ANSI 24-bit true color escape codes
func RenderPreview(title string, preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	// Format: \x1b[48;2;R;G;Bm for background color, space character as pixel, \x1b[0m to reset
	var result strings.Builder

	// Top border
	result.WriteString("  " + title + ":\n")
	result.WriteString("  ┌" + strings.Repeat("─", len(preview[0])) + "┐\n")

	for _, row := range preview {
		result.WriteString("  │")
		for _, pixel := range row {
			fmt.Fprintf(&result, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		result.WriteString("│\n")
	}

	// Bottom border
	result.WriteString("  └" + strings.Repeat("─", len(preview[0])) + "┘\n")

	return result.String()
}

// Preview downsamples a raster to cols x rows cells and renders it
func Preview(title string, img *image.RGBA, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	return RenderPreview(title, DownsampleFrame(img, PreviewConfig{Width: cols, Height: rows}))
}
