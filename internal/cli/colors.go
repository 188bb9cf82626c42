package cli

import "github.com/charmbracelet/lipgloss"

// Seven-segment meter palette, shared by the styled help, printers and the
// detect progress view
var (
	// Unlit to half-lit segment
	SegmentOff  = lipgloss.Color("#3A1010")
	SegmentDark = lipgloss.Color("#6B1A1A")
	SegmentDim  = lipgloss.Color("#A02323")

	// Lit segment, dim to bright
	SegmentRed    = lipgloss.Color("#D3302F") // Meter display red
	SegmentEmber  = lipgloss.Color("#E8552A")
	SegmentOrange = lipgloss.Color("#FF8C00")
	SegmentAmber  = lipgloss.Color("#FFB000")
	SegmentGlow   = lipgloss.Color("#FFE08A")

	PanelGray = lipgloss.Color("#8A8A8A") // Meter housing, for subtle text
)

// SegmentRamp orders the palette from unlit to fully lit
var SegmentRamp = []lipgloss.Color{
	SegmentOff,
	SegmentDark,
	SegmentDim,
	SegmentRed,
	SegmentEmber,
	SegmentOrange,
	SegmentAmber,
	SegmentGlow,
}
