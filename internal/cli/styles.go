package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Application identity shared by help, banner and version output
const (
	AppTitle       = "Meterdump ⚡"
	AppDescription = "Inspect Elektro Meter camera dumps: convert YUV to RGB and map the lit segment colour."
)

// Color palette
var (
	primaryColor   = SegmentRed
	accentColor    = SegmentOrange
	successColor   = lipgloss.Color("#00AA00") // Green
	mutedColor     = PanelGray
	highlightColor = SegmentGlow
	textColor      = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	// Title style - bold red with bolt emoji
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Subtitle style - muted gray
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Section header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1).
			MarginBottom(1)

	// Success message style
	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// Highlight style for important values
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	// Box style for framed content
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintBanner prints the application banner
func PrintBanner() {
	banner := TitleStyle.Render(AppTitle)
	subtitle := SubtitleStyle.Render(AppDescription)
	fmt.Println(banner)
	fmt.Println(subtitle)
	fmt.Println()
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render(AppTitle))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints an informational message
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println(HeaderStyle.Render(title))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatPercent formats a share of a whole as a percentage
func FormatPercent(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(part)/float64(whole))
}

// PrintBox prints content in a styled box
func PrintBox(content string) {
	fmt.Println(BoxStyle.Render(content))
}

// PrintSaving announces an artifact as it is written. Saving messages go to
// stderr so stdout stays clean for previews.
func PrintSaving(path string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", KeyStyle.Render("Saving"), ValueStyle.Render(path))
}

// PrintLegend prints the channel mapping of the false-colour source raster
func PrintLegend(lines []string) {
	fmt.Fprintf(os.Stderr, "    %s\n", KeyStyle.Render("Channel Mapping:"))
	for _, line := range lines {
		fmt.Fprintf(os.Stderr, "      * %s\n", line)
	}
}

// InspectSummary is the data shown after a dump has been inspected
type InspectSummary struct {
	Input      string
	Width      int
	Height     int
	Rotation   int
	Pixels     int
	InCluster  int
	Thresholds string
	Elapsed    time.Duration
}

// PrintInspectSummary prints a summary of an inspect run in a box
func PrintInspectSummary(s InspectSummary) {
	var b strings.Builder

	b.WriteString(SuccessStyle.Render("✓ Inspection Complete!"))
	b.WriteString("\n\n")

	b.WriteString(KeyStyle.Render("Input:      "))
	b.WriteString(ValueStyle.Render(s.Input))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Frame:      "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d×%d", s.Width, s.Height)))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Rotation:   "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d°", s.Rotation)))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Thresholds: "))
	b.WriteString(ValueStyle.Render(s.Thresholds))
	b.WriteString("\n\n")

	b.WriteString(KeyStyle.Render("In cluster: "))
	b.WriteString(HighlightStyle.Render(fmt.Sprintf("%d px (%s)", s.InCluster, FormatPercent(s.InCluster, s.Pixels))))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Elapsed:    "))
	b.WriteString(ValueStyle.Render(FormatDuration(s.Elapsed)))

	PrintBox(b.String())
}
