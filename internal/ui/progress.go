package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/meterdump/internal/cli"
)

// DetectProgress reports one evaluated dump
type DetectProgress struct {
	Index     int // 1-based position in the batch
	Total     int
	Input     string
	Fill      int           // Window fill percentage
	Triggered bool          // Trigger fired on this dump
	At        time.Duration // Offset from the first dump
}

// DetectComplete signals the whole batch has been evaluated
type DetectComplete struct {
	Dumps    int
	Triggers int
	Elapsed  time.Duration
}

// DetectFailed aborts the batch view with an error
type DetectFailed struct {
	Err error
}

// detectQuitMsg is sent when it's time to quit after showing completion
type detectQuitMsg struct{}

// fillHistoryLen is how many recent fills the sparkline keeps
const fillHistoryLen = 64

// DetectModel is the Bubbletea model for a detect batch
type DetectModel struct {
	progressBar progress.Model

	last     DetectProgress
	history  []int
	triggers int
	complete *DetectComplete
	failed   error

	startTime       time.Time
	width           int
	completionDelay time.Duration
}

// NewDetectModel creates a new detect progress model
func NewDetectModel() *DetectModel {
	// Segment gradient: red → amber
	p := progress.New(
		progress.WithGradient(string(cli.SegmentRed), string(cli.SegmentAmber)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &DetectModel{
		progressBar:     p,
		startTime:       time.Now(),
		completionDelay: 500 * time.Millisecond,
	}
}

// Init initializes the model
func (m *DetectModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *DetectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case DetectProgress:
		m.last = msg
		m.history = append(m.history, msg.Fill)
		if len(m.history) > fillHistoryLen {
			m.history = m.history[len(m.history)-fillHistoryLen:]
		}
		if msg.Triggered {
			m.triggers++
		}
		return m, nil

	case DetectComplete:
		if msg.Elapsed == 0 {
			msg.Elapsed = time.Since(m.startTime)
		}
		m.complete = &msg
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return detectQuitMsg{}
		})

	case DetectFailed:
		m.failed = msg.Err
		return m, tea.Quit

	case detectQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// Triggers returns how many triggers the view has seen
func (m *DetectModel) Triggers() int {
	return m.triggers
}

// Complete reports whether the batch finished
func (m *DetectModel) Complete() bool {
	return m.complete != nil
}

// Err returns the error that aborted the batch, if any
func (m *DetectModel) Err() error {
	return m.failed
}

// View renders the UI
func (m *DetectModel) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.SegmentGlow).
		Render(cli.AppTitle)
	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.SegmentAmber).Render("Detecting lit segments"))
	s.WriteString("\n\n")

	percent := 0.0
	if m.last.Total > 0 {
		percent = float64(m.last.Index) / float64(m.last.Total)
	}
	if m.complete != nil {
		percent = 1.0
	}
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Faint(true)
	if m.last.Index > 0 {
		s.WriteString(labelStyle.Render(fmt.Sprintf("Dump %d of %d  │  ", m.last.Index, m.last.Total)))
		s.WriteString(m.last.Input)
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Fill: "))
		s.WriteString(fmt.Sprintf("%3d%%", m.last.Fill))
		s.WriteString(labelStyle.Render("  │  Triggers: "))
		s.WriteString(fmt.Sprintf("%d", m.triggers))
		s.WriteString(labelStyle.Render("  │  At: "))
		s.WriteString(formatDuration(m.last.At))
		s.WriteString("\n\n")

		s.WriteString(labelStyle.Render("Fill History:"))
		s.WriteString("\n")
		s.WriteString(renderFillHistory(m.history))
	} else {
		s.WriteString(labelStyle.Render("Starting detection..."))
	}

	if m.complete != nil {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.SegmentGlow).Render("✓ Detection Complete!"))
		s.WriteString(labelStyle.Render(fmt.Sprintf("  %d dumps, %d triggers in %s",
			m.complete.Dumps, m.complete.Triggers, formatDuration(m.complete.Elapsed))))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SegmentRed).
		Padding(1, 2).
		Render(s.String()) + "\n"
}

// renderFillHistory draws recent fill percentages as a coloured sparkline
func renderFillHistory(fills []int) string {
	if len(fills) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, fill := range fills {
		idx := fill * (len(blocks) - 1) / 100
		idx = max(0, min(idx, len(blocks)-1))
		result.WriteString(lipgloss.NewStyle().
			Foreground(cli.SegmentRamp[idx]).
			Render(string(blocks[idx])))
	}
	return result.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
