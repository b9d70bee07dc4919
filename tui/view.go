package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"recompress/estimate"
)

// Color palette - modern, readable
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Violet
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#10B981") // Emerald
	colorError     = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorText      = lipgloss.Color("#F9FAFB") // White
	colorTextDim   = lipgloss.Color("#9CA3AF") // Light gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginTop(1)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	statValueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true)

	unselectedStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	explanationStyle = lipgloss.NewStyle().
				Foreground(colorTextDim).
				MarginTop(1).
				Width(76)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	filePathStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" ▶ Video Recompressor ") + "\n")

	switch m.State {
	case StateAnalyzing:
		b.WriteString(m.renderAnalyzingView())
	case StateChoosing:
		b.WriteString(m.renderChoosingView())
	case StateConverting:
		b.WriteString(m.renderConvertingView())
	case StateDone:
		b.WriteString(m.renderDoneView())
	case StateError:
		b.WriteString(m.renderErrorView())
	}

	b.WriteString("\n" + m.renderHelp() + "\n")
	return b.String()
}

func (m Model) renderHelp() string {
	switch m.State {
	case StateChoosing:
		return helpStyle.Render("  [↑/↓] Select  •  [Enter] Convert  •  [Q] Quit")
	case StateDone, StateError:
		return helpStyle.Render("  [Enter/Q] Quit")
	default:
		return helpStyle.Render("  [Q] Quit")
	}
}

func (m Model) renderAnalyzingView() string {
	return "\n" + statValueStyle.Render("  Analyzing "+m.File.Name+"...") + "\n"
}

func (m Model) renderChoosingView() string {
	var b strings.Builder

	b.WriteString(statsBoxStyle.Render(m.buildMetadataGrid()))
	b.WriteString("\n")
	b.WriteString(sectionHeaderStyle.Render("  Recommendations") + "\n\n")

	for i, rec := range m.Recs {
		line := fmt.Sprintf(" %-8s  save %5.1f%%  →  %-10s  ~%s encode ",
			rec.CodecName,
			rec.EstimatedSavingsPercent,
			estimate.FormatSize(rec.EstimatedSize),
			estimate.FormatDuration(rec.EstimatedTime),
		)
		if i == m.Cursor {
			b.WriteString("  " + selectedStyle.Render("▸"+line) + "\n")
		} else {
			b.WriteString("  " + unselectedStyle.Render(" "+line) + "\n")
		}
	}

	if m.Cursor < len(m.Recs) {
		rec := m.Recs[m.Cursor]
		b.WriteString(explanationStyle.Render("  " + rec.Explanation))
		b.WriteString("\n" + explanationStyle.Render("  $ "+rec.Command))
	}
	return b.String()
}

func (m Model) buildMetadataGrid() string {
	meta := m.Meta
	lines := []string{
		statLabelStyle.Render("File") + statValueStyle.Render(meta.Filename),
		statLabelStyle.Render("Size") + statValueStyle.Render(estimate.FormatSize(float64(meta.FileSize))),
		statLabelStyle.Render("Resolution") + statValueStyle.Render(fmt.Sprintf("%dx%d @ %.3g fps", meta.Width, meta.Height, meta.Framerate)),
		statLabelStyle.Render("Duration") + statValueStyle.Render(estimate.FormatDuration(meta.Duration)),
		statLabelStyle.Render("Bitrate") + statValueStyle.Render(estimate.FormatBitrate(meta.Bitrate)),
		statLabelStyle.Render("Codec") + statValueStyle.Render(meta.CodecName),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderConvertingView() string {
	var b strings.Builder

	pct := m.Current.Progress / 100
	if pct > 1 {
		pct = 1
	}
	if pct < 0.01 {
		pct = 0.01
	}

	b.WriteString("\n")
	b.WriteString("  " + m.Progress.ViewAs(pct) + "  " +
		statValueStyle.Render(fmt.Sprintf("%.1f%%", m.Current.Progress)) + "\n")

	elapsed := time.Since(m.StartTime).Round(time.Second)

	var lines []string
	if m.Current.Message != "" {
		lines = append(lines, statLabelStyle.Render("Stage")+statValueStyle.Render(m.Current.Message))
	}
	if m.Current.FramesEncoded > 0 {
		frameVal := fmt.Sprintf("%d", m.Current.FramesEncoded)
		if m.Current.TotalFrames > 0 {
			frameVal += fmt.Sprintf(" / %d", m.Current.TotalFrames)
		}
		lines = append(lines, statLabelStyle.Render("Frame")+statValueStyle.Render(frameVal))
	}
	if m.Current.Speed != "" {
		lines = append(lines, statLabelStyle.Render("Speed")+statValueStyle.Render(m.Current.Speed))
	}
	lines = append(lines, statLabelStyle.Render("Elapsed")+statValueStyle.Render(formatDuration(elapsed)))

	b.WriteString(statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return b.String()
}

func (m Model) renderDoneView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(successStyle.Render("  ✓ Conversion Complete!") + "\n")

	elapsed := time.Since(m.StartTime).Round(time.Second)
	lines := []string{
		statLabelStyle.Render("Output") + filePathStyle.Render(m.OutputPath),
		statLabelStyle.Render("Time") + statValueStyle.Render(formatDuration(elapsed)),
		statLabelStyle.Render("Size") + statValueStyle.Render(estimate.FormatSize(float64(m.OutputSize))),
	}
	if m.File.Size > 0 {
		ratio := float64(m.OutputSize) / float64(m.File.Size) * 100
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %.1f%% of original", ratio)))
	}
	b.WriteString(statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return b.String()
}

func (m Model) renderErrorView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(errorStyle.Render("  ✗ Conversion Failed") + "\n\n")

	errBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 2).
		Foreground(colorError).
		Width(76).
		Render(m.ErrorMessage)
	b.WriteString(errBox + "\n")
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "—"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	d -= min * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, s)
	}
	return fmt.Sprintf("%d:%02d", min, s)
}
