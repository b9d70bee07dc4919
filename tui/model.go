package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"recompress/config"
	"recompress/convert"
	"recompress/estimate"
	"recompress/probe"
	"recompress/video"
)

// State represents the current application state
type State int

const (
	StateAnalyzing State = iota
	StateChoosing
	StateConverting
	StateDone
	StateError
)

// AnalyzedMsg is sent when the probe chain and the recommendation sweep have
// finished.
type AnalyzedMsg struct {
	Meta *video.Metadata
	Recs []estimate.Recommendation
}

type AnalyzeErrorMsg struct {
	Err error
}

// ProgressMsg carries one conversion progress event.
type ProgressMsg video.Progress

// ConvertDoneMsg is sent when the conversion finished and the output file was
// written.
type ConvertDoneMsg struct {
	OutputPath string
	OutputSize int64
}

type ConvertErrorMsg struct {
	Err error
}

// Model is the Bubble Tea model for the TUI
type Model struct {
	File   video.File
	Prober *probe.Chain
	Router *convert.Router
	Preset *config.Preset

	State    State
	Meta     *video.Metadata
	Recs     []estimate.Recommendation
	Cursor   int
	Progress progress.Model
	Current  video.Progress

	OutputDir    string
	OutputPath   string
	OutputSize   int64
	StartTime    time.Time
	ErrorMessage string
	Width        int
	Height       int

	progressCh chan video.Progress
	doneCh     chan tea.Msg
}

// NewModel creates a new TUI model
func NewModel(file video.File, prober *probe.Chain, router *convert.Router, preset *config.Preset, outputDir string) Model {
	prog := progress.New(
		progress.WithGradient("#7C3AED", "#10B981"),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)
	return Model{
		File:       file,
		Prober:     prober,
		Router:     router,
		Preset:     preset,
		State:      StateAnalyzing,
		Progress:   prog,
		OutputDir:  outputDir,
		progressCh: make(chan video.Progress, 16),
		doneCh:     make(chan tea.Msg, 1),
	}
}

// Init initializes the Bubble Tea program
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.analyze(),
	)
}

func (m Model) analyze() tea.Cmd {
	return func() tea.Msg {
		meta, err := m.Prober.Probe(context.Background(), m.File)
		if err != nil {
			return AnalyzeErrorMsg{Err: err}
		}
		return AnalyzedMsg{
			Meta: meta,
			Recs: estimate.RecommendWithPreset(meta, m.Preset),
		}
	}
}

// startConvert kicks the conversion off in the background and begins
// listening for its events.
func (m *Model) startConvert(rec estimate.Recommendation) tea.Cmd {
	opts := convert.FromRecommendation(rec)
	outPath := m.outputPathFor(rec.Codec)

	go func() {
		result, err := m.Router.Convert(context.Background(), m.File, opts, func(p video.Progress) {
			select {
			case m.progressCh <- p:
			default:
				// UI is behind; dropping an intermediate event is fine.
			}
		})
		if err != nil {
			m.doneCh <- ConvertErrorMsg{Err: err}
			return
		}
		if err := os.WriteFile(outPath, result.Data, 0o644); err != nil {
			m.doneCh <- ConvertErrorMsg{Err: err}
			return
		}
		m.doneCh <- ConvertDoneMsg{OutputPath: outPath, OutputSize: int64(len(result.Data))}
	}()

	return m.waitForEvent()
}

func (m Model) outputPathFor(codec video.Codec) string {
	base := strings.TrimSuffix(m.File.Name, filepath.Ext(m.File.Name))
	return filepath.Join(m.OutputDir, base+"_recompressed"+codec.OutputExt())
}

// waitForEvent blocks on the next conversion event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-m.progressCh:
			return ProgressMsg(p)
		case msg := <-m.doneCh:
			return msg
		}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.State == StateChoosing && m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.State == StateChoosing && m.Cursor < len(m.Recs)-1 {
				m.Cursor++
			}
		case "enter":
			if m.State == StateChoosing && len(m.Recs) > 0 {
				m.State = StateConverting
				m.StartTime = time.Now()
				return m, m.startConvert(m.Recs[m.Cursor])
			}
			if m.State == StateDone || m.State == StateError {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 20

	case AnalyzedMsg:
		m.Meta = msg.Meta
		m.Recs = msg.Recs
		m.Cursor = 0
		m.State = StateChoosing

	case AnalyzeErrorMsg:
		m.State = StateError
		m.ErrorMessage = msg.Err.Error()

	case ProgressMsg:
		m.Current = video.Progress(msg)
		return m, m.waitForEvent()

	case ConvertDoneMsg:
		m.State = StateDone
		m.OutputPath = msg.OutputPath
		m.OutputSize = msg.OutputSize

	case ConvertErrorMsg:
		m.State = StateError
		m.ErrorMessage = msg.Err.Error()

	case error:
		m.State = StateError
		m.ErrorMessage = msg.Error()
	}

	return m, nil
}
