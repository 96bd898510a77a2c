package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/avenn/resonance/internal/artifact"
	"github.com/avenn/resonance/internal/echo"
	"github.com/avenn/resonance/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Curator   echo.Client
	Synth     *artifact.Synthesizer
	Sessions  *session.Store
	ExportDir string
	Logger    *zap.Logger
	Restored  *session.Snapshot
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	feelingInput := textinput.New()
	feelingInput.Placeholder = inputPlaceholder
	feelingInput.Focus()
	feelingInput.CharLimit = inputCharLimit
	feelingInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &model{
		config:       config,
		stage:        stageInput,
		feelingInput: feelingInput,
		spinner:      spin,
		jobs:         newJobBus(config.Logger),
		contentWidth: 76,
		infoMessage:  "Type how you feel and press Enter.",
	}
	m.restore(config.Restored)
	return m
}

type model struct {
	config Config
	stage  stage

	feelingInput textinput.Model
	spinner      spinner.Model
	jobs         *jobBus

	feeling     string
	result      *echo.Result
	artifactURL string

	curating  bool
	exporting bool
	curateGen int
	synthGen  int

	contentWidth int
	infoMessage  string
	errorMessage string
	lastJob      jobSnapshot
}

type curateResultMsg struct {
	gen    int
	result *echo.Result
	err    error
}

type synthesisResultMsg struct {
	gen int
	url string
	err error
}

type exportResultMsg struct {
	path     string
	fallback bool
	err      error
}

// restore resumes from a snapshot, degrading to the deepest screen the
// snapshot can still support.
func (m *model) restore(snapshot *session.Snapshot) {
	if snapshot == nil {
		return
	}
	m.feeling = snapshot.Input
	m.feelingInput.SetValue(snapshot.Input)
	m.result = snapshot.Result
	m.artifactURL = snapshot.ArtifactURL

	view := snapshot.View
	if view == session.ViewArtifact && m.artifactURL == "" {
		view = session.ViewResult
	}
	if view != session.ViewInput && m.result == nil {
		view = session.ViewInput
	}
	switch view {
	case session.ViewArtifact:
		m.stage = stageArtifact
		m.infoMessage = "Welcome back. Press d to export the card, Esc to revisit the echoes."
	case session.ViewResult:
		m.stage = stageResult
		m.artifactURL = ""
		m.infoMessage = "Welcome back. The echoes are where you left them."
	default:
		m.stage = stageInput
		m.infoMessage = "Welcome back. Press Enter to listen again."
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.curating || m.exporting || m.stage == stageSynthesizing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m.handleBack()
		}
		return m.handleKey(msg)
	case jobSignalMsg:
		m.lastJob = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.lastJob = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case curateResultMsg:
		return m.handleCurateResult(msg)
	case synthesisResultMsg:
		return m.handleSynthesisResult(msg)
	case exportResultMsg:
		return m.handleExportResult(msg)
	case tea.WindowSizeMsg:
		width := msg.Width - contentHorizontalPadding
		if width < minContentWidth {
			width = minContentWidth
		}
		m.contentWidth = width
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageInput:
		var cmd tea.Cmd
		m.feelingInput, cmd = m.feelingInput.Update(key)
		if key.Type == tea.KeyEnter && !m.curating {
			return m.submitFeeling(cmd)
		}
		return m, cmd
	case stageResult:
		return m.handleResultKey(key)
	case stageSynthesizing:
		return m, nil
	case stageArtifact:
		return m.handleArtifactKey(key)
	}
	return m, nil
}

func (m *model) submitFeeling(inputCmd tea.Cmd) (tea.Model, tea.Cmd) {
	feeling := strings.TrimSpace(m.feelingInput.Value())
	if feeling == "" {
		return m, inputCmd
	}
	m.feeling = feeling
	m.curating = true
	m.curateGen++
	m.errorMessage = ""
	m.infoMessage = "Listening for echoes…"
	return m, tea.Batch(inputCmd, m.spinner.Tick,
		m.jobs.Start(jobKindCurate, curateJob(m.config.Curator, feeling, m.curateGen)))
}

func (m *model) handleResultKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter", "s":
		if m.curating || m.config.Synth == nil || m.result == nil {
			return m, nil
		}
		m.stage = stageSynthesizing
		m.synthGen++
		m.errorMessage = ""
		m.infoMessage = "Synthesizing an artifact…"
		return m, tea.Batch(m.spinner.Tick,
			m.jobs.Start(jobKindSynthesize, synthesizeJob(m.config.Synth, m.result, m.synthGen)))
	case "r":
		if m.curating || m.feeling == "" {
			return m, nil
		}
		m.curating = true
		m.curateGen++
		m.errorMessage = ""
		m.infoMessage = "Listening again…"
		return m, tea.Batch(m.spinner.Tick,
			m.jobs.Start(jobKindCurate, curateJob(m.config.Curator, m.feeling, m.curateGen)))
	case "ctrl+r":
		return m.reset()
	}
	return m, nil
}

func (m *model) handleArtifactKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "d":
		if m.exporting || m.config.Synth == nil || m.result == nil || m.artifactURL == "" {
			return m, nil
		}
		m.exporting = true
		m.errorMessage = ""
		m.infoMessage = "Composing your card…"
		return m, tea.Batch(m.spinner.Tick,
			m.jobs.Start(jobKindExport, exportJob(m.config.Synth, m.result, m.artifactURL, m.config.ExportDir)))
	case "ctrl+r":
		return m.reset()
	}
	return m, nil
}

// handleBack steps out one screen at a time. The result survives a step
// back to the input so the user can return to it after a restart.
func (m *model) handleBack() (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageArtifact:
		m.stage = stageResult
		m.artifactURL = ""
		m.infoMessage = "Back with the echoes."
		m.persist()
		return m, nil
	case stageSynthesizing:
		m.synthGen++
		m.stage = stageResult
		m.infoMessage = "Synthesis set aside."
		return m, nil
	case stageResult:
		m.stage = stageInput
		m.feelingInput.Focus()
		m.infoMessage = "Press Enter to listen again, or type something new."
		m.persist()
		return m, textinput.Blink
	default:
		if m.result != nil {
			m.stage = stageResult
			m.infoMessage = "Press Enter to synthesize an artifact, r to listen again, Esc to go back."
			return m, nil
		}
		return m, tea.Quit
	}
}

// reset forgets the whole session, snapshot included.
func (m *model) reset() (tea.Model, tea.Cmd) {
	m.curateGen++
	m.synthGen++
	m.curating = false
	m.exporting = false
	m.result = nil
	m.artifactURL = ""
	m.feeling = ""
	m.feelingInput.SetValue("")
	m.feelingInput.Focus()
	m.stage = stageInput
	m.errorMessage = ""
	m.infoMessage = "A clean slate. Type how you feel and press Enter."
	if m.config.Sessions != nil {
		if err := m.config.Sessions.Clear(); err != nil {
			m.config.Logger.Warn("failed to clear session", zap.Error(err))
		}
	}
	return m, textinput.Blink
}

func (m *model) handleCurateResult(msg curateResultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.curateGen {
		return m, nil
	}
	m.curating = false
	if msg.err != nil {
		m.config.Logger.Error("curation failed", zap.Error(msg.err))
		m.errorMessage = curateFailedMsg
		if m.result == nil {
			m.stage = stageInput
		}
		return m, nil
	}
	m.result = msg.result
	m.artifactURL = ""
	m.stage = stageResult
	m.errorMessage = ""
	m.infoMessage = "Press Enter to synthesize an artifact, r to listen again, Esc to go back."
	m.persist()
	return m, nil
}

func (m *model) handleSynthesisResult(msg synthesisResultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.synthGen {
		return m, nil
	}
	if m.stage != stageSynthesizing {
		return m, nil
	}
	if msg.err != nil {
		m.config.Logger.Error("synthesis failed", zap.Error(msg.err))
		m.stage = stageResult
		m.errorMessage = synthFailedMsg
		return m, nil
	}
	m.artifactURL = msg.url
	m.stage = stageArtifact
	m.errorMessage = ""
	m.infoMessage = "Press d to export the card, Esc to revisit the echoes."
	m.persist()
	return m, nil
}

func (m *model) handleExportResult(msg exportResultMsg) (tea.Model, tea.Cmd) {
	m.exporting = false
	if msg.err != nil {
		m.config.Logger.Error("export failed", zap.Error(msg.err))
		m.errorMessage = "The card could not be written."
		return m, nil
	}
	m.errorMessage = ""
	if msg.fallback {
		m.infoMessage = fmt.Sprintf("Card composition failed; saved the artwork itself to %s", msg.path)
	} else {
		m.infoMessage = fmt.Sprintf("Card saved to %s", msg.path)
	}
	return m, nil
}

// persist captures the current screen into the session slot. Best-effort:
// a write failure is logged and the session carries on.
func (m *model) persist() {
	if m.config.Sessions == nil {
		return
	}
	snapshot := session.Snapshot{
		Input:  m.feeling,
		View:   m.currentView(),
		Result: m.result,
	}
	if m.stage == stageArtifact {
		snapshot.ArtifactURL = m.artifactURL
	}
	if err := m.config.Sessions.Save(snapshot); err != nil {
		m.config.Logger.Warn("failed to persist session", zap.Error(err))
	}
}

func (m *model) currentView() session.View {
	switch m.stage {
	case stageArtifact:
		return session.ViewArtifact
	case stageResult, stageSynthesizing:
		return session.ViewResult
	default:
		return session.ViewInput
	}
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("183")).Underline(true)
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("103")).Italic(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	echoTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	echoMetaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	echoBodyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	insightStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("108"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	linkStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
)
