package tui

import (
	"os/exec"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tokenpace/tokenpace/internal/config"
	"github.com/tokenpace/tokenpace/internal/engine"
	"github.com/tokenpace/tokenpace/internal/logs"
)

const alertDisplayTime = 10 * time.Second

type tickMsg time.Time

type logsChangedMsg struct{}

type actionDoneMsg struct{ err error }

// Model is the dashboard's Bubbletea model. Every tick performs one
// full read+aggregate pass; the view only paints the latest snapshot.
type Model struct {
	cfg     *config.Config
	eng     *engine.Engine
	reader  *logs.Reader
	watcher *logs.Watcher

	width  int
	height int

	snap     engine.Snapshot
	haveSnap bool

	tokenBar progress.Model
	timeBar  progress.Model

	showHelp  bool
	alert     int // threshold percent being flashed, 0 when none
	alertAt   time.Time
	actionErr error
}

// New creates the dashboard model. watcher may be nil when file
// watching is unavailable; polling still drives refreshes.
func New(cfg *config.Config, eng *engine.Engine, reader *logs.Reader, watcher *logs.Watcher) *Model {
	tokenBar := progress.New(progress.WithGradient("#44FF44", "#FF4444"))
	timeBar := progress.New(progress.WithSolidFill("#00BFFF"))
	return &Model{
		cfg:      cfg,
		eng:      eng,
		reader:   reader,
		watcher:  watcher,
		tokenBar: tokenBar,
		timeBar:  timeBar,
	}
}

// Init kicks off the first refresh immediately and starts the timers.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		func() tea.Msg { return tickMsg(time.Now()) },
	}
	if m.watcher != nil {
		cmds = append(cmds, m.waitForChange())
	}
	return tea.Batch(cmds...)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.watcher.Changed()
		return logsChangedMsg{}
	}
}

// refresh runs the full pipeline synchronously; the displayed state is
// always the result of one complete pass.
func (m *Model) refresh(now time.Time) {
	events, stats := m.reader.ReadAll()
	m.snap = m.eng.Refresh(now, events, stats)
	m.haveSnap = true
	if m.snap.NewThreshold != 0 {
		m.alert = m.snap.NewThreshold
		m.alertAt = now
	}
	if m.alert != 0 && now.Sub(m.alertAt) > alertDisplayTime {
		m.alert = 0
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := m.width - 30
		if barWidth < 10 {
			barWidth = 10
		}
		if barWidth > 50 {
			barWidth = 50
		}
		m.tokenBar.Width = barWidth
		m.timeBar.Width = barWidth
		return m, nil

	case tickMsg:
		m.refresh(time.Time(msg))
		return m, m.tick()

	case logsChangedMsg:
		m.refresh(time.Now())
		return m, m.waitForChange()

	case actionDoneMsg:
		m.actionErr = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "r":
		m.refresh(time.Now())
		return m, nil

	case "y":
		if m.haveSnap && m.snap.Guidance.Interactive() {
			action := m.snap.Guidance.Action
			m.snap.Guidance.Action = ""
			m.snap.Guidance.ActionPrompt = ""
			return m, m.runAction(action)
		}
		return m, nil

	case "n":
		if m.haveSnap && m.snap.Guidance.Interactive() {
			m.eng.Dismiss(m.snap.Guidance.Action)
			m.snap.Guidance.Action = ""
			m.snap.Guidance.ActionPrompt = ""
		}
		return m, nil
	}

	return m, nil
}

// runAction resolves a guidance action id into the host CLI command
// and executes it. The engine never runs anything itself; this is the
// only place a command leaves the process.
func (m *Model) runAction(action string) tea.Cmd {
	bin := m.cfg.UI.ClaudeBinary
	return func() tea.Msg {
		cmd := exec.Command(bin, "/"+action)
		return actionDoneMsg{err: cmd.Run()}
	}
}
