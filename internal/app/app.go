package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tokenpace/tokenpace/internal/config"
	"github.com/tokenpace/tokenpace/internal/engine"
	"github.com/tokenpace/tokenpace/internal/logs"
	"github.com/tokenpace/tokenpace/internal/tui"
)

// App wires the reader, engine and dashboard together.
type App struct {
	cfg     *config.Config
	eng     *engine.Engine
	reader  *logs.Reader
	watcher *logs.Watcher
}

// New creates an App from a loaded config.
func New(cfg *config.Config) (*App, error) {
	roots := append([]string(nil), cfg.Paths.LogRoots...)
	if root, err := logs.DefaultRoot(); err == nil {
		roots = append([]string{root}, roots...)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no log roots configured and home directory unknown")
	}

	eng := engine.New(engine.Config{
		Limit:             cfg.LimitTokens(),
		CycleDuration:     cfg.CycleDuration(),
		RollingDays:       cfg.Windows.RollingDays,
		IdleGap:           cfg.SessionIdleGap(),
		BurnWindow:        cfg.BurnWindow(),
		HighBurnPerMinute: cfg.Burn.HighTokensPerMinute,
		ClockSkew:         cfg.ClockSkew(),
	})

	// File watching is best effort; polling covers its absence.
	watcher, err := logs.NewWatcher(roots, 500*time.Millisecond)
	if err != nil {
		watcher = nil
	}

	return &App{
		cfg:     cfg,
		eng:     eng,
		reader:  logs.NewReader(roots),
		watcher: watcher,
	}, nil
}

// Run starts the live dashboard and blocks until the user quits or the
// process is interrupted.
func (a *App) Run() error {
	defer a.close()

	model := tui.New(a.cfg, a.eng, a.reader, a.watcher)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunOnce performs a single refresh pass and returns the plain-text
// snapshot.
func (a *App) RunOnce() (string, error) {
	defer a.close()

	events, stats := a.reader.ReadAll()
	snap := a.eng.Refresh(time.Now(), events, stats)
	return tui.RenderReport(snap), nil
}

func (a *App) close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
}
