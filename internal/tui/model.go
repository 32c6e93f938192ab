// Package tui provides the BubbleTea-based terminal toast host.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

// tickInterval redraws countdown bars and relative times.
const tickInterval = 250 * time.Millisecond

// Model is the main TUI model.
type Model struct {
	cfg     *config.Config
	queue   *toast.Queue
	surface *Surface

	keys KeyMap
	help help.Model

	frame  Frame
	width  int
	height int
	ready  bool

	paused   bool
	hovering bool
	expanded bool
	press    *press
	demo     int

	statusMsg string
	statusErr bool

	now func() time.Time
}

// press is a mouse button held over the screen.
type press struct {
	id    string
	x, y  int
	moved bool
}

type refreshMsg struct{}

type tickMsg time.Time

type configMsg struct {
	cfg *config.Config
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// New creates a TUI model presenting q through s.
func New(cfg *config.Config, q *toast.Queue, s *Surface) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return Model{
		cfg:     cfg,
		queue:   q,
		surface: s,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		now:     time.Now,
	}
}

// Init starts the redraw tick and waits for surface changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.watchForChanges, tick())
}

// watchForChanges waits for the queue to present new state.
func (m Model) watchForChanges() tea.Msg {
	<-m.surface.Changes()
	return refreshMsg{}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		return m.relayout(), nil

	case tea.FocusMsg:
		m.queue.SetPageVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.queue.SetPageVisible(false)
		return m, nil

	case refreshMsg:
		return m.relayout(), m.watchForChanges

	case tickMsg:
		return m.relayout(), tick()

	case configMsg:
		m.applyConfig(msg.cfg)
		return m.relayout(), func() tea.Msg {
			return statusMsg{text: "Configuration reloaded"}
		}

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "Copy failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, func() tea.Msg {
			return statusMsg{text: "Copied to clipboard"}
		}
	}
	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m.relayout(), nil

	case key.Matches(msg, m.keys.New):
		m.addDemo(toast.AddOptions{})

	case key.Matches(msg, m.keys.Action):
		m.addDemo(toast.AddOptions{Action: &model.Action{Key: "default", Label: "Open"}})

	case key.Matches(msg, m.keys.Sticky):
		never := toast.NoAutoDismiss
		m.addDemo(toast.AddOptions{Duration: &never})

	case key.Matches(msg, m.keys.Close):
		if ref, ok := m.newest(); ok {
			m.queue.CloseWithReason(ref.ID, toast.CloseReasonDismissed)
		}

	case key.Matches(msg, m.keys.Invoke):
		if ref, ok := m.newest(); ok {
			m.queue.Invoke(ref.ID)
		}

	case key.Matches(msg, m.keys.Clear):
		n := m.queue.Len()
		m.queue.Clear()
		m = m.relayout()
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Cleared %d toasts", n)}
		}

	case key.Matches(msg, m.keys.Copy):
		if ref, ok := m.newest(); ok {
			return m, copyToClipboard(clipText(ref))
		}
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.queue.Pause()
		} else {
			m.queue.Resume()
		}

	case key.Matches(msg, m.keys.Placement):
		next := m.queue.Placement().Next()
		m.queue.SetPlacement(next)
		m = m.relayout()
		return m, func() tea.Msg {
			return statusMsg{text: "Placement: " + next.String()}
		}

	case key.Matches(msg, m.keys.Direction):
		dir := placement.RTL
		if m.queue.Direction() == placement.RTL {
			dir = placement.LTR
		}
		m.queue.SetDirection(dir)
	}

	return m.relayout(), nil
}

// handleMouse turns mouse input into pointer events, hover and clicks.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	hit := m.surface.HitTest(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.press = &press{id: hit, x: msg.X, y: msg.Y}
			m.surface.Pointer(gesture.PointerDown, msg.X, msg.Y)
		case tea.MouseButtonRight:
			if hit != "" {
				m.queue.CloseWithReason(hit, toast.CloseReasonDismissed)
			}
		}

	case tea.MouseActionMotion:
		if m.press != nil {
			if msg.X != m.press.x || msg.Y != m.press.y {
				p := *m.press
				p.moved = true
				m.press = &p
			}
			m.surface.Pointer(gesture.PointerMove, msg.X, msg.Y)
		}

	case tea.MouseActionRelease:
		if m.press != nil {
			p := *m.press
			m.press = nil
			m.surface.Pointer(gesture.PointerUp, msg.X, msg.Y)
			if !p.moved && p.id != "" && p.id == hit {
				m = m.click(hit)
			}
		}
	}

	if m.press == nil {
		m = m.setHover(hit != "")
	}
	return m.relayout(), nil
}

// click expands a collapsed click-activated stack, otherwise runs the
// toast's action.
func (m Model) click(id string) Model {
	if m.stackedCollapsed() && m.queue.ActivationMode() == toast.ActivateOnClick {
		m.expanded = true
		return m
	}
	m.queue.Invoke(id)
	return m
}

func (m Model) setHover(hovering bool) Model {
	if hovering == m.hovering {
		return m
	}
	m.hovering = hovering
	m.queue.SetHovering(hovering)
	if m.queue.Mode() == toast.ModeStack {
		switch m.queue.ActivationMode() {
		case toast.ActivateOnClick:
			if !hovering {
				m.expanded = false
			}
		default:
			m.expanded = hovering
		}
	}
	return m
}

func (m Model) stackedCollapsed() bool {
	return m.queue.Mode() == toast.ModeStack && !m.expanded
}

func (m Model) newest() (toast.Ref, bool) {
	entries := m.queue.Entries()
	if len(entries) == 0 {
		return toast.Ref{}, false
	}
	return entries[len(entries)-1], true
}

// demoToasts are cycled by the new-toast keys.
var demoToasts = []model.Content{
	{Title: "Build finished", Body: "All 42 packages compiled.", Level: model.LevelSuccess, AppName: "make"},
	{Title: "Disk almost full", Body: "/home has 2.1 GB left.", Level: model.LevelWarning, AppName: "df"},
	{Title: "Upload failed", Body: "Connection reset by peer while sending report.pdf", Level: model.LevelError, AppName: "sync"},
	{Title: "New message", Body: "Lunch at noon? Swipe me away if not.", Level: model.LevelInfo, AppName: "chat"},
	{Title: "Downloading", Body: "toastui-0.1.tar.gz", Level: model.LevelInfo, AppName: "fetch", Progress: 60},
}

func (m *Model) addDemo(opts toast.AddOptions) {
	c := demoToasts[m.demo%len(demoToasts)]
	m.demo++
	if opts.Duration == nil {
		d := m.cfg.TimeoutFor(c.Level)
		opts.Duration = &d
	}
	d := m.cfg.Behavior.Dismissible
	opts.Dismissible = &d
	m.queue.Add(c, opts)
}

// applyConfig applies a reloaded configuration to the queue.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.queue.SetPlacement(cfg.Placement())
	m.queue.SetDirection(cfg.Direction())
	m.queue.SetDuration(cfg.QueueDuration())
}

// relayout recomputes the frame from the queue's current entries.
func (m Model) relayout() Model {
	if !m.ready {
		return m
	}
	p, dir := m.surface.Placement()
	d := m.cfg.Display
	m.frame = BuildFrame(m.queue.Entries(), m.surface.offset, RenderOptions{
		Width:      m.width,
		Height:     m.height - m.footerHeight(),
		CardWidth:  d.Width / CellWidth,
		OffsetX:    d.OffsetX / CellWidth,
		OffsetY:    d.OffsetY / CellHeight,
		Gap:        d.Gap / CellHeight,
		MaxVisible: d.MaxVisible,
		Stacked:    m.stackedCollapsed(),
		Placement:  p,
		Direction:  dir,
		Now:        m.now(),
	})
	m.surface.setFrame(m.frame)
	return m
}

func (m Model) footerHeight() int {
	return lipgloss.Height(m.footer())
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.frame.Paint() + "\n" + m.footer()
}

func (m Model) footer() string {
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(m.statusMsg)
	}

	state := []string{fmt.Sprintf("%d toasts", m.queue.Len()), m.queue.Placement().String()}
	if m.queue.Paused() {
		state = append(state, "paused")
	}
	info := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Join(state, " · "))
	return info + "  " + m.help.View(m.keys)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	// ConfigPath enables hot reload when set.
	ConfigPath string
	Observer   toast.Observer
	Logger     *slog.Logger
}

// Run starts the terminal host and blocks until the user quits.
func Run(opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	surface := NewSurface()
	var p *tea.Program
	q := toast.New(toast.Options{
		Duration:        cfg.QueueDuration(),
		Placement:       cfg.Placement(),
		Direction:       cfg.Direction(),
		Mode:            cfg.Behavior.Mode,
		ActivationMode:  cfg.Behavior.ActivationMode,
		PauseOnHover:    cfg.Behavior.PauseOnHover,
		PauseOnPageIdle: cfg.Behavior.PauseOnPageIdle,
		Surface:         surface,
		Input:           surface.Input(),
		Gesture:         cfg.Thresholds().Scaled(CellWidth),
		Observer:        opts.Observer,
		OnAction: func(ref toast.Ref, key string) {
			// Invoke runs on the event loop; Send must not block it.
			go p.Send(statusMsg{text: fmt.Sprintf("Action %q on %q", key, ref.Content.Title)})
		},
		Logger: logger,
	})
	defer q.Destroy()

	p = tea.NewProgram(New(cfg, q, surface),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(c *config.Config) {
			p.Send(configMsg{cfg: c})
		}, logger)
		if err != nil {
			logger.Warn("config hot reload unavailable", "error", err)
		} else if err := w.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	_, err := p.Run()
	return err
}
