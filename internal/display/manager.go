package display

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/display/stack"
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/theme"
	"github.com/jmylchreest/toastui/internal/toast"
)

// timestampRefresh is how often relative timestamps are redrawn, in ms.
const timestampRefresh = 30000

// Controller is the part of the queue the windows talk back to.
type Controller interface {
	Invoke(id string) bool
	CloseWithReason(id string, reason toast.CloseReason) bool
	SetHovering(hovering bool)
}

// Surface presents toasts as layer-shell windows. It implements
// toast.Surface; calls from other goroutines are queued onto the GTK main
// loop.
type Surface struct {
	app        *gtk.Application
	logger     *slog.Logger
	dispatcher *gesture.Dispatcher
	theme      *theme.Loader

	// Main thread only.
	layout *LayoutManager

	mu         sync.Mutex
	cfg        config.DisplayConfig
	behavior   config.BehaviorConfig
	placement  placement.Placement
	direction  placement.Direction
	popups     map[string]*Popup
	order      []toast.Ref
	controller Controller
	hovered    int
	expanded   bool
	ticker     glib.SourceHandle
}

// NewSurface creates a surface for the application. Call Start from the
// GTK activate handler before mounting toasts.
func NewSurface(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Surface{
		app:        app,
		logger:     logger,
		dispatcher: gesture.NewDispatcher(),
		theme:      theme.NewLoader(cfg.Display.Theme, cfg.StylePath(), logger),
		cfg:        cfg.Display,
		behavior:   cfg.Behavior,
		placement:  cfg.Placement(),
		direction:  cfg.Direction(),
		popups:     make(map[string]*Popup),
	}
}

// Start checks for a display and installs the stylesheet. Main thread.
func (s *Surface) Start() error {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return &DisplayError{Message: "no display available"}
	}
	s.mu.Lock()
	monitor := s.cfg.Monitor
	s.mu.Unlock()
	s.layout = NewLayoutManager(monitor, s.logger)

	if err := s.theme.Apply(display); err != nil {
		return &DisplayError{Message: "failed to load theme", Cause: err}
	}
	s.theme.StartHotReload()

	if monitors := display.Monitors(); monitors != nil {
		monitors.ConnectItemsChanged(func(position, removed, added uint) {
			s.HandleMonitorChange()
		})
	}

	handle := glib.TimeoutAdd(timestampRefresh, func() bool {
		s.refreshTimestamps()
		return true
	})
	s.mu.Lock()
	s.ticker = handle
	s.mu.Unlock()

	s.logger.Info("display surface started")
	return nil
}

// Stop releases every window.
func (s *Surface) Stop() {
	s.mu.Lock()
	popups := make([]*Popup, 0, len(s.popups))
	for _, p := range s.popups {
		popups = append(popups, p)
	}
	ticker := s.ticker
	s.ticker = 0
	s.mu.Unlock()

	for _, p := range popups {
		p.Release()
	}
	if ticker != 0 {
		glib.SourceRemove(ticker)
	}
	s.theme.StopHotReload()
	s.logger.Info("display surface stopped")
}

// Bind connects the windows to the queue.
func (s *Surface) Bind(c Controller) {
	s.mu.Lock()
	s.controller = c
	s.mu.Unlock()
}

// Input returns the pointer events of every window.
func (s *Surface) Input() gesture.InputSource {
	return s.dispatcher
}

// Mount implements toast.Surface.
func (s *Surface) Mount(ref toast.Ref) toast.Handle {
	s.mu.Lock()
	p := newPopup(s, ref, s.cfg.Width, s.cfg.MaxHeight, s.cfg.Opacity)
	s.popups[ref.ID] = p
	width := s.cfg.Width
	rtl := s.direction == placement.RTL
	s.mu.Unlock()

	glib.IdleAdd(func() {
		p.build(s.app, width, rtl)
	})
	return p
}

// Update implements toast.Surface.
func (s *Surface) Update(refs []toast.Ref) {
	s.mu.Lock()
	s.order = refs
	for _, ref := range refs {
		if p, ok := s.popups[ref.ID]; ok {
			p.setRef(ref)
		}
	}
	s.mu.Unlock()
	glib.IdleAdd(s.relayout)
}

// SetPlacement implements toast.Surface.
func (s *Surface) SetPlacement(p placement.Placement, dir placement.Direction) {
	s.mu.Lock()
	s.placement = p
	s.direction = dir
	s.mu.Unlock()

	glib.IdleAdd(func() {
		rtl := dir == placement.RTL
		for _, p := range s.snapshotPopups() {
			p.setDirection(rtl)
		}
		s.relayout()
	})
}

// UpdateConfig applies a reloaded configuration.
func (s *Surface) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg.Display
	s.behavior = cfg.Behavior
	for _, p := range s.popups {
		p.setOpacity(cfg.Display.Opacity)
	}
	s.mu.Unlock()

	s.theme.Configure(cfg.Display.Theme, cfg.StylePath())
	glib.IdleAdd(func() {
		if s.layout != nil {
			s.layout.SetMonitorIndex(cfg.Display.Monitor)
		}
		if err := s.theme.Reload(); err != nil {
			s.logger.Warn("failed to reload theme", "error", err)
		}
		s.relayout()
	})
	s.logger.Debug("display config updated",
		"placement", cfg.Display.Placement,
		"max_visible", cfg.Display.MaxVisible,
	)
}

// HandleMonitorChange re-lays the stack after outputs change.
func (s *Surface) HandleMonitorChange() {
	glib.IdleAdd(func() {
		if s.layout != nil {
			s.layout.HandleMonitorChange()
		}
		s.relayout()
	})
}

// relayout computes slots for the current entries and applies them. Main
// thread.
func (s *Surface) relayout() {
	if s.layout == nil {
		return
	}
	s.mu.Lock()
	order := s.order
	popups := make([]*Popup, 0, len(order))
	for _, ref := range order {
		if p, ok := s.popups[ref.ID]; ok {
			popups = append(popups, p)
		}
	}
	opts := stack.Options{
		Placement:  s.placement,
		Direction:  s.direction,
		OffsetX:    s.cfg.OffsetX,
		OffsetY:    s.cfg.OffsetY,
		Gap:        s.cfg.Gap,
		MaxVisible: s.cfg.MaxVisible,
		Stacked:    s.behavior.Mode == toast.ModeStack && !s.expanded,
	}
	s.mu.Unlock()

	heights := make([]int, len(popups))
	for i, p := range popups {
		p.render(p.snapshot())
		heights[i] = p.height()
	}
	opts.ScreenHeight = s.layout.ScreenHeight()

	for i, slot := range stack.Layout(heights, opts) {
		popups[i].place(s.layout, slot)
	}
}

func (s *Surface) refreshTimestamps() {
	for _, p := range s.snapshotPopups() {
		p.refreshTimestamp()
	}
}

func (s *Surface) snapshotPopups() []*Popup {
	s.mu.Lock()
	defer s.mu.Unlock()
	popups := make([]*Popup, 0, len(s.popups))
	for _, p := range s.popups {
		popups = append(popups, p)
	}
	return popups
}

func (s *Surface) forget(id string) {
	s.mu.Lock()
	delete(s.popups, id)
	s.mu.Unlock()
}

func (s *Surface) bound() Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

func (s *Surface) dismiss(id string) {
	if c := s.bound(); c != nil {
		c.CloseWithReason(id, toast.CloseReasonDismissed)
	}
}

func (s *Surface) invoke(id string) {
	if c := s.bound(); c != nil {
		c.Invoke(id)
	}
}

// clicked handles a click that did not turn into a drag. In a collapsed
// click-activated stack the first click expands it.
func (s *Surface) clicked(id string, button uint) {
	switch button {
	case gdk.BUTTON_PRIMARY:
		s.mu.Lock()
		expand := s.behavior.Mode == toast.ModeStack &&
			s.behavior.ActivationMode == toast.ActivateOnClick && !s.expanded
		if expand {
			s.expanded = true
		}
		s.mu.Unlock()
		if expand {
			s.relayout()
			return
		}
		s.invoke(id)
	case gdk.BUTTON_SECONDARY:
		s.dismiss(id)
	}
}

// hover tracks the pointer across all windows. Leaving one window and
// entering its neighbour must not resume the countdowns.
func (s *Surface) hover(entered bool) {
	s.mu.Lock()
	was := s.hovered > 0
	if entered {
		s.hovered++
	} else if s.hovered > 0 {
		s.hovered--
	}
	now := s.hovered > 0
	c := s.controller
	relayout := false
	if s.behavior.Mode == toast.ModeStack && s.behavior.ActivationMode != toast.ActivateOnClick {
		relayout = s.expanded != now
		s.expanded = now
	} else if !now && s.expanded {
		s.expanded = false
		relayout = true
	}
	s.mu.Unlock()

	if was != now && c != nil {
		c.SetHovering(now)
	}
	if relayout {
		s.relayout()
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
