package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastui/internal/display/stack"
)

// LayoutManager picks the output and applies computed slots to windows.
// Call it on the GTK main thread.
type LayoutManager struct {
	display *gdk.Display
	monitor int
	logger  *slog.Logger
}

// NewLayoutManager creates a layout manager for the default display.
// monitor is 1-indexed; 0 lets the compositor choose.
func NewLayoutManager(monitor int, logger *slog.Logger) *LayoutManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutManager{
		display: gdk.DisplayGetDefault(),
		monitor: monitor,
		logger:  logger,
	}
}

// SetMonitorIndex changes the configured output.
func (l *LayoutManager) SetMonitorIndex(monitor int) {
	l.monitor = monitor
}

// Monitor returns the configured output, or nil for the compositor default.
func (l *LayoutManager) Monitor() *gdk.Monitor {
	if l.display == nil || l.monitor == 0 {
		return nil
	}

	monitors := l.display.Monitors()
	if monitors == nil {
		l.logger.Warn("no monitors list available")
		return nil
	}

	index := uint(l.monitor - 1)
	if index >= monitors.NItems() {
		l.logger.Warn("configured monitor not available, using first",
			"configured", l.monitor,
			"available", monitors.NItems(),
		)
		index = 0
	}
	return wrapMonitor(monitors.Item(index))
}

// ScreenHeight returns the height of the configured output, or 0.
func (l *LayoutManager) ScreenHeight() int {
	m := l.Monitor()
	if m == nil && l.display != nil {
		if monitors := l.display.Monitors(); monitors != nil && monitors.NItems() > 0 {
			m = wrapMonitor(monitors.Item(0))
		}
	}
	if m == nil {
		return 0
	}
	return m.Geometry().Height()
}

// wrapMonitor casts a list item to a gdk.Monitor. gotk4 keeps its own
// wrapper unexported; the struct layout is a single embedded object.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// Place anchors a window to the slot's edges and margins.
func (l *LayoutManager) Place(window *gtk.Window, slot stack.Slot) {
	if m := l.Monitor(); m != nil {
		layershell.SetMonitor(window, m)
	}
	ApplyMargins(window, slot.Edges, slot.Margins)
}

// ApplyMargins sets the layer-shell anchors and margins of a window.
func ApplyMargins(window *gtk.Window, e stack.Edges, m stack.Margins) {
	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, e.Top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, e.Bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, e.Left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, e.Right)

	layershell.SetMargin(window, layershell.LayerShellEdgeTop, m.Top)
	layershell.SetMargin(window, layershell.LayerShellEdgeBottom, m.Bottom)
	layershell.SetMargin(window, layershell.LayerShellEdgeLeft, m.Left)
	layershell.SetMargin(window, layershell.LayerShellEdgeRight, m.Right)
}

// HandleMonitorChange refreshes the display after outputs change.
func (l *LayoutManager) HandleMonitorChange() {
	l.display = gdk.DisplayGetDefault()
	if l.display == nil {
		l.logger.Warn("no display available after monitor change")
		return
	}
	if monitors := l.display.Monitors(); monitors != nil {
		l.logger.Info("monitor configuration changed", "count", monitors.NItems())
	}
}
