package display

import (
	"strings"
	"sync"
	"sync/atomic"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastui/internal/display/stack"
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

// Popup is the window of one toast. The toast.Handle methods may be called
// from any goroutine; widget work is queued onto the GTK main loop.
type Popup struct {
	surface *Surface
	id      string

	mu       sync.Mutex
	ref      toast.Ref
	axis     placement.Axis
	size     gesture.Size
	slot     stack.Slot
	offset   gesture.Point
	progress float64
	opacity  float64

	released atomic.Bool

	// Main thread only.
	window      *gtk.Window
	box         *gtk.Box
	summaryLbl  *gtk.Label
	bodyLbl     *gtk.Label
	appNameLbl  *gtk.Label
	timeLbl     *gtk.Label
	iconImage   *gtk.Image
	progressBar *gtk.ProgressBar
	actionBtn   *gtk.Button
	closeBtn    *gtk.Button
	classes     []string
	shown       bool
	dragStart   gesture.Point
	dragOrigin  gesture.Point
}

func newPopup(s *Surface, ref toast.Ref, width, height int, opacity float64) *Popup {
	return &Popup{
		surface: s,
		id:      ref.ID,
		ref:     ref,
		axis:    ref.Axis,
		size:    gesture.Size{Width: float64(width), Height: float64(height)},
		opacity: opacity,
	}
}

// Swipeable implements gesture.Element.
func (p *Popup) Swipeable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref.Dismissible
}

// Axis implements gesture.Element.
func (p *Popup) Axis() placement.Axis {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.axis
}

// SetAxis implements toast.Handle.
func (p *Popup) SetAxis(axis placement.Axis) {
	p.mu.Lock()
	p.axis = axis
	p.mu.Unlock()
}

// Size implements gesture.Element.
func (p *Popup) Size() gesture.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Attached implements gesture.Element.
func (p *Popup) Attached() bool {
	return !p.released.Load()
}

// SetOffset implements gesture.Element.
func (p *Popup) SetOffset(offset gesture.Point, progress float64) {
	p.mu.Lock()
	p.offset = offset
	p.progress = progress
	p.mu.Unlock()
	glib.IdleAdd(p.applyOffset)
}

// Release implements toast.Handle.
func (p *Popup) Release() {
	if p.released.Swap(true) {
		return
	}
	p.surface.forget(p.id)
	glib.IdleAdd(p.destroy)
}

func (p *Popup) setRef(ref toast.Ref) {
	p.mu.Lock()
	p.ref = ref
	p.mu.Unlock()
}

func (p *Popup) snapshot() toast.Ref {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref
}

// build creates the window. Main thread.
func (p *Popup) build(app *gtk.Application, width int, rtl bool) {
	if p.window != nil || p.released.Load() {
		return
	}
	ref := p.snapshot()

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.SetDefaultSize(width, -1)
	p.window.SetSizeRequest(width, -1)
	if rtl {
		p.window.SetDirection(gtk.TextDirRTL)
	}

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "toastui")

	p.buildUI()
	p.render(ref)
	p.connectSignals()
}

func (p *Popup) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationVertical, 6)
	p.box.SetMarginTop(8)
	p.box.SetMarginBottom(8)
	p.box.SetMarginStart(12)
	p.box.SetMarginEnd(12)

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	header.AddCSSClass("toast-header")

	p.iconImage = gtk.NewImage()
	p.iconImage.AddCSSClass("toast-icon")
	p.iconImage.SetPixelSize(32)
	header.Append(p.iconImage)

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)

	p.appNameLbl = gtk.NewLabel("")
	p.appNameLbl.AddCSSClass("toast-appname")
	p.appNameLbl.SetXAlign(0)
	text.Append(p.appNameLbl)

	p.summaryLbl = gtk.NewLabel("")
	p.summaryLbl.AddCSSClass("toast-summary")
	p.summaryLbl.SetXAlign(0)
	p.summaryLbl.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	p.summaryLbl.SetMaxWidthChars(40)
	text.Append(p.summaryLbl)
	header.Append(text)

	p.timeLbl = gtk.NewLabel("")
	p.timeLbl.AddCSSClass("toast-timestamp")
	header.Append(p.timeLbl)

	p.closeBtn = gtk.NewButtonFromIconName("window-close-symbolic")
	p.closeBtn.AddCSSClass("toast-close")
	p.closeBtn.SetVisible(false)
	header.Append(p.closeBtn)
	p.box.Append(header)

	p.bodyLbl = gtk.NewLabel("")
	p.bodyLbl.AddCSSClass("toast-body")
	p.bodyLbl.SetXAlign(0)
	p.bodyLbl.SetWrap(true)
	p.bodyLbl.SetWrapMode(2) // PANGO_WRAP_WORD_CHAR
	p.bodyLbl.SetMaxWidthChars(50)
	p.box.Append(p.bodyLbl)

	p.progressBar = gtk.NewProgressBar()
	p.progressBar.AddCSSClass("toast-progress")
	p.box.Append(p.progressBar)

	p.actionBtn = gtk.NewButtonWithLabel("")
	p.actionBtn.AddCSSClass("toast-action")
	p.box.Append(p.actionBtn)

	p.window.SetChild(p.box)
}

// render copies the toast content into the widgets. Main thread.
func (p *Popup) render(ref toast.Ref) {
	if p.window == nil {
		return
	}
	c := ref.Content

	for _, class := range p.classes {
		p.box.RemoveCSSClass(class)
	}
	p.classes = stack.Classes(ref)
	for _, class := range p.classes {
		p.box.AddCSSClass(class)
	}

	icon := c.Icon
	if icon == "" {
		icon = levelIcon(c.Level.String())
	}
	if strings.HasPrefix(icon, "/") {
		p.iconImage.SetFromFile(icon)
	} else {
		p.iconImage.SetFromIconName(icon)
	}

	p.appNameLbl.SetText(c.AppName)
	p.appNameLbl.SetVisible(c.AppName != "")
	p.summaryLbl.SetText(c.Title)

	p.bodyLbl.SetVisible(c.Body != "")
	if strings.Contains(c.Body, "<") {
		p.bodyLbl.SetMarkup(c.Body)
	} else {
		p.bodyLbl.SetText(c.Body)
	}

	p.progressBar.SetVisible(c.HasProgress())
	p.progressBar.SetFraction(c.ProgressFraction())

	if ref.Action != nil {
		label := ref.Action.Label
		if label == "" {
			label = ref.Action.Key
		}
		p.actionBtn.SetLabel(label)
		p.actionBtn.SetVisible(true)
	} else {
		p.actionBtn.SetVisible(false)
	}

	p.refreshTimestamp()
}

func (p *Popup) refreshTimestamp() {
	if p.timeLbl == nil {
		return
	}
	p.timeLbl.SetText(humanize.Time(p.snapshot().Timestamp))
}

func levelIcon(level string) string {
	switch level {
	case "success":
		return "emblem-ok-symbolic"
	case "warning":
		return "dialog-warning-symbolic"
	case "error":
		return "dialog-error-symbolic"
	default:
		return "dialog-information-symbolic"
	}
}

func (p *Popup) connectSignals() {
	p.closeBtn.ConnectClicked(func() {
		p.surface.dismiss(p.id)
	})
	p.actionBtn.ConnectClicked(func() {
		p.surface.invoke(p.id)
	})

	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) {
		p.closeBtn.SetVisible(p.Swipeable())
		p.surface.hover(true)
	})
	motion.ConnectLeave(func() {
		p.closeBtn.SetVisible(false)
		p.surface.hover(false)
	})
	p.window.AddController(motion)

	click := gtk.NewGestureClick()
	click.SetButton(0)
	click.ConnectReleased(func(nPress int, x, y float64) {
		p.surface.clicked(p.id, click.CurrentButton())
	})
	p.window.AddController(click)

	drag := gtk.NewGestureDrag()
	drag.ConnectDragBegin(func(x, y float64) {
		p.refreshSize()
		p.dragStart = gesture.Point{X: x, Y: y}
		p.dragOrigin = p.currentOffset()
		p.dispatch(gesture.PointerDown, p.dragStart)
	})
	drag.ConnectDragUpdate(func(dx, dy float64) {
		p.dispatch(gesture.PointerMove, p.dragPoint(dx, dy))
	})
	drag.ConnectDragEnd(func(dx, dy float64) {
		p.dispatch(gesture.PointerUp, p.dragPoint(dx, dy))
	})
	drag.ConnectCancel(func(_ *gdk.EventSequence) {
		p.dispatch(gesture.PointerCancel, p.dragStart)
	})
	p.window.AddController(drag)
}

// dragPoint converts a drag offset to a point in the toast's resting frame.
// The window itself follows the swipe, so the offset reported by GTK
// excludes the distance already applied.
func (p *Popup) dragPoint(dx, dy float64) gesture.Point {
	moved := p.currentOffset().Sub(p.dragOrigin)
	return p.dragStart.Add(gesture.Point{X: dx, Y: dy}).Add(moved)
}

func (p *Popup) currentOffset() gesture.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

func (p *Popup) dispatch(typ gesture.EventType, at gesture.Point) {
	p.surface.dispatcher.Dispatch(gesture.PointerEvent{
		Type:     typ,
		Position: at,
		Target:   p,
	})
}

func (p *Popup) refreshSize() {
	if p.window == nil {
		return
	}
	w, h := p.window.Width(), p.window.Height()
	if w <= 0 || h <= 0 {
		return
	}
	p.mu.Lock()
	p.size = gesture.Size{Width: float64(w), Height: float64(h)}
	p.mu.Unlock()
}

// height returns the measured height, falling back to the cached size.
func (p *Popup) height() int {
	if p.window != nil {
		if h := p.window.Height(); h > 0 {
			return h
		}
	}
	return int(p.Size().Height)
}

// place applies a slot. Main thread.
func (p *Popup) place(l *LayoutManager, slot stack.Slot) {
	if p.window == nil || p.released.Load() {
		return
	}
	p.mu.Lock()
	p.slot = slot
	p.mu.Unlock()

	l.Place(p.window, slot)
	p.applyOffset()

	p.window.SetVisible(slot.Visible)
	if slot.Visible && !p.shown {
		p.shown = true
		p.window.Present()
	}
}

func (p *Popup) applyOffset() {
	if p.window == nil || p.released.Load() {
		return
	}
	p.mu.Lock()
	slot, offset, progress, opacity := p.slot, p.offset, p.progress, p.opacity
	p.mu.Unlock()

	ApplyMargins(p.window, slot.Edges, stack.Shift(slot.Margins, slot.Edges, offset))
	p.window.SetOpacity(stack.Opacity(opacity, progress))
}

func (p *Popup) setOpacity(opacity float64) {
	p.mu.Lock()
	p.opacity = opacity
	p.mu.Unlock()
}

func (p *Popup) setDirection(rtl bool) {
	if p.window == nil {
		return
	}
	if rtl {
		p.window.SetDirection(gtk.TextDirRTL)
	} else {
		p.window.SetDirection(gtk.TextDirLTR)
	}
}

func (p *Popup) destroy() {
	if p.window == nil {
		return
	}
	p.window.Close()
	p.window = nil
}
