package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

const (
	// Interface is the notification interface name.
	Interface = "org.freedesktop.Notifications"
	// Path is the notification object path.
	Path = dbus.ObjectPath("/org/freedesktop/Notifications")
	// BusName is the bus name to claim.
	BusName = "org.freedesktop.Notifications"
)

// ErrNameTaken is returned by Start when another daemon owns the bus name.
var ErrNameTaken = errors.New("bus name already taken")

// Queue is the part of toast.Queue the bridge drives.
type Queue interface {
	Add(content model.Content, opts toast.AddOptions) toast.Ref
	Replace(id string, content model.Content) (toast.Ref, bool)
	CloseWithReason(id string, reason toast.CloseReason) bool
}

// Emitter sends bus signals. *dbus.Conn implements it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Options configures a Server.
type Options struct {
	// Emitter overrides the session bus connection for signals.
	Emitter Emitter
	Info    ServerInfo
	// Timeout returns the default delay for a level when the sender asks
	// for the server default.
	Timeout func(level model.Level) time.Duration
	// Sound plays a per-notification sound-file hint.
	Sound  func(path string)
	Logger *slog.Logger
}

// Server bridges org.freedesktop.Notifications onto a toast queue. Bus ids
// are small integers; toast ids are ULIDs, so the server keeps both maps.
type Server struct {
	queue   Queue
	conn    *dbus.Conn
	emitter Emitter
	info    ServerInfo
	timeout func(model.Level) time.Duration
	sound   func(string)
	logger  *slog.Logger

	mu      sync.Mutex
	nextID  uint32
	byBus   map[uint32]string
	byToast map[string]uint32
	tags    map[string]uint32
	running bool
}

// NewServer creates a bridge for q.
func NewServer(q Queue, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Info == (ServerInfo{}) {
		opts.Info = DefaultServerInfo()
	}
	return &Server{
		queue:   q,
		emitter: opts.Emitter,
		info:    opts.Info,
		timeout: opts.Timeout,
		sound:   opts.Sound,
		logger:  opts.Logger,
		byBus:   make(map[uint32]string),
		byToast: make(map[string]uint32),
		tags:    make(map[string]uint32),
	}
}

// Start connects to the session bus, exports the service and claims the
// bus name.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: methods(),
				Signals: signals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%w: %s", ErrNameTaken, BusName)
	}

	s.mu.Lock()
	s.conn = conn
	if s.emitter == nil {
		s.emitter = conn
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities implements the bus method GetCapabilities() -> as.
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements GetServerInformation() -> (ssss).
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify implements Notify(susssasa{sv}i) -> u.
func (s *Server) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	return s.Submit(&Request{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}), nil
}

// Submit queues a request and returns its bus id. A live toast named by
// ReplacesID or sharing the stack tag is updated in place.
func (s *Server) Submit(req *Request) uint32 {
	content := req.Content()
	tag := req.StackTag()

	s.mu.Lock()
	busID, toastID := s.targetLocked(req.ReplacesID, tag)
	s.mu.Unlock()

	if toastID != "" {
		if _, ok := s.queue.Replace(toastID, content); ok {
			s.logger.Debug("notification replaced", "id", busID, "toast", toastID)
			s.playHint(req)
			return busID
		}
	}

	s.mu.Lock()
	s.nextID++
	busID = s.nextID
	// Reserved before Add so a close racing the registration is seen.
	s.byBus[busID] = ""
	if tag != "" {
		s.tags[tag] = busID
	}
	s.mu.Unlock()

	opts := toast.AddOptions{
		Duration: req.Timeout(),
		Action:   req.Action(),
		OnClose: func(_ toast.Ref, reason toast.CloseReason) {
			s.closed(busID, reason)
		},
	}
	if opts.Duration == nil && s.timeout != nil {
		d := s.timeout(content.Level)
		opts.Duration = &d
	}

	ref := s.queue.Add(content, opts)

	s.mu.Lock()
	if ref.Zero() {
		s.forgetLocked(busID)
	} else if _, live := s.byBus[busID]; live {
		s.byBus[busID] = ref.ID
		s.byToast[ref.ID] = busID
	}
	s.mu.Unlock()

	s.logger.Debug("notification queued", "id", busID, "toast", ref.ID, "app", req.AppName)
	s.playHint(req)
	return busID
}

func (s *Server) targetLocked(replacesID uint32, tag string) (uint32, string) {
	if replacesID != 0 {
		if id := s.byBus[replacesID]; id != "" {
			return replacesID, id
		}
	}
	if tag != "" {
		if busID, ok := s.tags[tag]; ok {
			if id := s.byBus[busID]; id != "" {
				return busID, id
			}
		}
	}
	return 0, ""
}

func (s *Server) playHint(req *Request) {
	if s.sound == nil || req.SuppressSound() {
		return
	}
	if path := req.SoundFile(); path != "" {
		s.sound(path)
	}
}

// CloseNotification implements CloseNotification(u). Unknown ids are
// ignored.
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	s.mu.Lock()
	toastID := s.byBus[id]
	s.mu.Unlock()

	if toastID == "" {
		s.logger.Debug("CloseNotification for unknown id", "id", id)
		return nil
	}
	s.queue.CloseWithReason(toastID, toast.CloseReasonClosed)
	return nil
}

// ActionInvoked is the queue's OnAction hook: it forwards the action to the
// sender as an ActionInvoked signal.
func (s *Server) ActionInvoked(ref toast.Ref, key string) {
	s.mu.Lock()
	busID, ok := s.byToast[ref.ID]
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.emit("ActionInvoked", busID, key); err != nil {
		s.logger.Warn("failed to emit ActionInvoked", "id", busID, "error", err)
	}
}

// BusID returns the bus id of a toast.
func (s *Server) BusID(toastID string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToast[toastID]
	return id, ok
}

// Active returns the number of toasts the bridge is tracking.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byBus)
}

func (s *Server) closed(busID uint32, reason toast.CloseReason) {
	s.mu.Lock()
	s.forgetLocked(busID)
	s.mu.Unlock()

	if err := s.emit("NotificationClosed", busID, reason.Freedesktop()); err != nil {
		s.logger.Warn("failed to emit NotificationClosed", "id", busID, "error", err)
	}
}

func methods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

func (s *Server) forgetLocked(busID uint32) {
	if toastID, ok := s.byBus[busID]; ok && toastID != "" {
		delete(s.byToast, toastID)
	}
	delete(s.byBus, busID)
	for tag, id := range s.tags {
		if id == busID {
			delete(s.tags, tag)
		}
	}
}
