package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastui/internal/model"
)

// LevelHint lets senders pick a toast level directly instead of via urgency.
const LevelHint = "x-toastui-level"

// Request is one Notify call as received on the bus.
type Request struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // alternating key, label
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 server default, 0 never
}

// Action is a key/label pair from the Notify actions array.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the alternating actions array. A trailing key
// without a label is dropped.
func (r *Request) ParsedActions() []Action {
	actions := make([]Action, 0, len(r.Actions)/2)
	for i := 0; i+1 < len(r.Actions); i += 2 {
		actions = append(actions, Action{Key: r.Actions[i], Label: r.Actions[i+1]})
	}
	return actions
}

// Action picks the action a toast exposes: "default" when offered, else the
// first one.
func (r *Request) Action() *model.Action {
	actions := r.ParsedActions()
	if len(actions) == 0 {
		return nil
	}
	chosen := actions[0]
	for _, a := range actions {
		if a.Key == "default" {
			chosen = a
			break
		}
	}
	return &model.Action{Key: chosen.Key, Label: chosen.Label, Resident: r.Resident()}
}

// Level derives the toast level from the level hint, falling back to the
// urgency hint.
func (r *Request) Level() model.Level {
	if s := r.stringHint(LevelHint); s != "" {
		if level, err := model.ParseLevel(s); err == nil {
			return level
		}
	}
	return model.LevelForUrgency(r.Urgency())
}

// Content converts the request into toast content.
func (r *Request) Content() model.Content {
	icon := r.AppIcon
	if icon == "" {
		icon = r.ImagePath()
	}
	return model.Content{
		Title:    r.Summary,
		Body:     r.Body,
		Level:    r.Level(),
		AppName:  r.AppName,
		Icon:     icon,
		Progress: r.Progress(),
	}
}

// Timeout returns the auto-dismiss delay to request from the queue, or nil
// to use the server default for level.
func (r *Request) Timeout() *time.Duration {
	var d time.Duration
	switch {
	case r.ExpireTimeout < 0:
		return nil
	case r.ExpireTimeout == 0:
		d = 0
	default:
		d = time.Duration(r.ExpireTimeout) * time.Millisecond
	}
	return &d
}

// Urgency returns the urgency hint, 1 (normal) when absent.
func (r *Request) Urgency() int {
	if v, ok := r.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return 1
}

// Category returns the category hint.
func (r *Request) Category() string { return r.stringHint("category") }

// SoundFile returns the sound-file hint.
func (r *Request) SoundFile() string { return r.stringHint("sound-file") }

// ImagePath returns the image-path hint.
func (r *Request) ImagePath() string { return r.stringHint("image-path") }

// SuppressSound reports the suppress-sound hint.
func (r *Request) SuppressSound() bool { return r.boolHint("suppress-sound") }

// Transient reports the transient hint.
func (r *Request) Transient() bool { return r.boolHint("transient") }

// Resident reports the resident hint: the toast stays after its action runs.
func (r *Request) Resident() bool { return r.boolHint("resident") }

// Progress returns the value hint (0-100), or -1.
func (r *Request) Progress() int {
	if v, ok := r.Hints["value"]; ok {
		switch val := v.Value().(type) {
		case int32:
			return int(val)
		case uint32:
			return int(val)
		case int:
			return val
		case byte:
			return int(val)
		}
	}
	return -1
}

// StackTag returns the stack tag; toasts sharing one replace each other.
func (r *Request) StackTag() string {
	if s := r.stringHint("x-dunst-stack-tag"); s != "" {
		return s
	}
	return r.stringHint("stack-tag")
}

func (r *Request) stringHint(key string) string {
	if v, ok := r.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (r *Request) boolHint(key string) bool {
	if v, ok := r.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ServerCapabilities lists the capabilities advertised by toastuid.
var ServerCapabilities = []string{
	"actions",
	"body",
	"icon-static",
	"sound",
	"x-toastui-swipe",
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastuid",
		Vendor:      "toastui",
		Version:     "0.0.1",
		SpecVersion: "1.2",
	}
}
