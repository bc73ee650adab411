package exam

import (
	"maps"
	"strings"
	"time"
)

// SecurityEventType tags a proctoring signal.
type SecurityEventType string

const (
	EventTabSwitch       SecurityEventType = "tab_switch"
	EventRightClick      SecurityEventType = "right_click"
	EventBlockedShortcut SecurityEventType = "keyboard_shortcut"
	EventWebcamDenied    SecurityEventType = "webcam_denied"
)

// Valid reports whether t is one of the known event types.
func (t SecurityEventType) Valid() bool {
	switch t {
	case EventTabSwitch, EventRightClick, EventBlockedShortcut, EventWebcamDenied:
		return true
	}
	return false
}

// SecurityEvent is one entry of the proctoring audit trail.
type SecurityEvent struct {
	Type      SecurityEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]any    `json:"data,omitempty"`
}

// clone returns a copy whose Data map is not shared with the caller.
func (e SecurityEvent) clone() SecurityEvent {
	if e.Data != nil {
		e.Data = maps.Clone(e.Data)
	}
	return e
}

// KeyPress describes a keydown reported by the host.
type KeyPress struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
}

// IsBlockedShortcut reports whether the key combination is one the exam
// intercepts: copy, paste, select-all, find, and the developer tools.
func IsBlockedShortcut(k KeyPress) bool {
	if k.Key == "F12" {
		return true
	}
	if !k.Ctrl {
		return false
	}
	if k.Shift && strings.EqualFold(k.Key, "i") {
		return true
	}
	switch strings.ToLower(k.Key) {
	case "c", "v", "a", "f":
		return true
	}
	return false
}
