package tracking

import "time"

type EventKind string

const (
	EventUsage      EventKind = "usage"
	EventScreenshot EventKind = "screenshot"
	EventState      EventKind = "state"
)

// FlushReason says why a session's usage was emitted.
type FlushReason string

const (
	ReasonStop     FlushReason = "stop"
	ReasonSuspend  FlushReason = "suspend"
	ReasonShutdown FlushReason = "shutdown"
)

type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateSuspended State = "suspended"
)

// Event is what the controller publishes on the bus. Exactly one of the
// payload pointers is set, matching Kind.
type Event struct {
	Kind       EventKind    `json:"kind"`
	At         time.Time    `json:"at"`
	Usage      *UsageReport `json:"usage,omitempty"`
	Screenshot *Screenshot  `json:"screenshot,omitempty"`
	State      *StateChange `json:"state,omitempty"`
}

// UsageReport is the accumulated usage of one session, emitted once when
// the session ends.
type UsageReport struct {
	SessionID uint64      `json:"session_id"`
	Started   time.Time   `json:"started"`
	Ended     time.Time   `json:"ended"`
	Reason    FlushReason `json:"reason"`
	Usage     Usage       `json:"usage"`
}

// Screenshot describes one image written to disk.
type Screenshot struct {
	Path        string `json:"path"`
	Timestamp   int64  `json:"timestamp"` // Unix seconds
	AppName     string `json:"app_name,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	SessionID   uint64 `json:"session_id"`
}

type StateChange struct {
	From  State  `json:"from"`
	To    State  `json:"to"`
	Cause string `json:"cause"`
}

// ErrorSink receives non-fatal failures for diagnostics.
type ErrorSink interface {
	RecordError(source string, err error)
}

type nopSink struct{}

func (nopSink) RecordError(string, error) {}
