package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommandAnalyzed EventType = "command_analyzed"
	EventCommandRecorded EventType = "command_recorded"
	EventSessionReset    EventType = "session_reset"
)

// CommandEvent describes one command flowing through the session layer.
type CommandEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Command   string    `json:"command"`
	Category  Category  `json:"category"`
	Valid     bool      `json:"valid"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnAnalyze func(context.Context, *CommandEvent)
	OnRecord  func(context.Context, *CommandEvent)
	OnReset   func(context.Context, string)
}
