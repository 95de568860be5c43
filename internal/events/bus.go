// Package events provides an in-process fan-out channel for span lifecycle
// events, for consumers that want to observe traces asynchronously without
// implementing a hook on the critical path.
package events

import "time"

// EventType categorizes a trace lifecycle event.
type EventType string

const (
	NodeStarted    EventType = "NodeStarted"
	NodeCompleted  EventType = "NodeCompleted"
	NodeFailed     EventType = "NodeFailed"
	TraceCompleted EventType = "TraceCompleted"
)

// Event is a flattened snapshot of one lifecycle transition, safe to hand
// across goroutines.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
	NodeID    string    `json:"node_id,omitempty"`
	NodeName  string    `json:"node_name,omitempty"`
	NodeType  string    `json:"node_type,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Bus distributes events to in-process consumers. Emit must never block the
// caller.
type Bus interface {
	Emit(event Event)
}
