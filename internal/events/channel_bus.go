package events

import (
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
)

// ChannelEventBus implements Bus over a buffered Go channel. Emission is
// non-blocking: when the buffer is full the event is dropped and a warning
// is logged, so slow consumers can never stall span bookkeeping.
type ChannelEventBus struct {
	channel chan Event
	log     tracelog.Logger
}

// NewChannelEventBus creates a bus with the given buffer size (a default is
// used when non-positive). Panics on a nil logger: the bus cannot report
// dropped events without one.
func NewChannelEventBus(bufferSize int, log tracelog.Logger) *ChannelEventBus {
	const defaultBufferSize = 256
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}
	return &ChannelEventBus{
		channel: make(chan Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
}

// Emit sends an event onto the buffered channel without blocking, dropping
// it with a warning when the buffer is full.
func (c *ChannelEventBus) Emit(event Event) {
	select {
	case c.channel <- event:
	default:
		c.log.Warnf("event channel buffer full, dropping event type '%s'", event.Type)
	}
}

// GetChannel returns the read side of the bus for in-process consumers.
func (c *ChannelEventBus) GetChannel() <-chan Event {
	return c.channel
}

// Close closes the underlying channel, signalling consumers that no more
// events will be sent.
func (c *ChannelEventBus) Close() {
	close(c.channel)
}

var _ Bus = (*ChannelEventBus)(nil)
