package service

import (
	"context"
	"sync"

	"sitebuilder/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from the host surface
// ─────────────────────────────────────────────────────────────

// EventEmitter publishes service events ("site:saved", "draft:restored"...)
// to whatever hosts the editor. Services depend on this interface only,
// which keeps them testable with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes events to the structured log. Used when no host listens.
type LogEmitter struct {
	Log *logger.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	if e.Log == nil {
		return
	}
	e.Log.Debug("event", "event", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}
