// Package runtime carries progress events out of running workflows to
// whoever is watching: the CLI progress printer, the TUI, logs.
package runtime

import (
	"sort"
	"sync"
	"time"
)

// EventType represents the type of workflow event.
type EventType string

const (
	EventBatchStarted   EventType = "batch.started"
	EventClipsGenerated EventType = "clips.generated"
	EventClipEmbedded   EventType = "clip.embedded"
	EventClustersFormed EventType = "clusters.formed"
	EventClusterNamed   EventType = "cluster.named"
	EventClipDiscarded  EventType = "clip.discarded"
	EventBatchCommitted EventType = "batch.committed"
	EventWorkflowFailed EventType = "workflow.failed"
)

// Event represents a workflow event with associated data.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	Data      map[string]interface{}
}

// Int returns Data[key] as an int, or 0.
func (e Event) Int(key string) int {
	v, _ := e.Data[key].(int)
	return v
}

// Str returns Data[key] as a string, or "".
func (e Event) Str(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

// EventHandler is a function that handles events. Handlers run synchronously
// on the publishing goroutine and must not block.
type EventHandler func(Event)

// EventBus manages event publication and subscription. A nil *EventBus
// accepts and drops every event.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]EventHandler
	allHandlers map[int]EventHandler
	nextID      int
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers:    make(map[EventType][]EventHandler),
		allHandlers: make(map[int]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	if eb == nil {
		return
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types and returns a
// function that removes it.
func (eb *EventBus) SubscribeAll(handler EventHandler) (unsubscribe func()) {
	if eb == nil {
		return func() {}
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eb.nextID
	eb.nextID++
	eb.allHandlers[id] = handler
	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.allHandlers, id)
	}
}

// Publish sends an event to all registered handlers.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

	eb.mu.RLock()
	specific := append([]EventHandler(nil), eb.handlers[event.Type]...)
	ids := make([]int, 0, len(eb.allHandlers))
	for id := range eb.allHandlers {
		ids = append(ids, id)
	}
	all := make([]EventHandler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		all = append(all, eb.allHandlers[id])
	}
	eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, handler := range specific {
		handler(event)
	}
	for _, handler := range all {
		handler(event)
	}
}

// PublishSimple is a convenience method for publishing events without additional data.
func (eb *EventBus) PublishSimple(eventType EventType, sessionID string) {
	eb.Publish(Event{
		Type:      eventType,
		SessionID: sessionID,
	})
}

// PublishWithData publishes an event with associated data.
func (eb *EventBus) PublishWithData(eventType EventType, sessionID string, data map[string]interface{}) {
	eb.Publish(Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
	})
}
