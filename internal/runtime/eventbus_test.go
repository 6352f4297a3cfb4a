package runtime

import (
	"sync"
	"testing"
	"time"
)

func TestEventBus_Subscribe(t *testing.T) {
	eb := NewEventBus()
	called := false

	eb.Subscribe(EventBatchStarted, func(e Event) {
		called = true
	})

	eb.Publish(Event{Type: EventBatchStarted})

	if !called {
		t.Error("handler was not called")
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	eb := NewEventBus()
	count := 0

	unsubscribe := eb.SubscribeAll(func(e Event) {
		count++
	})

	eb.Publish(Event{Type: EventBatchStarted})
	eb.Publish(Event{Type: EventClipEmbedded})
	eb.Publish(Event{Type: EventBatchCommitted})

	if count != 3 {
		t.Errorf("expected 3 calls, got %d", count)
	}

	unsubscribe()
	eb.Publish(Event{Type: EventBatchStarted})
	if count != 3 {
		t.Errorf("expected no calls after unsubscribe, got %d", count)
	}
}

func TestEventBus_PublishWithData(t *testing.T) {
	eb := NewEventBus()
	var received Event

	eb.Subscribe(EventClusterNamed, func(e Event) {
		received = e
	})

	eb.PublishWithData(EventClusterNamed, "sess-123", map[string]interface{}{"label": "ocean", "position": 2})

	if received.SessionID != "sess-123" {
		t.Errorf("expected session 'sess-123', got %q", received.SessionID)
	}
	if received.Str("label") != "ocean" || received.Int("position") != 2 {
		t.Errorf("data not properly passed: %v", received.Data)
	}
	if received.Str("missing") != "" || received.Int("label") != 0 {
		t.Error("accessors should return zero values for missing or mistyped keys")
	}
}

func TestEventBus_PublishSimple(t *testing.T) {
	eb := NewEventBus()
	var received Event

	eb.Subscribe(EventWorkflowFailed, func(e Event) {
		received = e
	})

	eb.PublishSimple(EventWorkflowFailed, "sess-456")

	if received.SessionID != "sess-456" {
		t.Errorf("expected session 'sess-456', got %q", received.SessionID)
	}
	if received.Type != EventWorkflowFailed {
		t.Errorf("expected type EventWorkflowFailed, got %v", received.Type)
	}
}

func TestEventBus_TimestampAutoSet(t *testing.T) {
	eb := NewEventBus()
	var received Event

	eb.Subscribe(EventBatchStarted, func(e Event) {
		received = e
	})

	before := time.Now()
	eb.Publish(Event{Type: EventBatchStarted})
	after := time.Now()

	if received.Timestamp.Before(before) || received.Timestamp.After(after) {
		t.Error("timestamp not set correctly")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	eb := NewEventBus()
	startCalled := false
	endCalled := false

	eb.Subscribe(EventBatchStarted, func(e Event) {
		startCalled = true
	})
	eb.Subscribe(EventBatchCommitted, func(e Event) {
		endCalled = true
	})

	eb.Publish(Event{Type: EventBatchStarted})

	if !startCalled {
		t.Error("start handler was not called")
	}
	if endCalled {
		t.Error("commit handler should not have been called")
	}
}

func TestEventBus_HandlerMaySubscribe(t *testing.T) {
	eb := NewEventBus()
	eb.Subscribe(EventBatchStarted, func(e Event) {
		eb.SubscribeAll(func(Event) {})
	})

	done := make(chan struct{})
	go func() {
		eb.Publish(Event{Type: EventBatchStarted})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish deadlocked when a handler subscribed")
	}
}

func TestEventBus_Nil(t *testing.T) {
	var eb *EventBus
	called := false
	eb.Subscribe(EventBatchStarted, func(Event) { called = true })
	unsubscribe := eb.SubscribeAll(func(Event) { called = true })
	eb.PublishSimple(EventBatchStarted, "s")
	unsubscribe()
	if called {
		t.Error("Nil bus delivered an event")
	}
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	eb := NewEventBus()
	var count int
	var mu sync.Mutex

	eb.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eb.Publish(Event{Type: EventClipEmbedded})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 100 {
		t.Errorf("expected 100 events, got %d", count)
	}
}
