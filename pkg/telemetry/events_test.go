package telemetry

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func newSyncPublisher(t *testing.T) *EventPublisher {
	t.Helper()
	ep, err := NewEventPublisher(EventsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("Expected no error creating publisher, got: %v", err)
	}
	return ep
}

func TestEventPublisher_SyncDelivery(t *testing.T) {
	ep := newSyncPublisher(t)

	var received []Event
	ep.Subscribe(func(event Event) {
		received = append(received, event)
	}, nil)

	if err := ep.PublishJobSubmitted(1234, "open"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(received))
	}

	event := received[0]
	if event.Type != EventTypeJobSubmitted {
		t.Errorf("Expected type %s, got %s", EventTypeJobSubmitted, event.Type)
	}
	if event.JobID != 1234 {
		t.Errorf("Expected job id 1234, got %d", event.JobID)
	}
	if event.ID == "" {
		t.Error("Expected a generated event ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected a generated timestamp")
	}
	if event.Level != EventLevelInfo {
		t.Errorf("Expected level %s, got %s", EventLevelInfo, event.Level)
	}
}

func TestEventPublisher_DisabledDropsEvents(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	called := false
	ep.Subscribe(func(event Event) { called = true }, nil)

	if err := ep.PublishJobCompleted(1, "complete"); err != nil {
		t.Fatalf("Expected no error from a disabled publisher, got: %v", err)
	}
	if called {
		t.Error("Expected no delivery from a disabled publisher")
	}
}

func TestEventPublisher_Filters(t *testing.T) {
	ep := newSyncPublisher(t)

	var byType, byJob, byLevel []Event
	ep.Subscribe(func(event Event) { byType = append(byType, event) },
		FilterByType(EventTypeJobStatusChanged))
	ep.Subscribe(func(event Event) { byJob = append(byJob, event) },
		FilterByJobID(42))
	ep.Subscribe(func(event Event) { byLevel = append(byLevel, event) },
		FilterByLevel(EventLevelError))

	ep.PublishJobSubmitted(42, "open")
	ep.PublishJobStatusChanged(42, "open", "queued")
	ep.PublishJobStatusChanged(7, "queued", "running")
	ep.PublishJobFailed(7, "backend rejected the program")

	if len(byType) != 2 {
		t.Errorf("Expected 2 status_changed events, got %d", len(byType))
	}
	if len(byJob) != 2 {
		t.Errorf("Expected 2 events for job 42, got %d", len(byJob))
	}
	if len(byLevel) != 1 {
		t.Fatalf("Expected 1 error-level event, got %d", len(byLevel))
	}
	if byLevel[0].Type != EventTypeJobFailed {
		t.Errorf("Expected job.failed, got %s", byLevel[0].Type)
	}
}

func TestEventPublisher_StatusChangedCarriesTransition(t *testing.T) {
	ep := newSyncPublisher(t)

	var got Event
	ep.Subscribe(func(event Event) { got = event }, nil)

	ep.PublishJobStatusChanged(29583, "queued", "complete")

	if got.Data["from"] != "queued" || got.Data["to"] != "complete" {
		t.Errorf("Expected transition queued->complete in data, got %v", got.Data)
	}
	if !strings.Contains(got.Message, "moved from queued to complete") {
		t.Errorf("Expected transition in message, got %q", got.Message)
	}
}

func TestEventPublisher_AsyncRequiresBuffer(t *testing.T) {
	_, err := NewEventPublisher(EventsConfig{
		Enabled:     true,
		EnableAsync: true,
		BufferSize:  0,
	})
	if err == nil {
		t.Fatal("Expected an error for async mode without a buffer")
	}
}

func TestEventPublisher_AsyncDrainOnShutdown(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{
		Enabled:     true,
		EnableAsync: true,
		BufferSize:  16,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var mu sync.Mutex
	count := 0
	ep.Subscribe(func(event Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)

	for i := 0; i < 10; i++ {
		if err := ep.PublishJobSubmitted(int64(i), "open"); err != nil {
			t.Fatalf("Expected no error on publish %d, got: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ep.Shutdown(ctx); err != nil {
		t.Fatalf("Expected clean shutdown, got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 10 {
		t.Errorf("Expected all 10 events delivered before shutdown returned, got %d", count)
	}
}

func TestEventPublisher_AsyncBufferFull(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{
		Enabled:     true,
		EnableAsync: true,
		BufferSize:  1,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	started := make(chan struct{}, 3)
	release := make(chan struct{})
	ep.Subscribe(func(event Event) {
		started <- struct{}{}
		<-release
	}, nil)

	// First event is picked up by the delivery goroutine, which then blocks
	// inside the subscriber. The second fills the buffer.
	if err := ep.PublishJobSubmitted(1, "open"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	<-started
	if err := ep.PublishJobSubmitted(2, "open"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := ep.PublishJobSubmitted(3, "open"); err == nil {
		t.Error("Expected an error once the buffer is full")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ep.Shutdown(ctx); err != nil {
		t.Fatalf("Expected clean shutdown, got: %v", err)
	}
}
