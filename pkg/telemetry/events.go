package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents one observable moment in a job's lifecycle.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// JobID is the associated job ID, if applicable.
	JobID int64 `json:"job_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeJobSubmitted     = "job.submitted"
	EventTypeJobStatusChanged = "job.status_changed"
	EventTypeJobCompleted     = "job.completed"
	EventTypeJobFailed        = "job.failed"
	EventTypeResultFetched    = "result.fetched"
	EventTypeCircuitFetched   = "circuit.fetched"
	EventTypeError            = "error"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions. In synchronous
// mode (the default) subscribers run inline from Publish, which keeps event
// ordering deterministic for a CLI. Async mode buffers events and delivers
// them from a background goroutine.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	ep := &EventPublisher{config: cfg}
	if !cfg.Enabled {
		return ep, nil
	}

	if cfg.EnableAsync {
		if cfg.BufferSize <= 0 {
			return nil, fmt.Errorf("event buffer size must be positive in async mode, got %d", cfg.BufferSize)
		}
		ctx, cancel := context.WithCancel(context.Background())
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.cancel = cancel
		ep.wg.Add(1)
		go ep.processEvents(ctx)
	}

	return ep, nil
}

// Subscribe registers a subscriber, optionally restricted by a filter.
// Subscribers must return quickly; they run on the publishing goroutine in
// synchronous mode and on the delivery goroutine in async mode.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// Publish delivers an event to all matching subscribers. The ID and timestamp
// are filled in when absent. In async mode a full buffer is reported as an
// error rather than blocking the caller.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == "" {
		event.Level = EventLevelInfo
	}

	if !ep.config.EnableAsync {
		ep.deliver(event)
		return nil
	}

	select {
	case ep.buffer <- event:
		return nil
	default:
		return fmt.Errorf("event buffer full, dropping event %s", event.Type)
	}
}

// processEvents drains the buffer until shutdown.
func (ep *EventPublisher) processEvents(ctx context.Context) {
	defer ep.wg.Done()
	for {
		select {
		case <-ctx.Done():
			// Drain what is already buffered before exiting
			for {
				select {
				case event := <-ep.buffer:
					ep.deliver(event)
				default:
					return
				}
			}
		case event := <-ep.buffer:
			ep.deliver(event)
		}
	}
}

// deliver hands the event to every subscriber whose filter accepts it.
func (ep *EventPublisher) deliver(event Event) {
	ep.mu.RLock()
	entries := make([]subscriberEntry, len(ep.subscribers))
	copy(entries, ep.subscribers)
	ep.mu.RUnlock()

	for _, entry := range entries {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown stops async delivery after draining buffered events. It returns
// early with the context error when the deadline expires first.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep.cancel == nil {
		return nil
	}
	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishJobSubmitted publishes a job submission event.
func (ep *EventPublisher) PublishJobSubmitted(jobID int64, status string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobSubmitted,
		Source:  "api",
		JobID:   jobID,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("job %d submitted", jobID),
		Data:    map[string]interface{}{"status": status},
	})
}

// PublishJobStatusChanged publishes a status transition event.
func (ep *EventPublisher) PublishJobStatusChanged(jobID int64, from, to string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobStatusChanged,
		Source:  "api",
		JobID:   jobID,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("job %d moved from %s to %s", jobID, from, to),
		Data:    map[string]interface{}{"from": from, "to": to},
	})
}

// PublishJobCompleted publishes a terminal success event.
func (ep *EventPublisher) PublishJobCompleted(jobID int64, status string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobCompleted,
		Source:  "api",
		JobID:   jobID,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("job %d finished with status %s", jobID, status),
		Data:    map[string]interface{}{"status": status},
	})
}

// PublishJobFailed publishes a terminal failure event.
func (ep *EventPublisher) PublishJobFailed(jobID int64, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobFailed,
		Source:  "api",
		JobID:   jobID,
		Level:   EventLevelError,
		Message: fmt.Sprintf("job %d failed", jobID),
		Data:    map[string]interface{}{"reason": reason},
	})
}

// PublishResultFetched publishes a result retrieval event.
func (ep *EventPublisher) PublishResultFetched(jobID int64, sizeBytes int) error {
	return ep.Publish(Event{
		Type:    EventTypeResultFetched,
		Source:  "api",
		JobID:   jobID,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("result for job %d fetched", jobID),
		Data:    map[string]interface{}{"size_bytes": sizeBytes},
	})
}

// FilterByLevel creates a filter that accepts events at the given level.
func FilterByLevel(level string) EventFilter {
	return func(event Event) bool {
		return event.Level == level
	}
}

// FilterByType creates a filter that accepts events of the given type.
func FilterByType(eventType string) EventFilter {
	return func(event Event) bool {
		return event.Type == eventType
	}
}

// FilterByJobID creates a filter that accepts events for the given job.
func FilterByJobID(jobID int64) EventFilter {
	return func(event Event) bool {
		return event.JobID == jobID
	}
}
