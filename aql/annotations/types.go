// Package annotations records what a query did while it ran: when it was
// invoked, which plan it used, which indexes it probed and how many documents
// each loop touched.
package annotations

import (
	"sync"
	"time"
)

// Event names, grouped by subsystem.
const (
	// Query lifecycle
	QueryInvoked     = "query/invoked"
	QueryPlanCreated = "query/plan.created"
	QueryComplete    = "query/completed"

	// Access paths
	IndexSelected  = "index/selected"
	IndexProbe     = "index/probe"
	CollectionScan = "collection/scan"
	FilterResidual = "filter/residual"

	// Errors
	ErrorQueryCompile = "error/query.compile"
	ErrorQueryBinding = "error/query.binding"
	ErrorEvaluation   = "error/evaluation"
)

// Event is a single annotation emitted during query execution.
type Event struct {
	Name    string                 // One of the event name constants
	QueryID string                 // Identifier shared by all events of one query
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // End - Start
	Data    map[string]interface{} // Event-specific fields
}

// Handler processes events as they occur.
type Handler func(event Event)

// Collector accumulates events for one query and forwards each to its
// handler.
type Collector struct {
	enabled bool
	handler Handler
	queryID string

	mu     sync.Mutex
	events []Event
}

// NewCollector creates a collector. A nil handler disables collection.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 16),
	}
}

// Handler returns the underlying event handler.
func (c *Collector) Handler() Handler {
	return c.handler
}

// Enabled reports whether events are recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// SetQueryID stamps subsequent events with id.
func (c *Collector) SetQueryID(id string) {
	c.mu.Lock()
	c.queryID = id
	c.mu.Unlock()
}

// Add records an event. Safe for concurrent use.
func (c *Collector) Add(event Event) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	if event.QueryID == "" {
		event.QueryID = c.queryID
	}
	if event.End.IsZero() {
		event.End = event.Start
	}
	c.events = append(c.events, event)
	c.mu.Unlock()

	// Handler runs outside the lock so it may call back into the collector.
	c.handler(event)
}

// AddTiming records an event that started at start and ends now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns the collected events with the given name, in order.
func (c *Collector) Named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the collected events. The handler is kept.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.queryID = ""
}
