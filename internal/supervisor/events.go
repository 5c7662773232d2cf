package supervisor

// Event represents a variant lifecycle event.
// Minimal and stable: name + variant key and optional fields via key/values.
type Event struct {
	Name   string
	Key    string
	Fields map[string]any
}

// EventPublisher receives events from the supervisor. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
