package api

// EventType identifies the kind of an event delivered to a node.
//
// The set below is what the runtime produces today, but nodes must tolerate
// values they do not recognize: anything that is neither EventInput nor
// EventStop is logged and skipped by the loop driver.
type EventType string

const (
	// EventInput carries a named input payload.
	EventInput EventType = "input"

	// EventStop asks the node to leave its event loop. Terminal.
	EventStop EventType = "stop"

	// EventInputClosed signals that an upstream input has finished and will
	// produce no further data.
	EventInputClosed EventType = "input-closed"

	// EventError carries an orchestrator-side error description.
	EventError EventType = "error"
)

// Event is one unit of work delivered to a node.
//
// Events are produced exclusively by Node.Next and are owned by the loop
// iteration that received them. Every event must be released exactly once via
// Close before the next call to Next; the runtime enforces this with
// ErrEventOutstanding and ErrEventReleased. An Event is not safe for
// concurrent use.
type Event struct {
	kind     EventType
	inputID  string
	data     []byte
	detail   string
	release  func() error
	released bool
}

// NewEvent constructs an Event backed by the given release callback.
//
// It is intended for Node implementations (transports, test fakes);
// applications only consume events.
func NewEvent(kind EventType, inputID string, data []byte, release func() error) *Event {
	return &Event{
		kind:    kind,
		inputID: inputID,
		data:    data,
		release: release,
	}
}

// WithDetail attaches a human-oriented detail string (used by EventError)
// and returns the event for chaining.
func (e *Event) WithDetail(detail string) *Event {
	e.detail = detail
	return e
}

// Kind returns the event kind.
func (e *Event) Kind() EventType { return e.kind }

// InputID returns the identifier the payload was published under.
// It is meaningful only for EventInput and EventInputClosed events.
func (e *Event) InputID() string { return e.inputID }

// Data returns the raw payload. Meaningful only for EventInput events.
// Callers must treat the returned slice as read-only.
func (e *Event) Data() []byte { return e.data }

// Detail returns the detail string of an EventError event, if any.
func (e *Event) Detail() string { return e.detail }

// Close releases the event back to the runtime, allowing the next pull to
// proceed. It must be called exactly once; a second call returns
// ErrEventReleased.
func (e *Event) Close() error {
	if e.released {
		return ErrEventReleased
	}
	e.released = true
	if e.release != nil {
		return e.release()
	}
	return nil
}
