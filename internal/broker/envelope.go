package broker

import (
	"bytes"
	"encoding/gob"

	"github.com/google/uuid"
	"github.com/petrijr/rivus/pkg/api"
)

// Envelope is the unit the runtime moves between nodes. It is what a mailbox
// stores and what the redis transport puts on the wire (gob-encoded).
type Envelope struct {
	// ID correlates the envelope across logs and journals.
	ID string

	Kind    api.EventType
	InputID string
	Data    []byte

	// Detail carries the description of an EventError envelope.
	Detail string
}

// NewEnvelope builds an input envelope with a fresh correlation ID.
// The payload is not copied here; callers own that decision.
func NewEnvelope(kind api.EventType, inputID string, data []byte) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Kind:    kind,
		InputID: inputID,
		Data:    data,
	}
}

// EncodeEnvelope gob-encodes an Envelope.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope gob-decodes an Envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Event converts the envelope into an api.Event backed by the given release
// callback.
func (env *Envelope) Event(release func() error) *api.Event {
	ev := api.NewEvent(env.Kind, env.InputID, env.Data, release)
	if env.Detail != "" {
		ev = ev.WithDetail(env.Detail)
	}
	return ev
}
