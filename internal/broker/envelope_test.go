package broker

import (
	"bytes"
	"testing"

	"github.com/petrijr/rivus/pkg/api"
)

func TestEnvelopeCodecRoundTrip(t *testing.T) {
	env := NewEnvelope(api.EventInput, "message", []byte{0x00, 0xff, 0x10})

	if env.ID == "" {
		t.Fatalf("expected a correlation id")
	}

	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	if got.ID != env.ID || got.Kind != env.Kind || got.InputID != env.InputID {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, env)
	}
	if !bytes.Equal(got.Data, env.Data) {
		t.Fatalf("payload mismatch: %v vs %v", got.Data, env.Data)
	}
}

func TestDecodeEnvelopeGarbage(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("not gob")); err == nil {
		t.Fatalf("expected decode error")
	}
}
