package relay

import (
	"encoding/json"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"chat-message","data":{"roomId":"42","text":"hi"}}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.Event != EventChatMessage {
		t.Fatalf("event = %q", env.Event)
	}
}

func TestParseEnvelopeRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not json":       `nope`,
		"missing event":  `{"data":{}}`,
		"unknown field":  `{"event":"chat-message","data":{},"extra":1}`,
		"trailing bytes": `{"event":"chat-message","data":{}}{"event":"x"}`,
	}
	for name, raw := range cases {
		if _, err := ParseEnvelope([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRoomIDFromJoinRoom(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"join-room","data":"42"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	room, err := env.RoomID()
	if err != nil {
		t.Fatalf("RoomID: %v", err)
	}
	if room != "42" {
		t.Fatalf("room = %q, want 42", room)
	}
}

func TestRoomIDProbe(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"call-signal","data":{"roomId":"42","type":"ready"}}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	room, err := env.RoomID()
	if err != nil {
		t.Fatalf("RoomID: %v", err)
	}
	if room != "42" {
		t.Fatalf("room = %q, want 42", room)
	}

	if _, err := (Envelope{Event: EventChatMessage, Data: json.RawMessage(`"bare"`)}).RoomID(); err == nil {
		t.Fatalf("expected error for payload without roomId")
	}
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	frame, err := NewEnvelope(EventCodeUpdate, "x=1")
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	env, err := ParseEnvelope(frame)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	var code string
	if err := json.Unmarshal(env.Data, &code); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if code != "x=1" {
		t.Fatalf("code = %q, want x=1", code)
	}
}
