// Package relay defines the wire vocabulary spoken over a room connection:
// a small JSON envelope discriminated by event name, with payloads the server
// leaves opaque except for the room id needed to route them.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shinesoon/relay/internal/domain"
)

const (
	// EventJoinRoom registers room membership; data is the bare room id string.
	EventJoinRoom = "join-room"
	// EventCallSignal carries call-setup handshake payloads between peers.
	EventCallSignal = "call-signal"
	// EventScreenShareSignal carries the screen-share renegotiation handshake.
	// Relayed exactly like call-signal.
	EventScreenShareSignal = "screen-share-signal"
	// EventChatMessage carries free-text chat.
	EventChatMessage = "chat-message"
	// EventCodeUpdate carries collaborative editor contents. Inbound data is
	// {roomId, code}; the fan-out delivers the bare code string.
	EventCodeUpdate = "code-update"
)

// Envelope frames every message on the wire. Data stays raw so relayed
// payloads pass through byte-identical.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ParseEnvelope decodes one frame, rejecting unknown envelope fields and
// trailing garbage. Payload contents are not validated here.
func ParseEnvelope(data []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope missing event")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Envelope{}, fmt.Errorf("unexpected trailing data")
	}
	return env, nil
}

// RoomID extracts the routing key from the payload: the bare string for
// join-room, the roomId field for everything else.
func (e Envelope) RoomID() (domain.RoomID, error) {
	if e.Event == EventJoinRoom {
		var id string
		if err := json.Unmarshal(e.Data, &id); err != nil {
			return "", fmt.Errorf("join-room data is not a string: %w", err)
		}
		return domain.RoomID(id), nil
	}
	var probe struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(e.Data, &probe); err != nil {
		return "", fmt.Errorf("payload has no roomId: %w", err)
	}
	return domain.RoomID(probe.RoomID), nil
}

// NewEnvelope serializes an outbound frame.
func NewEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
