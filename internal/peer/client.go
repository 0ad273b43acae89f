package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/domain"
	"github.com/shinesoon/relay/internal/relay"
)

const clientWriteWait = 5 * time.Second

// Client binds a Machine and a Negotiator to a live relay over one websocket.
// It is the Go counterpart of the browser's interview-room page and the
// harness the end-to-end tests drive.
type Client struct {
	conn *websocket.Conn
	room domain.RoomID
	role domain.Role
	name string

	machine *Machine
	neg     Negotiator

	// OnChat and OnCode receive relayed traffic from the other peer.
	OnChat func(relay.ChatMessage)
	OnCode func(code string)

	writeMu sync.Mutex
}

// Dial connects to the relay endpoint, registers room membership and
// announces presence. The caller runs Run to pump inbound events.
func Dial(ctx context.Context, url string, room domain.RoomID, role domain.Role, name string, neg Negotiator) (*Client, error) {
	// The role decides the handshake triggers, so refuse to announce one the
	// other side will not recognize.
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("role %q: %w", role, err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		room:    room,
		role:    role,
		name:    name,
		machine: NewMachine(role),
		neg:     neg,
	}

	neg.OnCandidate(func(cand relay.Candidate) {
		c.sendSignal(relay.CallSignal{
			RoomID:    string(room),
			Type:      relay.SignalCandidate,
			Candidate: &cand,
		})
	})
	neg.OnConnected(func() {
		c.machine.TransportConnected()
		log.Info().Str("module", "peer.client").Str("room", string(room)).Msg("transport connected")
	})

	if err := c.send(relay.EventJoinRoom, string(room)); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := c.sendSignal(relay.CallSignal{
		RoomID: string(room),
		Type:   relay.SignalJoin,
		Role:   role,
		Name:   name,
	}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.machine.Joined()
	return c, nil
}

func (c *Client) State() State { return c.machine.State() }

// Run pumps inbound events until the connection drops or ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	env, err := relay.ParseEnvelope(data)
	if err != nil {
		log.Error().Err(err).Str("module", "peer.client").Msg("bad frame")
		return
	}
	switch env.Event {
	case relay.EventCallSignal:
		var sig relay.CallSignal
		if err := json.Unmarshal(env.Data, &sig); err != nil {
			log.Error().Err(err).Str("module", "peer.client").Msg("bad call-signal payload")
			return
		}
		c.dispatch(sig)
	case relay.EventChatMessage:
		if c.OnChat == nil {
			return
		}
		var msg relay.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		c.OnChat(msg)
	case relay.EventCodeUpdate:
		if c.OnCode == nil {
			return
		}
		var code string
		if err := json.Unmarshal(env.Data, &code); err != nil {
			return
		}
		c.OnCode(code)
	}
}

// dispatch runs one machine step and performs the resulting side effect.
// Negotiator failures are logged and dropped; the handshake has no retry
// path, matching the browser client.
func (c *Client) dispatch(sig relay.CallSignal) {
	switch c.machine.OnSignal(sig) {
	case ActionSendReady:
		_ = c.sendSignal(relay.CallSignal{RoomID: string(c.room), Type: relay.SignalReady})
	case ActionCreateOffer:
		sdp, err := c.neg.CreateOffer()
		if err != nil {
			log.Error().Err(err).Str("module", "peer.client").Msg("create offer")
			return
		}
		_ = c.sendSignal(relay.CallSignal{RoomID: string(c.room), Type: relay.SignalOffer, SDP: sdp})
	case ActionCreateAnswer:
		sdp, err := c.neg.AcceptOffer(sig.SDP)
		if err != nil {
			log.Error().Err(err).Str("module", "peer.client").Msg("accept offer")
			return
		}
		_ = c.sendSignal(relay.CallSignal{RoomID: string(c.room), Type: relay.SignalAnswer, SDP: sdp})
	case ActionAcceptAnswer:
		if err := c.neg.AcceptAnswer(sig.SDP); err != nil {
			log.Error().Err(err).Str("module", "peer.client").Msg("accept answer")
		}
	case ActionApplyCandidate:
		if sig.Candidate == nil {
			return
		}
		if err := c.neg.AddCandidate(*sig.Candidate); err != nil {
			log.Error().Err(err).Str("module", "peer.client").Msg("add candidate")
		}
	}
}

func (c *Client) SendChat(text string) error {
	return c.send(relay.EventChatMessage, relay.ChatMessage{
		RoomID: string(c.room),
		Sender: c.name,
		Text:   text,
		Time:   time.Now().Format(time.RFC3339),
	})
}

func (c *Client) SendCode(code string) error {
	return c.send(relay.EventCodeUpdate, relay.CodeUpdate{
		RoomID: string(c.room),
		Code:   code,
	})
}

func (c *Client) sendSignal(sig relay.CallSignal) error {
	return c.send(relay.EventCallSignal, sig)
}

func (c *Client) send(event string, data any) error {
	frame, err := relay.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) Close() {
	c.neg.Close()
	_ = c.conn.Close()
}
