package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/core"
	"github.com/shinesoon/relay/internal/domain"
	"github.com/shinesoon/relay/internal/relay"
)

func (ctl *Controller) writePump(ctx context.Context, c *roomConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *roomConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Registry.Disconnect(c.id)
		c.Close()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(c, data)
		}
	}
}

// handleFrame routes one inbound frame. All failures are logged and dropped;
// the relay never surfaces errors to the sender.
func (ctl *Controller) handleFrame(c *roomConn, data []byte) {
	env, err := relay.ParseEnvelope(data)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("bad frame")
		return
	}

	switch env.Event {
	case relay.EventJoinRoom:
		room, err := env.RoomID()
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("bad join-room payload")
			return
		}
		ctl.Registry.Join(c.id, room)

	case relay.EventCodeUpdate:
		// The editor payload is the one place the relay rewrites data:
		// members receive the bare code string, not the envelope fields.
		var p relay.CodeUpdate
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("bad code-update payload")
			return
		}
		out, err := relay.NewEnvelope(relay.EventCodeUpdate, p.Code)
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("code-update envelope")
			return
		}
		ctl.Registry.Relay(c.id, domain.RoomID(p.RoomID), out)

	case relay.EventCallSignal, relay.EventScreenShareSignal, relay.EventChatMessage:
		room, err := env.RoomID()
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Str("event", env.Event).Msg("payload missing roomId")
			return
		}
		// Fan the original frame out untouched.
		ctl.Registry.Relay(c.id, room, core.Frame(data))

	default:
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
	}
}
