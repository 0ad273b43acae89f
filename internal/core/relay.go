package core

import (
	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/domain"
)

// Relay fans the frame out to every current member of the room except the
// sender. Fire-and-forget: an empty or absent room drops the frame silently,
// and a member whose send fails is skipped, not retried. The frame is never
// echoed back to the sender.
func (r *Registry) Relay(from domain.ConnID, room domain.RoomID, f Frame) PublishResult {
	res := PublishResult{}
	for _, m := range r.membersOf(room) {
		if m.ID == from {
			continue
		}
		if err := m.Sig.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, m.ID)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.relay").
		Str("from", string(from)).
		Str("room", string(room)).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("fan-out")
	return res
}
