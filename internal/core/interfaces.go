package core

import "github.com/shinesoon/relay/internal/domain"

// Frame is one serialized relay envelope, opaque to the core.
type Frame []byte

// SignalConn abstracts the per-client messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats for one fan-out.
// Dropped members had a full send buffer or a closed transport;
// the frame is simply skipped for them, never retried.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

// RoomInfo is a read-only view for the ops endpoint.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}
