package relay

import "github.com/shinesoon/relay/internal/domain"

// SignalType discriminates the call-setup handshake payloads. The server
// never reads these; they exist for the Go peer client and its tests.
type SignalType string

const (
	SignalJoin      SignalType = "join"
	SignalReady     SignalType = "ready"
	SignalOffer     SignalType = "offer"
	SignalAnswer    SignalType = "answer"
	SignalCandidate SignalType = "candidate"
)

// Candidate mirrors the browser's RTCIceCandidateInit shape.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// CallSignal is one handshake message. Fields beyond roomId/type are present
// only for the matching SignalType.
type CallSignal struct {
	RoomID    string      `json:"roomId"`
	Type      SignalType  `json:"type"`
	Role      domain.Role `json:"role,omitempty"`
	Name      string      `json:"name,omitempty"`
	SDP       string      `json:"sdp,omitempty"`
	Candidate *Candidate  `json:"candidate,omitempty"`
}

type ChatMessage struct {
	RoomID string `json:"roomId"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

// CodeUpdate is the inbound editor payload; the relayed form is Code alone.
type CodeUpdate struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}
