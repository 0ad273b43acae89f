// Package peer implements the client-side call-setup coordinator: a per-peer
// state machine driven by relayed call-signal events, plus a pion-backed
// negotiator and a websocket client binding them to a live relay. The server
// never runs any of this; handshake state lives entirely on the peers.
package peer

import (
	"sync"

	"github.com/shinesoon/relay/internal/domain"
	"github.com/shinesoon/relay/internal/relay"
)

type State int

const (
	StateIdle State = iota
	StateJoined
	StateOffering
	StateReady
	StateNegotiating
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoined:
		return "joined"
	case StateOffering:
		return "offering"
	case StateReady:
		return "ready"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// Action tells the caller what to do with the negotiator and the wire in
// response to an inbound signal. The machine itself touches neither.
type Action int

const (
	ActionNone Action = iota
	// ActionSendReady: announce willingness to receive an offer.
	ActionSendReady
	// ActionCreateOffer: build a local description and send offer{sdp}.
	ActionCreateOffer
	// ActionCreateAnswer: apply the remote offer, build and send answer{sdp}.
	ActionCreateAnswer
	// ActionAcceptAnswer: apply the remote answer locally.
	ActionAcceptAnswer
	// ActionApplyCandidate: feed the candidate to local negotiation state.
	ActionApplyCandidate
	// ActionIgnore: drop the signal. Candidates arriving before the remote
	// description are ignored rather than queued; an accepted race.
	ActionIgnore
)

// Machine is one peer's handshake progress. Role decides the triggers: the
// candidate initiates the offer, the interviewer responds. There is no
// timeout or retry; a lost signal stalls the handshake until both peers
// reconnect.
type Machine struct {
	mu        sync.Mutex
	role      domain.Role
	state     State
	remoteSet bool
}

func NewMachine(role domain.Role) *Machine {
	return &Machine{role: role, state: StateIdle}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Joined marks the join announcement as sent.
func (m *Machine) Joined() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		m.state = StateJoined
	}
}

// OnSignal advances the machine for one inbound handshake signal and reports
// the required side effect.
func (m *Machine) OnSignal(sig relay.CallSignal) Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch sig.Type {
	case relay.SignalJoin:
		// The responder answers any join with ready, even a re-join.
		if m.role == domain.RoleInterviewer && (m.state == StateJoined || m.state == StateReady) {
			m.state = StateReady
			return ActionSendReady
		}
		return ActionNone

	case relay.SignalReady:
		if m.role == domain.RoleCandidate && m.state == StateJoined {
			m.state = StateOffering
			return ActionCreateOffer
		}
		return ActionNone

	case relay.SignalOffer:
		if m.role == domain.RoleInterviewer && m.state == StateReady {
			m.state = StateNegotiating
			m.remoteSet = true
			return ActionCreateAnswer
		}
		return ActionIgnore

	case relay.SignalAnswer:
		if m.state == StateOffering {
			m.state = StateNegotiating
			m.remoteSet = true
			return ActionAcceptAnswer
		}
		return ActionIgnore

	case relay.SignalCandidate:
		if !m.remoteSet {
			return ActionIgnore
		}
		return ActionApplyCandidate
	}
	return ActionIgnore
}

// TransportConnected is signaled by the peer-transport layer, not by any
// relay event.
func (m *Machine) TransportConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateNegotiating {
		m.state = StateConnected
	}
}
