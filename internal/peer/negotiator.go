package peer

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/relay"
)

// Negotiator owns the local negotiation state behind the machine's actions.
// Descriptions and candidates are opaque strings at the relay; this is the
// layer that actually interprets them.
type Negotiator interface {
	// CreateOffer builds and stores the local description, returning its SDP.
	CreateOffer() (string, error)
	// AcceptOffer applies the remote offer and returns the local answer SDP.
	AcceptOffer(sdp string) (string, error)
	// AcceptAnswer finalizes negotiation with the remote answer.
	AcceptAnswer(sdp string) error
	AddCandidate(relay.Candidate) error
	// OnCandidate is invoked for each locally discovered candidate.
	OnCandidate(func(relay.Candidate))
	// OnConnected fires once a bidirectional transport path is established.
	OnConnected(func())
	Close()
}

// RTCNegotiator backs the Machine with a real pion PeerConnection.
type RTCNegotiator struct {
	pc          *webrtc.PeerConnection
	onCandidate func(relay.Candidate)
	onConnected func()
}

func DefaultRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewRTCNegotiator(cfg webrtc.Configuration) (*RTCNegotiator, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	n := &RTCNegotiator{pc: pc}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil || n.onCandidate == nil {
			return
		}
		ci := cand.ToJSON()
		n.onCandidate(relay.Candidate{
			Candidate:        ci.Candidate,
			SDPMid:           ci.SDPMid,
			SDPMLineIndex:    ci.SDPMLineIndex,
			UsernameFragment: ci.UsernameFragment,
		})
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "peer.rtc").Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateConnected && n.onConnected != nil {
			n.onConnected()
		}
	})

	return n, nil
}

func (n *RTCNegotiator) CreateOffer() (string, error) {
	// The browser client carries media tracks; the Go reference client
	// negotiates a data channel so the SDP has something to offer.
	if _, err := n.pc.CreateDataChannel("control", nil); err != nil {
		return "", err
	}
	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (n *RTCNegotiator) AcceptOffer(sdp string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := n.pc.SetRemoteDescription(offer); err != nil {
		return "", err
	}
	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

func (n *RTCNegotiator) AcceptAnswer(sdp string) error {
	return n.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (n *RTCNegotiator) AddCandidate(c relay.Candidate) error {
	return n.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	})
}

func (n *RTCNegotiator) OnCandidate(fn func(relay.Candidate)) { n.onCandidate = fn }

func (n *RTCNegotiator) OnConnected(fn func()) { n.onConnected = fn }

func (n *RTCNegotiator) Close() {
	if err := n.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "peer.rtc").Msg("close error")
	}
}
