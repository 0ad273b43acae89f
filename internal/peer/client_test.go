package peer_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	router "github.com/shinesoon/relay/internal/adapters/http"
	"github.com/shinesoon/relay/internal/config"
	"github.com/shinesoon/relay/internal/core"
	"github.com/shinesoon/relay/internal/domain"
	"github.com/shinesoon/relay/internal/peer"
	"github.com/shinesoon/relay/internal/relay"
)

func newRelayServer(t *testing.T) (*httptest.Server, *core.Registry) {
	t.Helper()
	cfg := &config.Config{
		Mode:         "release",
		StaticPath:   t.TempDir(),
		ReadLimit:    512 * 1024,
		SendBuffer:   64,
		WriteTimeout: time.Second,
		Secret:       "test-secret",
	}
	reg := core.NewRegistry()
	r := router.SetupRouter(context.Background(), cfg, reg)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, reg
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/room"
}

func dialPeer(t *testing.T, ts *httptest.Server, role domain.Role, name string) *peer.Client {
	t.Helper()
	neg, err := peer.NewRTCNegotiator(peer.DefaultRTCConfig())
	if err != nil {
		t.Fatalf("NewRTCNegotiator: %v", err)
	}
	c, err := peer.Dial(context.Background(), wsURL(ts), "42", role, name, neg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitMembers(t *testing.T, reg *core.Registry, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.MemberCount("42") == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room never reached %d members", n)
}

func waitState(t *testing.T, c *peer.Client, want peer.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := c.State()
		if st == want || (want == peer.StateNegotiating && st == peer.StateConnected) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

type nopNegotiator struct{}

func (nopNegotiator) CreateOffer() (string, error)       { return "", nil }
func (nopNegotiator) AcceptOffer(string) (string, error) { return "", nil }
func (nopNegotiator) AcceptAnswer(string) error          { return nil }
func (nopNegotiator) AddCandidate(relay.Candidate) error { return nil }
func (nopNegotiator) OnCandidate(func(relay.Candidate))  {}
func (nopNegotiator) OnConnected(func())                 {}
func (nopNegotiator) Close()                             {}

func TestDialRejectsUnknownRole(t *testing.T) {
	_, err := peer.Dial(context.Background(), "ws://127.0.0.1:0", "42", "observer", "Eve", nopNegotiator{})
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("err = %v, want ErrUnknownRole", err)
	}
}

// TestPeersNegotiateOverRelay drives two real pion-backed peers through the
// full handshake with the relay in the middle: the interviewer answers the
// candidate's join with ready, the candidate offers, the interviewer answers,
// and both sides end up negotiating.
func TestPeersNegotiateOverRelay(t *testing.T) {
	ts, reg := newRelayServer(t)

	interviewer := dialPeer(t, ts, domain.RoleInterviewer, "Alice")
	waitMembers(t, reg, 1)
	go func() { _ = interviewer.Run(context.Background()) }()

	candidate := dialPeer(t, ts, domain.RoleCandidate, "Bob")
	waitMembers(t, reg, 2)
	go func() { _ = candidate.Run(context.Background()) }()

	waitState(t, interviewer, peer.StateNegotiating)
	waitState(t, candidate, peer.StateNegotiating)
}

func TestChatAndCodeBetweenPeers(t *testing.T) {
	ts, reg := newRelayServer(t)

	interviewer := dialPeer(t, ts, domain.RoleInterviewer, "Alice")
	waitMembers(t, reg, 1)
	candidate := dialPeer(t, ts, domain.RoleCandidate, "Bob")
	waitMembers(t, reg, 2)

	chats := make(chan relay.ChatMessage, 1)
	codes := make(chan string, 1)
	candidate.OnChat = func(m relay.ChatMessage) { chats <- m }
	candidate.OnCode = func(code string) { codes <- code }

	go func() { _ = interviewer.Run(context.Background()) }()
	go func() { _ = candidate.Run(context.Background()) }()

	if err := interviewer.SendChat("hi"); err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if err := interviewer.SendCode("x=1"); err != nil {
		t.Fatalf("SendCode: %v", err)
	}

	select {
	case m := <-chats:
		if m.Sender != "Alice" || m.Text != "hi" {
			t.Fatalf("chat = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("chat never arrived")
	}
	select {
	case code := <-codes:
		if code != "x=1" {
			t.Fatalf("code = %q, want x=1", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("code never arrived")
	}
}
