package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/domain"
)

type connEntry struct {
	sig   SignalConn
	rooms map[domain.RoomID]struct{}
}

// Registry is the process-wide connection/room mapping. It is the only shared
// mutable state in the relay: conn → joined rooms and room → member conns.
// Constructed once at startup and injected into the transport adapter.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
	rooms map[domain.RoomID]map[domain.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*connEntry),
		rooms: make(map[domain.RoomID]map[domain.ConnID]struct{}),
	}
}

// Bind registers a freshly accepted connection. A connection must be bound
// before it can join rooms; joins from unbound conns are ignored.
func (r *Registry) Bind(id domain.ConnID, sig SignalConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{sig: sig, rooms: make(map[domain.RoomID]struct{})}
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("bound connection")
}

// Join adds the connection to a room, creating the room implicitly.
// Idempotent; re-joining an already-joined room is a no-op. The room id is
// taken as-is — no validation and no capacity limit.
func (r *Registry) Join(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		log.Warn().Str("module", "core.registry").Str("conn", string(id)).Msg("join from unknown conn")
		return
	}
	entry.rooms[room] = struct{}{}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		r.rooms[room] = members
	}
	members[id] = struct{}{}
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Str("room", string(room)).Msg("joined room")
}

// Leave removes the connection from one room, dropping the room once empty.
func (r *Registry) Leave(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(id, room)
}

func (r *Registry) leaveLocked(id domain.ConnID, room domain.RoomID) {
	if entry, ok := r.conns[id]; ok {
		delete(entry.rooms, room)
	}
	if members, ok := r.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Disconnect removes the connection from every room it joined and unbinds it.
// Remaining members get no notification; the departure is silent by design.
func (r *Registry) Disconnect(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return
	}
	for room := range entry.rooms {
		r.leaveLocked(id, room)
	}
	delete(r.conns, id)
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("disconnected")
}

type memberSnap struct {
	ID  domain.ConnID
	Sig SignalConn
}

// membersOf snapshots the room's member set under the read lock so fan-out
// never sends while holding it.
func (r *Registry) membersOf(room domain.RoomID) []memberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	out := make([]memberSnap, 0, len(members))
	for id := range members {
		if entry, ok := r.conns[id]; ok {
			out = append(out, memberSnap{ID: id, Sig: entry.sig})
		}
	}
	return out
}

// MemberCount reports the current room size (0 for absent rooms).
func (r *Registry) MemberCount(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Rooms lists live rooms for the ops endpoint.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}
