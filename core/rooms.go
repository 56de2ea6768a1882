package core

import "sync"

// Session is one live client connection, addressable as a broadcast target.
// The underlying transport is an implementation detail behind Deliver.
type Session interface {
	ID() string
	// Deliver pushes an event to this peer. Delivery is best-effort: if
	// the transport is gone or saturated the event is dropped, never an
	// error to the caller.
	Deliver(e *Event)
}

// RoomRegistry maps room identifiers to the set of currently joined
// sessions. Rooms are ephemeral: an entry is created lazily on the first
// join and removed on the last leave. A session's lifetime is owned by the
// connection layer; the registry only references it.
type RoomRegistry struct {
	rooms map[string]map[Session]struct{}
	mu    sync.RWMutex
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[Session]struct{}),
	}
}

// Join adds the session to the room's member set, creating the room if
// absent. Joining a room the session is already in is a no-op.
func (r *RoomRegistry) Join(roomID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[Session]struct{})
		r.rooms[roomID] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from the room's member set. The room entry is
// removed when its last member leaves.
func (r *RoomRegistry) Leave(roomID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(roomID, s)
}

// LeaveAll removes the session from every room it has joined. It must be
// called before a disconnected session becomes unreachable so no broadcast
// ever targets a ghost member.
func (r *RoomRegistry) LeaveAll(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.rooms {
		r.leave(roomID, s)
	}
}

func (r *RoomRegistry) leave(roomID string, s Session) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns a snapshot of the sessions currently joined to the room.
// An absent room yields an empty slice.
func (r *RoomRegistry) Members(roomID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[roomID]
	snapshot := make([]Session, 0, len(members))
	for s := range members {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// Rooms returns the identifiers of the rooms the session is currently in.
func (r *RoomRegistry) Rooms(s Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var roomIDs []string
	for roomID, members := range r.rooms {
		if _, ok := members[s]; ok {
			roomIDs = append(roomIDs, roomID)
		}
	}
	return roomIDs
}
