package service

import (
	"sync"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"go.uber.org/zap"
)

// RoomRegistry is the in-memory map from room id to the set of clients
// currently joined, plus a connection-id index for targeted delivery.
// Rooms are created lazily on first join and dropped when the last member
// leaves. One instance per process, constructed at startup and injected;
// chat rooms and call rooms use separate instances so their id-spaces never
// collide.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
	clients map[string]*Client // connID -> client
	log     *zap.Logger
}

func NewRoomRegistry(log *zap.Logger) *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register makes the client reachable by connection id. Called once per
// connection before any room join.
func (r *RoomRegistry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Lookup returns the client with the given connection id.
func (r *RoomRegistry) Lookup(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// Add joins the client to the room. Returns false if it was already a
// member (join is idempotent).
func (r *RoomRegistry) Add(roomID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[*Client]struct{})
	}
	if _, ok := r.rooms[roomID][c]; ok {
		return false
	}
	r.rooms[roomID][c] = struct{}{}
	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][roomID] = struct{}{}
	return true
}

// Remove leaves the room. Returns false if the client was not a member.
func (r *RoomRegistry) Remove(roomID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(roomID, c)
}

func (r *RoomRegistry) removeLocked(roomID string, c *Client) bool {
	m, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := m[c]; !ok {
		return false
	}
	delete(m, c)
	if len(m) == 0 {
		delete(r.rooms, roomID)
	}
	if j := r.joined[c]; j != nil {
		delete(j, roomID)
	}
	return true
}

// Unregister evicts the client from every room it occupied and drops the
// connection index entry. Returns the rooms it was removed from so callers
// can notify the remaining members.
func (r *RoomRegistry) Unregister(c *Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rooms []string
	for roomID := range r.joined[c] {
		if r.removeLocked(roomID, c) {
			rooms = append(rooms, roomID)
		}
	}
	delete(r.joined, c)
	delete(r.clients, c.ID)
	return rooms
}

// InRoom reports whether the client is currently joined to the room.
func (r *RoomRegistry) InRoom(roomID string, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][c]
	return ok
}

// Members returns a snapshot of the clients in the room.
func (r *RoomRegistry) Members(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[roomID]
	out := make([]*Client, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

// Broadcast delivers data to every current member of the room, except the
// optional excluded client. Delivery to the member set is taken at a single
// point under the lock; the actual enqueue happens outside it.
func (r *RoomRegistry) Broadcast(roomID string, data []byte, except *Client) {
	for _, c := range r.Members(roomID) {
		if c == except {
			continue
		}
		if !c.Enqueue(data) {
			r.log.Warn("send buffer full, frame dropped",
				zap.String("room_id", roomID),
				zap.String("conn_id", c.ID))
		}
	}
}

// Send delivers data to a single connection by id.
func (r *RoomRegistry) Send(connID string, data []byte) error {
	c, ok := r.Lookup(connID)
	if !ok {
		return errs.ErrPeerUnreachable
	}
	if !c.Enqueue(data) {
		r.log.Warn("send buffer full, frame dropped", zap.String("conn_id", connID))
	}
	return nil
}

// Online returns the online-member view of the room for presence queries.
func (r *RoomRegistry) Online(roomID string) []model.OnlineMember {
	members := r.Members(roomID)
	out := make([]model.OnlineMember, 0, len(members))
	for _, c := range members {
		out = append(out, model.OnlineMember{ConnID: c.ID, Profile: c.Profile})
	}
	return out
}
