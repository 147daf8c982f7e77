package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"go.uber.org/zap"
)

type callParticipant struct {
	client   *Client
	muted    bool
	videoOff bool
	sharing  bool
}

type callRoom struct {
	participants map[string]*callParticipant // connID -> participant
	sharer       string                      // connID holding the screen-share claim, "" if none
	speaking     map[string]time.Time        // connID -> speaking deadline
}

// ClientDirectory resolves a connection id to a live client. The signaling
// relay needs it to forward frames to a named connection.
type ClientDirectory interface {
	Lookup(connID string) (*Client, bool)
}

// CallCoordinator tracks call-room membership separately from chat
// presence, relays pair negotiation frames verbatim, arbitrates the
// per-room screen-share claim and rebroadcasts speaking transitions.
//
// Offer direction is fixed by arrival order: when a newcomer joins, every
// participant already present receives call_peer_joined and initiates the
// offer toward the newcomer, while the newcomer only answers the offers
// announced by its call_participants roster. Exactly one offer per pair.
type CallCoordinator struct {
	directory   ClientDirectory
	speakingTTL time.Duration
	log         *zap.Logger

	mu     sync.RWMutex
	rooms  map[string]*callRoom
	joined map[*Client]map[string]struct{}
}

func NewCallCoordinator(directory ClientDirectory, speakingTTL time.Duration, log *zap.Logger) *CallCoordinator {
	if speakingTTL <= 0 {
		speakingTTL = time.Second
	}
	return &CallCoordinator{
		directory:   directory,
		speakingTTL: speakingTTL,
		log:         log,
		rooms:       make(map[string]*callRoom),
		joined:      make(map[*Client]map[string]struct{}),
	}
}

// Join adds the client to the call room, announces it to every existing
// participant and returns the existing roster to the joiner. Call rooms are
// created lazily by id; a rejoin after a drop is a brand-new participant.
func (cc *CallCoordinator) Join(c *Client, roomID string) *model.CallParticipantsPayload {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil {
		room = &callRoom{
			participants: make(map[string]*callParticipant),
			speaking:     make(map[string]time.Time),
		}
		cc.rooms[roomID] = room
	}
	if _, ok := room.participants[c.ID]; ok {
		roster := cc.rosterLocked(room, c.ID)
		cc.mu.Unlock()
		return &model.CallParticipantsPayload{RoomID: roomID, Participants: roster}
	}
	elders := cc.membersLocked(room, c.ID)
	roster := cc.rosterLocked(room, c.ID)
	room.participants[c.ID] = &callParticipant{client: c}
	if cc.joined[c] == nil {
		cc.joined[c] = make(map[string]struct{})
	}
	cc.joined[c][roomID] = struct{}{}
	cc.mu.Unlock()

	cc.log.Info("call join",
		zap.String("room_id", roomID),
		zap.String("conn_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.Int("peers", len(elders)))

	cc.emit(elders, model.EventCallPeerJoined, model.CallPeerJoinedPayload{
		RoomID:      roomID,
		Participant: model.CallParticipant{ConnID: c.ID, Profile: c.Profile},
	})
	return &model.CallParticipantsPayload{RoomID: roomID, Participants: roster}
}

// Leave evicts the client from the call room, releases its screen-share
// claim if held and announces the departure. Each surviving pair tears its
// own negotiation state down on call_peer_left; there is no central
// teardown.
func (cc *CallCoordinator) Leave(c *Client, roomID string) {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil {
		cc.mu.Unlock()
		return
	}
	if _, ok := room.participants[c.ID]; !ok {
		cc.mu.Unlock()
		return
	}
	delete(room.participants, c.ID)
	delete(room.speaking, c.ID)
	heldShare := room.sharer == c.ID
	if heldShare {
		room.sharer = ""
	}
	if j := cc.joined[c]; j != nil {
		delete(j, roomID)
		if len(j) == 0 {
			delete(cc.joined, c)
		}
	}
	remaining := cc.membersLocked(room, "")
	if len(room.participants) == 0 {
		delete(cc.rooms, roomID)
	}
	cc.mu.Unlock()

	if heldShare {
		cc.emit(remaining, model.EventScreenShareStopped, model.ScreenSharePayload{
			RoomID: roomID, ConnID: c.ID, UserID: c.UserID,
		})
	}
	cc.emit(remaining, model.EventCallPeerLeft, model.CallPeerLeftPayload{
		RoomID: roomID, ConnID: c.ID,
	})
	cc.log.Info("call leave", zap.String("room_id", roomID), zap.String("conn_id", c.ID))
}

// Disconnect treats a vanished connection exactly like an explicit leave of
// every call room it occupied.
func (cc *CallCoordinator) Disconnect(c *Client) {
	cc.mu.RLock()
	rooms := make([]string, 0, len(cc.joined[c]))
	for roomID := range cc.joined[c] {
		rooms = append(rooms, roomID)
	}
	cc.mu.RUnlock()
	for _, roomID := range rooms {
		cc.Leave(c, roomID)
	}
}

// Relay forwards a negotiation frame (offer, answer or ice_candidate)
// verbatim to the named connection. The payload is never inspected. An
// unreachable target is reported to the sender only.
func (cc *CallCoordinator) Relay(from *Client, event, to string, payload json.RawMessage) error {
	target, ok := cc.directory.Lookup(to)
	if !ok {
		return errs.ErrPeerUnreachable
	}
	data, err := model.NewEvent(event, model.ForwardedSignalPayload{
		From:    from.ID,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	if !target.Enqueue(data) {
		cc.log.Warn("signal dropped, target buffer full",
			zap.String("from", from.ID), zap.String("to", to))
	}
	return nil
}

// StartScreenShare grants the room's exclusive claim to the first requester
// (re-requesting while holding is a no-op grant) and announces it. A
// concurrent requester gets ErrScreenShareHeld; other participants are not
// told about the rejected attempt.
func (cc *CallCoordinator) StartScreenShare(c *Client, roomID string) error {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil {
		cc.mu.Unlock()
		return errs.ErrRoomNotFound
	}
	p, ok := room.participants[c.ID]
	if !ok {
		cc.mu.Unlock()
		return errs.ErrNotAMember
	}
	if room.sharer != "" && room.sharer != c.ID {
		cc.mu.Unlock()
		return errs.ErrScreenShareHeld
	}
	room.sharer = c.ID
	p.sharing = true
	members := cc.membersLocked(room, c.ID)
	cc.mu.Unlock()

	cc.emit(members, model.EventScreenShareStarted, model.ScreenSharePayload{
		RoomID: roomID, ConnID: c.ID, UserID: c.UserID,
	})
	return nil
}

// StopScreenShare clears the claim only if the caller holds it; releasing
// when not the holder is a no-op.
func (cc *CallCoordinator) StopScreenShare(c *Client, roomID string) {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil || room.sharer != c.ID {
		cc.mu.Unlock()
		return
	}
	room.sharer = ""
	if p := room.participants[c.ID]; p != nil {
		p.sharing = false
	}
	members := cc.membersLocked(room, c.ID)
	cc.mu.Unlock()

	cc.emit(members, model.EventScreenShareStopped, model.ScreenSharePayload{
		RoomID: roomID, ConnID: c.ID, UserID: c.UserID,
	})
}

// SetSpeaking rebroadcasts a speaking transition to the room. The sender
// already debounces; the sweep only heals a missed stop.
func (cc *CallCoordinator) SetSpeaking(c *Client, roomID string, isSpeaking bool) {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil {
		cc.mu.Unlock()
		return
	}
	if _, ok := room.participants[c.ID]; !ok {
		cc.mu.Unlock()
		return
	}
	if isSpeaking {
		room.speaking[c.ID] = time.Now().Add(cc.speakingTTL)
	} else {
		delete(room.speaking, c.ID)
	}
	members := cc.membersLocked(room, c.ID)
	cc.mu.Unlock()

	cc.emit(members, model.EventSpeakingState, model.SpeakingStatePayload{
		RoomID: roomID, ConnID: c.ID, IsSpeaking: isSpeaking,
	})
}

// SetMediaState updates the caller's muted/video flags and rebroadcasts
// them so late roster reads stay accurate.
func (cc *CallCoordinator) SetMediaState(c *Client, roomID string, muted, videoOff bool) {
	cc.mu.Lock()
	room := cc.rooms[roomID]
	if room == nil {
		cc.mu.Unlock()
		return
	}
	p, ok := room.participants[c.ID]
	if !ok {
		cc.mu.Unlock()
		return
	}
	p.muted = muted
	p.videoOff = videoOff
	members := cc.membersLocked(room, c.ID)
	cc.mu.Unlock()

	cc.emit(members, model.EventMediaState, model.MediaStatePayload{
		RoomID: roomID, ConnID: c.ID, Muted: muted, VideoOff: videoOff,
	})
}

// Participants returns the current roster of the call room.
func (cc *CallCoordinator) Participants(roomID string) []model.CallParticipant {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	room := cc.rooms[roomID]
	if room == nil {
		return nil
	}
	return cc.rosterLocked(room, "")
}

// Run sweeps expired speaking states until ctx is cancelled.
func (cc *CallCoordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cc.sweepSpeaking(now)
		}
	}
}

func (cc *CallCoordinator) sweepSpeaking(now time.Time) {
	type expiry struct {
		roomID  string
		c       *Client
		members []*Client
	}
	var expired []expiry
	cc.mu.Lock()
	for roomID, room := range cc.rooms {
		for connID, deadline := range room.speaking {
			if !now.After(deadline) {
				continue
			}
			delete(room.speaking, connID)
			p := room.participants[connID]
			if p == nil {
				continue
			}
			expired = append(expired, expiry{
				roomID:  roomID,
				c:       p.client,
				members: cc.membersLocked(room, connID),
			})
		}
	}
	cc.mu.Unlock()

	for _, e := range expired {
		cc.emit(e.members, model.EventSpeakingState, model.SpeakingStatePayload{
			RoomID: e.roomID, ConnID: e.c.ID, IsSpeaking: false,
		})
	}
}

// membersLocked snapshots the participants' clients, excluding connID.
func (cc *CallCoordinator) membersLocked(room *callRoom, exceptConnID string) []*Client {
	out := make([]*Client, 0, len(room.participants))
	for connID, p := range room.participants {
		if connID == exceptConnID {
			continue
		}
		out = append(out, p.client)
	}
	return out
}

// rosterLocked snapshots the participant DTOs, excluding connID.
func (cc *CallCoordinator) rosterLocked(room *callRoom, exceptConnID string) []model.CallParticipant {
	out := make([]model.CallParticipant, 0, len(room.participants))
	for connID, p := range room.participants {
		if connID == exceptConnID {
			continue
		}
		out = append(out, model.CallParticipant{
			ConnID:   connID,
			Profile:  p.client.Profile,
			Muted:    p.muted,
			VideoOff: p.videoOff,
			Sharing:  p.sharing,
		})
	}
	return out
}

func (cc *CallCoordinator) emit(targets []*Client, event string, payload any) {
	data, err := model.NewEvent(event, payload)
	if err != nil {
		cc.log.Error("marshal call event", zap.String("event", event), zap.Error(err))
		return
	}
	for _, c := range targets {
		if !c.Enqueue(data) {
			cc.log.Warn("call event dropped, buffer full",
				zap.String("event", event), zap.String("conn_id", c.ID))
		}
	}
}
