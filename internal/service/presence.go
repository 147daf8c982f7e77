package service

import (
	"fmt"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/store"
	"go.uber.org/zap"
)

// PresenceManager joins connections to the chat rooms implied by their
// study memberships and broadcasts online/offline transitions. A member
// observes peer_online before any chat event the peer authors in the same
// room: both go through the room's single broadcast point in order.
type PresenceManager struct {
	registry    *RoomRegistry
	memberships store.MembershipStore
	log         *zap.Logger
}

func NewPresenceManager(registry *RoomRegistry, memberships store.MembershipStore, log *zap.Logger) *PresenceManager {
	return &PresenceManager{registry: registry, memberships: memberships, log: log}
}

// Connect registers the client and joins it to every room its memberships
// imply, announcing peer_online to the rooms' other members. Returns the
// joined room ids.
func (p *PresenceManager) Connect(c *Client) ([]string, error) {
	p.registry.Register(c)

	studyIDs, err := p.memberships.StudyIDs(c.UserID)
	if err != nil {
		// Leave no residue: the client was registered above and nothing
		// else will ever remove it on this branch.
		p.registry.Unregister(c)
		return nil, fmt.Errorf("memberships: %w", err)
	}
	if studyIDs == nil {
		studyIDs = []string{}
	}
	for _, roomID := range studyIDs {
		p.join(roomID, c)
	}
	p.log.Info("client connected",
		zap.String("conn_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.Int("rooms", len(studyIDs)))
	return studyIDs, nil
}

// JoinRoom is the explicit join_room operation: membership is checked
// against the external collaborator, the client is added (idempotently) and
// receives the materialized online-member list so it can render presence
// without waiting for individual events.
func (p *PresenceManager) JoinRoom(c *Client, roomID string) (*model.RoomMembersPayload, error) {
	ok, err := p.memberships.IsMember(roomID, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("memberships: %w", err)
	}
	if !ok {
		return nil, errs.ErrNotAMember
	}
	p.join(roomID, c)
	return &model.RoomMembersPayload{
		RoomID:  roomID,
		Members: p.registry.Online(roomID),
	}, nil
}

// LeaveRoom removes the client from the room and announces peer_offline to
// the remaining members. Leaving a room not joined is a no-op.
func (p *PresenceManager) LeaveRoom(c *Client, roomID string) {
	if p.registry.Remove(roomID, c) {
		p.announce(model.EventPeerOffline, roomID, c)
	}
}

// Disconnect evicts the client from every room it occupied and announces
// peer_offline once per room to each remaining member.
func (p *PresenceManager) Disconnect(c *Client) {
	rooms := p.registry.Unregister(c)
	for _, roomID := range rooms {
		p.announce(model.EventPeerOffline, roomID, c)
	}
	p.log.Info("client disconnected",
		zap.String("conn_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.Int("rooms", len(rooms)))
}

// Online answers "who is online in room X".
func (p *PresenceManager) Online(roomID string) []model.OnlineMember {
	return p.registry.Online(roomID)
}

func (p *PresenceManager) join(roomID string, c *Client) {
	if p.registry.Add(roomID, c) {
		p.announce(model.EventPeerOnline, roomID, c)
	}
}

func (p *PresenceManager) announce(event, roomID string, c *Client) {
	data, err := model.NewEvent(event, model.PresencePayload{
		RoomID:  roomID,
		ConnID:  c.ID,
		Profile: c.Profile,
	})
	if err != nil {
		p.log.Error("marshal presence event", zap.Error(err))
		return
	}
	p.registry.Broadcast(roomID, data, c)
}
