package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/store"
	"go.uber.org/zap"
)

type typingKey struct {
	roomID string
	connID string
}

type typingEntry struct {
	client   *Client
	deadline time.Time
}

// ChatService accepts outbound chat events: it persists messages through the
// external store and broadcasts the canonical record to the room, tracks
// read-receipt accumulation, and relays typing indicators with a
// server-side expiry sweep.
type ChatService struct {
	registry  *RoomRegistry
	messages  store.MessageStore
	typingTTL time.Duration
	log       *zap.Logger

	mu     sync.Mutex
	typing map[typingKey]typingEntry
}

func NewChatService(registry *RoomRegistry, messages store.MessageStore, typingTTL time.Duration, log *zap.Logger) *ChatService {
	if typingTTL <= 0 {
		typingTTL = 3 * time.Second
	}
	return &ChatService{
		registry:  registry,
		messages:  messages,
		typingTTL: typingTTL,
		log:       log,
		typing:    make(map[typingKey]typingEntry),
	}
}

// Send persists the message with the sender as first reader and broadcasts
// the persisted record to every current room member, sender included, so
// all clients share one canonical copy. A persistence failure is returned
// to the caller only; nothing is broadcast and no retry is attempted.
func (s *ChatService) Send(c *Client, roomID, content, fileURL string) (*model.Message, error) {
	if !s.registry.InRoom(roomID, c) {
		return nil, errs.ErrNotAMember
	}
	msg, err := s.messages.Create(&model.ChatMessage{
		RoomID:   roomID,
		SenderID: c.UserID,
		Content:  content,
		FileURL:  fileURL,
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	data, err := model.NewEvent(model.EventMessageReceived, msg)
	if err != nil {
		return nil, err
	}
	s.registry.Broadcast(roomID, data, nil)
	return msg, nil
}

// MarkRead appends the caller to the message's reader list and broadcasts
// the updated list to the room. Idempotent: a repeated call for the same
// user changes nothing and broadcasts nothing.
func (s *ChatService) MarkRead(c *Client, messageID string) error {
	added, roomID, readers, err := s.messages.AppendReader(messageID, c.UserID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if !added {
		return nil
	}
	data, err := model.NewEvent(model.EventReaderListUpdated, model.ReaderListPayload{
		MessageID: messageID,
		RoomID:    roomID,
		Readers:   readers,
	})
	if err != nil {
		return err
	}
	s.registry.Broadcast(roomID, data, nil)
	return nil
}

// SetTyping broadcasts the typing transition to the room's other members.
// A "typing" state that is not refreshed is cleared by the sweep after the
// TTL, healing a missed stop event.
func (s *ChatService) SetTyping(c *Client, roomID string, isTyping bool) error {
	if !s.registry.InRoom(roomID, c) {
		return errs.ErrNotAMember
	}
	key := typingKey{roomID: roomID, connID: c.ID}
	s.mu.Lock()
	if isTyping {
		s.typing[key] = typingEntry{client: c, deadline: time.Now().Add(s.typingTTL)}
	} else {
		delete(s.typing, key)
	}
	s.mu.Unlock()

	s.broadcastTyping(roomID, c, isTyping)
	return nil
}

// History returns the recent message backlog for a room.
func (s *ChatService) History(roomID string, limit int) ([]model.Message, error) {
	return s.messages.Recent(roomID, limit)
}

// Run sweeps expired typing states until ctx is cancelled.
func (s *ChatService) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepTyping(now)
		}
	}
}

func (s *ChatService) sweepTyping(now time.Time) {
	s.mu.Lock()
	var expired []typingKey
	for key, e := range s.typing {
		if now.After(e.deadline) {
			expired = append(expired, key)
		}
	}
	entries := make([]typingEntry, 0, len(expired))
	for _, key := range expired {
		entries = append(entries, s.typing[key])
		delete(s.typing, key)
	}
	s.mu.Unlock()

	for i, key := range expired {
		s.broadcastTyping(key.roomID, entries[i].client, false)
	}
}

func (s *ChatService) broadcastTyping(roomID string, c *Client, isTyping bool) {
	data, err := model.NewEvent(model.EventTypingState, model.TypingStatePayload{
		RoomID:   roomID,
		ConnID:   c.ID,
		UserID:   c.UserID,
		IsTyping: isTyping,
	})
	if err != nil {
		s.log.Error("marshal typing event", zap.Error(err))
		return
	}
	s.registry.Broadcast(roomID, data, c)
}
