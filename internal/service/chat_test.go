package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
)

type fakeMessageStore struct {
	seq      int
	messages map[string]*model.Message
	failNext bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string]*model.Message)}
}

func (f *fakeMessageStore) Create(msg *model.ChatMessage) (*model.Message, error) {
	if f.failNext {
		f.failNext = false
		return nil, errors.New("database is down")
	}
	f.seq++
	out := &model.Message{
		ID:        fmt.Sprintf("m%d", f.seq),
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		FileURL:   msg.FileURL,
		Readers:   []string{msg.SenderID},
		CreatedAt: time.Now(),
	}
	f.messages[out.ID] = out
	return out, nil
}

func (f *fakeMessageStore) AppendReader(messageID, userID string) (bool, string, []string, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return false, "", nil, errs.ErrMessageNotFound
	}
	for _, r := range msg.Readers {
		if r == userID {
			return false, msg.RoomID, msg.Readers, nil
		}
	}
	msg.Readers = append(msg.Readers, userID)
	return true, msg.RoomID, msg.Readers, nil
}

func (f *fakeMessageStore) Recent(roomID string, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func newChat(ttl time.Duration) (*ChatService, *RoomRegistry, *fakeMessageStore) {
	registry := NewRoomRegistry(testLogger())
	messages := newFakeMessageStore()
	return NewChatService(registry, messages, ttl, testLogger()), registry, messages
}

func joinChatRoom(r *RoomRegistry, roomID string, c *Client) {
	r.Register(c)
	r.Add(roomID, c)
}

func TestSendBroadcastsCanonicalRecord(t *testing.T) {
	chat, registry, _ := newChat(0)
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	joinChatRoom(registry, "s1", a)
	joinChatRoom(registry, "s1", b)

	msg, err := chat.Send(a, "s1", "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, c := range []*Client{a, b} {
		got := eventsNamed(drain(t, c), model.EventMessageReceived)
		if len(got) != 1 {
			t.Fatalf("%s: want 1 message_received, got %d", c.UserID, len(got))
		}
		var m model.Message
		mustUnmarshal(t, got[0].Data, &m)
		if m.ID != msg.ID || m.Content != "hello" {
			t.Fatalf("%s: non-canonical record %+v", c.UserID, m)
		}
		if len(m.Readers) != 1 || m.Readers[0] != "u1" {
			t.Fatalf("reader list should start as [sender], got %v", m.Readers)
		}
	}
}

func TestSendRequiresMembership(t *testing.T) {
	chat, registry, _ := newChat(0)
	a := newTestClient("u1", "A")
	registry.Register(a)

	if _, err := chat.Send(a, "s1", "hi", ""); !errors.Is(err, errs.ErrNotAMember) {
		t.Fatalf("want ErrNotAMember, got %v", err)
	}
}

func TestSendPersistenceFailureIsNotBroadcast(t *testing.T) {
	chat, registry, messages := newChat(0)
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	joinChatRoom(registry, "s1", a)
	joinChatRoom(registry, "s1", b)

	messages.failNext = true
	if _, err := chat.Send(a, "s1", "hello", ""); err == nil {
		t.Fatal("want persistence error")
	}
	if len(drain(t, a)) != 0 || len(drain(t, b)) != 0 {
		t.Fatal("a failed send must not broadcast anything")
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	chat, registry, _ := newChat(0)
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	joinChatRoom(registry, "s1", a)
	joinChatRoom(registry, "s1", b)

	msg, err := chat.Send(a, "s1", "hello", "")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, a)
	drain(t, b)

	if err := chat.MarkRead(b, msg.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	updates := eventsNamed(drain(t, a), model.EventReaderListUpdated)
	if len(updates) != 1 {
		t.Fatalf("want 1 reader_list_updated, got %d", len(updates))
	}
	var rl model.ReaderListPayload
	mustUnmarshal(t, updates[0].Data, &rl)
	if len(rl.Readers) != 2 || rl.Readers[0] != "u1" || rl.Readers[1] != "u2" {
		t.Fatalf("want readers [u1 u2], got %v", rl.Readers)
	}

	// Second call for the same user is a no-op, not an error.
	drain(t, b)
	if err := chat.MarkRead(b, msg.ID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if got := len(eventsNamed(drain(t, a), model.EventReaderListUpdated)); got != 0 {
		t.Fatalf("repeat mark read must not broadcast, got %d updates", got)
	}
}

func TestMarkReadUnknownMessage(t *testing.T) {
	chat, registry, _ := newChat(0)
	a := newTestClient("u1", "A")
	joinChatRoom(registry, "s1", a)

	if err := chat.MarkRead(a, "nope"); !errors.Is(err, errs.ErrMessageNotFound) {
		t.Fatalf("want ErrMessageNotFound, got %v", err)
	}
}

func TestTypingBroadcastAndExpiry(t *testing.T) {
	chat, registry, _ := newChat(3 * time.Second)
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	joinChatRoom(registry, "s1", a)
	joinChatRoom(registry, "s1", b)

	if err := chat.SetTyping(a, "s1", true); err != nil {
		t.Fatal(err)
	}
	states := eventsNamed(drain(t, b), model.EventTypingState)
	if len(states) != 1 {
		t.Fatalf("want 1 typing_state, got %d", len(states))
	}
	var ts model.TypingStatePayload
	mustUnmarshal(t, states[0].Data, &ts)
	if !ts.IsTyping || ts.UserID != "u1" {
		t.Fatalf("unexpected typing payload: %+v", ts)
	}
	if len(drain(t, a)) != 0 {
		t.Fatal("typing must not echo back to the typist")
	}

	// Missed stop event: the sweep clears the state after the TTL.
	chat.sweepTyping(time.Now().Add(5 * time.Second))
	states = eventsNamed(drain(t, b), model.EventTypingState)
	if len(states) != 1 {
		t.Fatalf("want 1 expiry typing_state, got %d", len(states))
	}
	mustUnmarshal(t, states[0].Data, &ts)
	if ts.IsTyping {
		t.Fatal("expired typing state must broadcast is_typing=false")
	}

	// Entry is gone, a second sweep stays silent.
	chat.sweepTyping(time.Now().Add(10 * time.Second))
	if got := len(drain(t, b)); got != 0 {
		t.Fatalf("second sweep must not rebroadcast, got %d frames", got)
	}
}

func TestTypingStopClearsEntry(t *testing.T) {
	chat, registry, _ := newChat(3 * time.Second)
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	joinChatRoom(registry, "s1", a)
	joinChatRoom(registry, "s1", b)

	if err := chat.SetTyping(a, "s1", true); err != nil {
		t.Fatal(err)
	}
	if err := chat.SetTyping(a, "s1", false); err != nil {
		t.Fatal(err)
	}
	drain(t, b)

	chat.sweepTyping(time.Now().Add(5 * time.Second))
	if got := len(drain(t, b)); got != 0 {
		t.Fatalf("explicit stop must cancel the expiry broadcast, got %d frames", got)
	}
}
