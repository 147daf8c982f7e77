package service

import (
	"testing"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRoomRegistry(testLogger())
	a := newTestClient("u1", "A")
	r.Register(a)

	if !r.Add("room1", a) {
		t.Fatal("first Add should report a new member")
	}
	if r.Add("room1", a) {
		t.Fatal("second Add for the same client should be a no-op")
	}
	if !r.InRoom("room1", a) {
		t.Fatal("client should be in room after Add")
	}
	if !r.Remove("room1", a) {
		t.Fatal("Remove should report the member was present")
	}
	if r.Remove("room1", a) {
		t.Fatal("Remove of a non-member should be a no-op")
	}
	if len(r.Members("room1")) != 0 {
		t.Fatal("room should be empty after Remove")
	}
}

func TestRegistryBroadcastExactMembership(t *testing.T) {
	r := NewRoomRegistry(testLogger())
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	outsider := newTestClient("u3", "C")
	for _, c := range []*Client{a, b, outsider} {
		r.Register(c)
	}
	r.Add("room1", a)
	r.Add("room1", b)
	r.Add("room2", outsider)

	r.Broadcast("room1", []byte(`{"event":"x"}`), nil)

	if got := len(drain(t, a)); got != 1 {
		t.Fatalf("member A: want 1 frame, got %d", got)
	}
	if got := len(drain(t, b)); got != 1 {
		t.Fatalf("member B: want 1 frame, got %d", got)
	}
	if got := len(drain(t, outsider)); got != 0 {
		t.Fatalf("non-member: want 0 frames, got %d", got)
	}
}

func TestRegistryBroadcastExcept(t *testing.T) {
	r := NewRoomRegistry(testLogger())
	a := newTestClient("u1", "A")
	b := newTestClient("u2", "B")
	r.Register(a)
	r.Register(b)
	r.Add("room1", a)
	r.Add("room1", b)

	r.Broadcast("room1", []byte(`{"event":"x"}`), a)

	if got := len(drain(t, a)); got != 0 {
		t.Fatalf("excluded sender: want 0 frames, got %d", got)
	}
	if got := len(drain(t, b)); got != 1 {
		t.Fatalf("peer: want 1 frame, got %d", got)
	}
}

func TestRegistryUnregisterEvictsEverywhere(t *testing.T) {
	r := NewRoomRegistry(testLogger())
	a := newTestClient("u1", "A")
	r.Register(a)
	r.Add("room1", a)
	r.Add("room2", a)

	rooms := r.Unregister(a)
	if len(rooms) != 2 {
		t.Fatalf("want 2 evicted rooms, got %d", len(rooms))
	}
	if r.InRoom("room1", a) || r.InRoom("room2", a) {
		t.Fatal("client should be gone from every room")
	}
	if _, ok := r.Lookup(a.ID); ok {
		t.Fatal("connection index entry should be dropped")
	}
}

func TestRegistrySendUnknownConn(t *testing.T) {
	r := NewRoomRegistry(testLogger())
	if err := r.Send("no-such-conn", []byte("x")); err == nil {
		t.Fatal("Send to unknown connection should fail")
	}
}
