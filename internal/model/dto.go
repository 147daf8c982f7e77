package model

import "time"

// Profile is the display identity attached to a connection.
type Profile struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Message is the canonical API view of a persisted chat message. All room
// members receive the same record, including the sender.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	FileURL   string    `json:"file_url,omitempty"`
	Readers   []string  `json:"readers"`
	CreatedAt time.Time `json:"created_at"`
}

// OnlineMember is one online connection in a presence room.
type OnlineMember struct {
	ConnID  string  `json:"conn_id"`
	Profile Profile `json:"profile"`
}

// CallParticipant is one connection in a call room, with its media flags.
type CallParticipant struct {
	ConnID   string  `json:"conn_id"`
	Profile  Profile `json:"profile"`
	Muted    bool    `json:"muted"`
	VideoOff bool    `json:"video_off"`
	Sharing  bool    `json:"sharing"`
}

// RoomOnlineResponse is the response for GET /rooms/:id/online.
type RoomOnlineResponse struct {
	RoomID  string         `json:"room_id"`
	Members []OnlineMember `json:"members"`
}

// RoomMessagesResponse is the response for GET /rooms/:id/messages.
type RoomMessagesResponse struct {
	RoomID   string    `json:"room_id"`
	Messages []Message `json:"messages"`
}

// CallParticipantsResponse is the response for GET /calls/:id/participants.
type CallParticipantsResponse struct {
	RoomID       string            `json:"room_id"`
	Participants []CallParticipant `json:"participants"`
}
