package model

import "encoding/json"

// Wire event names. Every WebSocket frame is a JSON envelope
// {"event": <name>, "data": <payload>} in both directions.
const (
	// client -> server
	EventJoinRoom         = "join_room"
	EventLeaveRoom        = "leave_room"
	EventSendMessage      = "send_message"
	EventMarkRead         = "mark_read"
	EventSetTyping        = "set_typing"
	EventJoinCall         = "join_call"
	EventLeaveCall        = "leave_call"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice_candidate"
	EventScreenShareStart = "screen_share_start"
	EventScreenShareStop  = "screen_share_stop"
	EventSpeaking         = "speaking"
	EventMediaState       = "media_state"

	// server -> client
	EventConnected          = "connected"
	EventRoomMembers        = "room_members"
	EventPeerOnline         = "peer_online"
	EventPeerOffline        = "peer_offline"
	EventMessageReceived    = "message_received"
	EventReaderListUpdated  = "reader_list_updated"
	EventTypingState        = "typing_state"
	EventCallParticipants   = "call_participants"
	EventCallPeerJoined     = "call_peer_joined"
	EventCallPeerLeft       = "call_peer_left"
	EventScreenShareStarted = "screen_share_started"
	EventScreenShareStopped = "screen_share_stopped"
	EventScreenShareDenied  = "screen_share_denied"
	EventSpeakingState      = "speaking_state"
	EventError              = "error"
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals an envelope with the given event name and payload.
func NewEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// --- client -> server payloads ---

// RoomPayload carries only a room id (join_room, leave_room, join_call,
// leave_call, screen_share_start, screen_share_stop).
type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// SendMessagePayload is the payload of send_message.
type SendMessagePayload struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
	FileURL string `json:"file_url,omitempty"`
}

// MarkReadPayload is the payload of mark_read.
type MarkReadPayload struct {
	MessageID string `json:"message_id"`
}

// TypingPayload is the payload of set_typing.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// SignalPayload is the payload of offer, answer and ice_candidate. The
// inner payload is relayed verbatim and never interpreted.
type SignalPayload struct {
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// SpeakingPayload is the payload of speaking.
type SpeakingPayload struct {
	RoomID     string `json:"room_id"`
	IsSpeaking bool   `json:"is_speaking"`
}

// MediaStatePayload is the payload of media_state (both directions).
type MediaStatePayload struct {
	RoomID   string `json:"room_id"`
	ConnID   string `json:"conn_id,omitempty"`
	Muted    bool   `json:"muted"`
	VideoOff bool   `json:"video_off"`
}

// --- server -> client payloads ---

// ConnectedPayload confirms a successful gateway handshake.
type ConnectedPayload struct {
	ConnID  string   `json:"conn_id"`
	Profile Profile  `json:"profile"`
	Rooms   []string `json:"rooms"`
}

// RoomMembersPayload answers join_room with the materialized online list.
type RoomMembersPayload struct {
	RoomID  string         `json:"room_id"`
	Members []OnlineMember `json:"members"`
}

// PresencePayload announces peer_online / peer_offline.
type PresencePayload struct {
	RoomID  string  `json:"room_id"`
	ConnID  string  `json:"conn_id"`
	Profile Profile `json:"profile"`
}

// ReaderListPayload announces reader_list_updated.
type ReaderListPayload struct {
	MessageID string   `json:"message_id"`
	RoomID    string   `json:"room_id"`
	Readers   []string `json:"readers"`
}

// TypingStatePayload announces typing_state.
type TypingStatePayload struct {
	RoomID   string `json:"room_id"`
	ConnID   string `json:"conn_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// CallParticipantsPayload answers join_call with the current roster.
// Every listed participant was present before the joiner: each of them
// initiates the offer toward the joiner, the joiner only answers.
type CallParticipantsPayload struct {
	RoomID       string            `json:"room_id"`
	Participants []CallParticipant `json:"participants"`
}

// CallPeerJoinedPayload announces a newcomer to existing participants.
// The receiver is the elder side of the new pair and must send the offer.
type CallPeerJoinedPayload struct {
	RoomID      string          `json:"room_id"`
	Participant CallParticipant `json:"participant"`
}

// CallPeerLeftPayload announces a departure.
type CallPeerLeftPayload struct {
	RoomID string `json:"room_id"`
	ConnID string `json:"conn_id"`
}

// ForwardedSignalPayload is what the relay delivers to the target of an
// offer / answer / ice_candidate.
type ForwardedSignalPayload struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// ScreenSharePayload announces screen_share_started / screen_share_stopped.
type ScreenSharePayload struct {
	RoomID string `json:"room_id"`
	ConnID string `json:"conn_id"`
	UserID string `json:"user_id"`
}

// SpeakingStatePayload announces speaking_state.
type SpeakingStatePayload struct {
	RoomID     string `json:"room_id"`
	ConnID     string `json:"conn_id"`
	IsSpeaking bool   `json:"is_speaking"`
}

// ErrorPayload is sent to the initiating connection only; failures are
// never broadcast.
type ErrorPayload struct {
	Event   string `json:"event,omitempty"` // the client event that failed
	Code    string `json:"code"`
	Message string `json:"message"`
}
