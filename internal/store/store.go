// Package store wraps the persistence boundary the realtime core depends on.
// Services take the interfaces so tests can run against in-memory fakes.
package store

import "github.com/wovlf02/Cooperate-Up-sub001/internal/model"

// UserStore reads platform identities for the connection gateway.
type UserStore interface {
	Get(userID string) (*model.User, error)
}

// MembershipStore answers which study rooms a user belongs to.
type MembershipStore interface {
	StudyIDs(userID string) ([]string, error)
	IsMember(studyID, userID string) (bool, error)
}

// MessageStore owns chat message persistence. Create fills the id and
// timestamp and records the sender as the first reader. AppendReader is
// idempotent: added is false when the user was already in the reader list.
type MessageStore interface {
	Create(msg *model.ChatMessage) (*model.Message, error)
	AppendReader(messageID, userID string) (added bool, roomID string, readers []string, err error)
	Recent(roomID string, limit int) ([]model.Message, error)
}
