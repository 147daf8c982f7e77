package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes / WS error events in handlers.
var (
	ErrInvalidToken    = errors.New("invalid or missing token")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user is not active")
	ErrNotAMember      = errors.New("not a member of this room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrScreenShareHeld = errors.New("someone else is sharing")
	ErrPeerUnreachable = errors.New("peer connection not found")
)
