package model

import "time"

// User — platform identity consulted by the connection gateway (GORM).
// Accounts are created and managed by the main platform service; this
// service only reads them.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username  string    `gorm:"size:64;not null;uniqueIndex"`
	Nickname  string    `gorm:"size:64;not null"`
	AvatarURL string    `gorm:"size:255"`
	Status    string    `gorm:"size:20;not null;default:active"` // active, suspended, withdrawn
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

const UserStatusActive = "active"

// StudyMember — membership of a user in a study group (GORM). One chat
// presence room exists per study, keyed by the study id.
type StudyMember struct {
	ID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudyID  string    `gorm:"type:uuid;not null;index:idx_study_user,unique"`
	UserID   string    `gorm:"type:uuid;not null;index:idx_study_user,unique"`
	JoinedAt time.Time `gorm:"column:joined_at;not null"`
}

func (StudyMember) TableName() string { return "study_members" }

// ChatMessage — persisted chat message (GORM).
type ChatMessage struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID    string    `gorm:"type:uuid;not null;index"`
	SenderID  string    `gorm:"type:uuid;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	FileURL   string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Reads []MessageRead `gorm:"foreignKey:MessageID"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// MessageRead — read receipt for a message (GORM). The composite unique
// index makes the reader-list append idempotent at the database level.
type MessageRead struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID string    `gorm:"type:uuid;not null;index:idx_message_reader,unique"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_message_reader,unique"`
	ReadAt    time.Time `gorm:"column:read_at;not null"`
}

func (MessageRead) TableName() string { return "message_reads" }
