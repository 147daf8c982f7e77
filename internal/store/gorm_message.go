package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMessageStore implements MessageStore on PostgreSQL.
type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

var _ MessageStore = (*GormMessageStore)(nil)

// Create persists the message and records the sender as the first reader,
// in one transaction. Returns the canonical record with server-assigned id
// and timestamp.
func (s *GormMessageStore) Create(msg *model.ChatMessage) (*model.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		read := &model.MessageRead{
			ID:        uuid.New().String(),
			MessageID: msg.ID,
			UserID:    msg.SenderID,
			ReadAt:    time.Now(),
		}
		return tx.Create(read).Error
	})
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		FileURL:   msg.FileURL,
		Readers:   []string{msg.SenderID},
		CreatedAt: msg.CreatedAt,
	}, nil
}

// AppendReader adds the user to the message's reader list. The composite
// unique index plus ON CONFLICT DO NOTHING makes the call idempotent; added
// is false when the user had already read the message.
func (s *GormMessageStore) AppendReader(messageID, userID string) (bool, string, []string, error) {
	var msg model.ChatMessage
	if err := s.db.Select("id", "room_id").Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "", nil, errs.ErrMessageNotFound
		}
		return false, "", nil, err
	}

	read := &model.MessageRead{
		ID:        uuid.New().String(),
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(read)
	if res.Error != nil {
		return false, "", nil, res.Error
	}
	added := res.RowsAffected > 0

	var readers []string
	err := s.db.Model(&model.MessageRead{}).
		Where("message_id = ?", messageID).
		Order("read_at ASC").
		Pluck("user_id", &readers).Error
	if err != nil {
		return false, "", nil, err
	}
	return added, msg.RoomID, readers, nil
}

// Recent returns the latest messages in the room, oldest first.
func (s *GormMessageStore) Recent(roomID string, limit int) ([]model.Message, error) {
	var ents []model.ChatMessage
	err := s.db.Preload("Reads", func(db *gorm.DB) *gorm.DB {
		return db.Order("read_at ASC")
	}).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ents).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(ents))
	for i := len(ents) - 1; i >= 0; i-- {
		ent := ents[i]
		readers := make([]string, 0, len(ent.Reads))
		for _, r := range ent.Reads {
			readers = append(readers, r.UserID)
		}
		out = append(out, model.Message{
			ID:        ent.ID,
			RoomID:    ent.RoomID,
			SenderID:  ent.SenderID,
			Content:   ent.Content,
			FileURL:   ent.FileURL,
			Readers:   readers,
			CreatedAt: ent.CreatedAt,
		})
	}
	return out, nil
}
