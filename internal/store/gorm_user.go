package store

import (
	"errors"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"gorm.io/gorm"
)

// GormUserStore implements UserStore on PostgreSQL.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

var _ UserStore = (*GormUserStore)(nil)

// Get returns the user by id.
func (s *GormUserStore) Get(userID string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
