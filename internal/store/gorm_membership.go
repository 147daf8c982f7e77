package store

import (
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"gorm.io/gorm"
)

// GormMembershipStore implements MembershipStore on PostgreSQL.
type GormMembershipStore struct {
	db *gorm.DB
}

func NewGormMembershipStore(db *gorm.DB) *GormMembershipStore {
	return &GormMembershipStore{db: db}
}

var _ MembershipStore = (*GormMembershipStore)(nil)

// StudyIDs returns all study ids the user is a member of.
func (s *GormMembershipStore) StudyIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&model.StudyMember{}).
		Where("user_id = ?", userID).
		Pluck("study_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsMember reports whether the user belongs to the study.
func (s *GormMembershipStore) IsMember(studyID, userID string) (bool, error) {
	var n int64
	err := s.db.Model(&model.StudyMember{}).
		Where("study_id = ? AND user_id = ?", studyID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
