package repository

import (
	"coachportal/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultSurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *DefaultSurveyRepository {
	return &DefaultSurveyRepository{db: db}
}

func (s *DefaultSurveyRepository) Save(survey *entity.Survey) error {
	return s.db.Create(survey).Error
}

func (s *DefaultSurveyRepository) FindByUserID(userID string) ([]*entity.Survey, error) {
	var surveys []*entity.Survey
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Find(&surveys).Error
	return surveys, err
}
