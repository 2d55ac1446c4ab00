package repository

import (
	"coachportal/cmd/internal/domain/entity"
	"errors"
	"strings"

	"github.com/samber/mo"
	"gorm.io/gorm"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

// FindByID returns None when no profile row exists. A non-nil error
// always means the lookup itself failed.
func (u *DefaultUserRepository) FindByID(id string) (mo.Option[*entity.User], error) {
	var user entity.User
	err := u.db.Where("id = ?", id).First(&user).Error
	return optionOf(&user, err)
}

// FindByEmail matches case-insensitively.
func (u *DefaultUserRepository) FindByEmail(email string) (mo.Option[*entity.User], error) {
	var user entity.User
	err := u.db.
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	return optionOf(&user, err)
}

func (u *DefaultUserRepository) Create(user *entity.User) error {
	return u.db.Create(user).Error
}

func (u *DefaultUserRepository) MarkSurveyCompleted(id string) error {
	return u.db.Model(&entity.User{}).
		Where("id = ?", id).
		Update("survey_completed", true).Error
}

// Relink moves the profile stored under oldID to newID together with its
// bookings and surveys. The provider issues a new subject when an account
// is re-created, while the email stays the same.
func (u *DefaultUserRepository) Relink(oldID, newID, email string) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).
			Where("id = ?", oldID).
			Updates(map[string]any{"id": newID, "email": email})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// Only needed where foreign keys do not cascade.
		for _, model := range []any{&entity.Booking{}, &entity.Survey{}} {
			err := tx.Model(model).Where("user_id = ?", oldID).Update("user_id", newID).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func optionOf[T any](v *T, err error) (mo.Option[*T], error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mo.None[*T](), nil
	}
	if err != nil {
		return mo.None[*T](), err
	}
	return mo.Some(v), nil
}
