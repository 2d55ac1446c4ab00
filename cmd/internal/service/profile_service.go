package service

import (
	"coachportal/cmd/internal/domain/entity"
	"coachportal/cmd/internal/utils"

	"github.com/labstack/gommon/log"
	"github.com/samber/mo"
)

type UserRepository interface {
	FindByID(id string) (mo.Option[*entity.User], error)
	FindByEmail(email string) (mo.Option[*entity.User], error)
	Create(user *entity.User) error
	MarkSurveyCompleted(id string) error
	Relink(oldID, newID, email string) error
}

// ProfileEnsurer returns the local profile of an authenticated user,
// creating it when it is missing.
type ProfileEnsurer interface {
	EnsureProfile(userID, email string, defaults ProfileDefaults) *entity.User
}

type ProfileDefaults struct {
	FullName     string
	PromoterCode string
}

type DefaultProfileService struct {
	UserRepo UserRepository
}

func NewProfileService(userRepo UserRepository) *DefaultProfileService {
	return &DefaultProfileService{UserRepo: userRepo}
}

// EnsureProfile never fails. When the store cannot produce the profile,
// an unsaved one built from the defaults is returned so that the caller
// can carry on.
func (p *DefaultProfileService) EnsureProfile(userID, email string, defaults ProfileDefaults) *entity.User {
	found, err := p.UserRepo.FindByID(userID)
	if err != nil {
		log.Warnf("failed to read profile %s, trying to create it: %v", userID, err)
	}
	if user, ok := found.Get(); ok {
		return user
	}

	user := &entity.User{
		ID:           userID,
		Email:        email,
		FullName:     defaults.FullName,
		PromoterCode: utils.StringPtr(defaults.PromoterCode),
	}
	err = p.UserRepo.Create(user)
	if err == nil {
		log.Infof("created missing profile for user %s", userID)
		return user
	}
	log.Warnf("failed to create profile for user %s: %v", userID, err)

	// Someone else may have inserted it in the meantime.
	found, err = p.UserRepo.FindByID(userID)
	if err == nil {
		if existing, ok := found.Get(); ok {
			return existing
		}
	}

	if relinked, ok := p.relinkByEmail(userID, email).Get(); ok {
		return relinked
	}

	log.Errorf("profile for user %s is unavailable, serving an unsaved one", userID)
	return user
}

// relinkByEmail hands a profile left behind by an earlier account with the
// same email over to userID.
func (p *DefaultProfileService) relinkByEmail(userID, email string) mo.Option[*entity.User] {
	if email == "" {
		return mo.None[*entity.User]()
	}

	found, err := p.UserRepo.FindByEmail(email)
	if err != nil {
		log.Warnf("failed to look up profile by email %s: %v", email, err)
		return mo.None[*entity.User]()
	}
	stale, ok := found.Get()
	if !ok || stale.ID == userID {
		return mo.None[*entity.User]()
	}

	if err := p.UserRepo.Relink(stale.ID, userID, email); err != nil {
		log.Errorf("failed to relink profile %s to user %s: %v", stale.ID, userID, err)
		return mo.None[*entity.User]()
	}
	log.Infof("relinked profile of %s from user %s to user %s", email, stale.ID, userID)

	found, err = p.UserRepo.FindByID(userID)
	if err != nil {
		log.Warnf("failed to read relinked profile %s: %v", userID, err)
		return mo.None[*entity.User]()
	}
	return found
}

func (p *DefaultProfileService) FindUserByEmail(email string) (mo.Option[*entity.User], error) {
	return p.UserRepo.FindByEmail(email)
}

func (p *DefaultProfileService) MarkSurveyCompleted(userID string) error {
	return p.UserRepo.MarkSurveyCompleted(userID)
}
