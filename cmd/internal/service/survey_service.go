package service

import (
	"coachportal/cmd/internal/domain/entity"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type SurveyRepository interface {
	Save(survey *entity.Survey) error
	FindByUserID(userID string) ([]*entity.Survey, error)
}

type SurveyCompleter interface {
	ProfileEnsurer
	MarkSurveyCompleted(userID string) error
}

// SubmitSurveyRequest accepts every answer of the current questionnaire
// and of its first revision. Blank answers are not stored.
type SubmitSurveyRequest struct {
	FullName         string `json:"full_name" validate:"max=200"`
	Email            string `json:"email" validate:"omitempty,email"`
	AgeRange         string `json:"age_range" validate:"max=50"`
	Country          string `json:"country" validate:"max=100"`
	LinkedinProfile  string `json:"linkedin_profile" validate:"max=500"`
	BestDescribesYou string `json:"best_describes_you" validate:"max=200"`
	Industry         string `json:"industry" validate:"max=200"`
	JobRole          string `json:"job_role" validate:"max=200"`
	YearsExperience  string `json:"years_experience" validate:"max=50"`
	HowDidYouHear    string `json:"how_did_you_hear" validate:"max=200"`
	ReferralName     string `json:"referral_name" validate:"max=200"`

	CurrentRole     string `json:"current_role" validate:"max=200"`
	Goals           string `json:"goals" validate:"max=5000"`
	Challenges      string `json:"challenges" validate:"max=5000"`
	ExperienceLevel string `json:"experience_level" validate:"max=100"`
	AdditionalNotes string `json:"additional_notes" validate:"max=5000"`
}

type SurveyResponse struct {
	ID               int     `json:"id"`
	UserID           string  `json:"user_id"`
	FullName         *string `json:"full_name,omitempty"`
	Email            *string `json:"email,omitempty"`
	AgeRange         *string `json:"age_range,omitempty"`
	Country          *string `json:"country,omitempty"`
	LinkedinProfile  *string `json:"linkedin_profile,omitempty"`
	BestDescribesYou *string `json:"best_describes_you,omitempty"`
	Industry         *string `json:"industry,omitempty"`
	JobRole          *string `json:"job_role,omitempty"`
	YearsExperience  *string `json:"years_experience,omitempty"`
	HowDidYouHear    *string `json:"how_did_you_hear,omitempty"`
	ReferralName     *string `json:"referral_name,omitempty"`
	Goals            *string `json:"goals,omitempty"`
	Challenges       *string `json:"challenges,omitempty"`
	ExperienceLevel  *string `json:"experience_level,omitempty"`
	AdditionalNotes  *string `json:"additional_notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type DefaultSurveyService struct {
	SurveyRepo SurveyRepository
	Profiles   SurveyCompleter
	Validate   *validator.Validate
}

func NewSurveyService(surveyRepo SurveyRepository, profiles SurveyCompleter, validate *validator.Validate) *DefaultSurveyService {
	return &DefaultSurveyService{SurveyRepo: surveyRepo, Profiles: profiles, Validate: validate}
}

// Submit stores a new submission and marks the user's survey as done.
// Earlier submissions are kept.
func (s *DefaultSurveyService) Submit(req *SubmitSurveyRequest, identity *Identity) (*MessageResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	s.Profiles.EnsureProfile(identity.ID, identity.Email, ProfileDefaults{FullName: utils.EmailLocalPart(identity.Email)})

	survey := toSurvey(req, identity.ID)
	if err := s.SurveyRepo.Save(survey); err != nil {
		log.Errorf("failed to save survey of user %s: %v", identity.ID, err)
		return nil, apierror.InternalServerError
	}

	if err := s.Profiles.MarkSurveyCompleted(identity.ID); err != nil {
		log.Errorf("survey %d saved but user %s could not be marked as done: %v", survey.ID, identity.ID, err)
		return nil, apierror.InternalServerError
	}

	log.Infof("stored survey %d for user %s", survey.ID, identity.ID)
	return &MessageResponse{Message: "Survey submitted successfully"}, nil
}

func (s *DefaultSurveyService) ListByUser(userID string) ([]*SurveyResponse, apierror.ErrorResponse) {
	surveys, err := s.SurveyRepo.FindByUserID(userID)
	if err != nil {
		log.Errorf("failed to fetch surveys of user %s: %v", userID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*SurveyResponse, len(surveys))
	for i, survey := range surveys {
		resp[i] = toSurveyResponse(survey)
	}
	return resp, nil
}

func toSurvey(req *SubmitSurveyRequest, userID string) *entity.Survey {
	jobRole := req.JobRole
	if req.CurrentRole != "" {
		jobRole = req.CurrentRole
	}

	return &entity.Survey{
		UserID:           userID,
		FullName:         utils.StringPtr(req.FullName),
		Email:            utils.StringPtr(req.Email),
		AgeRange:         utils.StringPtr(req.AgeRange),
		Country:          utils.StringPtr(req.Country),
		LinkedinProfile:  utils.StringPtr(req.LinkedinProfile),
		BestDescribesYou: utils.StringPtr(req.BestDescribesYou),
		Industry:         utils.StringPtr(req.Industry),
		JobRole:          utils.StringPtr(jobRole),
		YearsExperience:  utils.StringPtr(req.YearsExperience),
		HowDidYouHear:    utils.StringPtr(req.HowDidYouHear),
		ReferralName:     utils.StringPtr(req.ReferralName),
		Goals:            utils.StringPtr(req.Goals),
		Challenges:       utils.StringPtr(req.Challenges),
		ExperienceLevel:  utils.StringPtr(req.ExperienceLevel),
		AdditionalNotes:  utils.StringPtr(req.AdditionalNotes),
	}
}

func toSurveyResponse(survey *entity.Survey) *SurveyResponse {
	return &SurveyResponse{
		ID:               survey.ID,
		UserID:           survey.UserID,
		FullName:         survey.FullName,
		Email:            survey.Email,
		AgeRange:         survey.AgeRange,
		Country:          survey.Country,
		LinkedinProfile:  survey.LinkedinProfile,
		BestDescribesYou: survey.BestDescribesYou,
		Industry:         survey.Industry,
		JobRole:          survey.JobRole,
		YearsExperience:  survey.YearsExperience,
		HowDidYouHear:    survey.HowDidYouHear,
		ReferralName:     survey.ReferralName,
		Goals:            survey.Goals,
		Challenges:       survey.Challenges,
		ExperienceLevel:  survey.ExperienceLevel,
		AdditionalNotes:  survey.AdditionalNotes,
		CreatedAt:        utils.FormatEpoch(survey.CreatedAt),
	}
}
