package service

import (
	cognitoclient "coachportal/cmd/internal/integration/aws/cognito"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const unknownEmail = "unknown@example.com"

type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	FullName     string `json:"full_name" validate:"required,max=120"`
	PromoterCode string `json:"promoter_code" validate:"omitempty,max=64,nospaces"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest carries the confirmation code from the email link.
// Cognito confirms by account name, so the email must travel with it.
type VerifyEmailRequest struct {
	Token     string `json:"token" validate:"required_without=TokenHash"`
	TokenHash string `json:"token_hash"`
	Type      string `json:"type" validate:"omitempty,oneof=signup email"`
	Email     string `json:"email" validate:"required,email"`
}

type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RegisterResponse struct {
	Message                   string `json:"message"`
	UserID                    string `json:"user_id"`
	RequiresEmailConfirmation bool   `json:"requires_email_confirmation"`
	AccessToken               string `json:"access_token,omitempty"`
	RefreshToken              string `json:"refresh_token,omitempty"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

type UserResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	SurveyCompleted bool   `json:"survey_completed"`
}

type CurrentUserResponse struct {
	User *UserResponse `json:"user"`
}

type VerifyEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Identity is an authenticated caller as vouched for by the identity
// provider. Email may be empty.
type Identity struct {
	ID    string
	Email string
}

type DefaultAuthService struct {
	Profiles ProfileEnsurer
	Validate *validator.Validate
	Cognito  cognitoclient.CognitoInterface
}

func NewAuthService(profiles ProfileEnsurer, validate *validator.Validate, cogClient cognitoclient.CognitoInterface) *DefaultAuthService {
	return &DefaultAuthService{Profiles: profiles, Validate: validate, Cognito: cogClient}
}

// Register creates the account on Cognito and then a local profile for it.
// The profile is best effort: if it cannot be written now, it is healed on
// the first authenticated request.
func (a *DefaultAuthService) Register(req *RegisterRequest) (*RegisterResponse, apierror.ErrorResponse) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.PromoterCode = strings.TrimSpace(req.PromoterCode)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	cogUser := &cognitoclient.User{Email: req.Email, Password: req.Password, FullName: req.FullName}
	signup, apierr := handleUserSignup(a.Cognito, cogUser)
	if apierr != nil {
		return nil, apierr
	}

	resp := &RegisterResponse{
		Message:                   "User registered successfully",
		UserID:                    signup.Sub,
		RequiresEmailConfirmation: !signup.Confirmed,
	}

	// Pools that auto-confirm can hand out a session straight away.
	if signup.Confirmed {
		auth, err := a.Cognito.SignIn(&cognitoclient.UserLogin{Email: req.Email, Password: req.Password})
		if err != nil {
			log.Warnf("registered user %s is confirmed but sign-in failed: %v", signup.Sub, err)
		} else {
			resp.AccessToken = auth.AccessToken
			resp.RefreshToken = auth.RefreshToken
		}
	}

	a.Profiles.EnsureProfile(signup.Sub, req.Email, ProfileDefaults{
		FullName:     req.FullName,
		PromoterCode: req.PromoterCode,
	})
	return resp, nil
}

func (a *DefaultAuthService) Login(req *LoginRequest) (*LoginResponse, apierror.ErrorResponse) {
	req.Email = strings.TrimSpace(req.Email)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	credentials := &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	}

	auth, apierr := handleUserSignin(a.Cognito, credentials)
	if apierr != nil {
		return nil, apierr
	}

	userID, email := a.describeSession(auth.AccessToken, req.Email)
	if userID == "" {
		return nil, apierror.InternalServerError
	}

	a.Profiles.EnsureProfile(userID, email, ProfileDefaults{FullName: utils.EmailLocalPart(email)})

	return &LoginResponse{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		IDToken:      auth.IDToken,
		UserID:       userID,
		Email:        email,
	}, nil
}

// Authenticate resolves a bearer token to the caller's identity. Tokens
// that are not even well-formed JWTs are rejected without a round trip.
func (a *DefaultAuthService) Authenticate(token string) (*Identity, apierror.ErrorResponse) {
	data, err := utils.ParseTokenData(token)
	if errors.Is(err, utils.ErrMissingToken) {
		return nil, apierror.MissingAuthTokenError
	}
	if err != nil {
		return nil, apierror.InvalidAuthTokenError
	}

	info, err := a.Cognito.GetUser(data.Raw)
	if err != nil {
		log.Warnf("token introspection failed for sub %q: %v", data.Sub, err)
		return nil, apierror.InvalidAuthTokenError
	}

	return &Identity{ID: info.Sub, Email: info.Email}, nil
}

// CurrentUser returns the caller's profile, creating it if it is missing.
func (a *DefaultAuthService) CurrentUser(token string) (*CurrentUserResponse, apierror.ErrorResponse) {
	identity, apierr := a.Authenticate(token)
	if apierr != nil {
		return nil, apierr
	}

	email := identity.Email
	if email == "" {
		email = unknownEmail
	}

	defaultName := utils.EmailLocalPart(email)
	profile := a.Profiles.EnsureProfile(identity.ID, email, ProfileDefaults{FullName: defaultName})

	fullName := profile.FullName
	if fullName == "" {
		fullName = defaultName
	}

	return &CurrentUserResponse{User: &UserResponse{
		ID:              identity.ID,
		Email:           email,
		FullName:        fullName,
		SurveyCompleted: profile.SurveyCompleted,
	}}, nil
}

func (a *DefaultAuthService) VerifyEmail(req *VerifyEmailRequest) (*VerifyEmailResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	code := req.Token
	if code == "" {
		code = req.TokenHash
	}

	err := a.Cognito.ConfirmAccount(&cognitoclient.UserConfirmation{Email: req.Email, Code: code})
	if err != nil {
		log.Warnf("email verification failed for %s: %s", req.Email, describeProviderError(err))
		return nil, apierror.InvalidVerificationError
	}

	resp := &VerifyEmailResponse{Success: true, Message: "Email verified successfully"}

	info, err := a.Cognito.AdminGetUser(req.Email)
	if err != nil {
		log.Warnf("could not look up verified user %s: %v", req.Email, err)
	} else {
		resp.UserID = info.Sub
	}
	return resp, nil
}

func (a *DefaultAuthService) ResendConfirmation(req *ResendConfirmationRequest) (*MessageResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if apierr := handleResendConfirmation(a.Cognito, req.Email); apierr != nil {
		return nil, apierr
	}
	return &MessageResponse{
		Message: "Confirmation email sent successfully. Please check your inbox (and spam folder).",
	}, nil
}

// Logout always succeeds. With a token, the session is also revoked on
// the provider side when possible.
func (a *DefaultAuthService) Logout(token string) *MessageResponse {
	if token != "" {
		if err := a.Cognito.SignOut(token); err != nil {
			log.Infof("global sign-out skipped: %s", describeProviderError(err))
		}
	}
	return &MessageResponse{Message: "Logged out successfully"}
}

// describeSession finds who a fresh access token belongs to. The Cognito
// access token carries the subject, which covers a failed introspection.
func (a *DefaultAuthService) describeSession(accessToken, fallbackEmail string) (string, string) {
	info, err := a.Cognito.GetUser(accessToken)
	if err == nil {
		email := info.Email
		if email == "" {
			email = fallbackEmail
		}
		return info.Sub, email
	}
	log.Warnf("failed to introspect new session for %s: %v", fallbackEmail, err)

	data, perr := utils.ParseTokenData(accessToken)
	if perr != nil {
		log.Errorf("access token for %s has no readable subject: %v", fallbackEmail, perr)
		return "", fallbackEmail
	}
	return data.Sub, fallbackEmail
}

func handleUserSignup(cogClient cognitoclient.CognitoInterface, req *cognitoclient.User) (*cognitoclient.SignUpResult, apierror.ErrorResponse) {
	res, err := cogClient.SignUp(req)
	if err == nil {
		return res, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidPasswordException":
			return nil, apierror.NewSimple(apierror.IDPInvalidPasswordError.Code(), apiErr.ErrorMessage())
		case "UsernameExistsException":
			return nil, apierror.IDPExistingEmailError
		case "InvalidParameterException":
			return nil, apierror.IDPInvalidParameterError
		default:
			log.Errorf("signup failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return nil, apierror.IDPSignupFailedError
		}
	}

	log.Errorf("failed to signup user (%s): %v", req.Email, err)
	return nil, apierror.IDPSignupFailedError
}

func handleUserSignin(cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, apierror.ErrorResponse) {
	auth, err := cogClient.SignIn(req)
	if err == nil {
		return auth, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UserNotConfirmedException":
			return nil, apierror.EmailNotConfirmedError
		case "UserNotFoundException", "NotAuthorizedException":
			return nil, apierror.InvalidCredentialsError
		default:
			log.Errorf("signin failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return nil, apierror.InvalidCredentialsError
		}
	}

	log.Errorf("failed to signin user (%s): %v", req.Email, err)
	return nil, apierror.InvalidCredentialsError
}

func handleResendConfirmation(cogClient cognitoclient.CognitoInterface, email string) apierror.ErrorResponse {
	err := cogClient.ResendConfirmation(email)
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UserNotFoundException":
			return apierror.IDPUserNotFoundError
		case "InvalidParameterException":
			// e.g. "User is already confirmed."
			return apierror.NewSimple(apierror.IDPInvalidParameterError.Code(), apiErr.ErrorMessage())
		case "CodeDeliveryFailureException", "LimitExceededException",
			"InvalidEmailRoleAccessPolicyException", "InvalidSmsRoleAccessPolicyException":
			log.Errorf("confirmation email for %s could not be delivered: %s - %s", email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return apierror.ResendUnavailableError
		default:
			log.Errorf("resend confirmation failed for user (%s): %s - %s", email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return apierror.ResendUnavailableError
		}
	}

	log.Errorf("failed to resend confirmation to user (%s): %v", email, err)
	return apierror.ResendUnavailableError
}

func describeProviderError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + " - " + apiErr.ErrorMessage()
	}
	return err.Error()
}
