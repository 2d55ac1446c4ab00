package service

import (
	cognitoclient "coachportal/cmd/internal/integration/aws/cognito"
	"coachportal/cmd/internal/utils/apierror"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*DefaultAuthService, *cognitoclient.MockCognito, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cog := new(cognitoclient.MockCognito)
	return NewAuthService(newProfiles(db), newValidate(), cog), cog, db
}

func providerError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

func TestRegister_CreatesAccountAndProfile(t *testing.T) {
	svc, cog, db := newAuthService(t)
	cog.On("SignUp", mock.MatchedBy(func(u *cognitoclient.User) bool {
		return u.Email == "ada@example.com" && u.Password == " s3cret! " && u.FullName == "Ada Lovelace"
	})).Return(&cognitoclient.SignUpResult{Sub: "sub-ada", Confirmed: false}, nil)

	resp, apierr := svc.Register(&RegisterRequest{
		Email:        " ada@example.com ",
		Password:     " s3cret! ",
		FullName:     "Ada Lovelace ",
		PromoterCode: "PROMO1",
	})
	require.Nil(t, apierr)

	assert.Equal(t, "sub-ada", resp.UserID)
	assert.True(t, resp.RequiresEmailConfirmation)
	assert.Empty(t, resp.AccessToken)
	cog.AssertNotCalled(t, "SignIn", mock.Anything)

	found, err := newProfiles(db).UserRepo.FindByID("sub-ada")
	require.NoError(t, err)
	require.True(t, found.IsPresent())
	assert.Equal(t, "Ada Lovelace", found.MustGet().FullName)
	require.NotNil(t, found.MustGet().PromoterCode)
	assert.Equal(t, "PROMO1", *found.MustGet().PromoterCode)
}

func TestRegister_SignsInWhenAlreadyConfirmed(t *testing.T) {
	svc, cog, _ := newAuthService(t)
	cog.On("SignUp", mock.Anything).Return(&cognitoclient.SignUpResult{Sub: "sub-ada", Confirmed: true}, nil)
	cog.On("SignIn", mock.Anything).Return(&cognitoclient.AuthCreate{AccessToken: "access", RefreshToken: "refresh"}, nil)

	resp, apierr := svc.Register(&RegisterRequest{Email: "ada@example.com", Password: "pw", FullName: "Ada"})
	require.Nil(t, apierr)

	assert.False(t, resp.RequiresEmailConfirmation)
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
}

func TestRegister_ValidationError(t *testing.T) {
	svc, cog, _ := newAuthService(t)

	_, apierr := svc.Register(&RegisterRequest{Email: "not-an-email", Password: "pw"})
	require.NotNil(t, apierr)

	assert.Equal(t, http.StatusBadRequest, apierr.Code())
	assert.Contains(t, apierr.Error(), "email")
	assert.Contains(t, apierr.Error(), "full_name")
	cog.AssertNotCalled(t, "SignUp", mock.Anything)
}

func TestRegister_ProviderErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"existing email", providerError("UsernameExistsException", "exists"), 400, apierror.IDPExistingEmailError.Message},
		{"weak password", providerError("InvalidPasswordException", "Password not long enough"), 400, "Password not long enough"},
		{"bad parameter", providerError("InvalidParameterException", "bad"), 400, apierror.IDPInvalidParameterError.Message},
		{"anything else", errors.New("connection reset"), 400, apierror.IDPSignupFailedError.Message},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, cog, _ := newAuthService(t)
			cog.On("SignUp", mock.Anything).Return(nil, tc.err)

			_, apierr := svc.Register(&RegisterRequest{Email: "ada@example.com", Password: "pw", FullName: "Ada"})
			require.NotNil(t, apierr)
			assert.Equal(t, tc.status, apierr.Code())
			assert.Equal(t, tc.message, apierr.Error())
		})
	}
}

func TestLogin_EnsuresProfileWithEmailLocalPart(t *testing.T) {
	svc, cog, db := newAuthService(t)
	cog.On("SignIn", mock.Anything).Return(&cognitoclient.AuthCreate{AccessToken: "access", RefreshToken: "refresh", IDToken: "id"}, nil)
	cog.On("GetUser", "access").Return(&cognitoclient.UserInfo{Sub: "sub-grace", Email: "grace@example.com"}, nil)

	resp, apierr := svc.Login(&LoginRequest{Email: "grace@example.com", Password: "pw"})
	require.Nil(t, apierr)

	assert.Equal(t, "sub-grace", resp.UserID)
	assert.Equal(t, "grace@example.com", resp.Email)
	assert.Equal(t, "access", resp.AccessToken)

	found, err := newProfiles(db).UserRepo.FindByID("sub-grace")
	require.NoError(t, err)
	require.True(t, found.IsPresent())
	assert.Equal(t, "grace", found.MustGet().FullName)
}

func TestLogin_FallsBackToTokenSubject(t *testing.T) {
	svc, cog, _ := newAuthService(t)
	access := mintToken(t, "sub-from-token", time.Now().Add(time.Hour))
	cog.On("SignIn", mock.Anything).Return(&cognitoclient.AuthCreate{AccessToken: access}, nil)
	cog.On("GetUser", access).Return(nil, errors.New("throttled"))

	resp, apierr := svc.Login(&LoginRequest{Email: "grace@example.com", Password: "pw"})
	require.Nil(t, apierr)
	assert.Equal(t, "sub-from-token", resp.UserID)
	assert.Equal(t, "grace@example.com", resp.Email)
}

func TestLogin_ProviderErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected apierror.ErrorResponse
	}{
		{"unconfirmed", providerError("UserNotConfirmedException", "not confirmed"), apierror.EmailNotConfirmedError},
		{"wrong password", providerError("NotAuthorizedException", "Incorrect username or password."), apierror.InvalidCredentialsError},
		{"unknown user", providerError("UserNotFoundException", "nope"), apierror.InvalidCredentialsError},
		{"network", errors.New("timeout"), apierror.InvalidCredentialsError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, cog, _ := newAuthService(t)
			cog.On("SignIn", mock.Anything).Return(nil, tc.err)

			_, apierr := svc.Login(&LoginRequest{Email: "grace@example.com", Password: "pw"})
			assert.Equal(t, tc.expected, apierr)
			assert.Equal(t, http.StatusUnauthorized, apierr.Code())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		svc, _, _ := newAuthService(t)
		_, apierr := svc.Authenticate("")
		assert.Equal(t, apierror.MissingAuthTokenError, apierr)
	})

	t.Run("malformed token is rejected locally", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		_, apierr := svc.Authenticate("definitely-not-a-jwt")
		assert.Equal(t, apierror.InvalidAuthTokenError, apierr)
		cog.AssertNotCalled(t, "GetUser", mock.Anything)
	})

	t.Run("expired token is rejected locally", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		_, apierr := svc.Authenticate(mintToken(t, "sub-1", time.Now().Add(-time.Minute)))
		assert.Equal(t, apierror.InvalidAuthTokenError, apierr)
		cog.AssertNotCalled(t, "GetUser", mock.Anything)
	})

	t.Run("revoked token", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		token := mintToken(t, "sub-1", time.Now().Add(time.Hour))
		cog.On("GetUser", token).Return(nil, providerError("NotAuthorizedException", "Access Token has been revoked"))

		_, apierr := svc.Authenticate(token)
		assert.Equal(t, apierror.InvalidAuthTokenError, apierr)
	})

	t.Run("valid token", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		token := mintToken(t, "sub-1", time.Now().Add(time.Hour))
		cog.On("GetUser", token).Return(&cognitoclient.UserInfo{Sub: "sub-1", Email: "ada@example.com"}, nil)

		identity, apierr := svc.Authenticate(token)
		require.Nil(t, apierr)
		assert.Equal(t, &Identity{ID: "sub-1", Email: "ada@example.com"}, identity)
	})
}

func TestCurrentUser_HealsMissingProfile(t *testing.T) {
	svc, cog, db := newAuthService(t)
	token := mintToken(t, "sub-ada", time.Now().Add(time.Hour))
	cog.On("GetUser", token).Return(&cognitoclient.UserInfo{Sub: "sub-ada", Email: "ada.l@example.com"}, nil)

	resp, apierr := svc.CurrentUser(token)
	require.Nil(t, apierr)

	assert.Equal(t, &UserResponse{ID: "sub-ada", Email: "ada.l@example.com", FullName: "ada.l"}, resp.User)

	found, err := newProfiles(db).UserRepo.FindByID("sub-ada")
	require.NoError(t, err)
	require.True(t, found.IsPresent())
	assert.Equal(t, "ada.l", found.MustGet().FullName)
}

func TestCurrentUser_ExistingProfile(t *testing.T) {
	svc, cog, db := newAuthService(t)
	seedUser(t, db, "sub-ada", "ada@example.com")
	require.NoError(t, newProfiles(db).MarkSurveyCompleted("sub-ada"))

	token := mintToken(t, "sub-ada", time.Now().Add(time.Hour))
	cog.On("GetUser", token).Return(&cognitoclient.UserInfo{Sub: "sub-ada", Email: "ada@example.com"}, nil)

	resp, apierr := svc.CurrentUser(token)
	require.Nil(t, apierr)
	assert.Equal(t, "Seeded", resp.User.FullName)
	assert.True(t, resp.User.SurveyCompleted)
}

func TestCurrentUser_BlankEmail(t *testing.T) {
	svc, cog, _ := newAuthService(t)
	token := mintToken(t, "sub-x", time.Now().Add(time.Hour))
	cog.On("GetUser", token).Return(&cognitoclient.UserInfo{Sub: "sub-x"}, nil)

	resp, apierr := svc.CurrentUser(token)
	require.Nil(t, apierr)
	assert.Equal(t, "unknown@example.com", resp.User.Email)
	assert.Equal(t, "unknown", resp.User.FullName)
}

func TestVerifyEmail(t *testing.T) {
	t.Run("confirms and looks up the user", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		cog.On("ConfirmAccount", &cognitoclient.UserConfirmation{Email: "ada@example.com", Code: "123456"}).Return(nil)
		cog.On("AdminGetUser", "ada@example.com").Return(&cognitoclient.UserInfo{Sub: "sub-ada"}, nil)

		resp, apierr := svc.VerifyEmail(&VerifyEmailRequest{Token: "123456", Type: "signup", Email: "ada@example.com"})
		require.Nil(t, apierr)
		assert.True(t, resp.Success)
		assert.Equal(t, "sub-ada", resp.UserID)
	})

	t.Run("token hash and no admin access", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		cog.On("ConfirmAccount", &cognitoclient.UserConfirmation{Email: "ada@example.com", Code: "654321"}).Return(nil)
		cog.On("AdminGetUser", "ada@example.com").Return(nil, cognitoclient.ErrAdminNotConfigured)

		resp, apierr := svc.VerifyEmail(&VerifyEmailRequest{TokenHash: "654321", Email: "ada@example.com"})
		require.Nil(t, apierr)
		assert.True(t, resp.Success)
		assert.Empty(t, resp.UserID)
	})

	t.Run("expired code", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		cog.On("ConfirmAccount", mock.Anything).Return(providerError("ExpiredCodeException", "Invalid code provided"))

		_, apierr := svc.VerifyEmail(&VerifyEmailRequest{Token: "000000", Email: "ada@example.com"})
		assert.Equal(t, apierror.InvalidVerificationError, apierr)
	})

	t.Run("no token at all", func(t *testing.T) {
		svc, _, _ := newAuthService(t)
		_, apierr := svc.VerifyEmail(&VerifyEmailRequest{Email: "ada@example.com"})
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusBadRequest, apierr.Code())
		assert.Contains(t, apierr.Error(), "token")
	})
}

func TestResendConfirmation(t *testing.T) {
	t.Run("sent", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		cog.On("ResendConfirmation", "ada@example.com").Return(nil)

		resp, apierr := svc.ResendConfirmation(&ResendConfirmationRequest{Email: " ada@example.com"})
		require.Nil(t, apierr)
		assert.Contains(t, resp.Message, "Confirmation email sent")
	})

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unknown user", providerError("UserNotFoundException", "Username/client id combination not found."), 404, apierror.IDPUserNotFoundError.Message},
		{"already confirmed", providerError("InvalidParameterException", "User is already confirmed."), 400, "User is already confirmed."},
		{"delivery failure", providerError("CodeDeliveryFailureException", "no sender"), 400, apierror.ResendUnavailableError.Message},
		{"limit", providerError("LimitExceededException", "slow down"), 400, apierror.ResendUnavailableError.Message},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, cog, _ := newAuthService(t)
			cog.On("ResendConfirmation", "ada@example.com").Return(tc.err)

			_, apierr := svc.ResendConfirmation(&ResendConfirmationRequest{Email: "ada@example.com"})
			require.NotNil(t, apierr)
			assert.Equal(t, tc.status, apierr.Code())
			assert.Equal(t, tc.message, apierr.Error())
		})
	}
}

func TestLogout(t *testing.T) {
	t.Run("without token", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		resp := svc.Logout("")
		assert.Equal(t, "Logged out successfully", resp.Message)
		cog.AssertNotCalled(t, "SignOut", mock.Anything)
	})

	t.Run("sign-out failure is ignored", func(t *testing.T) {
		svc, cog, _ := newAuthService(t)
		cog.On("SignOut", "access").Return(providerError("NotAuthorizedException", "revoked"))

		resp := svc.Logout("access")
		assert.Equal(t, "Logged out successfully", resp.Message)
		cog.AssertExpectations(t)
	})
}
