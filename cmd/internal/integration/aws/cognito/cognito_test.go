package cognitoclient

import (
	"coachportal/cmd/internal/config"
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records inputs and returns canned outputs.
type fakeAPI struct {
	api

	signUpIn   *cip.SignUpInput
	authIn     *cip.InitiateAuthInput
	authOut    *cip.InitiateAuthOutput
	getUserOut *cip.GetUserOutput
	adminCalls int
}

func (f *fakeAPI) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.signUpIn = in
	return &cip.SignUpOutput{UserSub: aws.String("sub-123"), UserConfirmed: false}, nil
}

func (f *fakeAPI) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.authIn = in
	return f.authOut, nil
}

func (f *fakeAPI) GetUser(_ context.Context, _ *cip.GetUserInput, _ ...func(*cip.Options)) (*cip.GetUserOutput, error) {
	return f.getUserOut, nil
}

func (f *fakeAPI) AdminGetUser(_ context.Context, _ *cip.AdminGetUserInput, _ ...func(*cip.Options)) (*cip.AdminGetUserOutput, error) {
	f.adminCalls++
	return &cip.AdminGetUserOutput{Username: aws.String("sub-9")}, nil
}

func TestSignUp_SendsAttributesAndSecretHash(t *testing.T) {
	fake := &fakeAPI{}
	client := newCognitoClient(fake, config.CognitoConfig{ClientID: "client", ClientSecret: "secret"}, time.Second)

	res, err := client.SignUp(&User{Email: "ada@example.com", Password: "pw", FullName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "sub-123", res.Sub)
	assert.False(t, res.Confirmed)

	require.NotNil(t, fake.signUpIn.SecretHash)
	// Base64(HMAC_SHA256("secret", "ada@example.comclient"))
	assert.Equal(t, "pCfmF0r7Gu0NuqTNTEkVYGLmqkeLB+7ZDlvCeFKuOH0=", *fake.signUpIn.SecretHash)
	assert.Len(t, fake.signUpIn.UserAttributes, 2)
}

func TestSignIn_WithoutSecretOmitsHash(t *testing.T) {
	fake := &fakeAPI{authOut: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("access"),
			IdToken:      aws.String("id"),
			RefreshToken: aws.String("refresh"),
			ExpiresIn:    3600,
		},
	}}
	client := newCognitoClient(fake, config.CognitoConfig{ClientID: "client"}, time.Second)

	auth, err := client.SignIn(&UserLogin{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "access", auth.AccessToken)
	assert.Equal(t, "refresh", auth.RefreshToken)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, fake.authIn.AuthFlow)
	assert.NotContains(t, fake.authIn.AuthParameters, "SECRET_HASH")
}

func TestSignIn_ChallengeIsAnError(t *testing.T) {
	fake := &fakeAPI{authOut: &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}}
	client := newCognitoClient(fake, config.CognitoConfig{ClientID: "client"}, time.Second)

	_, err := client.SignIn(&UserLogin{Email: "ada@example.com", Password: "pw"})
	assert.ErrorContains(t, err, "NEW_PASSWORD_REQUIRED")
}

func TestGetUser_MapsAttributes(t *testing.T) {
	fake := &fakeAPI{getUserOut: &cip.GetUserOutput{
		Username: aws.String("ada@example.com"),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("sub"), Value: aws.String("sub-1")},
			{Name: aws.String("email"), Value: aws.String("ada@example.com")},
			{Name: aws.String("name"), Value: aws.String("Ada Lovelace")},
		},
	}}
	client := newCognitoClient(fake, config.CognitoConfig{ClientID: "client"}, time.Second)

	info, err := client.GetUser("token")
	require.NoError(t, err)
	assert.Equal(t, &UserInfo{Sub: "sub-1", Email: "ada@example.com", Name: "Ada Lovelace", Username: "ada@example.com"}, info)
}

func TestAdminGetUser_RequiresPool(t *testing.T) {
	fake := &fakeAPI{}

	noPool := newCognitoClient(fake, config.CognitoConfig{ClientID: "client"}, time.Second)
	_, err := noPool.AdminGetUser("ada@example.com")
	assert.ErrorIs(t, err, ErrAdminNotConfigured)
	assert.Zero(t, fake.adminCalls)

	withPool := newCognitoClient(fake, config.CognitoConfig{ClientID: "client", UserPoolID: "pool"}, time.Second)
	info, err := withPool.AdminGetUser("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sub-9", info.Sub)
}
