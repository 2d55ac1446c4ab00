package cognitoclient

import (
	"coachportal/cmd/internal/config"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

var ErrAdminNotConfigured = errors.New("cognito user pool id is not configured")

// CognitoInterface is the subset of the identity provider this service uses.
// Errors from the provider are returned untouched so callers can classify
// them through smithy.APIError.
type CognitoInterface interface {
	SignUp(user *User) (*SignUpResult, error)
	SignIn(login *UserLogin) (*AuthCreate, error)
	GetUser(accessToken string) (*UserInfo, error)
	ConfirmAccount(confirm *UserConfirmation) error
	ResendConfirmation(email string) error
	AdminGetUser(email string) (*UserInfo, error)
	SignOut(accessToken string) error
}

type User struct {
	Email    string
	Password string
	FullName string
}

type UserLogin struct {
	Email    string
	Password string
}

type UserConfirmation struct {
	Email string
	Code  string
}

type SignUpResult struct {
	Sub       string
	Confirmed bool
}

type AuthCreate struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int32
}

type UserInfo struct {
	Sub      string
	Email    string
	Name     string
	Username string
}

// api is the slice of the SDK client we call, so tests can fake it.
type api interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	AdminGetUser(ctx context.Context, in *cip.AdminGetUserInput, optFns ...func(*cip.Options)) (*cip.AdminGetUserOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

type CognitoClient struct {
	api          api
	clientID     string
	clientSecret string
	userPoolID   string
	timeout      time.Duration
}

func InitCognitoClient(cfg config.CognitoConfig, timeout time.Duration) (*CognitoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	return newCognitoClient(cip.NewFromConfig(awsCfg), cfg, timeout), nil
}

func newCognitoClient(a api, cfg config.CognitoConfig, timeout time.Duration) *CognitoClient {
	return &CognitoClient{
		api:          a,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userPoolID:   cfg.UserPoolID,
		timeout:      timeout,
	}
}

func (c *CognitoClient) SignUp(user *User) (*SignUpResult, error) {
	ctx, cancel := c.context()
	defer cancel()

	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(user.Email),
		Password:   aws.String(user.Password),
		SecretHash: c.secretHash(user.Email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
			{Name: aws.String("name"), Value: aws.String(user.FullName)},
		},
	})
	if err != nil {
		return nil, err
	}
	return &SignUpResult{Sub: aws.ToString(out.UserSub), Confirmed: out.UserConfirmed}, nil
}

func (c *CognitoClient) SignIn(login *UserLogin) (*AuthCreate, error) {
	ctx, cancel := c.context()
	defer cancel()

	params := map[string]string{
		"USERNAME": login.Email,
		"PASSWORD": login.Password,
	}
	if hash := c.secretHash(login.Email); hash != nil {
		params["SECRET_HASH"] = *hash
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, err
	}

	// A challenge (MFA, forced password change) carries no tokens.
	res := out.AuthenticationResult
	if res == nil {
		return nil, errors.New("authentication requires an unsupported challenge: " + string(out.ChallengeName))
	}

	return &AuthCreate{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// GetUser introspects an access token. It fails for expired, revoked or
// forged tokens.
func (c *CognitoClient) GetUser(accessToken string) (*UserInfo, error) {
	ctx, cancel := c.context()
	defer cancel()

	out, err := c.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return nil, err
	}
	return toUserInfo(aws.ToString(out.Username), out.UserAttributes), nil
}

func (c *CognitoClient) ConfirmAccount(confirm *UserConfirmation) error {
	ctx, cancel := c.context()
	defer cancel()

	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(confirm.Email),
		ConfirmationCode: aws.String(confirm.Code),
		SecretHash:       c.secretHash(confirm.Email),
	})
	return err
}

func (c *CognitoClient) ResendConfirmation(email string) error {
	ctx, cancel := c.context()
	defer cancel()

	_, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(email),
		SecretHash: c.secretHash(email),
	})
	return err
}

func (c *CognitoClient) AdminGetUser(email string) (*UserInfo, error) {
	if c.userPoolID == "" {
		return nil, ErrAdminNotConfigured
	}

	ctx, cancel := c.context()
	defer cancel()

	out, err := c.api.AdminGetUser(ctx, &cip.AdminGetUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return nil, err
	}
	return toUserInfo(aws.ToString(out.Username), out.UserAttributes), nil
}

// SignOut revokes every token issued to the session of accessToken.
func (c *CognitoClient) SignOut(accessToken string) error {
	ctx, cancel := c.context()
	defer cancel()

	_, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
	return err
}

func (c *CognitoClient) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// secretHash is required by app clients that have a secret:
// Base64(HMAC_SHA256(secret, username + clientId)).
func (c *CognitoClient) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func toUserInfo(username string, attrs []types.AttributeType) *UserInfo {
	info := &UserInfo{Username: username}
	for _, attr := range attrs {
		switch aws.ToString(attr.Name) {
		case "sub":
			info.Sub = aws.ToString(attr.Value)
		case "email":
			info.Email = aws.ToString(attr.Value)
		case "name":
			info.Name = aws.ToString(attr.Value)
		}
	}
	if info.Sub == "" {
		info.Sub = username
	}
	return info
}
