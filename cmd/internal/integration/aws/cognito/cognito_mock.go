package cognitoclient

import (
	"github.com/stretchr/testify/mock"
)

// MockCognito is a mock implementation of the CognitoInterface interface
type MockCognito struct {
	mock.Mock
}

func (m *MockCognito) SignUp(user *User) (*SignUpResult, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SignUpResult), args.Error(1)
}

func (m *MockCognito) SignIn(login *UserLogin) (*AuthCreate, error) {
	args := m.Called(login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AuthCreate), args.Error(1)
}

func (m *MockCognito) GetUser(accessToken string) (*UserInfo, error) {
	args := m.Called(accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserInfo), args.Error(1)
}

func (m *MockCognito) ConfirmAccount(confirm *UserConfirmation) error {
	args := m.Called(confirm)
	return args.Error(0)
}

func (m *MockCognito) ResendConfirmation(email string) error {
	args := m.Called(email)
	return args.Error(0)
}

func (m *MockCognito) AdminGetUser(email string) (*UserInfo, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserInfo), args.Error(1)
}

func (m *MockCognito) SignOut(accessToken string) error {
	args := m.Called(accessToken)
	return args.Error(0)
}
