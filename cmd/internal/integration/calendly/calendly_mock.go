package calendly

import (
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of the Client interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) ListScheduledEvents() ([]ScheduledEvent, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ScheduledEvent), args.Error(1)
}

func (m *MockClient) ListInvitees(eventUUID string) ([]Invitee, error) {
	args := m.Called(eventUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Invitee), args.Error(1)
}

func (m *MockClient) GetEventType(uuid string) (*EventType, error) {
	args := m.Called(uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EventType), args.Error(1)
}

func (m *MockClient) GetEventTypeRaw(uuid string) (json.RawMessage, error) {
	args := m.Called(uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
