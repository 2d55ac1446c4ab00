package calendly

import "encoding/json"

// UnconfiguredClient returns ErrNotConfigured for all operations when no
// Calendly API key is set.
type UnconfiguredClient struct{}

func NewUnconfiguredClient() *UnconfiguredClient {
	return &UnconfiguredClient{}
}

func (u *UnconfiguredClient) IsConfigured() bool {
	return false
}

func (u *UnconfiguredClient) ListScheduledEvents() ([]ScheduledEvent, error) {
	return nil, ErrNotConfigured
}

func (u *UnconfiguredClient) ListInvitees(string) ([]Invitee, error) {
	return nil, ErrNotConfigured
}

func (u *UnconfiguredClient) GetEventType(string) (*EventType, error) {
	return nil, ErrNotConfigured
}

func (u *UnconfiguredClient) GetEventTypeRaw(string) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}
