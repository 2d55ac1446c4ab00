package calendly

const (
	EventInviteeCreated  = "invitee.created"
	EventInviteeCanceled = "invitee.canceled"
)

// WebhookEvent is the envelope Calendly posts to webhook subscriptions.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

// WebhookPayload accepts both the legacy shape, where the invitee is
// nested under "invitee", and the current one, where the payload is
// the invitee itself.
type WebhookPayload struct {
	Invitee        *Invitee        `json:"invitee"`
	URI            string          `json:"uri"`
	UUID           string          `json:"uuid"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	ScheduledEvent *ScheduledEvent `json:"scheduled_event"`
}

func (p WebhookPayload) InviteeDetails() Invitee {
	if p.Invitee != nil {
		return *p.Invitee
	}
	return Invitee{URI: p.URI, UUID: p.UUID, Email: p.Email, Name: p.Name}
}

func (p WebhookPayload) StartTime() string {
	if p.ScheduledEvent == nil {
		return ""
	}
	return p.ScheduledEvent.StartTime
}
