package service

import (
	"coachportal/cmd/internal/domain/entity"
	"coachportal/cmd/internal/integration/calendly"
	"coachportal/cmd/internal/utils"

	"github.com/labstack/gommon/log"
	"github.com/samber/mo"
)

type UserFinder interface {
	FindUserByEmail(email string) (mo.Option[*entity.User], error)
}

type BookingWriter interface {
	CreateOrUpdateBooking(userID, externalID string, scheduledTime int64) (*entity.Booking, bool, error)
	FindBooking(externalID string) (mo.Option[*entity.Booking], error)
}

type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type DefaultWebhookService struct {
	Users    UserFinder
	Bookings BookingWriter
}

func NewWebhookService(users UserFinder, bookings BookingWriter) *DefaultWebhookService {
	return &DefaultWebhookService{Users: users, Bookings: bookings}
}

// Handle acknowledges every event. Failures are logged and never reported
// back, since Calendly retries anything that is not a success.
func (w *DefaultWebhookService) Handle(event *calendly.WebhookEvent) *WebhookResponse {
	switch event.Event {
	case calendly.EventInviteeCreated:
		return w.inviteeCreated(event.Payload)
	case calendly.EventInviteeCanceled:
		w.inviteeCanceled(event.Payload)
	default:
		log.Infof("ignoring calendly webhook event %q", event.Event)
	}
	return received("")
}

func (w *DefaultWebhookService) inviteeCreated(payload calendly.WebhookPayload) *WebhookResponse {
	invitee := payload.InviteeDetails()
	externalID := invitee.ExternalID()
	startTime := payload.StartTime()

	if invitee.Email == "" || startTime == "" || externalID == "" {
		log.Warnf("calendly invitee.created without email, start time or invitee id: %+v", invitee)
		return received("Missing required data")
	}

	scheduledTime, err := utils.FromEpoch(startTime)
	if err != nil {
		log.Warnf("calendly invitee %s has an unreadable start time %q", externalID, startTime)
		return received("Missing required data")
	}

	found, err := w.Users.FindUserByEmail(invitee.Email)
	if err != nil {
		log.Errorf("failed to look up user %s for calendly invitee %s: %v", invitee.Email, externalID, err)
		return received("")
	}

	user, ok := found.Get()
	if !ok {
		log.Warnf("no user registered with email %s, calendly booking %s not stored", invitee.Email, externalID)
		return received("")
	}

	booking, created, err := w.Bookings.CreateOrUpdateBooking(user.ID, externalID, scheduledTime)
	if err != nil {
		log.Errorf("failed to store calendly booking %s for user %s: %v", externalID, user.ID, err)
		return received("")
	}

	if created {
		log.Infof("webhook created booking %d for user %s", booking.ID, user.ID)
	} else {
		log.Infof("webhook updated booking %d for user %s", booking.ID, user.ID)
	}
	return received("")
}

// inviteeCanceled only records the cancellation. The stored booking is
// not revoked.
func (w *DefaultWebhookService) inviteeCanceled(payload calendly.WebhookPayload) {
	invitee := payload.InviteeDetails()
	externalID := invitee.ExternalID()

	found, err := w.Bookings.FindBooking(externalID)
	if err != nil {
		log.Errorf("failed to look up canceled calendly booking %s: %v", externalID, err)
		return
	}

	booking, ok := found.Get()
	if !ok {
		log.Infof("calendly cancellation for unknown booking %s (%s)", externalID, invitee.Email)
		return
	}
	log.Infof("calendly cancellation for booking %d of user %s, keeping it as %s", booking.ID, booking.UserID, booking.Status)
}

func received(message string) *WebhookResponse {
	return &WebhookResponse{Status: "received", Message: message}
}
