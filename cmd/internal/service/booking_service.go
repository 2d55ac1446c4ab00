package service

import (
	"coachportal/cmd/internal/config"
	"coachportal/cmd/internal/domain/entity"
	"coachportal/cmd/internal/integration/calendly"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/samber/mo"
)

type BookingRepository interface {
	FindByUserID(userID string) ([]*entity.Booking, error)
	FindByCalendlyEventID(eventID string) (mo.Option[*entity.Booking], error)
	Upsert(booking *entity.Booking) (bool, error)
	CreateIfAbsent(booking *entity.Booking) (bool, error)
}

type BookRequest struct {
	CalendlyEventID string `json:"calendly_event_id" validate:"required,nospaces"`
	ScheduledTime   string `json:"scheduled_time" validate:"required,iso8601"`
}

type BookResponse struct {
	Message   string `json:"message"`
	BookingID int    `json:"booking_id"`
	Created   bool   `json:"-"`
}

type BookingResponse struct {
	ID              int    `json:"id"`
	UserID          string `json:"user_id"`
	CalendlyEventID string `json:"calendly_event_id"`
	ScheduledTime   string `json:"scheduled_time"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type ConfigResponse struct {
	Error             string  `json:"error,omitempty"`
	CalendlyUsername  *string `json:"calendly_username"`
	CalendlyEventType *string `json:"calendly_event_type"`
}

// BookingSettings are the Calendly values the widget and the event type
// choice depend on.
type BookingSettings struct {
	Username      string
	EventTypeUUID string
	IntroSlug     string
	CoachingSlug  string
}

func NewBookingSettings(cfg config.CalendlyConfig) BookingSettings {
	return BookingSettings{
		Username:      cfg.Username,
		EventTypeUUID: cfg.EventTypeUUID,
		IntroSlug:     cfg.IntroSlug,
		CoachingSlug:  cfg.CoachingSlug,
	}
}

type DefaultBookingService struct {
	BookingRepo BookingRepository
	Calendly    calendly.Client
	Profiles    ProfileEnsurer
	Validate    *validator.Validate
	Settings    BookingSettings
}

func NewBookingService(
	bookingRepo BookingRepository,
	calendlyClient calendly.Client,
	profiles ProfileEnsurer,
	validate *validator.Validate,
	settings BookingSettings,
) *DefaultBookingService {
	return &DefaultBookingService{
		BookingRepo: bookingRepo,
		Calendly:    calendlyClient,
		Profiles:    profiles,
		Validate:    validate,
		Settings:    settings,
	}
}

// Book records a booking the user just made in the Calendly widget.
// Booking the same Calendly id again updates the existing row.
func (b *DefaultBookingService) Book(req *BookRequest, identity *Identity) (*BookResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	scheduledTime, err := utils.FromEpoch(req.ScheduledTime)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("scheduled_time", "ISO 8601 timestamp")
	}

	b.Profiles.EnsureProfile(identity.ID, identity.Email, ProfileDefaults{FullName: utils.EmailLocalPart(identity.Email)})

	booking, created, err := b.CreateOrUpdateBooking(identity.ID, req.CalendlyEventID, scheduledTime)
	if err != nil {
		log.Errorf("failed to save booking %s for user %s: %v", req.CalendlyEventID, identity.ID, err)
		return nil, apierror.InternalServerError
	}

	resp := &BookResponse{BookingID: booking.ID, Created: created}
	if created {
		log.Infof("created booking %d for user %s at %s", booking.ID, identity.ID, req.ScheduledTime)
		resp.Message = "Booking created successfully"
	} else {
		log.Infof("updated booking %d for user %s", booking.ID, identity.ID)
		resp.Message = "Booking updated successfully"
	}
	return resp, nil
}

// CreateOrUpdateBooking is the single write path for confirmed bookings,
// shared by the book endpoint and the webhook. It reports whether a new
// row was inserted.
func (b *DefaultBookingService) CreateOrUpdateBooking(userID, externalID string, scheduledTime int64) (*entity.Booking, bool, error) {
	booking := &entity.Booking{
		UserID:          userID,
		CalendlyEventID: externalID,
		ScheduledTime:   scheduledTime,
		Status:          entity.BookingConfirmed,
	}

	created, err := b.BookingRepo.Upsert(booking)
	if err != nil {
		return nil, false, err
	}
	return booking, created, nil
}

func (b *DefaultBookingService) FindBooking(externalID string) (mo.Option[*entity.Booking], error) {
	return b.BookingRepo.FindByCalendlyEventID(externalID)
}

// ListBookings returns the user's bookings, earliest first, after pulling
// in any Calendly booking of theirs that is not stored yet. When Calendly
// cannot be reached the stored bookings are returned as they are.
func (b *DefaultBookingService) ListBookings(identity *Identity) ([]*BookingResponse, apierror.ErrorResponse) {
	b.Profiles.EnsureProfile(identity.ID, identity.Email, ProfileDefaults{FullName: utils.EmailLocalPart(identity.Email)})

	bookings, err := b.BookingRepo.FindByUserID(identity.ID)
	if err != nil {
		log.Errorf("failed to fetch bookings of user %s: %v", identity.ID, err)
		return nil, apierror.InternalServerError
	}

	if b.Calendly.IsConfigured() && identity.Email != "" {
		bookings = b.syncAndReload(identity, bookings)
	}

	bookings = dedupeBookings(bookings)
	resp := make([]*BookingResponse, len(bookings))
	for i, booking := range bookings {
		resp[i] = toBookingResponse(booking)
	}
	return resp, nil
}

func (b *DefaultBookingService) syncAndReload(identity *Identity, local []*entity.Booking) []*entity.Booking {
	synced, err := b.syncFromCalendly(identity.ID, identity.Email)
	if err != nil {
		log.Warnf("calendly sync for user %s failed, serving stored bookings: %v", identity.ID, err)
		return local
	}

	refreshed, err := b.BookingRepo.FindByUserID(identity.ID)
	if err != nil {
		log.Warnf("failed to reload bookings of user %s after sync: %v", identity.ID, err)
		return local
	}

	log.Infof("synced %d new booking(s) from calendly for user %s, %d total", synced, identity.ID, len(refreshed))
	return refreshed
}

// syncFromCalendly stores every active Calendly event the email is invited
// to and that is not stored yet. Rows that already exist are left alone,
// even when another user owns them.
func (b *DefaultBookingService) syncFromCalendly(userID, email string) (int, error) {
	events, err := b.Calendly.ListScheduledEvents()
	if err != nil {
		return 0, fmt.Errorf("failed to list scheduled events: %w", err)
	}

	synced := 0
	for _, event := range events {
		eventUUID := event.UUID()
		if eventUUID == "" {
			continue
		}

		invitee, err := b.findInvitee(eventUUID, email)
		if err != nil {
			return synced, err
		}

		externalID, ok := invitee.Get()
		if !ok {
			continue
		}

		scheduledTime, err := utils.FromEpoch(event.StartTime)
		if err != nil {
			log.Warnf("skipping calendly event %s with unreadable start time %q", eventUUID, event.StartTime)
			continue
		}

		created, err := b.BookingRepo.CreateIfAbsent(&entity.Booking{
			UserID:          userID,
			CalendlyEventID: externalID,
			ScheduledTime:   scheduledTime,
			Status:          entity.BookingConfirmed,
		})
		if err != nil {
			return synced, fmt.Errorf("failed to store calendly booking %s: %w", externalID, err)
		}
		if created {
			synced++
		}
	}
	return synced, nil
}

// findInvitee returns the external id of the first invitee of the event
// whose email matches, if any.
func (b *DefaultBookingService) findInvitee(eventUUID, email string) (mo.Option[string], error) {
	invitees, err := b.Calendly.ListInvitees(eventUUID)
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to list invitees of event %s: %w", eventUUID, err)
	}

	for _, invitee := range invitees {
		if !strings.EqualFold(invitee.Email, email) {
			continue
		}
		if id := invitee.ExternalID(); id != "" {
			return mo.Some(id), nil
		}
		return mo.None[string](), nil
	}
	return mo.None[string](), nil
}

// ResolveEventTypeForUser picks the meeting the booking widget offers:
// the coaching meeting once the user has an intro meeting on Calendly,
// the intro meeting otherwise or whenever that cannot be established.
func (b *DefaultBookingService) ResolveEventTypeForUser(userID, email string) string {
	intro := b.Settings.IntroSlug

	bookings, err := b.BookingRepo.FindByUserID(userID)
	if err != nil {
		log.Warnf("failed to fetch bookings of user %s, offering intro meeting: %v", userID, err)
		return intro
	}
	if len(bookings) == 0 || email == "" || !b.Calendly.IsConfigured() {
		return intro
	}

	events, err := b.Calendly.ListScheduledEvents()
	if err != nil {
		log.Warnf("calendly check for user %s failed, offering intro meeting: %v", userID, err)
		return intro
	}

	slugs := newSlugResolver(b.Calendly)
	for _, event := range events {
		slug, ok := slugs.resolve(event.EventType).Get()
		if !ok || slug != intro {
			continue
		}

		invitee, err := b.findInvitee(event.UUID(), email)
		if err != nil {
			log.Warnf("calendly check for user %s failed, offering intro meeting: %v", userID, err)
			return intro
		}
		if invitee.IsPresent() {
			return b.Settings.CoachingSlug
		}
	}
	return intro
}

// Config describes the booking widget. identity is nil for anonymous
// callers, who are always offered the intro meeting.
func (b *DefaultBookingService) Config(identity *Identity) *ConfigResponse {
	if b.Settings.Username == "" {
		return &ConfigResponse{Error: "Calendly not configured"}
	}

	eventType := b.Settings.IntroSlug
	if identity != nil {
		eventType = b.ResolveEventTypeForUser(identity.ID, identity.Email)
	}

	return &ConfigResponse{
		CalendlyUsername:  &b.Settings.Username,
		CalendlyEventType: &eventType,
	}
}

// Availability proxies the configured Calendly event type document.
func (b *DefaultBookingService) Availability() (json.RawMessage, apierror.ErrorResponse) {
	if !b.Calendly.IsConfigured() {
		return nil, apierror.CalendlyNotConfiguredError
	}
	if b.Settings.EventTypeUUID == "" {
		return nil, apierror.CalendlyEventTypeNotConfiguredError
	}

	doc, err := b.Calendly.GetEventTypeRaw(b.Settings.EventTypeUUID)
	if err == nil {
		return doc, nil
	}

	var statusErr *calendly.StatusError
	if errors.As(err, &statusErr) {
		log.Warnf("calendly refused event type %s: %v", b.Settings.EventTypeUUID, err)
		return nil, apierror.NewUpstreamStatusError(statusErr.StatusCode, "Failed to fetch Calendly availability")
	}

	log.Errorf("failed to fetch calendly event type %s: %v", b.Settings.EventTypeUUID, err)
	return nil, apierror.CalendlyAvailabilityError
}

// slugResolver finds event type slugs, fetching each referenced event
// type at most once.
type slugResolver struct {
	client calendly.Client
	cache  map[string]mo.Option[string]
}

func newSlugResolver(client calendly.Client) *slugResolver {
	return &slugResolver{client: client, cache: make(map[string]mo.Option[string])}
}

func (s *slugResolver) resolve(ref calendly.EventTypeRef) mo.Option[string] {
	if ref.Slug != "" {
		return mo.Some(ref.Slug)
	}

	uuid := ref.UUID()
	if uuid == "" {
		return mo.None[string]()
	}
	if slug, ok := s.cache[uuid]; ok {
		return slug
	}

	slug := mo.None[string]()
	eventType, err := s.client.GetEventType(uuid)
	if err != nil {
		log.Warnf("could not resolve calendly event type %s: %v", uuid, err)
	} else if eventType.Slug != "" {
		slug = mo.Some(eventType.Slug)
	}

	s.cache[uuid] = slug
	return slug
}

// dedupeBookings keeps the first row per Calendly id and orders the
// result by scheduled time.
func dedupeBookings(bookings []*entity.Booking) []*entity.Booking {
	seen := make(map[string]bool, len(bookings))
	out := make([]*entity.Booking, 0, len(bookings))
	for _, booking := range bookings {
		if seen[booking.CalendlyEventID] {
			continue
		}
		seen[booking.CalendlyEventID] = true
		out = append(out, booking)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime < out[j].ScheduledTime
	})
	return out
}

func toBookingResponse(booking *entity.Booking) *BookingResponse {
	return &BookingResponse{
		ID:              booking.ID,
		UserID:          booking.UserID,
		CalendlyEventID: booking.CalendlyEventID,
		ScheduledTime:   utils.FormatEpoch(booking.ScheduledTime),
		Status:          string(booking.Status),
		CreatedAt:       utils.FormatEpoch(booking.CreatedAt),
	}
}
