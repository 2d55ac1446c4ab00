package routes

import (
	"coachportal/cmd/internal/service"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type BookingService interface {
	Book(req *service.BookRequest, identity *service.Identity) (*service.BookResponse, apierror.ErrorResponse)
	ListBookings(identity *service.Identity) ([]*service.BookingResponse, apierror.ErrorResponse)
	Config(identity *service.Identity) *service.ConfigResponse
	Availability() (json.RawMessage, apierror.ErrorResponse)
}

type DefaultBookingRoute struct {
	BookingService BookingService
	Auth           Authenticator
}

func NewBookingDefault(bookingService BookingService, auth Authenticator) *DefaultBookingRoute {
	return &DefaultBookingRoute{BookingService: bookingService, Auth: auth}
}

// GetConfig works without a token. A token that cannot be verified is
// treated as no token at all.
func (b *DefaultBookingRoute) GetConfig(c echo.Context) error {
	var identity *service.Identity
	if token := utils.BearerToken(c); token != "" {
		id, apierr := b.Auth.Authenticate(token)
		if apierr != nil {
			log.Infof("booking config requested with an unusable token: %v", apierr)
		} else {
			identity = id
		}
	}
	return c.JSON(http.StatusOK, b.BookingService.Config(identity))
}

func (b *DefaultBookingRoute) GetAvailability(c echo.Context) error {
	doc, apierr := b.BookingService.Availability()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSONBlob(http.StatusOK, doc)
}

func (b *DefaultBookingRoute) Book(c echo.Context) error {
	identity, apierr := identityFromCtx(c, b.Auth)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := b.BookingService.Book(&req, identity)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if resp.Created {
		return c.JSON(http.StatusCreated, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (b *DefaultBookingRoute) GetBookings(c echo.Context) error {
	identity, apierr := identityFromCtx(c, b.Auth)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	bookings, apierr := b.BookingService.ListBookings(identity)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, bookings)
}
