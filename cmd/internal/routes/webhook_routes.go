package routes

import (
	"coachportal/cmd/internal/integration/calendly"
	"coachportal/cmd/internal/service"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type WebhookService interface {
	Handle(event *calendly.WebhookEvent) *service.WebhookResponse
}

type DefaultWebhookRoute struct {
	WebhookService WebhookService
}

func NewWebhookDefault(webhookService WebhookService) *DefaultWebhookRoute {
	return &DefaultWebhookRoute{WebhookService: webhookService}
}

// Calendly always answers 200. Any other status makes Calendly redeliver
// the event.
func (w *DefaultWebhookRoute) Calendly(c echo.Context) error {
	var event calendly.WebhookEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&event); err != nil {
		log.Warnf("discarding unreadable calendly webhook: %v", err)
		return c.JSON(http.StatusOK, &service.WebhookResponse{Status: "received"})
	}
	return c.JSON(http.StatusOK, w.WebhookService.Handle(&event))
}
