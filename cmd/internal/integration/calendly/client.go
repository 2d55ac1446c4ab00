package calendly

import (
	"coachportal/cmd/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 4 << 20

var ErrNotConfigured = errors.New("calendly is not configured")

// Client is the read-only slice of the Calendly REST API the booking
// reconciler depends on.
type Client interface {
	IsConfigured() bool
	ListScheduledEvents() ([]ScheduledEvent, error)
	ListInvitees(eventUUID string) ([]Invitee, error)
	GetEventType(uuid string) (*EventType, error)
	GetEventTypeRaw(uuid string) (json.RawMessage, error)
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calendly returned status %d: %s", e.StatusCode, e.Body)
}

type HTTPClient struct {
	baseURL         string
	pageSize        int
	organizationURI string
	userURI         string
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker[[]byte]
}

// NewClient returns an unconfigured client when no API key is set, so
// callers degrade instead of failing.
func NewClient(cfg config.CalendlyConfig, timeout time.Duration) Client {
	if !cfg.IsConfigured() {
		return NewUnconfiguredClient()
	}
	return NewHTTPClient(cfg, timeout)
}

func NewHTTPClient(cfg config.CalendlyConfig, timeout time.Duration) *HTTPClient {
	// Personal access tokens are static bearer tokens.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = timeout

	settings := gobreaker.Settings{
		Name:        "calendly",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 4xx means Calendly is up and answered; only transport
			// failures and 5xx count against the breaker.
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &HTTPClient{
		baseURL:         cfg.APIURL,
		pageSize:        cfg.PageSize,
		organizationURI: cfg.OrganizationURI,
		userURI:         cfg.UserURI,
		http:            httpClient,
		breaker:         gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *HTTPClient) IsConfigured() bool {
	return true
}

// ListScheduledEvents fetches a single page of active events, capped at
// the configured page size.
func (c *HTTPClient) ListScheduledEvents() ([]ScheduledEvent, error) {
	query := url.Values{}
	query.Set("status", "active")
	query.Set("count", strconv.Itoa(c.pageSize))
	if c.organizationURI != "" {
		query.Set("organization", c.organizationURI)
	}
	if c.userURI != "" {
		query.Set("user", c.userURI)
	}

	var page collection[ScheduledEvent]
	if err := c.getJSON("/scheduled_events", query, &page); err != nil {
		return nil, err
	}
	return page.Collection, nil
}

func (c *HTTPClient) ListInvitees(eventUUID string) ([]Invitee, error) {
	if eventUUID == "" {
		return nil, errors.New("event uuid is empty")
	}

	var page collection[Invitee]
	if err := c.getJSON("/scheduled_events/"+url.PathEscape(eventUUID)+"/invitees", nil, &page); err != nil {
		return nil, err
	}
	return page.Collection, nil
}

func (c *HTTPClient) GetEventType(uuid string) (*EventType, error) {
	if uuid == "" {
		return nil, errors.New("event type uuid is empty")
	}

	var res resource[EventType]
	if err := c.getJSON("/event_types/"+url.PathEscape(uuid), nil, &res); err != nil {
		return nil, err
	}
	return &res.Resource, nil
}

// GetEventTypeRaw returns the event type document untouched, for callers
// that proxy it.
func (c *HTTPClient) GetEventTypeRaw(uuid string) (json.RawMessage, error) {
	body, err := c.get("/event_types/"+url.PathEscape(uuid), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("calendly returned a malformed event type document")
	}
	return body, nil
}

func (c *HTTPClient) getJSON(path string, query url.Values, out any) error {
	body, err := c.get(path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode calendly response for %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) get(path string, query url.Values) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		if len(query) > 0 {
			req.URL.RawQuery = query.Encode()
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
		}
		return body, nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
