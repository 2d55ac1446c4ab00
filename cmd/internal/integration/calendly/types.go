package calendly

import (
	"bytes"
	"coachportal/cmd/internal/utils"
	"encoding/json"
)

type ScheduledEvent struct {
	URI       string       `json:"uri"`
	Name      string       `json:"name"`
	Status    string       `json:"status"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
	EventType EventTypeRef `json:"event_type"`
}

// UUID is the last segment of the event URI.
func (e ScheduledEvent) UUID() string {
	return utils.LastPathSegment(e.URI)
}

// EventTypeRef is either embedded inline ({"uri", "slug", ...}) or just
// the URI of the event type, depending on the endpoint and API version.
type EventTypeRef struct {
	URI  string `json:"uri"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (r *EventTypeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = EventTypeRef{}
		return nil
	}

	if data[0] == '"' {
		var uri string
		if err := json.Unmarshal(data, &uri); err != nil {
			return err
		}
		*r = EventTypeRef{URI: uri}
		return nil
	}

	type inline EventTypeRef
	var v inline
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = EventTypeRef(v)
	return nil
}

// UUID is the last segment of the event type URI.
func (r EventTypeRef) UUID() string {
	return utils.LastPathSegment(r.URI)
}

type EventType struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Active        bool   `json:"active"`
	Duration      int    `json:"duration"`
	SchedulingURL string `json:"scheduling_url"`
}

type Invitee struct {
	URI    string `json:"uri"`
	UUID   string `json:"uuid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ExternalID identifies one invitee's booking of one event. An event can
// have several invitees, so the invitee id is used rather than the event's.
func (i Invitee) ExternalID() string {
	if id := utils.LastPathSegment(i.URI); id != "" {
		return id
	}
	return i.UUID
}

type collection[T any] struct {
	Collection []T `json:"collection"`
}

type resource[T any] struct {
	Resource T `json:"resource"`
}
