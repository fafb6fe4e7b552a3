package webhook

import (
	"errors"
	"net/url"
	"slices"
)

var (
	ErrInvalidURL   = errors.New("webhook: url must be absolute http or https")
	ErrNoEvents     = errors.New("webhook: no events")
	ErrUnknownEvent = errors.New("webhook: unknown event")
)

// Events a webhook can subscribe to.
const (
	EventUpdated = "firmware.updated"
	EventFailed  = "firmware.failed"
)

// Webhook is stored in DB.
type Webhook struct {
	ID      int64
	URL     string
	Events  []string
	Enabled bool
}

// WebhookDTO is sent/received over the API.
type WebhookDTO struct {
	ID      int64    `json:"id" example:"1" doc:"Webhook ID"`
	URL     string   `json:"url" example:"https://example.com/webhook" doc:"Webhook endpoint URL"`
	Events  []string `json:"events" example:"firmware.updated,firmware.failed" doc:"Events to subscribe to"`
	Enabled bool     `json:"enabled" example:"true" doc:"Whether webhook is active"`
}

// DTO converts a stored webhook for the API.
func (h Webhook) DTO() WebhookDTO {
	return WebhookDTO{ID: h.ID, URL: h.URL, Events: h.Events, Enabled: h.Enabled}
}

// Webhook validates the DTO and returns it with events sorted and
// deduplicated.
func (d WebhookDTO) Webhook() (Webhook, error) {
	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Webhook{}, ErrInvalidURL
	}
	if len(d.Events) == 0 {
		return Webhook{}, ErrNoEvents
	}
	events := slices.Clone(d.Events)
	for _, e := range events {
		if e != EventUpdated && e != EventFailed {
			return Webhook{}, ErrUnknownEvent
		}
	}
	slices.Sort(events)
	return Webhook{ID: d.ID, URL: d.URL, Events: slices.Compact(events), Enabled: d.Enabled}, nil
}

type EventPayload struct {
	Event string `json:"event" example:"firmware.updated" doc:"Event type"`
	Data  any    `json:"data" doc:"Event-specific payload data"`
	Time  string `json:"time" example:"2024-01-15T10:30:00Z" doc:"Event timestamp in RFC3339 format"`
}

// UpdatedData is the payload of firmware.updated.
type UpdatedData struct {
	Device  string `json:"device" example:"System Firmware"`
	Backend string `json:"backend" example:"system76"`
	From    string `json:"from" example:"2022-11-30"`
	To      string `json:"to" example:"2023-02-14"`
	Reboot  bool   `json:"reboot" example:"true"`
}

// FailedData is the payload of firmware.failed.
type FailedData struct {
	Device  string `json:"device,omitempty" example:"Thelio Io"`
	Message string `json:"message" example:"flash failed"`
}
