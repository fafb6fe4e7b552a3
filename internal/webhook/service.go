package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/notify"
)

const (
	defaultBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// errPermanent marks failures a retry cannot fix.
var errPermanent = errors.New("webhook: permanent failure")

// Service dispatches update outcomes to subscribed URLs.
type Service struct {
	Repo       Repository
	Secret     string
	TimeoutSec int
	Retries    int

	// Backoff is the first retry delay, defaultBackoff when zero.
	Backoff time.Duration

	wg sync.WaitGroup
}

// Name identifies the service as an outcome sink.
func (s *Service) Name() string { return "webhooks" }

// Updated dispatches firmware.updated.
func (s *Service) Updated(u notify.Updated) error {
	s.Dispatch(EventUpdated, UpdatedData{
		Device:  u.Name,
		Backend: u.Backend.String(),
		From:    u.From,
		To:      u.To,
		Reboot:  u.System,
	})
	return nil
}

// Failed dispatches firmware.failed.
func (s *Service) Failed(f notify.Failed) error {
	s.Dispatch(EventFailed, FailedData{Device: f.Name, Message: f.Message})
	return nil
}

// Progressed is not sent to webhooks.
func (s *Service) Progressed(notify.Progress) error { return nil }

// Wait blocks until every delivery in flight finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Dispatch posts event to every enabled webhook subscribed to it. Delivery
// happens in the background.
func (s *Service) Dispatch(event string, data any) {
	hooks, err := s.Repo.List()
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to list webhooks for event dispatch")
		return
	}

	body, err := json.Marshal(EventPayload{
		Event: event,
		Data:  data,
		Time:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal webhook payload")
		return
	}

	var targets []string
	for _, h := range hooks {
		if h.Enabled && slices.Contains(h.Events, event) {
			targets = append(targets, h.URL)
		}
	}
	if len(targets) == 0 {
		log.Debug().Str("event", event).Msg("No webhooks subscribed to event")
		return
	}

	log.Info().Str("event", event).Int("webhook_count", len(targets)).Msg("Dispatching webhook event")
	for _, url := range targets {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.deliver(url, event, body)
		}()
	}
}

// deliver retries with a doubling delay, capped at maxBackoff, until one
// attempt gets a 2xx answer.
func (s *Service) deliver(url, event string, body []byte) {
	attempts := max(s.Retries, 0) + 1
	delay := s.Backoff
	if delay <= 0 {
		delay = defaultBackoff
	}
	client := &http.Client{Timeout: time.Duration(s.TimeoutSec) * time.Second}

	logger := log.With().Str("url", url).Str("event", event).Logger()
	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := s.post(client, url, event, body)
		if err == nil {
			logger.Info().Int("status", status).Int("attempt", attempt).Msg("Webhook delivered")
			return
		}
		if errors.Is(err, errPermanent) {
			logger.Error().Err(err).Msg("Webhook not deliverable")
			return
		}
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Webhook delivery failed")

		if attempt < attempts {
			time.Sleep(delay)
			delay = min(delay*2, maxBackoff)
		}
	}
	logger.Error().Int("attempts", attempts).Msg("Webhook delivery failed after all retries")
}

func (s *Service) post(client *http.Client, url, event string, body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event)
	if s.Secret != "" {
		req.Header.Set("X-Webhook-Signature", hmacHex([]byte(s.Secret), body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func hmacHex(secret, data []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(data)
	return hex.EncodeToString(m.Sum(nil))
}

var _ notify.Sink = (*Service)(nil)
