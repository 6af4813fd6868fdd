package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// webhookRetryIntervals is the wait before each retry; the first attempt is
// immediate.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

const (
	HeaderWebhookSignature = "X-Webhook-Signature"
	HeaderWebhookTimestamp = "X-Webhook-Timestamp"
)

// WebhookPayload is the JSON body posted to the webhook URL. Signature is the
// HMAC of the JSON encoding of Data.
type WebhookPayload struct {
	EventType domain.EventType `json:"event_type"`
	Data      domain.Event     `json:"data"`
	Timestamp int64            `json:"timestamp"`
	Signature string           `json:"signature"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookSink implements ports.EventSink by pushing events to one HTTP
// endpoint. Each event is delivered in the background with retries, and every
// attempt is recorded in the webhook delivery log.
type WebhookSink struct {
	url        string
	secret     string
	repo       ports.WebhookRepository
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	intervals  []time.Duration
	log        zerolog.Logger

	wg   sync.WaitGroup
	done chan struct{}
	once sync.Once
}

// NewWebhookSink creates a webhook sink posting to url.
func NewWebhookSink(
	url, secret string,
	repo ports.WebhookRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) *WebhookSink {
	return &WebhookSink{
		url:        url,
		secret:     secret,
		repo:       repo,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		intervals:  webhookRetryIntervals,
		log:        log,
		done:       make(chan struct{}),
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

// Deliver records a pending delivery and starts sending it.
func (s *WebhookSink) Deliver(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	body, err := json.Marshal(WebhookPayload{
		EventType: event.Type,
		Data:      event,
		Timestamp: time.Now().Unix(),
		Signature: s.sigSvc.Sign(s.secret, string(data)),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	now := time.Now().UTC()
	entry := &domain.WebhookDeliveryLog{
		ID:         uuid.New(),
		EventID:    event.ID,
		EventType:  event.Type,
		Wallet:     event.Wallet,
		WebhookURL: s.url,
		Payload:    string(body),
		Status:     domain.WebhookStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("record webhook delivery: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliverWithRetries(entry, body)
	}()
	return nil
}

// Close stops scheduling retries and waits for in-flight attempts. Deliveries
// interrupted this way stay PENDING in the log.
func (s *WebhookSink) Close() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *WebhookSink) deliverWithRetries(entry *domain.WebhookDeliveryLog, body []byte) {
	eventID := entry.EventID.String()

	for attempt := 1; attempt <= len(s.intervals)+1; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.intervals[attempt-2]):
			case <-s.done:
				s.log.Info().Str("event_id", eventID).Int("attempt", attempt).Msg("webhook: shutdown before retry")
				return
			}
		}

		status, err := s.post(body)
		entry.Attempt = attempt
		entry.HTTPStatus = status
		entry.LastError = nil
		entry.NextRetryAt = nil

		switch {
		case err == nil:
			entry.Status = domain.WebhookStatusDelivered
		case attempt > len(s.intervals):
			entry.Status = domain.WebhookStatusFailed
			msg := err.Error()
			entry.LastError = &msg
		default:
			msg := err.Error()
			entry.LastError = &msg
			next := time.Now().UTC().Add(s.intervals[attempt-1])
			entry.NextRetryAt = &next
		}

		if uErr := s.repo.Update(context.Background(), entry); uErr != nil {
			s.log.Warn().Err(uErr).Str("event_id", eventID).Msg("webhook: failed to update delivery log")
		}

		if err == nil {
			s.log.Info().Str("event_id", eventID).Int("attempt", attempt).Int("status", *status).Msg("webhook: delivered successfully")
			return
		}
		s.log.Warn().Err(err).Str("event_id", eventID).Int("attempt", attempt).Msg("webhook: delivery failed")
	}

	s.log.Error().Str("event_id", eventID).Msg("webhook: all retry attempts exhausted")
}

// post sends one attempt. It returns the HTTP status when a response arrived.
func (s *WebhookSink) post(body []byte) (*int, error) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderWebhookSignature, s.sigSvc.Sign(s.secret, strconv.FormatInt(ts, 10)+"."+string(body)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	code := resp.StatusCode
	if code < 200 || code >= 300 {
		return &code, fmt.Errorf("non-2xx response: %d", code)
	}
	return &code, nil
}
