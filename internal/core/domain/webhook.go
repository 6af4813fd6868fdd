package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// WebhookStatus represents the delivery state of an event webhook.
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "PENDING"
	WebhookStatusDelivered WebhookStatus = "DELIVERED"
	WebhookStatusFailed    WebhookStatus = "FAILED"
)

// WebhookDeliveryLog records each attempt to push an event to the configured
// webhook endpoint.
type WebhookDeliveryLog struct {
	ID          uuid.UUID      `json:"id"`
	EventID     uuid.UUID      `json:"event_id"`
	EventType   EventType      `json:"event_type"`
	Wallet      common.Address `json:"wallet"`
	WebhookURL  string         `json:"webhook_url"`
	Payload     string         `json:"payload"` // JSON string
	HTTPStatus  *int           `json:"http_status"`
	Attempt     int            `json:"attempt"`
	Status      WebhookStatus  `json:"status"`
	NextRetryAt *time.Time     `json:"next_retry_at"`
	LastError   *string        `json:"last_error"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
