package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	s *Store
}

func NewEventRepo(s *Store) *EventRepo {
	return &EventRepo{s: s}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r *EventRepo) ListByWallet(ctx context.Context, wallet common.Address, offset, limit int) ([]domain.Event, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var events []domain.Event
	for _, e := range r.s.events {
		if e.Wallet == wallet {
			events = append(events, e)
		}
	}
	return page(events, offset, limit), int64(len(events)), nil
}

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	s *Store
}

func NewIdempotencyRepo(s *Store) *IdempotencyRepo {
	return &IdempotencyRepo{s: s}
}

func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.s.mu.RLock()
	_, exists := r.s.idempotency[log.Key]
	r.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("insert idempotency log: key %q already exists", log.Key)
	}

	stored := *log
	stored.ResponseJSON = slices.Clone(log.ResponseJSON)
	r.s.write(tx, func() {
		r.s.idempotency[log.Key] = stored
	}, func() {
		delete(r.s.idempotency, log.Key)
	})
	return nil
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	log, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	log.ResponseJSON = slices.Clone(log.ResponseJSON)
	return &log, nil
}

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	s *Store
}

func NewAuditRepo(s *Store) *AuditRepo {
	return &AuditRepo{s: s}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *log)
	return nil
}

// All returns a copy of the audit trail, oldest first.
func (r *AuditRepo) All() []domain.AuditLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.audit)
}

// WebhookRepo implements ports.WebhookRepository.
type WebhookRepo struct {
	s *Store
}

func NewWebhookRepo(s *Store) *WebhookRepo {
	return &WebhookRepo{s: s}
}

func (r *WebhookRepo) Create(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.webhooks = append(r.s.webhooks, *log)
	return nil
}

func (r *WebhookRepo) Update(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	log.UpdatedAt = time.Now().UTC()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.webhooks {
		if r.s.webhooks[i].ID == log.ID {
			r.s.webhooks[i] = *log
			return nil
		}
	}
	return fmt.Errorf("update webhook delivery: %s not found", log.ID)
}

// GetByEventID returns delivery records for an event, newest first.
func (r *WebhookRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]domain.WebhookDeliveryLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var logs []domain.WebhookDeliveryLog
	for i := len(r.s.webhooks) - 1; i >= 0; i-- {
		if r.s.webhooks[i].EventID == eventID {
			logs = append(logs, r.s.webhooks[i])
		}
	}
	return logs, nil
}
