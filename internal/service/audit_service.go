package service

import (
	"context"
	"sync"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/rs/zerolog"
)

const auditWriteTimeout = 5 * time.Second

type auditItem struct {
	ctx   context.Context
	entry *domain.AuditLog
}

// AuditService records audit entries on a single background worker so
// request handlers never wait on the audit store. Entries arriving while the
// queue is full, or after Close, are logged and dropped.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan auditItem
	done   chan struct{}
}

var _ ports.AuditService = (*AuditService)(nil)

// NewAuditService starts the audit worker. A nil repo writes entries to the
// logger only.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1
	}
	s := &AuditService{
		repo:  repo,
		log:   log,
		queue: make(chan auditItem, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Log enqueues entry without blocking.
func (s *AuditService) Log(ctx context.Context, entry *domain.AuditLog) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped(entry, "audit service closed")
		return
	}
	select {
	case s.queue <- auditItem{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		s.dropped(entry, "audit queue full")
	}
}

// Close stops accepting entries and waits for the queued ones to be written.
func (s *AuditService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) run() {
	defer close(s.done)
	for item := range s.queue {
		s.write(item)
	}
}

func (s *AuditService) write(item auditItem) {
	entry := item.entry
	ev := s.log.Info().
		Str("action", string(entry.Action)).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress)
	if entry.Member != nil {
		ev = ev.Str("member", entry.Member.Hex())
	}
	ev.Msg("audit")

	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(item.ctx, auditWriteTimeout)
	defer cancel()
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
	}
}

func (s *AuditService) dropped(entry *domain.AuditLog, reason string) {
	s.log.Warn().
		Str("action", string(entry.Action)).
		Str("resource_id", entry.ResourceID).
		Msg(reason)
}
