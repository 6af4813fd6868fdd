package service

import (
	"context"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/rs/zerolog"
)

// EventBus implements ports.EventPublisher. Events are handed to every sink
// in publication order; a failing sink is logged and does not stop the
// others.
type EventBus struct {
	sinks []ports.EventSink
	log   zerolog.Logger
}

func NewEventBus(log zerolog.Logger, sinks ...ports.EventSink) *EventBus {
	return &EventBus{sinks: sinks, log: log}
}

// Publish runs after the state change was committed, so it must not fail the
// operation and must not be cut short by the request context.
func (b *EventBus) Publish(ctx context.Context, events []domain.Event) {
	ctx = context.WithoutCancel(ctx)
	for _, e := range events {
		b.log.Debug().
			Str("event_id", e.ID.String()).
			Str("type", string(e.Type)).
			Str("wallet", e.Wallet.Hex()).
			Msg("event")
		for _, sink := range b.sinks {
			if err := sink.Deliver(ctx, e); err != nil {
				b.log.Warn().
					Err(err).
					Str("sink", sink.Name()).
					Str("event_id", e.ID.String()).
					Str("type", string(e.Type)).
					Msg("event delivery failed")
			}
		}
	}
}

// EventLogSink persists events to the event repository.
type EventLogSink struct {
	repo ports.EventRepository
}

func NewEventLogSink(repo ports.EventRepository) *EventLogSink {
	return &EventLogSink{repo: repo}
}

func (s *EventLogSink) Name() string { return "event_log" }

func (s *EventLogSink) Deliver(ctx context.Context, e domain.Event) error {
	return s.repo.Create(ctx, &e)
}
