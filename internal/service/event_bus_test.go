package service

import (
	"context"
	"errors"
	"testing"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestEventBus_DeliversInOrderToEverySink(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)

	events := []domain.Event{
		domain.NewSubmissionEvent(walletHandle, 0),
		domain.NewConfirmationEvent(walletHandle, 0, alice),
	}

	gomock.InOrder(
		first.EXPECT().Deliver(gomock.Any(), events[0]).Return(nil),
		first.EXPECT().Deliver(gomock.Any(), events[1]).Return(nil),
	)
	gomock.InOrder(
		second.EXPECT().Deliver(gomock.Any(), events[0]).Return(nil),
		second.EXPECT().Deliver(gomock.Any(), events[1]).Return(nil),
	)

	NewEventBus(newTestLogger(), first, second).Publish(context.Background(), events)
}

func TestEventBus_FailingSinkDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	broken := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	event := domain.NewExecutionEvent(walletHandle, 3)
	broken.EXPECT().Deliver(gomock.Any(), event).Return(errors.New("unreachable"))
	broken.EXPECT().Name().Return("broken")
	healthy.EXPECT().Deliver(gomock.Any(), event).Return(nil)

	NewEventBus(newTestLogger(), broken, healthy).Publish(context.Background(), []domain.Event{event})
}

func TestEventBus_IgnoresCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Event) error {
			assert.NoError(t, ctx.Err())
			return nil
		})

	NewEventBus(newTestLogger(), sink).Publish(ctx, []domain.Event{domain.NewExecutionEvent(walletHandle, 0)})
}

func TestEventLogSink_Deliver(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockEventRepository(ctrl)
	sink := NewEventLogSink(repo)

	event := domain.NewRevocationEvent(walletHandle, 2, bob)
	repo.EXPECT().Create(gomock.Any(), &event).Return(nil)

	assert.NoError(t, sink.Deliver(context.Background(), event))
	assert.Equal(t, "event_log", sink.Name())
}
