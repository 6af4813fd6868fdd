package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"multisig-registry/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventChannel_Deliver(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "multisig:events")
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	sink := NewEventChannel(client, "multisig:events")
	assert.Equal(t, "redis:multisig:events", sink.Name())

	event := domain.NewConfirmationEvent(alice, 2, bob)
	require.NoError(t, sink.Deliver(ctx, event))

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, domain.EventConfirmation, got.Type)
	require.NotNil(t, got.Member)
	assert.Equal(t, bob, *got.Member)
}

func TestEventChannel_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	err := NewEventChannel(client, "multisig:events").Deliver(context.Background(), domain.NewSubmissionEvent(alice, 0))
	assert.Error(t, err)
}
