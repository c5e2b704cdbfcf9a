package service

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerService_DeliversSnapshots(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	delivery := newRecordingDelivery()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewConsumerService(pubSub, "snapshots", delivery, nil).Consume(ctx))

	userID := uuid.New()
	valid := message.NewMessage(watermill.NewUUID(), []byte(`{"type":"session_snapshot"}`))
	valid.Metadata.Set(MetadataUserID, userID.String())
	orphan := message.NewMessage(watermill.NewUUID(), []byte(`{}`))

	require.NoError(t, pubSub.Publish("snapshots", orphan, valid))

	require.Eventually(t, func() bool { return len(delivery.framesFor(userID)) == 1 }, time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"type":"session_snapshot"}`, string(delivery.framesFor(userID)[0]))
}
