// FILE: internal/service/consumer_service.go
package service

import (
	"context"

	"glowgirl-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// SocketDelivery pushes an already encoded frame to every socket of a user.
// Implemented by the websocket Hub.
type SocketDelivery interface {
	SendToUser(userID uuid.UUID, payload []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService moves session snapshots from the in-process bus to websockets.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   SocketDelivery
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, delivery SocketDelivery, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     logger.OrNop(log),
	}
}

// Consume subscribes and processes messages in the background until ctx ends.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	userID, err := uuid.Parse(msg.Metadata.Get(MetadataUserID))
	if err != nil {
		cs.logger.Error("ConsumerService", "Snapshot without a valid user id", map[string]interface{}{
			"message_id": msg.UUID,
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.delivery.SendToUser(userID, msg.Payload)
	msg.Ack()
}
