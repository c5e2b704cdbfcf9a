// FILE: internal/service/notification_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/pkg/events"
	pktNats "glowgirl-be/pkg/nats"

	"github.com/google/uuid"
)

const notificationDurable = "glow-notification-worker"

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// NotificationService turns glow session events into websocket notifications.
type NotificationService struct {
	subscriber EventSubscriber
	delivery   SocketDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub EventSubscriber, delivery SocketDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     logger.OrNop(log),
	}
}

// Start begins listening on the event bus. Only glow session events produce notifications.
func (s *NotificationService) Start(ctx context.Context) error {
	subject := pktNats.SubjectPrefix + ">"
	if err := s.subscriber.Subscribe(ctx, subject, notificationDurable, s.HandleEvent); err != nil {
		return fmt.Errorf("start notification subscriber: %w", err)
	}
	s.logger.Info("NotificationService", "Listening for session events", map[string]interface{}{"subject": subject})
	return nil
}

// HandleEvent builds a notification for the session's owner. Events it cannot
// route are acknowledged and dropped.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	rawUserID, _ := payload["user_id"].(string)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without a user id", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	notification, ok := buildNotification(event)
	if !ok {
		return nil
	}

	data, err := json.Marshal(dto.SocketMessage{Type: dto.SocketTypeNotification, Data: notification})
	if err != nil {
		return err
	}
	s.delivery.SendToUser(userID, data)
	return nil
}

func buildNotification(event events.Event) (dto.GlowNotification, bool) {
	payload := event.Payload()
	sessionID, _ := payload["session_id"].(string)
	n := dto.GlowNotification{
		EventType:  event.EventType(),
		SessionId:  sessionID,
		OccurredAt: event.Timestamp(),
	}

	switch event.EventType() {
	case events.TypeGlowSessionCompleted:
		n.Title = "Your glow up is ready ✨"
		if vibe, _ := payload["vibe"].(string); vibe != "" {
			n.Message = fmt.Sprintf("We picked looks for your %s era.", vibe)
		} else {
			n.Message = "We picked looks just for you."
		}
	case events.TypeGlowSessionFailed:
		n.Title = "We couldn't finish your glow up"
		n.Message = "Something went wrong while styling you. Start a new session to try again."
	default:
		return n, false
	}
	return n, true
}
