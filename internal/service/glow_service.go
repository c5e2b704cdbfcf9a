// FILE: internal/service/glow_service.go
// PURPOSE: Per-user tea sessions. Owns one session.Controller per user, streams its
//          snapshots onto the in-process bus and records finished sessions.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/mapper"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/internal/repository/memory"
	"glowgirl-be/internal/repository/specification"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/countdown"
	"glowgirl-be/pkg/embedding"
	"glowgirl-be/pkg/events"
	"glowgirl-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	MetadataUserID     = "user_id"
	defaultHistorySize = 20
	maxHistorySize     = 100
)

type IGlowService interface {
	Start(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error)
	SubmitMessage(ctx context.Context, principal dto.Principal, req *dto.SubmitMessageRequest) (*dto.GlowSessionResponse, error)
	Reset(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error)
	Current(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error)
	History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*dto.GlowHistoryResponse, error)
	EndSession(ctx context.Context, userID uuid.UUID)
	ActiveSessions() int
	Shutdown()
}

type GlowConfig struct {
	Session      session.Config
	Pipeline     pipeline.Config
	TickInterval time.Duration
	IdleTTL      time.Duration

	// SnapshotTopic is the watermill topic every snapshot is published on.
	SnapshotTopic string
}

type GlowDependencies struct {
	UowFactory     unitofwork.RepositoryFactory
	Conversation   session.ConversationService
	Reasoner       pipeline.Reasoner
	Recommender    pipeline.Recommender
	Embedder       embedding.EmbeddingProvider
	Revoker        TokenRevoker
	Snapshots      message.Publisher
	EventPublisher events.Publisher
	Logger         logger.ILogger

	// NewTimer overrides the countdown used by each controller.
	NewTimer func() countdown.Countdown
}

type glowService struct {
	cfg      GlowConfig
	deps     GlowDependencies
	logger   logger.ILogger
	sessions *memory.SessionRepository[*userSession]
}

func NewGlowService(cfg GlowConfig, deps GlowDependencies) IGlowService {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if deps.NewTimer == nil {
		interval := cfg.TickInterval
		deps.NewTimer = func() countdown.Countdown { return countdown.New(interval) }
	}
	return &glowService{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.OrNop(deps.Logger),
		sessions: memory.NewSessionRepository[*userSession](cfg.IdleTTL),
	}
}

// userSession bundles a user's controller with what was built for it.
type userSession struct {
	userID     uuid.UUID
	auth       *authSession
	controller *session.Controller
	bridgeDone chan struct{}
	closeOnce  sync.Once
}

func (u *userSession) Close() {
	u.closeOnce.Do(func() {
		u.controller.Close()
		<-u.bridgeDone
	})
}

func (s *glowService) sessionFor(principal dto.Principal) *userSession {
	us := s.sessions.GetOrCreate(principal.UserID, func() *userSession {
		return s.newUserSession(principal.UserID)
	})
	us.auth.Bind(principal.Token, principal.ExpiresAt)
	return us
}

func (s *glowService) newUserSession(userID uuid.UUID) *userSession {
	auth := newAuthSession(userID, s.deps.Revoker)
	archive := newConversationArchive(userID, s.deps.UowFactory, s.deps.Embedder)
	runner := pipeline.New(s.deps.Reasoner, archive, s.deps.Recommender, s.cfg.Pipeline, s.logger)

	controller := session.NewController(s.cfg.Session, session.Dependencies{
		Auth:         auth,
		Conversation: s.deps.Conversation,
		Analysis:     runner,
		Timer:        s.deps.NewTimer(),
		Observer:     &historyRecorder{userID: userID, service: s},
		Logger:       s.logger,
	})

	us := &userSession{
		userID:     userID,
		auth:       auth,
		controller: controller,
		bridgeDone: make(chan struct{}),
	}
	snapshots, _ := controller.Subscribe(8)
	go s.bridge(us, snapshots)

	s.logger.Info("GlowService", "Session controller created", map[string]interface{}{
		"user_id": userID,
	})
	return us
}

// bridge forwards every snapshot onto the in-process bus until the controller closes.
func (s *glowService) bridge(us *userSession, snapshots <-chan session.Snapshot) {
	defer close(us.bridgeDone)

	for snap := range snapshots {
		if s.deps.Snapshots == nil {
			continue
		}
		payload, err := json.Marshal(dto.SocketMessage{
			Type: dto.SocketTypeSessionSnapshot,
			Data: mapper.ToGlowSessionResponse(snap),
		})
		if err != nil {
			s.logger.Error("GlowService", "Failed to encode snapshot", map[string]interface{}{"error": err.Error()})
			continue
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataUserID, us.userID.String())
		if err := s.deps.Snapshots.Publish(s.cfg.SnapshotTopic, msg); err != nil {
			s.logger.Warn("GlowService", "Failed to publish snapshot", map[string]interface{}{
				"user_id": us.userID,
				"error":   err.Error(),
			})
		}
	}
}

func (s *glowService) Start(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error) {
	snap, err := s.sessionFor(principal).controller.StartSession(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToGlowSessionResponse(snap), nil
}

func (s *glowService) SubmitMessage(ctx context.Context, principal dto.Principal, req *dto.SubmitMessageRequest) (*dto.GlowSessionResponse, error) {
	snap, err := s.sessionFor(principal).controller.SubmitMessage(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	return mapper.ToGlowSessionResponse(snap), nil
}

func (s *glowService) Reset(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error) {
	snap := s.sessionFor(principal).controller.ResetSession()
	return mapper.ToGlowSessionResponse(snap), nil
}

func (s *glowService) Current(ctx context.Context, principal dto.Principal) (*dto.GlowSessionResponse, error) {
	snap := s.sessionFor(principal).controller.Snapshot()
	return mapper.ToGlowSessionResponse(snap), nil
}

func (s *glowService) History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*dto.GlowHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistorySize
	}
	if pageSize > maxHistorySize {
		pageSize = maxHistorySize
	}

	uow := s.deps.UowFactory.NewUnitOfWork(ctx)
	owned := specification.UserOwnedBy{UserID: userID}

	total, err := uow.GlowSessionRepository().Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	sessions, err := uow.GlowSessionRepository().FindAll(ctx,
		owned,
		specification.OrderBy{Field: "finished_at", Desc: true},
		specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.GlowHistoryItem, 0, len(sessions))
	for _, gs := range sessions {
		items = append(items, mapper.ToGlowHistoryItem(gs))
	}
	return &dto.GlowHistoryResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// EndSession signs the user's controller out and drops it from the registry.
func (s *glowService) EndSession(ctx context.Context, userID uuid.UUID) {
	us, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	us.controller.Logout()
	s.sessions.Delete(userID)
}

func (s *glowService) ActiveSessions() int {
	return s.sessions.Count()
}

// Shutdown closes every controller, waiting for in-flight analysis to stop.
func (s *glowService) Shutdown() {
	s.sessions.Close()
}

// historyRecorder persists terminal outcomes and announces them on the event bus.
type historyRecorder struct {
	userID  uuid.UUID
	service *glowService
}

var _ session.Observer = (*historyRecorder)(nil)

func (h *historyRecorder) SessionCompleted(snap session.Snapshot) {
	record := &entity.GlowSession{
		Id:              snap.SessionID,
		UserId:          h.userID,
		Status:          entity.GlowSessionStatusCompleted,
		TurnCount:       len(snap.Transcript),
		Analysis:        snap.Analysis,
		Recommendations: snap.Recommendations,
		FinishedAt:      snap.UpdatedAt,
		CreatedAt:       time.Now(),
	}

	data := map[string]interface{}{
		"user_id":              h.userID.String(),
		"session_id":           snap.SessionID.String(),
		"recommendation_count": len(snap.Recommendations),
	}
	if snap.Analysis != nil {
		data["mood"] = snap.Analysis.Mood
		data["vibe"] = snap.Analysis.Vibe
	}
	h.record(record, events.TypeGlowSessionCompleted, data)
}

func (h *historyRecorder) SessionFailed(snap session.Snapshot, failure session.Failure) {
	record := &entity.GlowSession{
		Id:            snap.SessionID,
		UserId:        h.userID,
		Status:        entity.GlowSessionStatusFailed,
		FailedStep:    string(failure.Step),
		FailureReason: failure.Message,
		TurnCount:     len(snap.Transcript),
		FinishedAt:    failure.OccurredAt,
		CreatedAt:     time.Now(),
	}

	h.record(record, events.TypeGlowSessionFailed, map[string]interface{}{
		"user_id":    h.userID.String(),
		"session_id": snap.SessionID.String(),
		"step":       string(failure.Step),
		"reason":     failure.Message,
	})
}

func (h *historyRecorder) record(record *entity.GlowSession, eventType string, data map[string]interface{}) {
	s := h.service
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uow := s.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.GlowSessionRepository().Create(ctx, record); err != nil {
		s.logger.Error("GlowService", "Failed to record session history", map[string]interface{}{
			"session_id": record.Id,
			"status":     record.Status,
			"error":      err.Error(),
		})
	}

	if s.deps.EventPublisher == nil {
		return
	}
	if err := s.deps.EventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("GlowService", fmt.Sprintf("Failed to publish %s", eventType), map[string]interface{}{
			"session_id": record.Id,
			"error":      err.Error(),
		})
	}
}
