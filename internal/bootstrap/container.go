package bootstrap

import (
	"context"
	"fmt"
	"time"

	"glowgirl-be/internal/config"
	"glowgirl-be/internal/controller"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/internal/pkg/serverutils"
	"glowgirl-be/internal/repository/memory"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/internal/service"
	"glowgirl-be/internal/websocket"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/chatbot"
	"glowgirl-be/pkg/embedding"
	"glowgirl-be/pkg/events"
	"glowgirl-be/pkg/llm/factory"
	"glowgirl-be/pkg/session"
	"glowgirl-be/pkg/stylist"

	pktNats "glowgirl-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	GlowController controller.IGlowController

	// Background Services (Exposed for main.go to run)
	GlowService         service.IGlowService
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService // nil when NATS is unreachable

	// WebSockets
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Event Bus (in-process snapshot fan-out)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// Redis backs the token denylist and cross-instance websocket fan-out. Both degrade to local-only.
	rdb := connectRedis(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// NATS carries domain events. A nil interface keeps publishers from calling into a dead connection.
	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	denylist := memory.NewTokenDenylist(rdb, sysLogger)

	// 4. AI Providers
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceKey,
	)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM Provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
		embeddingKey(cfg.Ai),
	)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using Embedding Provider", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
	})

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 6. Services
	authService := service.NewAuthService(uowFactory, denylist, eventPublisher, service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, sysLogger)

	glowService := service.NewGlowService(service.GlowConfig{
		Session: session.Config{
			DurationSeconds: cfg.Session.DurationSeconds,
			SendTimeout:     cfg.Session.SendTimeout,
		},
		Pipeline: pipeline.Config{
			AnalyzeTimeout:        cfg.Session.AnalyzeTimeout,
			PersistTimeout:        cfg.Session.PersistTimeout,
			RecommendTimeout:      cfg.Session.RecommendTimeout,
			BestEffortPersistence: cfg.Session.BestEffortPersistence,
		},
		TickInterval:  cfg.Session.TickInterval,
		IdleTTL:       cfg.Session.IdleTTL,
		SnapshotTopic: cfg.App.SnapshotTopic,
	}, service.GlowDependencies{
		UowFactory:     uowFactory,
		Conversation:   chatbot.NewConversation(llmProvider),
		Reasoner:       stylist.NewAnalyzer(llmProvider, sysLogger),
		Recommender:    stylist.NewRecommender(llmProvider, sysLogger),
		Embedder:       embeddingProvider,
		Revoker:        denylist,
		Snapshots:      pubSub,
		EventPublisher: eventPublisher,
		Logger:         sysLogger,
	})

	consumerService := service.NewConsumerService(pubSub, cfg.App.SnapshotTopic, wsHub, wsLogger)

	if natsSub != nil {
		c.NotificationService = service.NewNotificationService(natsSub, wsHub, wsLogger)
	}

	// 7. Controllers
	requireAuth := serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret, denylist, false)
	socketAuth := serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret, denylist, true)

	c.AuthController = controller.NewAuthController(authService, glowService, requireAuth)
	c.GlowController = controller.NewGlowController(glowService, wsHub, requireAuth, socketAuth)
	c.GlowService = glowService
	c.ConsumerService = consumerService
	c.WebSocketHub = wsHub

	return c, nil
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, running single-instance", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func embeddingKey(ai config.AIConfig) string {
	switch ai.EmbeddingProvider {
	case "gemini":
		return ai.GeminiKey
	case "jina":
		return ai.JinaKey
	default:
		return ""
	}
}
