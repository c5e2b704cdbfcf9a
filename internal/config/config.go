package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Session  SessionConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SnapshotTopic      string // watermill topic bridging controllers to the websocket hub
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string
	OllamaBaseURL     string
	HuggingFaceKey    string
	EmbeddingProvider string // "ollama", "gemini" or "jina"
	EmbeddingModel    string
	GeminiKey         string
	JinaKey           string
}

type SessionConfig struct {
	DurationSeconds       int
	TickInterval          time.Duration
	SendTimeout           time.Duration
	AnalyzeTimeout        time.Duration
	PersistTimeout        time.Duration
	RecommendTimeout      time.Duration
	BestEffortPersistence bool
	IdleTTL               time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	ai := AIConfig{
		LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
		LLMModel:          getEnv("LLM_MODEL", "llama3.1:8b"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		HuggingFaceKey:    getEnv("HUGGINGFACE_API_KEY", ""),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		GeminiKey:         getEnv("GOOGLE_GEMINI_API_KEY", ""),
		JinaKey:           getEnv("JINA_API_KEY", ""),
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SnapshotTopic:      getEnv("GLOW_SNAPSHOT_TOPIC", "GLOW_SESSION_SNAPSHOT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 30*24*time.Hour),
		},
		Ai: ai,
		Session: SessionConfig{
			DurationSeconds:       getEnvAsInt("GLOW_SESSION_SECONDS", 300),
			TickInterval:          getEnvAsDuration("GLOW_TICK_INTERVAL", time.Second),
			SendTimeout:           getEnvAsDuration("GLOW_SEND_TIMEOUT", 60*time.Second),
			AnalyzeTimeout:        getEnvAsDuration("GLOW_ANALYZE_TIMEOUT", 60*time.Second),
			PersistTimeout:        getEnvAsDuration("GLOW_PERSIST_TIMEOUT", 30*time.Second),
			RecommendTimeout:      getEnvAsDuration("GLOW_RECOMMEND_TIMEOUT", 60*time.Second),
			BestEffortPersistence: getEnvAsBool("GLOW_BEST_EFFORT_PERSISTENCE", false),
			IdleTTL:               getEnvAsDuration("GLOW_IDLE_TTL", 30*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "glowgirl-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
