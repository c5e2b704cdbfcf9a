// FILE: internal/dto/glow_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	SocketTypeSessionSnapshot = "session_snapshot"
	SocketTypeNotification    = "notification"
)

type SubmitMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type TurnDTO struct {
	Id        uuid.UUID `json:"id"`
	Origin    string    `json:"origin"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type AnalysisDTO struct {
	Mood             string   `json:"mood"`
	SituationSummary string   `json:"situation_summary"`
	Vibe             string   `json:"vibe"`
	ColorPalette     []string `json:"color_palette"`
	StyleDirection   string   `json:"style_direction"`
}

type RecommendationDTO struct {
	Id           uuid.UUID `json:"id"`
	Category     string    `json:"category"`
	CategoryName string    `json:"category_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        *string   `json:"price,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	ProductURL   *string   `json:"product_url,omitempty"`
	Reasoning    string    `json:"reasoning,omitempty"`
}

type FailureDTO struct {
	Step       string    `json:"step"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// GlowSessionResponse is the client view of a session snapshot.
type GlowSessionResponse struct {
	SessionId        uuid.UUID           `json:"session_id"`
	Generation       uint64              `json:"generation"`
	State            string              `json:"state"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	Transcript       []TurnDTO           `json:"transcript"`
	Analysis         *AnalysisDTO        `json:"analysis,omitempty"`
	Recommendations  []RecommendationDTO `json:"recommendations,omitempty"`
	Failure          *FailureDTO         `json:"failure,omitempty"`
	StartedAt        *time.Time          `json:"started_at,omitempty"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type GlowHistoryItem struct {
	Id              uuid.UUID           `json:"id"`
	Status          string              `json:"status"`
	FailedStep      string              `json:"failed_step,omitempty"`
	FailureReason   string              `json:"failure_reason,omitempty"`
	TurnCount       int                 `json:"turn_count"`
	Analysis        *AnalysisDTO        `json:"analysis,omitempty"`
	Recommendations []RecommendationDTO `json:"recommendations,omitempty"`
	FinishedAt      time.Time           `json:"finished_at"`
}

type GlowHistoryResponse struct {
	Items    []GlowHistoryItem `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SocketMessage is the envelope of everything pushed over /api/glow/ws.
type SocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type GlowNotification struct {
	EventType  string    `json:"event_type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	SessionId  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
