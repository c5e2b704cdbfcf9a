package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GlowSession is one finished tea session. Analysis fields are empty when the
// pipeline failed before producing them.
type GlowSession struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status           string         `gorm:"type:varchar(20);not null;index"`
	FailedStep       string         `gorm:"type:varchar(50)"`
	FailureReason    string         `gorm:"type:text"`
	TurnCount        int            `gorm:"default:0"`
	Mood             string         `gorm:"type:varchar(100)"`
	SituationSummary string         `gorm:"type:text"`
	Vibe             string         `gorm:"type:varchar(255)"`
	StyleDirection   string         `gorm:"type:varchar(100)"`
	ColorPalette     datatypes.JSON `gorm:"type:jsonb"`
	Recommendations  datatypes.JSON `gorm:"type:jsonb"`
	FinishedAt       time.Time      `gorm:"not null"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
}

func (GlowSession) TableName() string {
	return "glow_sessions"
}

// GlowRecommendation is the JSON shape stored in GlowSession.Recommendations.
type GlowRecommendation struct {
	Id          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       *string   `json:"price,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	ProductURL  *string   `json:"product_url,omitempty"`
	Reasoning   string    `json:"reasoning,omitempty"`
}
