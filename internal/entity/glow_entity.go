// FILE: internal/entity/glow_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

func (o Origin) IsValid() bool {
	return o == OriginUser || o == OriginAssistant
}

// Turn is one message of a tea session transcript. Turns never change once appended.
type Turn struct {
	Id        uuid.UUID
	Text      string
	Origin    Origin
	CreatedAt time.Time
}

type AnalysisResult struct {
	Mood             string // "heartbroken", "excited", "confused", "empowered", ...
	SituationSummary string
	Vibe             string // "confidence boost", "self-love", "revenge glow", ...
	ColorPalette     []string
	StyleDirection   string // "edgy", "soft", "bold", "minimalist", ...
}

type Category string

const (
	CategoryMakeup    Category = "makeup"
	CategorySkincare  Category = "skincare"
	CategoryHaircare  Category = "haircare"
	CategoryHairColor Category = "hair-color"
	CategoryClothing  Category = "clothing"
)

// Categories lists every recommendation category in presentation order.
var Categories = []Category{
	CategoryMakeup,
	CategorySkincare,
	CategoryHaircare,
	CategoryHairColor,
	CategoryClothing,
}

func (c Category) IsValid() bool {
	return c.Rank() >= 0
}

// Rank is the position of the category in presentation order, -1 when unknown.
func (c Category) Rank() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return -1
}

func (c Category) DisplayName() string {
	switch c {
	case CategoryMakeup:
		return "Makeup"
	case CategorySkincare:
		return "Skincare"
	case CategoryHaircare:
		return "Hair Care"
	case CategoryHairColor:
		return "Hair Color"
	case CategoryClothing:
		return "Style"
	default:
		return string(c)
	}
}

type Recommendation struct {
	Id          uuid.UUID
	Category    Category
	Title       string
	Description string
	Price       *string
	ImageRef    *string
	ProductRef  *string
	Reasoning   string
}

type GlowSessionStatus string

const (
	GlowSessionStatusCompleted GlowSessionStatus = "completed"
	GlowSessionStatusFailed    GlowSessionStatus = "failed"
)

// GlowSession is the persisted record of a finished tea session.
type GlowSession struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Status          GlowSessionStatus
	FailedStep      string
	FailureReason   string
	TurnCount       int
	Analysis        *AnalysisResult
	Recommendations []Recommendation
	FinishedAt      time.Time
	CreatedAt       time.Time
}

type ConversationEmbedding struct {
	Id             uuid.UUID
	SessionId      uuid.UUID
	UserId         uuid.UUID
	Document       string
	EmbeddingValue []float32
	TurnCount      int
	CreatedAt      time.Time
}
