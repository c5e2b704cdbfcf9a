package mapper

import (
	"encoding/json"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/model"

	"gorm.io/datatypes"
)

type GlowSessionMapper struct{}

func NewGlowSessionMapper() *GlowSessionMapper {
	return &GlowSessionMapper{}
}

func (m *GlowSessionMapper) ToEntity(s *model.GlowSession) *entity.GlowSession {
	if s == nil {
		return nil
	}

	out := &entity.GlowSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Status:        entity.GlowSessionStatus(s.Status),
		FailedStep:    s.FailedStep,
		FailureReason: s.FailureReason,
		TurnCount:     s.TurnCount,
		FinishedAt:    s.FinishedAt,
		CreatedAt:     s.CreatedAt,
	}

	if s.Mood != "" {
		analysis := &entity.AnalysisResult{
			Mood:             s.Mood,
			SituationSummary: s.SituationSummary,
			Vibe:             s.Vibe,
			StyleDirection:   s.StyleDirection,
		}
		if len(s.ColorPalette) > 0 {
			_ = json.Unmarshal(s.ColorPalette, &analysis.ColorPalette)
		}
		out.Analysis = analysis
	}

	if len(s.Recommendations) > 0 {
		var stored []model.GlowRecommendation
		if err := json.Unmarshal(s.Recommendations, &stored); err == nil {
			out.Recommendations = make([]entity.Recommendation, len(stored))
			for i, r := range stored {
				out.Recommendations[i] = entity.Recommendation{
					Id:          r.Id,
					Category:    entity.Category(r.Category),
					Title:       r.Title,
					Description: r.Description,
					Price:       r.Price,
					ImageRef:    r.ImageURL,
					ProductRef:  r.ProductURL,
					Reasoning:   r.Reasoning,
				}
			}
		}
	}

	return out
}

func (m *GlowSessionMapper) ToModel(s *entity.GlowSession) *model.GlowSession {
	if s == nil {
		return nil
	}

	out := &model.GlowSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Status:        string(s.Status),
		FailedStep:    s.FailedStep,
		FailureReason: s.FailureReason,
		TurnCount:     s.TurnCount,
		FinishedAt:    s.FinishedAt,
		CreatedAt:     s.CreatedAt,
	}

	if s.Analysis != nil {
		out.Mood = s.Analysis.Mood
		out.SituationSummary = s.Analysis.SituationSummary
		out.Vibe = s.Analysis.Vibe
		out.StyleDirection = s.Analysis.StyleDirection
		out.ColorPalette = toJSON(s.Analysis.ColorPalette)
	}

	if len(s.Recommendations) > 0 {
		stored := make([]model.GlowRecommendation, len(s.Recommendations))
		for i, r := range s.Recommendations {
			stored[i] = model.GlowRecommendation{
				Id:          r.Id,
				Category:    string(r.Category),
				Title:       r.Title,
				Description: r.Description,
				Price:       r.Price,
				ImageURL:    r.ImageRef,
				ProductURL:  r.ProductRef,
				Reasoning:   r.Reasoning,
			}
		}
		out.Recommendations = toJSON(stored)
	}

	return out
}

func (m *GlowSessionMapper) ToEntities(sessions []*model.GlowSession) []*entity.GlowSession {
	entities := make([]*entity.GlowSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

func toJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
