package mapper

import (
	"glowgirl-be/internal/dto"
	"glowgirl-be/internal/entity"
	"glowgirl-be/pkg/session"
)

// ToGlowSessionResponse renders a controller snapshot for HTTP and websocket clients.
func ToGlowSessionResponse(snap session.Snapshot) *dto.GlowSessionResponse {
	resp := &dto.GlowSessionResponse{
		SessionId:        snap.SessionID,
		Generation:       snap.Generation,
		State:            snap.State.String(),
		RemainingSeconds: snap.RemainingSeconds,
		Transcript:       make([]dto.TurnDTO, 0, len(snap.Transcript)),
		Analysis:         toAnalysisDTO(snap.Analysis),
		Recommendations:  toRecommendationDTOs(snap.Recommendations),
		UpdatedAt:        snap.UpdatedAt,
	}
	for _, turn := range snap.Transcript {
		resp.Transcript = append(resp.Transcript, dto.TurnDTO{
			Id:        turn.Id,
			Origin:    string(turn.Origin),
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		})
	}
	if !snap.StartedAt.IsZero() {
		started := snap.StartedAt
		resp.StartedAt = &started
	}
	if snap.Failure != nil {
		resp.Failure = &dto.FailureDTO{
			Step:       string(snap.Failure.Step),
			Message:    snap.Failure.Message,
			OccurredAt: snap.Failure.OccurredAt,
		}
	}
	return resp
}

func ToGlowHistoryItem(s *entity.GlowSession) dto.GlowHistoryItem {
	return dto.GlowHistoryItem{
		Id:              s.Id,
		Status:          string(s.Status),
		FailedStep:      s.FailedStep,
		FailureReason:   s.FailureReason,
		TurnCount:       s.TurnCount,
		Analysis:        toAnalysisDTO(s.Analysis),
		Recommendations: toRecommendationDTOs(s.Recommendations),
		FinishedAt:      s.FinishedAt,
	}
}

func toAnalysisDTO(a *entity.AnalysisResult) *dto.AnalysisDTO {
	if a == nil {
		return nil
	}
	return &dto.AnalysisDTO{
		Mood:             a.Mood,
		SituationSummary: a.SituationSummary,
		Vibe:             a.Vibe,
		ColorPalette:     append([]string(nil), a.ColorPalette...),
		StyleDirection:   a.StyleDirection,
	}
}

func toRecommendationDTOs(recs []entity.Recommendation) []dto.RecommendationDTO {
	if len(recs) == 0 {
		return nil
	}
	out := make([]dto.RecommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, dto.RecommendationDTO{
			Id:           r.Id,
			Category:     string(r.Category),
			CategoryName: r.Category.DisplayName(),
			Title:        r.Title,
			Description:  r.Description,
			Price:        r.Price,
			ImageURL:     r.ImageRef,
			ProductURL:   r.ProductRef,
			Reasoning:    r.Reasoning,
		})
	}
	return out
}
