// FILE: pkg/stylist/stylist.go
// PURPOSE: LLM backed analysis and recommendation steps of the glow pipeline.
//          Both ask the model for JSON, extract it tolerantly and validate
//          every field before it reaches the session state.

package stylist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"glowgirl-be/internal/constant"
	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/chatbot"
	"glowgirl-be/pkg/llm"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrNoJSON            = errors.New("model response contained no JSON")
	ErrNoRecommendations = errors.New("model returned no usable recommendations")
)

type analysisPayload struct {
	Mood         string   `json:"mood" validate:"required"`
	Situation    string   `json:"situation" validate:"required"`
	Vibe         string   `json:"vibe" validate:"required"`
	ColorPalette []string `json:"color_palette" validate:"required,min=1,dive,required"`
	Style        string   `json:"style" validate:"required"`
}

type recommendationPayload struct {
	Category    string  `json:"category" validate:"required,oneof=makeup skincare haircare hair-color clothing"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       *string `json:"price"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	ProductURL  *string `json:"product_url" validate:"omitempty,url"`
	Reasoning   string  `json:"reasoning"`
}

// Analyzer implements pipeline.Reasoner.
type Analyzer struct {
	provider llm.LLMProvider
	validate *validator.Validate
	logger   logger.ILogger
}

var _ pipeline.Reasoner = (*Analyzer)(nil)

func NewAnalyzer(provider llm.LLMProvider, log logger.ILogger) *Analyzer {
	return &Analyzer{provider: provider, validate: validator.New(), logger: logger.OrNop(log)}
}

func (a *Analyzer) Analyze(ctx context.Context, transcript []entity.Turn) (*entity.AnalysisResult, error) {
	prompt := fmt.Sprintf(constant.GlowAnalysisPrompt, chatbot.FormatTranscript(transcript))

	raw, err := a.provider.Generate(ctx, prompt, llm.WithJSONMode(), llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}

	body, err := ExtractJSON(raw, '{')
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	trimAnalysis(&payload)
	if err := a.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("invalid analysis: %w", err)
	}

	a.logger.Debug("STYLIST", "Analysis decoded", map[string]interface{}{
		"mood":  payload.Mood,
		"style": payload.Style,
	})

	return &entity.AnalysisResult{
		Mood:             payload.Mood,
		SituationSummary: payload.Situation,
		Vibe:             payload.Vibe,
		ColorPalette:     payload.ColorPalette,
		StyleDirection:   payload.Style,
	}, nil
}

// Recommender implements pipeline.Recommender.
type Recommender struct {
	provider llm.LLMProvider
	validate *validator.Validate
	logger   logger.ILogger
}

var _ pipeline.Recommender = (*Recommender)(nil)

func NewRecommender(provider llm.LLMProvider, log logger.ILogger) *Recommender {
	return &Recommender{provider: provider, validate: validator.New(), logger: logger.OrNop(log)}
}

func (r *Recommender) Recommend(ctx context.Context, analysis entity.AnalysisResult) ([]entity.Recommendation, error) {
	prompt := fmt.Sprintf(constant.GlowRecommendationPrompt,
		analysis.Mood,
		analysis.SituationSummary,
		analysis.Vibe,
		strings.Join(analysis.ColorPalette, ", "),
		analysis.StyleDirection,
	)

	raw, err := r.provider.Generate(ctx, prompt, llm.WithJSONMode(), llm.WithTemperature(0.7), llm.WithMaxTokens(1500))
	if err != nil {
		return nil, fmt.Errorf("recommendation completion: %w", err)
	}

	payloads, err := decodeRecommendations(raw)
	if err != nil {
		return nil, err
	}

	recs := make([]entity.Recommendation, 0, len(payloads))
	for i, p := range payloads {
		p.Category = strings.ToLower(strings.TrimSpace(p.Category))
		p.Title = strings.TrimSpace(p.Title)
		p.Description = strings.TrimSpace(p.Description)
		p.Price = nonBlank(p.Price)
		p.ImageURL = nonBlank(p.ImageURL)
		p.ProductURL = nonBlank(p.ProductURL)

		if err := r.validate.Struct(p); err != nil {
			r.logger.Warn("STYLIST", "Skipping invalid recommendation", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}

		recs = append(recs, entity.Recommendation{
			Id:          uuid.New(),
			Category:    entity.Category(p.Category),
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			ImageRef:    p.ImageURL,
			ProductRef:  p.ProductURL,
			Reasoning:   strings.TrimSpace(p.Reasoning),
		})
	}

	if len(recs) == 0 {
		return nil, ErrNoRecommendations
	}
	return recs, nil
}

// decodeRecommendations accepts a bare array or an object wrapping one,
// since JSON mode on some backends forces a top level object.
func decodeRecommendations(raw string) ([]recommendationPayload, error) {
	if body, err := ExtractJSON(raw, '['); err == nil {
		var items []recommendationPayload
		if err := json.Unmarshal([]byte(body), &items); err == nil {
			return items, nil
		}
	}

	body, err := ExtractJSON(raw, '{')
	if err != nil {
		return nil, err
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	for _, v := range wrapper {
		var items []recommendationPayload
		if err := json.Unmarshal(v, &items); err == nil && len(items) > 0 {
			return items, nil
		}
	}

	var single recommendationPayload
	if err := json.Unmarshal([]byte(body), &single); err == nil && single.Title != "" {
		return []recommendationPayload{single}, nil
	}
	return nil, ErrNoRecommendations
}

// ExtractJSON returns the first balanced JSON value opening with open ('{' or '[')
// found in raw, skipping markdown fences and chatter around it.
func ExtractJSON(raw string, open byte) (string, error) {
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	start := strings.IndexByte(raw, open)
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

func trimAnalysis(p *analysisPayload) {
	p.Mood = strings.TrimSpace(p.Mood)
	p.Situation = strings.TrimSpace(p.Situation)
	p.Vibe = strings.TrimSpace(p.Vibe)
	p.Style = strings.TrimSpace(p.Style)
	palette := p.ColorPalette[:0]
	for _, color := range p.ColorPalette {
		if color = strings.TrimSpace(color); color != "" {
			palette = append(palette, color)
		}
	}
	p.ColorPalette = palette
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
