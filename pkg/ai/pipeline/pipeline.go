package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "AnalysisPipeline"

// Reasoner turns a finished transcript into an AnalysisResult.
type Reasoner interface {
	Analyze(ctx context.Context, transcript []entity.Turn) (*entity.AnalysisResult, error)
}

// EmbeddingStore persists the transcript as a vector embedding keyed by session.
type EmbeddingStore interface {
	Persist(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) error
}

// Recommender produces recommendations for an analysis.
type Recommender interface {
	Recommend(ctx context.Context, analysis entity.AnalysisResult) ([]entity.Recommendation, error)
}

type Config struct {
	AnalyzeTimeout   time.Duration
	PersistTimeout   time.Duration
	RecommendTimeout time.Duration

	// BestEffortPersistence lets a failed embedding write be logged and skipped
	// instead of aborting the run.
	BestEffortPersistence bool
}

func DefaultConfig() Config {
	return Config{
		AnalyzeTimeout:   60 * time.Second,
		PersistTimeout:   30 * time.Second,
		RecommendTimeout: 60 * time.Second,
	}
}

type Outcome struct {
	Analysis           entity.AnalysisResult
	Recommendations    []entity.Recommendation
	EmbeddingPersisted bool
}

// Pipeline runs analyze, persist and recommend strictly in that order and stops
// at the first failure. It never retries.
type Pipeline struct {
	reasoner    Reasoner
	store       EmbeddingStore
	recommender Recommender
	cfg         Config
	logger      logger.ILogger
	tracer      trace.Tracer
}

func New(reasoner Reasoner, store EmbeddingStore, recommender Recommender, cfg Config, log logger.ILogger) *Pipeline {
	return &Pipeline{
		reasoner:    reasoner,
		store:       store,
		recommender: recommender,
		cfg:         cfg,
		logger:      logger.OrNop(log),
		tracer:      otel.Tracer("glowgirl-be/pipeline"),
	}
}

func (p *Pipeline) Run(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) (*Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("session_id", sessionID.String()),
		attribute.Int("turns", len(transcript)),
	))
	defer span.End()

	started := time.Now()
	details := map[string]interface{}{"session_id": sessionID, "turns": len(transcript)}
	p.logger.Info(module, "Pipeline started", details)

	// 1. Analyze
	var analysis *entity.AnalysisResult
	err := p.step(ctx, StepAnalyze, p.cfg.AnalyzeTimeout, func(stepCtx context.Context) error {
		result, err := p.reasoner.Analyze(stepCtx, transcript)
		if err != nil {
			return err
		}
		if result == nil {
			return errors.New("reasoner returned no analysis")
		}
		analysis = result
		return nil
	})
	if err != nil {
		return nil, p.fail(span, sessionID, err)
	}

	// 2. Persist embedding
	persisted := true
	err = p.step(ctx, StepPersist, p.cfg.PersistTimeout, func(stepCtx context.Context) error {
		return p.store.Persist(stepCtx, sessionID, transcript)
	})
	if err != nil {
		if !p.cfg.BestEffortPersistence || ctx.Err() != nil {
			return nil, p.fail(span, sessionID, err)
		}
		persisted = false
		p.logger.Warn(module, "Embedding persistence failed, continuing", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	// 3. Recommend
	var recommendations []entity.Recommendation
	err = p.step(ctx, StepRecommend, p.cfg.RecommendTimeout, func(stepCtx context.Context) error {
		recs, err := p.recommender.Recommend(stepCtx, *analysis)
		if err != nil {
			return err
		}
		recommendations = SortByCategory(recs)
		return nil
	})
	if err != nil {
		return nil, p.fail(span, sessionID, err)
	}

	p.logger.Info(module, "Pipeline completed", map[string]interface{}{
		"session_id":      sessionID,
		"mood":            analysis.Mood,
		"recommendations": len(recommendations),
		"persisted":       persisted,
		"duration_ms":     time.Since(started).Milliseconds(),
	})

	return &Outcome{
		Analysis:           *analysis,
		Recommendations:    recommendations,
		EmbeddingPersisted: persisted,
	}, nil
}

// step runs fn under its own span and timeout. A run already cancelled before the
// step starts is reported against that step without invoking fn.
func (p *Pipeline) step(ctx context.Context, step Step, timeout time.Duration, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &Error{Step: step, Err: err}
	}

	stepCtx, span := p.tracer.Start(ctx, "pipeline."+string(step))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, timeout)
		defer cancel()
	}

	if err := fn(stepCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &Error{Step: step, Err: err}
	}
	return nil
}

func (p *Pipeline) fail(span trace.Span, sessionID uuid.UUID, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.Error(module, "Pipeline aborted", map[string]interface{}{
		"session_id": sessionID,
		"step":       FailedStep(err),
		"error":      err.Error(),
	})
	return err
}

// SortByCategory orders recommendations by category presentation order, keeping
// the producer's order inside a category.
func SortByCategory(recs []entity.Recommendation) []entity.Recommendation {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b entity.Recommendation) int {
		return a.Category.Rank() - b.Category.Rank()
	})
	return out
}
