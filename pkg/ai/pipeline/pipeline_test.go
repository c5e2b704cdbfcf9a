package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"glowgirl-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []Step
}

func (l *callLog) add(s Step) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) get() []Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Step(nil), l.calls...)
}

type fakeReasoner struct {
	log     *callLog
	result  *entity.AnalysisResult
	err     error
	block   bool
	started chan struct{}
}

func (f *fakeReasoner) Analyze(ctx context.Context, transcript []entity.Turn) (*entity.AnalysisResult, error) {
	f.log.add(StepAnalyze)
	if f.started != nil {
		close(f.started)
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

type fakeStore struct {
	log       *callLog
	err       error
	sessionID uuid.UUID
	turns     int
}

func (f *fakeStore) Persist(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) error {
	f.log.add(StepPersist)
	f.sessionID = sessionID
	f.turns = len(transcript)
	return f.err
}

type fakeRecommender struct {
	log      *callLog
	recs     []entity.Recommendation
	err      error
	received entity.AnalysisResult
}

func (f *fakeRecommender) Recommend(ctx context.Context, analysis entity.AnalysisResult) ([]entity.Recommendation, error) {
	f.log.add(StepRecommend)
	f.received = analysis
	return f.recs, f.err
}

func heartbroken() *entity.AnalysisResult {
	return &entity.AnalysisResult{
		Mood:             "heartbroken",
		SituationSummary: "Just went through a breakup",
		Vibe:             "revenge glow",
		ColorPalette:     []string{"deep red", "black", "gold"},
		StyleDirection:   "bold",
	}
}

func transcriptOf(texts ...string) []entity.Turn {
	turns := make([]entity.Turn, len(texts))
	for i, text := range texts {
		turns[i] = entity.Turn{Id: uuid.New(), Text: text, Origin: entity.OriginUser, CreatedAt: time.Now()}
	}
	return turns
}

type fixture struct {
	log         *callLog
	reasoner    *fakeReasoner
	store       *fakeStore
	recommender *fakeRecommender
}

func newFixture() *fixture {
	log := &callLog{}
	return &fixture{
		log:      log,
		reasoner: &fakeReasoner{log: log, result: heartbroken()},
		store:    &fakeStore{log: log},
		recommender: &fakeRecommender{log: log, recs: []entity.Recommendation{
			{Id: uuid.New(), Category: entity.CategoryClothing, Title: "Leather jacket"},
			{Id: uuid.New(), Category: entity.CategoryMakeup, Title: "Red lipstick"},
			{Id: uuid.New(), Category: entity.CategoryHairColor, Title: "Copper gloss"},
			{Id: uuid.New(), Category: entity.CategoryMakeup, Title: "Winged liner"},
		}},
	}
}

func (f *fixture) pipeline(cfg Config) *Pipeline {
	return New(f.reasoner, f.store, f.recommender, cfg, nil)
}

func TestRun_Success(t *testing.T) {
	f := newFixture()
	sessionID := uuid.New()

	outcome, err := f.pipeline(DefaultConfig()).Run(context.Background(), sessionID, transcriptOf("We broke up"))
	require.NoError(t, err)

	assert.Equal(t, []Step{StepAnalyze, StepPersist, StepRecommend}, f.log.get())
	assert.Equal(t, sessionID, f.store.sessionID)
	assert.Equal(t, 1, f.store.turns)
	assert.Equal(t, *heartbroken(), f.recommender.received)
	assert.Equal(t, "heartbroken", outcome.Analysis.Mood)
	assert.True(t, outcome.EmbeddingPersisted)

	titles := make([]string, len(outcome.Recommendations))
	for i, r := range outcome.Recommendations {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"Red lipstick", "Winged liner", "Copper gloss", "Leather jacket"}, titles)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		setup     func(f *fixture)
		wantErr   error
		wantStep  Step
		wantCalls []Step
	}{
		{
			name:      "analysis fails",
			setup:     func(f *fixture) { f.reasoner.err = boom },
			wantErr:   ErrAnalysisFailed,
			wantStep:  StepAnalyze,
			wantCalls: []Step{StepAnalyze},
		},
		{
			name:      "analysis returns nothing",
			setup:     func(f *fixture) { f.reasoner.result = nil },
			wantErr:   ErrAnalysisFailed,
			wantStep:  StepAnalyze,
			wantCalls: []Step{StepAnalyze},
		},
		{
			name:      "persistence fails",
			setup:     func(f *fixture) { f.store.err = boom },
			wantErr:   ErrPersistenceFailed,
			wantStep:  StepPersist,
			wantCalls: []Step{StepAnalyze, StepPersist},
		},
		{
			name:      "recommendation fails",
			setup:     func(f *fixture) { f.recommender.err = boom },
			wantErr:   ErrRecommendationFailed,
			wantStep:  StepRecommend,
			wantCalls: []Step{StepAnalyze, StepPersist, StepRecommend},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			outcome, err := f.pipeline(DefaultConfig()).Run(context.Background(), uuid.New(), transcriptOf("tea"))
			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantStep, FailedStep(err))
			assert.Equal(t, tt.wantCalls, f.log.get())

			for _, other := range []error{ErrAnalysisFailed, ErrPersistenceFailed, ErrRecommendationFailed} {
				if other != tt.wantErr {
					assert.NotErrorIs(t, err, other)
				}
			}
		})
	}
}

func TestRun_WrapsCollaboratorError(t *testing.T) {
	f := newFixture()
	dbDown := errors.New("connection refused")
	f.store.err = dbDown

	_, err := f.pipeline(DefaultConfig()).Run(context.Background(), uuid.New(), transcriptOf("tea"))

	assert.ErrorIs(t, err, dbDown)
	assert.Contains(t, err.Error(), "embedding persistence failed")
}

func TestRun_BestEffortPersistenceContinues(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("vector store unavailable")
	cfg := DefaultConfig()
	cfg.BestEffortPersistence = true

	outcome, err := f.pipeline(cfg).Run(context.Background(), uuid.New(), transcriptOf("tea"))
	require.NoError(t, err)

	assert.False(t, outcome.EmbeddingPersisted)
	assert.Len(t, outcome.Recommendations, 4)
	assert.Equal(t, []Step{StepAnalyze, StepPersist, StepRecommend}, f.log.get())
}

func TestRun_StepTimeout(t *testing.T) {
	f := newFixture()
	f.reasoner.block = true
	cfg := DefaultConfig()
	cfg.AnalyzeTimeout = 10 * time.Millisecond

	_, err := f.pipeline(cfg).Run(context.Background(), uuid.New(), transcriptOf("tea"))

	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []Step{StepAnalyze}, f.log.get())
}

func TestRun_CancelledRun(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		f := newFixture()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.pipeline(DefaultConfig()).Run(ctx, uuid.New(), transcriptOf("tea"))

		assert.ErrorIs(t, err, ErrAnalysisFailed)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.log.get())
	})

	t.Run("while analyzing", func(t *testing.T) {
		f := newFixture()
		f.reasoner.block = true
		f.reasoner.started = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-f.reasoner.started
			cancel()
		}()

		_, err := f.pipeline(DefaultConfig()).Run(ctx, uuid.New(), transcriptOf("tea"))

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StepAnalyze, FailedStep(err))
		assert.Equal(t, []Step{StepAnalyze}, f.log.get())
	})
}

func TestSortByCategory(t *testing.T) {
	recs := []entity.Recommendation{
		{Title: "a", Category: entity.CategoryClothing},
		{Title: "b", Category: entity.CategorySkincare},
		{Title: "c", Category: entity.CategoryHaircare},
		{Title: "d", Category: entity.CategorySkincare},
	}

	sorted := SortByCategory(recs)

	assert.Equal(t, "b", sorted[0].Title)
	assert.Equal(t, "d", sorted[1].Title)
	assert.Equal(t, "c", sorted[2].Title)
	assert.Equal(t, "a", sorted[3].Title)
	assert.Equal(t, "a", recs[0].Title, "input must not be reordered")
}

func TestFailedStep_NonPipelineError(t *testing.T) {
	assert.Equal(t, Step(""), FailedStep(errors.New("other")))
}
