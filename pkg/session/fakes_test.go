package session

import (
	"context"
	"fmt"
	"sync"

	"glowgirl-be/internal/entity"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/countdown"

	"github.com/google/uuid"
)

type fakeAuth struct {
	mu            sync.Mutex
	authenticated bool
	logouts       int
}

func (a *fakeAuth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

func (a *fakeAuth) CurrentToken() (string, bool) {
	if a.IsAuthenticated() {
		return "token", true
	}
	return "", false
}

func (a *fakeAuth) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authenticated = false
	a.logouts++
}

// manualTimer lets tests deliver countdown events by hand.
type manualTimer struct {
	mu       sync.Mutex
	handler  countdown.Handler
	duration int
	running  bool
	starts   int
	cancels  int
}

func (m *manualTimer) Start(duration int, handler countdown.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	m.duration = duration
	m.running = true
	m.starts++
}

func (m *manualTimer) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = nil
	m.running = false
	m.cancels++
}

func (m *manualTimer) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *manualTimer) tick(remaining int) {
	m.fire(countdown.Event{Kind: countdown.KindTick, Remaining: remaining})
}

func (m *manualTimer) expire() {
	m.mu.Lock()
	h := m.handler
	m.running = false
	m.mu.Unlock()
	if h != nil {
		h(countdown.Event{Kind: countdown.KindTick, Remaining: 0})
		h(countdown.Event{Kind: countdown.KindExpired})
	}
}

func (m *manualTimer) fire(ev countdown.Event) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// handlerFor returns the handler installed by the most recent Start, even after
// it was cancelled, to simulate events racing a cancellation.
type capturingTimer struct {
	manualTimer
	history []countdown.Handler
}

func (c *capturingTimer) Start(duration int, handler countdown.Handler) {
	c.manualTimer.Start(duration, handler)
	c.mu.Lock()
	c.history = append(c.history, handler)
	c.mu.Unlock()
}

func (c *capturingTimer) handlerAt(i int) countdown.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history[i]
}

type conversation struct {
	mu      sync.Mutex
	calls   [][]entity.Turn
	reply   func(call int, transcript []entity.Turn) (string, error)
	gate    chan struct{}
	entered chan int
}

func echoConversation() *conversation {
	return &conversation{reply: func(call int, transcript []entity.Turn) (string, error) {
		return fmt.Sprintf("reply to %q", transcript[len(transcript)-1].Text), nil
	}}
}

func (c *conversation) Send(ctx context.Context, transcript []entity.Turn) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, transcript)
	call := len(c.calls)
	gate := c.gate
	entered := c.entered
	c.mu.Unlock()

	if entered != nil {
		entered <- call
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.reply(call, transcript)
}

func (c *conversation) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type analysis struct {
	mu       sync.Mutex
	calls    int
	outcome  *pipeline.Outcome
	err      error
	block    bool
	started  chan struct{}
	ctxErr   error
	received []entity.Turn
}

func (a *analysis) Run(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) (*pipeline.Outcome, error) {
	a.mu.Lock()
	a.calls++
	a.received = transcript
	started := a.started
	a.mu.Unlock()

	if started != nil {
		close(started)
	}
	if a.block {
		<-ctx.Done()
		a.mu.Lock()
		a.ctxErr = ctx.Err()
		a.mu.Unlock()
		return nil, &pipeline.Error{Step: pipeline.StepAnalyze, Err: ctx.Err()}
	}
	return a.outcome, a.err
}

func (a *analysis) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type observer struct {
	mu        sync.Mutex
	completed []Snapshot
	failed    []Failure
}

func (o *observer) SessionCompleted(snap Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, snap)
}

func (o *observer) SessionFailed(snap Snapshot, failure Failure) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, failure)
}

func (o *observer) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.completed), len(o.failed)
}

func glowOutcome() *pipeline.Outcome {
	return &pipeline.Outcome{
		Analysis: entity.AnalysisResult{
			Mood:             "heartbroken",
			SituationSummary: "Recently went through a breakup",
			Vibe:             "revenge glow",
			ColorPalette:     []string{"deep red", "black", "gold"},
			StyleDirection:   "bold",
		},
		Recommendations: []entity.Recommendation{
			{Id: uuid.New(), Category: entity.CategoryMakeup, Title: "Bold red lip"},
			{Id: uuid.New(), Category: entity.CategoryHairColor, Title: "Copper gloss"},
			{Id: uuid.New(), Category: entity.CategoryClothing, Title: "Leather jacket"},
		},
		EmbeddingPersisted: true,
	}
}
