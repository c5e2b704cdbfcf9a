package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"glowgirl-be/internal/constant"
	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/pkg/logger"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/countdown"
	"glowgirl-be/pkg/transcript"

	"github.com/google/uuid"
)

const module = "SessionController"

// ConversationService produces the assistant's reply for the transcript so far.
type ConversationService interface {
	Send(ctx context.Context, transcript []entity.Turn) (string, error)
}

// AuthSession is the slice of authentication the controller needs.
type AuthSession interface {
	IsAuthenticated() bool
	CurrentToken() (string, bool)
	Logout()
}

// AnalysisRunner is satisfied by *pipeline.Pipeline.
type AnalysisRunner interface {
	Run(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) (*pipeline.Outcome, error)
}

// Observer hears about sessions that reached a terminal outcome. It is called on
// the analysis goroutine, outside the controller lock.
type Observer interface {
	SessionCompleted(snap Snapshot)
	SessionFailed(snap Snapshot, failure Failure)
}

type Config struct {
	DurationSeconds int
	Greeting        string
	SendTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		DurationSeconds: 300,
		Greeting:        constant.GlowGreeting,
		SendTimeout:     60 * time.Second,
	}
}

type Dependencies struct {
	Auth         AuthSession
	Conversation ConversationService
	Analysis     AnalysisRunner
	Timer        countdown.Countdown
	Observer     Observer
	Logger       logger.ILogger
}

// Controller owns one user's tea session: idle, chatting, analyzing,
// recommendations. It is the only writer of the session snapshot.
//
// Lock order is opMu, then the timer's own lock, then mu. mu is never held while
// calling into the timer, so tick handlers can always acquire it.
type Controller struct {
	cfg          Config
	auth         AuthSession
	conversation ConversationService
	analysis     AnalysisRunner
	timer        countdown.Countdown
	observer     Observer
	logger       logger.ILogger
	now          func() time.Time

	opMu   sync.Mutex
	sendMu sync.Mutex

	mu         sync.Mutex
	snap       Snapshot
	transcript *transcript.Store
	genCtx     context.Context
	genCancel  context.CancelFunc
	chatCtx    context.Context
	chatCancel context.CancelFunc
	subs       map[int]chan Snapshot
	nextSub    int
	closed     bool

	wg sync.WaitGroup
}

func NewController(cfg Config, deps Dependencies) *Controller {
	defaults := DefaultConfig()
	if cfg.DurationSeconds <= 0 {
		cfg.DurationSeconds = defaults.DurationSeconds
	}
	if strings.TrimSpace(cfg.Greeting) == "" {
		cfg.Greeting = defaults.Greeting
	}

	timer := deps.Timer
	if timer == nil {
		timer = countdown.New(countdown.DefaultInterval)
	}

	c := &Controller{
		cfg:          cfg,
		auth:         deps.Auth,
		conversation: deps.Conversation,
		analysis:     deps.Analysis,
		timer:        timer,
		observer:     deps.Observer,
		logger:       logger.OrNop(deps.Logger),
		now:          time.Now,
		transcript:   transcript.NewStore(),
		subs:         make(map[int]chan Snapshot),
	}
	c.beginGenerationLocked()
	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// StartSession moves idle to chatting, seeds the greeting and arms the countdown.
func (c *Controller) StartSession(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return c.Snapshot(), err
	}
	if c.auth == nil || !c.auth.IsAuthenticated() {
		return c.Snapshot(), ErrNotAuthenticated
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		snap := c.snap
		c.mu.Unlock()
		return snap, ErrClosed
	}
	if c.snap.State != StateIdle {
		snap := c.snap
		c.mu.Unlock()
		return snap, transitionError("start a session", snap.State)
	}

	c.beginGenerationLocked()
	if _, err := c.transcript.Append(entity.OriginAssistant, c.cfg.Greeting); err != nil {
		snap := c.snap
		c.mu.Unlock()
		return snap, fmt.Errorf("seed greeting: %w", err)
	}

	next := c.snap
	next.State = StateChatting
	next.Transcript = c.transcript.Snapshot()
	next.RemainingSeconds = c.cfg.DurationSeconds
	next.StartedAt = c.now()
	c.publishLocked(next)
	c.mu.Unlock()

	c.timer.Start(c.cfg.DurationSeconds, c.timerHandler(next.Generation))

	c.logger.Info(module, "Session started", map[string]interface{}{
		"session_id": next.SessionID,
		"generation": next.Generation,
		"duration":   c.cfg.DurationSeconds,
	})
	return next, nil
}

// SubmitMessage appends a user turn, asks the conversation service for a reply and
// appends it. Calls are serialised; the user turn is visible before the reply.
func (c *Controller) SubmitMessage(ctx context.Context, text string) (Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return c.Snapshot(), ErrEmptyInput
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.closed {
		snap := c.snap
		c.mu.Unlock()
		return snap, ErrClosed
	}
	if c.snap.State != StateChatting || c.snap.RemainingSeconds <= 0 {
		snap := c.snap
		c.mu.Unlock()
		return snap, transitionError("submit a message", snap.State)
	}
	if _, err := c.transcript.Append(entity.OriginUser, text); err != nil {
		snap := c.snap
		c.mu.Unlock()
		if errors.Is(err, transcript.ErrSealed) {
			return snap, transitionError("submit a message", snap.State)
		}
		return snap, err
	}

	pending := c.snap
	pending.Transcript = c.transcript.Snapshot()
	c.publishLocked(pending)
	chatCtx := c.chatCtx
	c.mu.Unlock()

	reply, err := c.send(ctx, chatCtx, pending.Transcript)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.snap, ErrClosed
	}
	if c.snap.Generation != pending.Generation || c.snap.State != StateChatting {
		c.logger.Debug(module, "Dropping reply for a session that moved on", map[string]interface{}{
			"generation": pending.Generation,
			"state":      c.snap.State.String(),
		})
		return c.snap, ErrStaleGeneration
	}
	if err != nil {
		c.logger.Warn(module, "Conversation service failed", map[string]interface{}{
			"session_id": pending.SessionID,
			"error":      err.Error(),
		})
		return c.snap, &ServiceError{Err: err}
	}
	if _, err := c.transcript.Append(entity.OriginAssistant, reply); err != nil {
		if errors.Is(err, transcript.ErrEmptyInput) {
			return c.snap, &ServiceError{Err: errors.New("empty reply")}
		}
		return c.snap, ErrStaleGeneration
	}

	next := c.snap
	next.Transcript = c.transcript.Snapshot()
	c.publishLocked(next)
	return next, nil
}

func (c *Controller) send(ctx, chatCtx context.Context, history []entity.Turn) (string, error) {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(chatCtx, cancel)
	defer stop()

	if c.cfg.SendTimeout > 0 {
		var cancelTimeout context.CancelFunc
		sendCtx, cancelTimeout = context.WithTimeout(sendCtx, c.cfg.SendTimeout)
		defer cancelTimeout()
	}
	return c.conversation.Send(sendCtx, history)
}

// ResetSession abandons whatever is in flight and returns to a fresh idle session.
// Resetting an untouched idle session changes nothing.
func (c *Controller) ResetSession() Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed || (c.snap.State == StateIdle && c.snap.Failure == nil) {
		snap := c.snap
		c.mu.Unlock()
		return snap
	}
	from := c.snap.State
	c.beginGenerationLocked()
	next := c.snap
	c.publishLocked(next)
	c.mu.Unlock()

	c.timer.Cancel()

	c.logger.Info(module, "Session reset", map[string]interface{}{
		"from":       from.String(),
		"generation": next.Generation,
	})
	return next
}

// Logout signs the user out and resets the session.
func (c *Controller) Logout() Snapshot {
	if c.auth != nil {
		c.auth.Logout()
	}
	return c.ResetSession()
}

// Subscribe streams snapshots, starting with the current one. A slow reader only
// ever misses intermediate snapshots, never the latest.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snap

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close cancels all work, closes subscriber streams and waits for the analysis
// goroutine to finish.
func (c *Controller) Close() {
	c.opMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.opMu.Unlock()
		return
	}
	c.closed = true
	c.genCancel()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	c.timer.Cancel()
	c.opMu.Unlock()

	c.wg.Wait()
}

func (c *Controller) timerHandler(gen uint64) countdown.Handler {
	return func(ev countdown.Event) {
		switch ev.Kind {
		case countdown.KindTick:
			c.handleTick(gen, ev.Remaining)
		case countdown.KindExpired:
			c.handleExpiry(gen)
		}
	}
}

func (c *Controller) handleTick(gen uint64, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.snap.Generation != gen || c.snap.State != StateChatting {
		return
	}
	if remaining < 0 || remaining >= c.snap.RemainingSeconds {
		return
	}
	next := c.snap
	next.RemainingSeconds = remaining
	c.publishLocked(next)
}

func (c *Controller) handleExpiry(gen uint64) {
	c.mu.Lock()
	if c.closed || c.snap.Generation != gen || c.snap.State != StateChatting {
		c.mu.Unlock()
		return
	}

	c.transcript.Seal()
	c.chatCancel()

	next := c.snap
	next.State = StateAnalyzing
	next.RemainingSeconds = 0
	next.Transcript = c.transcript.Snapshot()
	c.publishLocked(next)
	ctx := c.genCtx
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info(module, "Countdown expired, analyzing", map[string]interface{}{
		"session_id": next.SessionID,
		"turns":      len(next.Transcript),
	})
	go c.analyze(ctx, next)
}

func (c *Controller) analyze(ctx context.Context, analyzing Snapshot) {
	defer c.wg.Done()

	gen := analyzing.Generation
	c.cancelTimerFor(gen)

	outcome, err := c.analysis.Run(ctx, analyzing.SessionID, analyzing.Transcript)

	c.mu.Lock()
	if c.closed || c.snap.Generation != gen || c.snap.State != StateAnalyzing {
		c.mu.Unlock()
		c.logger.Debug(module, "Discarding analysis result for a session that moved on", map[string]interface{}{
			"session_id": analyzing.SessionID,
		})
		return
	}

	if err != nil {
		failure := Failure{
			Step:       pipeline.FailedStep(err),
			Message:    err.Error(),
			OccurredAt: c.now(),
			Err:        err,
		}
		c.beginGenerationLocked()
		next := c.snap
		next.Failure = &failure
		c.publishLocked(next)
		c.mu.Unlock()

		c.logger.Warn(module, "Analysis failed, session discarded", map[string]interface{}{
			"session_id": analyzing.SessionID,
			"step":       failure.Step,
			"error":      failure.Message,
		})
		if c.observer != nil {
			c.observer.SessionFailed(analyzing, failure)
		}
		return
	}

	next := c.snap
	next.State = StateRecommendations
	analysis := outcome.Analysis
	next.Analysis = &analysis
	next.Recommendations = outcome.Recommendations
	c.publishLocked(next)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.SessionCompleted(next)
	}
}

// cancelTimerFor stops the timer only while gen is still current, so a late
// analysis goroutine can never stop the countdown of a newer session.
func (c *Controller) cancelTimerFor(gen uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	current := c.snap.Generation == gen
	c.mu.Unlock()

	if current {
		c.timer.Cancel()
	}
}

// beginGenerationLocked abandons the current generation and installs a fresh idle
// session. Work tagged with an older generation is ignored from here on.
func (c *Controller) beginGenerationLocked() {
	if c.genCancel != nil {
		c.genCancel()
	}
	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	c.chatCtx, c.chatCancel = context.WithCancel(c.genCtx)
	c.transcript.Clear()
	c.snap = Snapshot{
		Generation: c.snap.Generation + 1,
		SessionID:  uuid.New(),
		State:      StateIdle,
		UpdatedAt:  c.now(),
	}
}

func (c *Controller) publishLocked(next Snapshot) {
	next.UpdatedAt = c.now()
	c.snap = next
	for _, ch := range c.subs {
		select {
		case ch <- next:
		default:
			// Drop the oldest queued snapshot so the newest always lands
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

func transitionError(action string, from State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidStateTransition, action, from)
}
