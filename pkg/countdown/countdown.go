package countdown

import (
	"sync"
	"time"
)

type Kind int

const (
	KindTick Kind = iota
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind      Kind
	Remaining int
}

// Handler receives countdown events. It runs on the timer goroutine and must not
// call back into the Timer that invoked it.
type Handler func(Event)

// Countdown is a cancellable clock that counts a duration down in whole ticks.
type Countdown interface {
	Start(duration int, handler Handler)
	Cancel()
	IsRunning() bool
}

const DefaultInterval = time.Second

// Timer delivers one Tick per elapsed interval and a single Expired event when the
// duration runs out. Late ticks are coalesced from elapsed time, so Remaining never
// goes up and the zero tick is delivered exactly once.
type Timer struct {
	interval time.Duration

	mu      sync.Mutex
	epoch   uint64
	running bool
	stop    chan struct{}
}

var _ Countdown = (*Timer)(nil)

func New(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Timer{interval: interval}
}

// Start arms the timer for duration ticks, superseding any run in progress.
func (t *Timer) Start(duration int, handler Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.epoch++
	t.running = true
	t.stop = make(chan struct{})

	go t.run(t.epoch, t.stop, time.Now(), duration, handler)
}

// Cancel stops the current run. Once it returns no event of that run is delivered.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Timer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) cancelLocked() {
	t.epoch++
	t.running = false
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) run(epoch uint64, stop <-chan struct{}, started time.Time, duration int, handler Handler) {
	if duration <= 0 {
		t.deliver(epoch, 0, handler)
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := duration
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		remaining := duration - int(time.Since(started)/t.interval)
		if remaining < 0 {
			remaining = 0
		}
		if remaining >= last {
			continue
		}
		last = remaining

		if !t.deliver(epoch, remaining, handler) || remaining == 0 {
			return
		}
	}
}

// deliver emits a tick for the given run and, on zero, the terminal expiry.
// It reports false when the run was superseded.
func (t *Timer) deliver(epoch uint64, remaining int, handler Handler) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.epoch != epoch {
		return false
	}

	handler(Event{Kind: KindTick, Remaining: remaining})
	if remaining == 0 {
		t.running = false
		t.stop = nil
		handler(Event{Kind: KindExpired})
	}
	return true
}
