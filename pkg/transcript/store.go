package transcript

import (
	"errors"
	"strings"
	"sync"
	"time"

	"glowgirl-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrEmptyInput    = errors.New("message text is empty")
	ErrSealed        = errors.New("transcript is sealed")
	ErrInvalidOrigin = errors.New("invalid turn origin")
)

// Store is the ordered, append-only log of a single session's turns.
type Store struct {
	mu     sync.RWMutex
	turns  []entity.Turn
	sealed bool
	now    func() time.Time
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Append records a new turn. Text is trimmed; CreatedAt never goes backwards even
// if the clock does.
func (s *Store) Append(origin entity.Origin, text string) (entity.Turn, error) {
	if !origin.IsValid() {
		return entity.Turn{}, ErrInvalidOrigin
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.Turn{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return entity.Turn{}, ErrSealed
	}

	createdAt := s.now()
	if n := len(s.turns); n > 0 && createdAt.Before(s.turns[n-1].CreatedAt) {
		createdAt = s.turns[n-1].CreatedAt
	}

	turn := entity.Turn{
		Id:        uuid.New(),
		Text:      text,
		Origin:    origin,
		CreatedAt: createdAt,
	}
	s.turns = append(s.turns, turn)
	return turn, nil
}

// Snapshot returns a copy of the turns that later appends cannot affect.
func (s *Store) Snapshot() []entity.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Seal rejects further appends until the next Clear.
func (s *Store) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

func (s *Store) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.sealed = false
	s.mu.Unlock()
}
