package session

import (
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/pkg/ai/pipeline"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateChatting
	StateAnalyzing
	StateRecommendations
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChatting:
		return "chatting"
	case StateAnalyzing:
		return "analyzing"
	case StateRecommendations:
		return "recommendations"
	default:
		return "unknown"
	}
}

// Failure describes why the last session ended without recommendations.
type Failure struct {
	Step       pipeline.Step
	Message    string
	OccurredAt time.Time
	Err        error
}

// Snapshot is an immutable view of the session. A new value is produced on every
// transition; slices inside are never modified after publication.
type Snapshot struct {
	Generation       uint64
	SessionID        uuid.UUID
	State            State
	Transcript       []entity.Turn
	RemainingSeconds int
	Analysis         *entity.AnalysisResult
	Recommendations  []entity.Recommendation
	Failure          *Failure
	StartedAt        time.Time
	UpdatedAt        time.Time
}

func (s Snapshot) IsIdle() bool {
	return s.State == StateIdle
}
