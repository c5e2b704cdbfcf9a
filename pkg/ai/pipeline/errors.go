package pipeline

import (
	"errors"
	"fmt"
)

type Step string

const (
	StepAnalyze   Step = "analyze"
	StepPersist   Step = "persist_embedding"
	StepRecommend Step = "recommend"
)

var (
	ErrAnalysisFailed       = errors.New("analysis failed")
	ErrPersistenceFailed    = errors.New("embedding persistence failed")
	ErrRecommendationFailed = errors.New("recommendation failed")
)

// Error tags a pipeline failure with the step that produced it. It matches the
// step's sentinel through errors.Is and unwraps to the collaborator's error.
type Error struct {
	Step Step
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Step {
	case StepAnalyze:
		return ErrAnalysisFailed
	case StepPersist:
		return ErrPersistenceFailed
	default:
		return ErrRecommendationFailed
	}
}

// FailedStep extracts the step from a pipeline error, or "" when err is not one.
func FailedStep(err error) Step {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Step
	}
	return ""
}
