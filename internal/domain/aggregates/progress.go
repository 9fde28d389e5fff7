package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
)

// LessonProgressAggregate owns the completedLessons/progressPercent rollup
// invariants of one user's course.
//
// Write failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound (course rollup missing), CodeConflict
// (concurrent writer won every attempt), CodeRetryable, CodeInternal.
type LessonProgressAggregate interface {
	// ApplyProgress reads the prior lesson progress and course rollup, derives
	// the completion delta, and commits both rows in one transaction.
	ApplyProgress(ctx context.Context, in ApplyProgressInput) (ApplyProgressResult, error)
}

type ApplyProgressInput struct {
	UserID     string
	CourseID   string
	LessonID   string
	NextStatus lessons.ProgressStatus
	// ProgressPercent nil keeps the prior value (or 0).
	ProgressPercent *float64
	// Score is written as given; nil clears a stored score.
	Score *float64
}

type ApplyProgressResult struct {
	Course         lessons.CourseProgress
	PreviousStatus lessons.ProgressStatus
	Delta          int
	Attempts       int
	CommittedAt    time.Time
}
