package lessons

import (
	"math"
	"time"
)

// CompletionDelta is the change in completed lessons implied by a status
// transition: +1 into completed, -1 out of completed, 0 otherwise.
func CompletionDelta(prev, next ProgressStatus) int {
	switch {
	case prev != StatusCompleted && next == StatusCompleted:
		return 1
	case prev == StatusCompleted && next != StatusCompleted:
		return -1
	default:
		return 0
	}
}

// ApplyDelta keeps the result within [0, total]. The upper bound only applies
// when total is known (> 0).
func ApplyDelta(completed, delta, total int) int {
	n := completed + delta
	if n < 0 {
		n = 0
	}
	if total > 0 && n > total {
		n = total
	}
	return n
}

// RollupPercent is completed/total as a percentage rounded to two decimals.
// The numerator is scaled as an integer before dividing so that values like
// 1/3 land on 33.33 rather than drifting.
func RollupPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed*10000)/float64(total)) / 100
}

func CourseStatusFor(pct float64) CourseStatus {
	if pct == 100 {
		return CourseCompleted
	}
	return CourseActive
}

// ClampPercent bounds p to [0, 100] and rounds it to two decimals.
func ClampPercent(p float64) float64 {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// CompletedAtAfter returns the completion timestamp to persist. It is stamped
// only on a transition into completed and otherwise carried over, including
// when the status regresses.
func CompletedAtAfter(prev, next ProgressStatus, prior *time.Time, now time.Time) *time.Time {
	if next == StatusCompleted && prev != StatusCompleted {
		t := now
		return &t
	}
	return prior
}

// StudyMinutes is the coarse duration credited to a progress update.
func StudyMinutes(next ProgressStatus) int {
	if next == StatusCompleted {
		return 15
	}
	return 5
}

const (
	NotesMinutes = 3
	ChatMinutes  = 2
)

// ThreadID is stable per course+lesson so repeated posts chain into one thread.
func ThreadID(courseID, lessonID string) string {
	return "t_" + courseID + "_" + lessonID
}
