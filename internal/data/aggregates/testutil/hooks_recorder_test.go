package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	if h.LastStatus() != "" {
		t.Fatalf("expected empty status before any operation")
	}
	h.ObserveOperation("Learning.LessonProgress.ApplyProgress", "conflict", 10*time.Millisecond)
	h.IncConflict("Learning.LessonProgress.ApplyProgress")
	h.IncRetry("Learning.LessonProgress.ApplyProgress")

	if len(h.Operations) != 1 || h.LastStatus() != "conflict" {
		t.Fatalf("unexpected op events: %+v", h.Operations)
	}
	if len(h.Conflicts) != 1 || len(h.Retries) != 1 {
		t.Fatalf("unexpected counters: conflicts=%v retries=%v", h.Conflicts, h.Retries)
	}
}
