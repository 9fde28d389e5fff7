package testutil

import (
	"context"
	"testing"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	repolessons "github.com/yungbote/neurobridge-lessons/internal/data/repos/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
)

func SeedLesson(tb testing.TB, ctx context.Context, gw kv.Gateway, courseID, lessonID string, order int) lessons.Lesson {
	tb.Helper()
	l := lessons.Lesson{
		LessonID:        lessonID,
		CourseID:        courseID,
		ModuleID:        "m1",
		Title:           "lesson " + lessonID,
		DurationMinutes: 10,
		ContentMD:       "content",
		Summary:         "summary",
		Tips:            []string{"tip"},
		Order:           order,
	}
	if err := repolessons.NewLessonRepo(gw, Logger(tb)).Upsert(ctx, l); err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedCourseMeta writes a rollup row directly, bypassing Init, so tests can
// start from any completed/total pair.
func SeedCourseMeta(tb testing.TB, ctx context.Context, gw kv.Gateway, userID, courseID string, completed, total int) {
	tb.Helper()
	rec := repolessons.CourseMetaRecord{
		Entity:           "course_progress",
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: completed,
		TotalLessons:     total,
		ProgressPercent:  lessons.RollupPercent(completed, total),
		Status:           string(lessons.CourseStatusFor(lessons.RollupPercent(completed, total))),
	}
	attrs, err := kv.Encode(rec)
	if err != nil {
		tb.Fatalf("encode course meta: %v", err)
	}
	if err := gw.PutItem(ctx, kv.Item{Key: repolessons.CourseMetaKey(userID, courseID), Attrs: attrs}, nil); err != nil {
		tb.Fatalf("seed course meta: %v", err)
	}
}

func SeedProgress(tb testing.TB, ctx context.Context, gw kv.Gateway, rec repolessons.ProgressRecord) {
	tb.Helper()
	it, err := rec.Item()
	if err != nil {
		tb.Fatalf("encode progress: %v", err)
	}
	if err := gw.PutItem(ctx, it, nil); err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
}

func PtrFloat(v float64) *float64 { return &v }
