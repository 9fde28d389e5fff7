package lessons

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

// LessonDetailRepo composes the lesson with the learner's progress and notes.
type LessonDetailRepo interface {
	// Get returns nil, nil when the course has no such lesson.
	Get(ctx context.Context, userID, courseID, lessonID string) (*lessons.LessonDetail, error)
}

type lessonDetailRepo struct {
	lessons  LessonRepo
	progress LessonProgressRepo
	notes    LessonNotesRepo
	log      *logger.Logger
}

func NewLessonDetailRepo(l LessonRepo, p LessonProgressRepo, n LessonNotesRepo, log *logger.Logger) LessonDetailRepo {
	return &lessonDetailRepo{lessons: l, progress: p, notes: n, log: log.With("repo", "LessonDetailRepo")}
}

func (r *lessonDetailRepo) Get(ctx context.Context, userID, courseID, lessonID string) (*lessons.LessonDetail, error) {
	if err := requireIDs(userID, courseID, lessonID); err != nil {
		return nil, err
	}
	lesson, err := r.lessons.FindInCourse(ctx, courseID, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}

	var (
		progress lessons.LessonProgress
		notes    *NotesRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = r.progress.Get(gctx, userID, courseID, lessonID)
		return err
	})
	g.Go(func() error {
		var err error
		notes, err = r.notes.Get(gctx, userID, courseID, lessonID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &lessons.LessonDetail{Lesson: *lesson, Progress: progress}
	if notes != nil {
		out.Notes = notes.Content
	}
	return out, nil
}
