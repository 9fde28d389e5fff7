package lessons

import (
	"context"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type LessonNotesRepo interface {
	// Get returns nil, nil when no notes were saved.
	Get(ctx context.Context, userID, courseID, lessonID string) (*NotesRecord, error)
	// Put overwrites the notes wholesale.
	Put(ctx context.Context, rec NotesRecord) error
}

type lessonNotesRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewLessonNotesRepo(gw kv.Gateway, log *logger.Logger) LessonNotesRepo {
	return &lessonNotesRepo{gw: gw, log: log.With("repo", "LessonNotesRepo")}
}

func (r *lessonNotesRepo) Get(ctx context.Context, userID, courseID, lessonID string) (*NotesRecord, error) {
	if err := requireIDs(userID, courseID, lessonID); err != nil {
		return nil, err
	}
	it, err := r.gw.GetItem(ctx, NotesKey(userID, courseID, lessonID))
	if err != nil {
		return nil, err
	}
	return decodeItem[NotesRecord](it)
}

func (r *lessonNotesRepo) Put(ctx context.Context, rec NotesRecord) error {
	if err := requireIDs(rec.UserID, rec.CourseID, rec.LessonID); err != nil {
		return err
	}
	rec.Entity = entityNotes
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	attrs, err := kv.Encode(rec)
	if err != nil {
		return err
	}
	return r.gw.PutItem(ctx, kv.Item{Key: NotesKey(rec.UserID, rec.CourseID, rec.LessonID), Attrs: attrs}, nil)
}
