package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type LessonProgressRepo interface {
	// GetRecord returns nil, nil when the learner never touched the lesson.
	GetRecord(ctx context.Context, userID, courseID, lessonID string) (*ProgressRecord, error)
	// Get falls back to the initial not_started state.
	Get(ctx context.Context, userID, courseID, lessonID string) (lessons.LessonProgress, error)
	// PutOp builds the overwrite of rec for a transaction.
	PutOp(rec ProgressRecord) (kv.TxOp, error)
}

type lessonProgressRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewLessonProgressRepo(gw kv.Gateway, log *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{gw: gw, log: log.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) GetRecord(ctx context.Context, userID, courseID, lessonID string) (*ProgressRecord, error) {
	if err := requireIDs(userID, courseID, lessonID); err != nil {
		return nil, err
	}
	it, err := r.gw.GetItem(ctx, ProgressKey(userID, courseID, lessonID))
	if err != nil {
		return nil, err
	}
	return decodeItem[ProgressRecord](it)
}

func (r *lessonProgressRepo) Get(ctx context.Context, userID, courseID, lessonID string) (lessons.LessonProgress, error) {
	rec, err := r.GetRecord(ctx, userID, courseID, lessonID)
	if err != nil {
		return lessons.LessonProgress{}, err
	}
	if rec == nil {
		return lessons.InitialProgress(), nil
	}
	return rec.Progress(), nil
}

func (r *lessonProgressRepo) PutOp(rec ProgressRecord) (kv.TxOp, error) {
	if err := requireIDs(rec.UserID, rec.CourseID, rec.LessonID); err != nil {
		return kv.TxOp{}, err
	}
	it, err := rec.Item()
	if err != nil {
		return kv.TxOp{}, err
	}
	return kv.TxOp{Put: &kv.Put{Item: it}}, nil
}

func requireIDs(userID, courseID, lessonID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("missing user_id")
	}
	if strings.TrimSpace(courseID) == "" {
		return fmt.Errorf("missing course_id")
	}
	if strings.TrimSpace(lessonID) == "" {
		return fmt.Errorf("missing lesson_id")
	}
	return nil
}
