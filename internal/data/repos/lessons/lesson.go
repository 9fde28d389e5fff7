package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type LessonRepo interface {
	// FindInCourse returns nil, nil when the course has no such lesson.
	FindInCourse(ctx context.Context, courseID, lessonID string) (*lessons.Lesson, error)
	Upsert(ctx context.Context, lesson lessons.Lesson) error
}

type lessonRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewLessonRepo(gw kv.Gateway, log *logger.Logger) LessonRepo {
	return &lessonRepo{gw: gw, log: log.With("repo", "LessonRepo")}
}

func (r *lessonRepo) FindInCourse(ctx context.Context, courseID, lessonID string) (*lessons.Lesson, error) {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(lessonID) == "" {
		return nil, fmt.Errorf("missing course_id or lesson_id")
	}
	// The index is ordered by position, not lesson id, so match on the attribute.
	items, err := r.gw.QueryItems(ctx, kv.Query{
		Index:    kv.IndexGSI1,
		PK:       courseLessonsPK(courseID),
		SKPrefix: "LESSON#",
		Filter:   map[string]any{"lessonId": lessonID},
		Limit:    1,
		Forward:  true,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	rec, err := decodeItem[lessonRecord](&items[0])
	if err != nil {
		return nil, err
	}
	out := rec.Lesson
	normalizeLesson(&out, courseID)
	return &out, nil
}

func (r *lessonRepo) Upsert(ctx context.Context, lesson lessons.Lesson) error {
	if strings.TrimSpace(lesson.CourseID) == "" || strings.TrimSpace(lesson.LessonID) == "" {
		return fmt.Errorf("missing course_id or lesson_id")
	}
	if lesson.Order < 0 {
		return fmt.Errorf("lesson order must be >= 0")
	}
	attrs, err := kv.Encode(lessonRecord{Entity: entityLesson, Lesson: lesson})
	if err != nil {
		return err
	}
	return r.gw.PutItem(ctx, kv.Item{
		Key:   LessonKey(lesson.CourseID, lesson.LessonID),
		GSI1:  lessonIndex(lesson.CourseID, lesson.Order, lesson.LessonID),
		Attrs: attrs,
	}, nil)
}

func normalizeLesson(l *lessons.Lesson, courseID string) {
	if l.CourseID == "" {
		l.CourseID = courseID
	}
	if l.Tips == nil {
		l.Tips = []string{}
	}
}
