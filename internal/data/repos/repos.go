package repos

import (
	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/data/repos/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type LessonRepo = lessons.LessonRepo
type LessonProgressRepo = lessons.LessonProgressRepo
type LessonNotesRepo = lessons.LessonNotesRepo
type LessonChatRepo = lessons.LessonChatRepo
type LessonDetailRepo = lessons.LessonDetailRepo
type CourseProgressRepo = lessons.CourseProgressRepo
type UserActivityRepo = lessons.UserActivityRepo

func NewLessonRepo(gw kv.Gateway, baseLog *logger.Logger) LessonRepo {
	return lessons.NewLessonRepo(gw, baseLog)
}
func NewLessonProgressRepo(gw kv.Gateway, baseLog *logger.Logger) LessonProgressRepo {
	return lessons.NewLessonProgressRepo(gw, baseLog)
}
func NewLessonNotesRepo(gw kv.Gateway, baseLog *logger.Logger) LessonNotesRepo {
	return lessons.NewLessonNotesRepo(gw, baseLog)
}
func NewLessonChatRepo(gw kv.Gateway, baseLog *logger.Logger) LessonChatRepo {
	return lessons.NewLessonChatRepo(gw, baseLog)
}
func NewLessonDetailRepo(l LessonRepo, p LessonProgressRepo, n LessonNotesRepo, baseLog *logger.Logger) LessonDetailRepo {
	return lessons.NewLessonDetailRepo(l, p, n, baseLog)
}
func NewCourseProgressRepo(gw kv.Gateway, baseLog *logger.Logger) CourseProgressRepo {
	return lessons.NewCourseProgressRepo(gw, baseLog)
}
func NewUserActivityRepo(gw kv.Gateway, baseLog *logger.Logger) UserActivityRepo {
	return lessons.NewUserActivityRepo(gw, baseLog)
}
