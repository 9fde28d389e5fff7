package app

import (
	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/data/repos"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type Repos struct {
	Lesson   repos.LessonRepo
	Progress repos.LessonProgressRepo
	Notes    repos.LessonNotesRepo
	Chat     repos.LessonChatRepo
	Detail   repos.LessonDetailRepo
	Course   repos.CourseProgressRepo
	Activity repos.UserActivityRepo
}

func wireRepos(gw kv.Gateway, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	lesson := repos.NewLessonRepo(gw, log)
	progress := repos.NewLessonProgressRepo(gw, log)
	notes := repos.NewLessonNotesRepo(gw, log)
	return Repos{
		Lesson:   lesson,
		Progress: progress,
		Notes:    notes,
		Chat:     repos.NewLessonChatRepo(gw, log),
		Detail:   repos.NewLessonDetailRepo(lesson, progress, notes, log),
		Course:   repos.NewCourseProgressRepo(gw, log),
		Activity: repos.NewUserActivityRepo(gw, log),
	}
}
