package app

import (
	"github.com/yungbote/neurobridge-lessons/internal/data/aggregates"
	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/jobs/worker"
	"github.com/yungbote/neurobridge-lessons/internal/observability"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
	"github.com/yungbote/neurobridge-lessons/internal/realtime/bus"
	"github.com/yungbote/neurobridge-lessons/internal/services"
)

type Services struct {
	Lesson         services.LessonService
	ActivityWorker *worker.ActivityWorker
}

func wireServices(gw kv.Gateway, log *logger.Logger, cfg Config, reposet Repos, metrics *observability.Metrics, chatBus bus.Bus) Services {
	log.Info("Wiring services...")
	activity := worker.NewActivityWorker(log, reposet.Activity, metrics, worker.Options{
		Concurrency:  cfg.Activity.Workers,
		QueueSize:    cfg.Activity.QueueSize,
		WriteTimeout: cfg.Store.Timeout,
	})
	progress := aggregates.NewLessonProgressAggregate(aggregates.LessonProgressAggregateDeps{
		Base: aggregates.BaseDeps{
			Gateway: gw,
			Log:     log,
			Hooks:   aggregates.NewObservabilityHooks(metrics),
		},
		Progress:    reposet.Progress,
		Courses:     reposet.Course,
		MaxAttempts: cfg.ProgressCASAttempts,
	})
	return Services{
		Lesson: services.NewLessonService(log, services.LessonServiceDeps{
			Details:  reposet.Detail,
			Notes:    reposet.Notes,
			Chat:     reposet.Chat,
			Courses:  reposet.Course,
			Progress: progress,
			Activity: activity,
			Bus:      chatBus,
		}),
		ActivityWorker: activity,
	}
}
