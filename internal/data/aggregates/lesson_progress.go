package aggregates

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-lessons/internal/data/repos"
	repolessons "github.com/yungbote/neurobridge-lessons/internal/data/repos/lessons"
	domainagg "github.com/yungbote/neurobridge-lessons/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
)

const DefaultProgressCASAttempts = 3

type LessonProgressAggregateDeps struct {
	Base BaseDeps

	Progress repos.LessonProgressRepo
	Courses  repos.CourseProgressRepo

	// MaxAttempts bounds read-compute-write cycles lost to concurrent writers.
	MaxAttempts int
	Now         func() time.Time
}

type lessonProgressAggregate struct {
	deps LessonProgressAggregateDeps
}

func NewLessonProgressAggregate(deps LessonProgressAggregateDeps) domainagg.LessonProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = DefaultProgressCASAttempts
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &lessonProgressAggregate{deps: deps}
}

func (a *lessonProgressAggregate) ApplyProgress(ctx context.Context, in domainagg.ApplyProgressInput) (domainagg.ApplyProgressResult, error) {
	const op = "Learning.LessonProgress.ApplyProgress"
	var out domainagg.ApplyProgressResult
	if strings.TrimSpace(in.UserID) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if strings.TrimSpace(in.CourseID) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if strings.TrimSpace(in.LessonID) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing lesson_id", nil)
	}
	if _, ok := lessons.ParseProgressStatus(string(in.NextStatus)); !ok {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "invalid status "+string(in.NextStatus), nil)
	}
	if in.ProgressPercent != nil && (*in.ProgressPercent < 0 || *in.ProgressPercent > 100) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "progressPercent out of range", nil)
	}
	if a.deps.Progress == nil || a.deps.Courses == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "lesson progress repos not configured", nil)
	}

	guard := a.deps.Base.CASGuard
	attempts, err := executeCASWrite(ctx, a.deps.Base, op, a.deps.MaxAttempts, func(tx *Tx, _ int) error {
		var (
			prior *repolessons.ProgressRecord
			meta  *repolessons.CourseMetaRecord
		)
		g, gctx := errgroup.WithContext(tx.Ctx)
		g.Go(func() error {
			var err error
			prior, err = a.deps.Progress.GetRecord(gctx, in.UserID, in.CourseID, in.LessonID)
			return err
		})
		g.Go(func() error {
			var err error
			meta, err = a.deps.Courses.Get(gctx, in.UserID, in.CourseID)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if meta == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "course progress not found: "+in.CourseID, nil)
		}

		prev := lessons.InitialProgress()
		if prior != nil {
			prev = prior.Progress()
		}
		now := a.deps.Now()

		delta := lessons.CompletionDelta(prev.Status, in.NextStatus)
		completed := lessons.ApplyDelta(meta.CompletedLessons, delta, meta.TotalLessons)
		pct := lessons.RollupPercent(completed, meta.TotalLessons)

		lessonPct := prev.ProgressPercent
		if in.ProgressPercent != nil {
			lessonPct = *in.ProgressPercent
		}
		progressOp, err := a.deps.Progress.PutOp(repolessons.ProgressRecord{
			UserID:          in.UserID,
			CourseID:        in.CourseID,
			LessonID:        in.LessonID,
			Status:          string(in.NextStatus),
			ProgressPercent: lessonPct,
			Score:           in.Score,
			LastViewedAt:    &now,
			CompletedAt:     lessons.CompletedAtAfter(prev.Status, in.NextStatus, prev.CompletedAt, now),
		})
		if err != nil {
			return err
		}

		next := *meta
		next.CompletedLessons = completed
		next.ProgressPercent = pct
		next.Status = string(lessons.CourseStatusFor(pct))
		next.UpdatedAt = &now
		next.Version = guard.NextVersion(meta.Version)
		metaOp, err := a.deps.Courses.UpdateOp(next, guard.ExpectVersion(meta.Version))
		if err != nil {
			return err
		}
		tx.Add(progressOp, metaOp)

		out = domainagg.ApplyProgressResult{
			Course:         next.CourseProgress(),
			PreviousStatus: prev.Status,
			Delta:          delta,
			CommittedAt:    now,
		}
		return nil
	})
	if err != nil {
		return domainagg.ApplyProgressResult{}, err
	}
	out.Attempts = attempts
	return out, nil
}
