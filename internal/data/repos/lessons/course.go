package lessons

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

const (
	defaultCourseListLimit = 50
	maxCourseListLimit     = 200
)

type CourseProgressRepo interface {
	// Get returns nil, nil when the learner has no rollup for the course.
	Get(ctx context.Context, userID, courseID string) (*CourseMetaRecord, error)
	// Init seeds an empty rollup; it reports false when one already exists.
	Init(ctx context.Context, userID, courseID string, totalLessons int) (bool, error)
	// ListByUser returns rollups newest first, optionally only one status.
	ListByUser(ctx context.Context, userID string, status lessons.CourseStatus, limit int) ([]lessons.CourseProgress, error)
	// UpdateOp builds the guarded rollup write of next for a transaction.
	UpdateOp(next CourseMetaRecord, cond *kv.Condition) (kv.TxOp, error)
}

type courseProgressRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewCourseProgressRepo(gw kv.Gateway, log *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{gw: gw, log: log.With("repo", "CourseProgressRepo")}
}

func (r *courseProgressRepo) Get(ctx context.Context, userID, courseID string) (*CourseMetaRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("missing user_id or course_id")
	}
	it, err := r.gw.GetItem(ctx, CourseMetaKey(userID, courseID))
	if err != nil {
		return nil, err
	}
	return decodeItem[CourseMetaRecord](it)
}

func (r *courseProgressRepo) Init(ctx context.Context, userID, courseID string, totalLessons int) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(courseID) == "" {
		return false, fmt.Errorf("missing user_id or course_id")
	}
	if totalLessons < 0 {
		return false, fmt.Errorf("totalLessons must be >= 0")
	}
	now := time.Now().UTC()
	rec := CourseMetaRecord{
		Entity:       entityCourseMeta,
		UserID:       userID,
		CourseID:     courseID,
		TotalLessons: totalLessons,
		Status:       string(lessons.CourseActive),
		UpdatedAt:    &now,
	}
	attrs, err := kv.Encode(rec)
	if err != nil {
		return false, err
	}
	err = r.gw.PutItem(ctx, kv.Item{
		Key:   CourseMetaKey(userID, courseID),
		GSI1:  rec.index(),
		Attrs: attrs,
	}, &kv.Condition{Attr: "entity"})
	if errors.Is(err, kv.ErrConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *courseProgressRepo) ListByUser(ctx context.Context, userID string, status lessons.CourseStatus, limit int) ([]lessons.CourseProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > maxCourseListLimit {
		limit = defaultCourseListLimit
	}
	prefix := "STATUS#"
	if status != "" {
		prefix += string(status) + "#"
	}
	q := kv.Query{
		Index:    kv.IndexGSI1,
		PK:       userCoursesPK(userID),
		SKPrefix: prefix,
		Forward:  false,
	}
	if status != "" {
		q.Limit = limit
	}
	items, err := r.gw.QueryItems(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]lessons.CourseProgress, 0, len(items))
	for i := range items {
		rec, err := decodeItem[CourseMetaRecord](&items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec.CourseProgress())
	}
	if status == "" {
		// the index groups by status first; merge both groups by recency
		sort.SliceStable(out, func(i, j int) bool {
			return updatedAtOf(out[i]).After(updatedAtOf(out[j]))
		})
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

func (r *courseProgressRepo) UpdateOp(next CourseMetaRecord, cond *kv.Condition) (kv.TxOp, error) {
	if strings.TrimSpace(next.UserID) == "" || strings.TrimSpace(next.CourseID) == "" {
		return kv.TxOp{}, fmt.Errorf("missing user_id or course_id")
	}
	next.Entity = entityCourseMeta
	set, err := kv.Encode(next)
	if err != nil {
		return kv.TxOp{}, err
	}
	idx := next.index()
	return kv.TxOp{Update: &kv.Update{
		Key:  CourseMetaKey(next.UserID, next.CourseID),
		Set:  set,
		GSI1: &idx,
		Cond: cond,
	}}, nil
}

func updatedAtOf(cp lessons.CourseProgress) time.Time {
	if cp.UpdatedAt == nil {
		return time.Time{}
	}
	return *cp.UpdatedAt
}
