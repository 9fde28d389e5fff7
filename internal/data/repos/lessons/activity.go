package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type UserActivityRepo interface {
	Append(ctx context.Context, a lessons.Activity) error
}

type userActivityRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewUserActivityRepo(gw kv.Gateway, log *logger.Logger) UserActivityRepo {
	return &userActivityRepo{gw: gw, log: log.With("repo", "UserActivityRepo")}
}

func (r *userActivityRepo) Append(ctx context.Context, a lessons.Activity) error {
	if strings.TrimSpace(a.UserID) == "" || strings.TrimSpace(a.ActivityID) == "" {
		return fmt.Errorf("missing user_id or activity_id")
	}
	if a.At.IsZero() {
		return fmt.Errorf("missing activity time")
	}
	attrs, err := kv.Encode(activityRecord{Entity: entityActivity, Activity: a})
	if err != nil {
		return err
	}
	// append-only: an id collision must not overwrite an earlier entry
	return r.gw.PutItem(ctx, kv.Item{
		Key:   ActivityKey(a.UserID, a.At, a.ActivityID),
		Attrs: attrs,
	}, &kv.Condition{Attr: "entity"})
}
