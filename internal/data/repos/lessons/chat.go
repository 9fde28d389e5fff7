package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

const (
	defaultChatListLimit = 50
	maxChatListLimit     = 200
)

type LessonChatRepo interface {
	// Append writes the message and then moves the thread marker to it.
	Append(ctx context.Context, userID, courseID string, msg lessons.ChatMessage) error
	// List returns the most recent messages of the lesson, oldest first.
	List(ctx context.Context, userID, courseID, lessonID string, limit int) ([]lessons.ChatMessage, error)
}

type lessonChatRepo struct {
	gw  kv.Gateway
	log *logger.Logger
}

func NewLessonChatRepo(gw kv.Gateway, log *logger.Logger) LessonChatRepo {
	return &lessonChatRepo{gw: gw, log: log.With("repo", "LessonChatRepo")}
}

func (r *lessonChatRepo) Append(ctx context.Context, userID, courseID string, msg lessons.ChatMessage) error {
	if err := requireIDs(userID, courseID, msg.LessonID); err != nil {
		return err
	}
	if strings.TrimSpace(msg.MessageID) == "" || strings.TrimSpace(msg.ThreadID) == "" {
		return fmt.Errorf("missing message_id or thread_id")
	}
	if msg.CreatedAt.IsZero() {
		return fmt.Errorf("missing created_at")
	}

	attrs, err := kv.Encode(chatMessageRecord{
		Entity:      entityChatMessage,
		UserID:      userID,
		CourseID:    courseID,
		ChatMessage: msg,
	})
	if err != nil {
		return err
	}
	key := ChatMessageKey(userID, courseID, msg.LessonID, msg.CreatedAt, msg.MessageID)
	if err := r.gw.PutItem(ctx, kv.Item{Key: key, Attrs: attrs}, nil); err != nil {
		return err
	}

	marker, err := kv.Encode(chatThreadRecord{
		Entity:        entityChatThread,
		ThreadID:      msg.ThreadID,
		UserID:        userID,
		CourseID:      courseID,
		LessonID:      msg.LessonID,
		LastMessageAt: msg.CreatedAt,
		LastMessageID: msg.MessageID,
	})
	if err != nil {
		return err
	}
	return r.gw.PutItem(ctx, kv.Item{Key: ChatThreadKey(userID, courseID, msg.LessonID), Attrs: marker}, nil)
}

func (r *lessonChatRepo) List(ctx context.Context, userID, courseID, lessonID string, limit int) ([]lessons.ChatMessage, error) {
	if err := requireIDs(userID, courseID, lessonID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxChatListLimit {
		limit = defaultChatListLimit
	}
	items, err := r.gw.QueryItems(ctx, kv.Query{
		PK:       UserCoursePK(userID, courseID),
		SKPrefix: chatPrefix(lessonID),
		Filter:   map[string]any{"entity": entityChatMessage},
		Limit:    limit,
		Forward:  false,
	})
	if err != nil {
		return nil, err
	}
	out := make([]lessons.ChatMessage, len(items))
	for i := range items {
		rec, err := decodeItem[chatMessageRecord](&items[i])
		if err != nil {
			return nil, err
		}
		// newest-first from the store, reversed into reading order
		out[len(items)-1-i] = rec.ChatMessage
	}
	return out, nil
}
