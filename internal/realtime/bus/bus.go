package bus

import (
	"context"
	"time"
)

const EventChatQueued = "lesson_chat.queued"

// ChatQueued tells the external chat worker a learner message is waiting.
type ChatQueued struct {
	Event     string    `json:"event"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	LessonID  string    `json:"lessonId"`
	ThreadID  string    `json:"threadId"`
	MessageID string    `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Bus interface {
	PublishChatQueued(ctx context.Context, ev ChatQueued) error
	Close() error
}

type noopBus struct{}

// NewNoopBus is used when no REDIS_ADDR is configured; the persisted chat log
// stays the source of truth for the worker.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) PublishChatQueued(context.Context, ChatQueued) error { return nil }
func (noopBus) Close() error                                        { return nil }
