package lessons

import (
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
)

// ProgressRecord is the stored per-lesson progress row.
type ProgressRecord struct {
	Entity          string     `json:"entity"`
	UserID          string     `json:"userId"`
	CourseID        string     `json:"courseId"`
	LessonID        string     `json:"lessonId"`
	Status          string     `json:"status"`
	ProgressPercent float64    `json:"progressPercent"`
	Score           *float64   `json:"score,omitempty"`
	LastViewedAt    *time.Time `json:"lastViewedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func (r ProgressRecord) Progress() lessons.LessonProgress {
	status, ok := lessons.ParseProgressStatus(r.Status)
	if !ok {
		status = lessons.StatusNotStarted
	}
	return lessons.LessonProgress{
		Status:          status,
		ProgressPercent: r.ProgressPercent,
		Score:           r.Score,
		LastViewedAt:    r.LastViewedAt,
		CompletedAt:     r.CompletedAt,
	}
}

// Item returns the full-overwrite item for r.
func (r ProgressRecord) Item() (kv.Item, error) {
	r.Entity = entityProgress
	attrs, err := kv.Encode(r)
	if err != nil {
		return kv.Item{}, err
	}
	return kv.Item{Key: ProgressKey(r.UserID, r.CourseID, r.LessonID), Attrs: attrs}, nil
}

// CourseMetaRecord is the stored per-user course rollup. Version guards
// concurrent progress transactions; a missing version reads as 0.
type CourseMetaRecord struct {
	Entity           string     `json:"entity"`
	UserID           string     `json:"userId"`
	CourseID         string     `json:"courseId"`
	CompletedLessons int        `json:"completedLessons"`
	TotalLessons     int        `json:"totalLessons"`
	ProgressPercent  float64    `json:"progressPercent"`
	Status           string     `json:"status"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	Version          int64      `json:"version"`
}

func (r CourseMetaRecord) CourseProgress() lessons.CourseProgress {
	status, ok := lessons.ParseCourseStatus(r.Status)
	if !ok {
		status = lessons.CourseActive
	}
	return lessons.CourseProgress{
		CourseID:         r.CourseID,
		CompletedLessons: r.CompletedLessons,
		TotalLessons:     r.TotalLessons,
		ProgressPercent:  r.ProgressPercent,
		Status:           status,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (r CourseMetaRecord) index() kv.IndexKeys {
	at := time.Time{}
	if r.UpdatedAt != nil {
		at = *r.UpdatedAt
	}
	status := r.Status
	if status == "" {
		status = string(lessons.CourseActive)
	}
	return CourseStatusIndex(r.UserID, status, at)
}

type NotesRecord struct {
	Entity    string    `json:"entity"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	LessonID  string    `json:"lessonId"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type chatMessageRecord struct {
	Entity   string `json:"entity"`
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
	lessons.ChatMessage
}

type chatThreadRecord struct {
	Entity        string    `json:"entity"`
	ThreadID      string    `json:"threadId"`
	UserID        string    `json:"userId"`
	CourseID      string    `json:"courseId"`
	LessonID      string    `json:"lessonId"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	LastMessageID string    `json:"lastMessageId"`
}

type lessonRecord struct {
	Entity string `json:"entity"`
	lessons.Lesson
}

type activityRecord struct {
	Entity string `json:"entity"`
	lessons.Activity
}

func decodeItem[T any](it *kv.Item) (*T, error) {
	if it == nil {
		return nil, nil
	}
	var out T
	if err := kv.Decode(it.Attrs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
