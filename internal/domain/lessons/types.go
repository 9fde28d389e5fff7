package lessons

import (
	"strings"
	"time"
)

// ProgressStatus is the per-lesson completion state of one learner.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

// ParseProgressStatus lowercases and trims raw before matching.
func ParseProgressStatus(raw string) (ProgressStatus, bool) {
	switch s := ProgressStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return s, true
	default:
		return "", false
	}
}

// CourseStatus is the rollup state of a course for one learner.
type CourseStatus string

const (
	CourseActive    CourseStatus = "active"
	CourseCompleted CourseStatus = "completed"
)

func ParseCourseStatus(raw string) (CourseStatus, bool) {
	switch s := CourseStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case CourseActive, CourseCompleted:
		return s, true
	default:
		return "", false
	}
}

// Lesson is authored content; this service only reads it.
type Lesson struct {
	LessonID        string         `json:"lessonId"`
	CourseID        string         `json:"courseId,omitempty"`
	ModuleID        string         `json:"moduleId"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"durationMinutes"`
	ContentMD       string         `json:"contentMD,omitempty"`
	ContentURL      string         `json:"contentUrl,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Tips            []string       `json:"tips"`
	MiniChallenge   map[string]any `json:"miniChallenge"`
	Order           int            `json:"order"`
}

type LessonProgress struct {
	Status          ProgressStatus `json:"status"`
	ProgressPercent float64        `json:"progressPercent"`
	Score           *float64       `json:"score,omitempty"`
	LastViewedAt    *time.Time     `json:"lastViewedAt,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
}

// InitialProgress is what a learner who never touched the lesson sees.
func InitialProgress() LessonProgress {
	return LessonProgress{Status: StatusNotStarted, ProgressPercent: 0}
}

type LessonDetail struct {
	Lesson   Lesson         `json:"lesson"`
	Progress LessonProgress `json:"progress"`
	Notes    string         `json:"notes"`
}

// CourseProgress is the per-user course aggregate (the progress bar).
type CourseProgress struct {
	CourseID         string       `json:"courseId,omitempty"`
	CompletedLessons int          `json:"completedLessons"`
	TotalLessons     int          `json:"totalLessons"`
	ProgressPercent  float64      `json:"progressPercent"`
	Status           CourseStatus `json:"status"`
	UpdatedAt        *time.Time   `json:"updatedAt,omitempty"`
}

// EmptyCourseProgress is returned when no aggregate exists yet.
func EmptyCourseProgress(courseID string) CourseProgress {
	return CourseProgress{CourseID: courseID, Status: CourseActive}
}

type NotesResult struct {
	OK        bool      `json:"ok"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	MessageID string    `json:"messageId"`
	ThreadID  string    `json:"threadId"`
	LessonID  string    `json:"lessonId"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatPostResult struct {
	ThreadID  string `json:"threadId"`
	MessageID string `json:"messageId"`
	Queued    bool   `json:"queued"`
}

type ChatThread struct {
	ThreadID string        `json:"threadId"`
	Messages []ChatMessage `json:"messages"`
}

type ActivityType string

const (
	ActivityStudy ActivityType = "study"
	ActivityNotes ActivityType = "notes"
	ActivityChat  ActivityType = "chat"
)

// Activity is one append-only entry of the weekly-dashboard log.
type Activity struct {
	ActivityID string       `json:"activityId"`
	UserID     string       `json:"userId"`
	Type       ActivityType `json:"activityType"`
	CourseID   string       `json:"courseId"`
	LessonID   string       `json:"lessonId"`
	Minutes    int          `json:"minutes"`
	At         time.Time    `json:"at"`
}
