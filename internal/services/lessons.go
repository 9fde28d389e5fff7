package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-lessons/internal/data/repos"
	repolessons "github.com/yungbote/neurobridge-lessons/internal/data/repos/lessons"
	domainagg "github.com/yungbote/neurobridge-lessons/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
	"github.com/yungbote/neurobridge-lessons/internal/realtime/bus"
)

var tracer = otel.Tracer("github.com/yungbote/neurobridge-lessons/internal/services")

// ActivityQueue accepts best-effort activity entries without blocking.
type ActivityQueue interface {
	Enqueue(a lessons.Activity) error
}

type SetProgressInput struct {
	UserID   string
	CourseID string
	LessonID string
	// Status is the raw JSON value; anything but a known status string is BAD_STATUS.
	Status any
	// ProgressPercent is a JSON number or numeric string; nil keeps the prior value.
	ProgressPercent any
	// Score is kept only when it is a JSON number.
	Score any
}

type LessonService interface {
	GetLesson(ctx context.Context, userID, courseID, lessonID string) (*lessons.LessonDetail, error)
	SetProgress(ctx context.Context, in SetProgressInput) (lessons.CourseProgress, error)
	SetNotes(ctx context.Context, userID, courseID, lessonID, content string) (lessons.NotesResult, error)
	PostChat(ctx context.Context, userID, courseID, lessonID, message string) (lessons.ChatPostResult, error)
	ListChat(ctx context.Context, userID, courseID, lessonID string, limit int) (lessons.ChatThread, error)
	CourseProgress(ctx context.Context, userID, courseID string) (lessons.CourseProgress, error)
	ListCourses(ctx context.Context, userID, status string, limit int) ([]lessons.CourseProgress, error)
}

type LessonServiceDeps struct {
	Details  repos.LessonDetailRepo
	Notes    repos.LessonNotesRepo
	Chat     repos.LessonChatRepo
	Courses  repos.CourseProgressRepo
	Progress domainagg.LessonProgressAggregate

	Activity ActivityQueue
	Bus      bus.Bus

	Now   func() time.Time
	NewID func() string
}

type lessonService struct {
	log  *logger.Logger
	deps LessonServiceDeps
}

func NewLessonService(baseLog *logger.Logger, deps LessonServiceDeps) LessonService {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Bus == nil {
		deps.Bus = bus.NewNoopBus()
	}
	return &lessonService{
		log:  baseLog.With("service", "LessonService"),
		deps: deps,
	}
}

func (s *lessonService) GetLesson(ctx context.Context, userID, courseID, lessonID string) (_ *lessons.LessonDetail, err error) {
	const op = "lessons.GetLesson"
	ctx, span := startSpan(ctx, op, courseID, lessonID)
	defer func() { endSpan(span, err) }()

	userID, courseID, lessonID, err = requireLessonIDs(op, userID, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	detail, err := s.deps.Details.Get(ctx, userID, courseID, lessonID)
	if err != nil {
		s.log.Error("GetLesson failed", "user_id", userID, "course_id", courseID, "lesson_id", lessonID, "error", err)
		return nil, lessons.Internal(op, err)
	}
	if detail == nil {
		return nil, lessons.NewError(lessons.KindNotFound, op, "lesson not found", nil)
	}
	return detail, nil
}

func (s *lessonService) SetProgress(ctx context.Context, in SetProgressInput) (_ lessons.CourseProgress, err error) {
	const op = "lessons.SetProgress"
	ctx, span := startSpan(ctx, op, in.CourseID, in.LessonID)
	defer func() { endSpan(span, err) }()

	userID, courseID, lessonID, err := requireLessonIDs(op, in.UserID, in.CourseID, in.LessonID)
	if err != nil {
		return lessons.CourseProgress{}, err
	}
	status, err := parseStatus(op, in.Status)
	if err != nil {
		return lessons.CourseProgress{}, err
	}
	pct, err := parsePercent(op, in.ProgressPercent)
	if err != nil {
		return lessons.CourseProgress{}, err
	}
	if status == lessons.StatusCompleted {
		full := 100.0
		pct = &full
	}
	span.SetAttributes(attribute.String("lesson.status", string(status)))

	res, err := s.deps.Progress.ApplyProgress(ctx, domainagg.ApplyProgressInput{
		UserID:          userID,
		CourseID:        courseID,
		LessonID:        lessonID,
		NextStatus:      status,
		ProgressPercent: pct,
		Score:           numericScore(in.Score),
	})
	if err != nil {
		if !domainagg.IsCode(err, domainagg.CodeNotFound) {
			s.log.Warn("SetProgress failed", "user_id", userID, "course_id", courseID, "lesson_id", lessonID, "error", err)
		}
		return lessons.CourseProgress{}, fromAggregateError(op, err)
	}
	span.SetAttributes(
		attribute.Int("progress.delta", res.Delta),
		attribute.Int("progress.attempts", res.Attempts),
	)

	s.recordActivity(lessons.Activity{
		UserID:   userID,
		Type:     lessons.ActivityStudy,
		CourseID: courseID,
		LessonID: lessonID,
		Minutes:  lessons.StudyMinutes(status),
		At:       res.CommittedAt,
	})
	return res.Course, nil
}

func (s *lessonService) SetNotes(ctx context.Context, userID, courseID, lessonID, content string) (_ lessons.NotesResult, err error) {
	const op = "lessons.SetNotes"
	ctx, span := startSpan(ctx, op, courseID, lessonID)
	defer func() { endSpan(span, err) }()

	userID, courseID, lessonID, err = requireLessonIDs(op, userID, courseID, lessonID)
	if err != nil {
		return lessons.NotesResult{}, err
	}
	now := s.deps.Now()
	if err := s.deps.Notes.Put(ctx, repolessons.NotesRecord{
		UserID:    userID,
		CourseID:  courseID,
		LessonID:  lessonID,
		Content:   strings.TrimSpace(content),
		UpdatedAt: now,
	}); err != nil {
		s.log.Error("SetNotes failed", "user_id", userID, "course_id", courseID, "lesson_id", lessonID, "error", err)
		return lessons.NotesResult{}, lessons.Internal(op, err)
	}

	s.recordActivity(lessons.Activity{
		UserID:   userID,
		Type:     lessons.ActivityNotes,
		CourseID: courseID,
		LessonID: lessonID,
		Minutes:  lessons.NotesMinutes,
		At:       now,
	})
	return lessons.NotesResult{OK: true, UpdatedAt: now}, nil
}

func (s *lessonService) PostChat(ctx context.Context, userID, courseID, lessonID, message string) (_ lessons.ChatPostResult, err error) {
	const op = "lessons.PostChat"
	ctx, span := startSpan(ctx, op, courseID, lessonID)
	defer func() { endSpan(span, err) }()

	userID, courseID, lessonID, err = requireLessonIDs(op, userID, courseID, lessonID)
	if err != nil {
		return lessons.ChatPostResult{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return lessons.ChatPostResult{}, lessons.NewError(lessons.KindEmptyMessage, op, "message is empty", nil)
	}

	msg := lessons.ChatMessage{
		MessageID: s.deps.NewID(),
		ThreadID:  lessons.ThreadID(courseID, lessonID),
		LessonID:  lessonID,
		Role:      lessons.RoleUser,
		Content:   message,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Chat.Append(ctx, userID, courseID, msg); err != nil {
		s.log.Error("PostChat failed", "user_id", userID, "course_id", courseID, "lesson_id", lessonID, "error", err)
		return lessons.ChatPostResult{}, lessons.Internal(op, err)
	}

	if err := s.deps.Bus.PublishChatQueued(ctx, bus.ChatQueued{
		Event:     bus.EventChatQueued,
		UserID:    userID,
		CourseID:  courseID,
		LessonID:  lessonID,
		ThreadID:  msg.ThreadID,
		MessageID: msg.MessageID,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		s.log.Warn("chat queue notification failed", "thread_id", msg.ThreadID, "message_id", msg.MessageID, "error", err)
	}
	s.recordActivity(lessons.Activity{
		UserID:   userID,
		Type:     lessons.ActivityChat,
		CourseID: courseID,
		LessonID: lessonID,
		Minutes:  lessons.ChatMinutes,
		At:       msg.CreatedAt,
	})
	return lessons.ChatPostResult{ThreadID: msg.ThreadID, MessageID: msg.MessageID, Queued: true}, nil
}

func (s *lessonService) ListChat(ctx context.Context, userID, courseID, lessonID string, limit int) (_ lessons.ChatThread, err error) {
	const op = "lessons.ListChat"
	ctx, span := startSpan(ctx, op, courseID, lessonID)
	defer func() { endSpan(span, err) }()

	userID, courseID, lessonID, err = requireLessonIDs(op, userID, courseID, lessonID)
	if err != nil {
		return lessons.ChatThread{}, err
	}
	msgs, err := s.deps.Chat.List(ctx, userID, courseID, lessonID, limit)
	if err != nil {
		return lessons.ChatThread{}, lessons.Internal(op, err)
	}
	if msgs == nil {
		msgs = []lessons.ChatMessage{}
	}
	return lessons.ChatThread{ThreadID: lessons.ThreadID(courseID, lessonID), Messages: msgs}, nil
}

func (s *lessonService) CourseProgress(ctx context.Context, userID, courseID string) (_ lessons.CourseProgress, err error) {
	const op = "lessons.CourseProgress"
	ctx, span := startSpan(ctx, op, courseID, "")
	defer func() { endSpan(span, err) }()

	userID = strings.TrimSpace(userID)
	courseID = strings.TrimSpace(courseID)
	if userID == "" || courseID == "" {
		return lessons.CourseProgress{}, lessons.NewError(lessons.KindBadInput, op, "missing user_id or course_id", nil)
	}
	rec, err := s.deps.Courses.Get(ctx, userID, courseID)
	if err != nil {
		return lessons.CourseProgress{}, lessons.Internal(op, err)
	}
	if rec == nil {
		return lessons.EmptyCourseProgress(courseID), nil
	}
	return rec.CourseProgress(), nil
}

func (s *lessonService) ListCourses(ctx context.Context, userID, status string, limit int) (_ []lessons.CourseProgress, err error) {
	const op = "lessons.ListCourses"
	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, lessons.NewError(lessons.KindBadInput, op, "missing user_id", nil)
	}
	var filter lessons.CourseStatus
	if strings.TrimSpace(status) != "" {
		cs, ok := lessons.ParseCourseStatus(status)
		if !ok {
			return nil, lessons.NewError(lessons.KindBadStatus, op, fmt.Sprintf("invalid course status %q", status), nil)
		}
		filter = cs
	}
	out, err := s.deps.Courses.ListByUser(ctx, userID, filter, limit)
	if err != nil {
		return nil, lessons.Internal(op, err)
	}
	if out == nil {
		out = []lessons.CourseProgress{}
	}
	return out, nil
}

// recordActivity hands the entry to the activity queue; failures never reach
// the caller.
func (s *lessonService) recordActivity(a lessons.Activity) {
	if s.deps.Activity == nil {
		return
	}
	if a.ActivityID == "" {
		a.ActivityID = s.deps.NewID()
	}
	if a.At.IsZero() {
		a.At = s.deps.Now()
	}
	if err := s.deps.Activity.Enqueue(a); err != nil {
		s.log.Warn("activity not recorded", "user_id", a.UserID, "activity_type", a.Type, "error", err)
	}
}

func requireLessonIDs(op, userID, courseID, lessonID string) (string, string, string, error) {
	userID = strings.TrimSpace(userID)
	courseID = strings.TrimSpace(courseID)
	lessonID = strings.TrimSpace(lessonID)
	if userID == "" || courseID == "" || lessonID == "" {
		return "", "", "", lessons.NewError(lessons.KindBadInput, op, "missing user_id, course_id or lesson_id", nil)
	}
	return userID, courseID, lessonID, nil
}

// parsePercent accepts a JSON number or a numeric string and clamps it to
// [0, 100]. nil means not supplied.
func parsePercent(op string, raw any) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	var (
		v  float64
		ok bool
	)
	switch t := raw.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		v, ok = f, err == nil
	default:
		v, ok = toNumber(raw)
	}
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, lessons.NewError(lessons.KindBadProgress, op, fmt.Sprintf("progressPercent %v is not a number", raw), nil)
	}
	v = lessons.ClampPercent(v)
	return &v, nil
}

func parseStatus(op string, raw any) (lessons.ProgressStatus, error) {
	str, _ := raw.(string)
	status, ok := lessons.ParseProgressStatus(str)
	if !ok {
		return "", lessons.NewError(lessons.KindBadStatus, op, fmt.Sprintf("invalid status %v", raw), nil)
	}
	return status, nil
}

func numericScore(raw any) *float64 {
	v, ok := toNumber(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

var aggregateKinds = map[domainagg.ErrorCode]lessons.Kind{
	domainagg.CodeValidation: lessons.KindBadInput,
	domainagg.CodeNotFound:   lessons.KindCourseNotFound,
	domainagg.CodeConflict:   lessons.KindConflict,
}

func fromAggregateError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind, ok := aggregateKinds[domainagg.CodeOf(err)]
	if !ok {
		return lessons.Internal(op, err)
	}
	return lessons.NewError(kind, op, err.Error(), err)
}

func startSpan(ctx context.Context, op, courseID, lessonID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, op)
	span.SetAttributes(attribute.String("course.id", courseID))
	if lessonID != "" {
		span.SetAttributes(attribute.String("lesson.id", lessonID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(lessons.KindOf(err)))
	}
	span.End()
}
