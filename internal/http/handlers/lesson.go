package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-lessons/internal/http/response"
	"github.com/yungbote/neurobridge-lessons/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-lessons/internal/services"
)

type LessonHandler struct {
	svc services.LessonService
}

func NewLessonHandler(svc services.LessonService) *LessonHandler {
	return &LessonHandler{svc: svc}
}

type progressRequest struct {
	Status          any `json:"status"`
	ProgressPercent any `json:"progressPercent"`
	Score           any `json:"score"`
}

type notesRequest struct {
	Content string `json:"content" binding:"max=20000"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// GET /api/courses/:courseId/lessons/:lessonId
func (h *LessonHandler) GetLesson(c *gin.Context) {
	detail, err := h.svc.GetLesson(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("courseId"), c.Param("lessonId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// PUT /api/courses/:courseId/lessons/:lessonId/progress
func (h *LessonHandler) SetProgress(c *gin.Context) {
	var req progressRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.SetProgress(c.Request.Context(), services.SetProgressInput{
		UserID:          ctxutil.UserID(c.Request.Context()),
		CourseID:        c.Param("courseId"),
		LessonID:        c.Param("lessonId"),
		Status:          req.Status,
		ProgressPercent: req.ProgressPercent,
		Score:           req.Score,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /api/courses/:courseId/lessons/:lessonId/notes
func (h *LessonHandler) SetNotes(c *gin.Context) {
	var req notesRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.SetNotes(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("courseId"), c.Param("lessonId"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/courses/:courseId/lessons/:lessonId/chat
func (h *LessonHandler) PostChat(c *gin.Context) {
	var req chatRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.PostChat(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("courseId"), c.Param("lessonId"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondAccepted(c, out)
}

// GET /api/courses/:courseId/lessons/:lessonId/chat?limit=
func (h *LessonHandler) ListChat(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.ListChat(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("courseId"), c.Param("lessonId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/courses/:courseId/progress
func (h *LessonHandler) CourseProgress(c *gin.Context) {
	out, err := h.svc.CourseProgress(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("courseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/me/courses?status=&limit=
func (h *LessonHandler) ListCourses(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.ListCourses(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Query("status"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": out})
}

// bindOptionalJSON treats an empty body as {}.
func bindOptionalJSON(c *gin.Context, out any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badInput("invalid request body: " + err.Error())
	}
	return nil
}

func queryLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badInput("limit must be a non-negative integer")
	}
	return n, nil
}
