package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-lessons/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-lessons/internal/http/middleware"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	LessonHandler  *httpH.LessonHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))

	userHeader := httpMW.DefaultUserHeader
	if cfg.AuthMiddleware != nil {
		userHeader = cfg.AuthMiddleware.Header()
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins, userHeader))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Lessons
		if cfg.LessonHandler != nil {
			lesson := protected.Group("/courses/:courseId/lessons/:lessonId")
			lesson.GET("", cfg.LessonHandler.GetLesson)
			lesson.PUT("/progress", cfg.LessonHandler.SetProgress)
			lesson.PUT("/notes", cfg.LessonHandler.SetNotes)
			lesson.POST("/chat", cfg.LessonHandler.PostChat)
			lesson.GET("/chat", cfg.LessonHandler.ListChat)

			protected.GET("/courses/:courseId/progress", cfg.LessonHandler.CourseProgress)
			protected.GET("/me/courses", cfg.LessonHandler.ListCourses)
		}
	}

	return r
}
