package app

import (
	"github.com/yungbote/neurobridge-lessons/internal/http"
	httpH "github.com/yungbote/neurobridge-lessons/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-lessons/internal/http/middleware"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Lesson *httpH.LessonHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Lesson: httpH.NewLessonHandler(services.Lesson),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.AuthUserHeader)}
}

func routerConfig(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) http.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthMiddleware: middleware.Auth,
		LessonHandler:  handlers.Lesson,
		HealthHandler:  handlers.Health,
	}
}
